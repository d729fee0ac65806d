package model

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Strategy steers the Stage A objective and the option estimates.
type Strategy string

const (
	// StrategyMinimizeSessions packs students into as few sessions as the
	// size bounds allow.
	StrategyMinimizeSessions Strategy = "minimize-sessions"
	// StrategyBalance trades session count against schedule spread.
	StrategyBalance Strategy = "balance"
	// StrategyRoomAffinity leaves slack for Stage B to land teachers in
	// their preferred rooms.
	StrategyRoomAffinity Strategy = "room-affinity"
)

// Strategies lists the variants in presentation order.
func Strategies() []Strategy {
	return []Strategy{StrategyMinimizeSessions, StrategyBalance, StrategyRoomAffinity}
}

// sessionWeight is the objective weight of one active session under the
// strategy. Larger weights press harder on the session count.
func (s Strategy) sessionWeight() int {
	switch s {
	case StrategyMinimizeSessions:
		return 1000
	case StrategyBalance:
		return 100
	default:
		return 10
	}
}

// estimateAdjustment skews the closed-form session estimate: packing
// strategies expect fewer sessions, affinity-friendly ones expect more.
func (s Strategy) estimateAdjustment() float64 {
	switch s {
	case StrategyMinimizeSessions:
		return 0.9
	case StrategyBalance:
		return 1.0
	default:
		return 1.1
	}
}

// MixingVariant decides which roster pool group formation splits.
type MixingVariant string

const (
	// MixByProgram splits each program roster separately.
	MixByProgram MixingVariant = "by-program"
	// MixAcrossPrograms pools every student before splitting.
	MixAcrossPrograms MixingVariant = "mixed"
	// MixBalanced interleaves programs round-robin before splitting, so
	// every group sees a similar program blend.
	MixBalanced MixingVariant = "balanced"
)

func MixingVariants() []MixingVariant {
	return []MixingVariant{MixByProgram, MixAcrossPrograms, MixBalanced}
}

// SizeBand bounds the attendee count of every formed session.
type SizeBand struct {
	Min int
	Max int
}

func (b SizeBand) String() string {
	return fmt.Sprintf("%v-%v", b.Min, b.Max)
}

func (b SizeBand) average() float64 {
	return float64(b.Min+b.Max) / 2
}

// DefaultBands are the size bands offered when the caller has no
// preference of its own.
func DefaultBands() []SizeBand {
	return []SizeBand{{Min: 15, Max: 20}, {Min: 20, Max: 25}, {Min: 25, Max: 30}}
}

// GroupingOption is one candidate configuration presented before any
// solving happens, with a cheap closed-form session estimate.
type GroupingOption struct {
	Band              SizeBand
	Strategy          Strategy
	Mixing            MixingVariant
	EstimatedSessions int
}

// GroupingOptions enumerates band x strategy x mixing combinations for a
// roster. The estimate divides the total required course instances
// across the roster by the band's average size and skews the quotient
// by the strategy.
func GroupingOptions(students []Student, programs []Program, bands []SizeBand) []GroupingOption {
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	instances := totalInstances(students, programs)
	options := make([]GroupingOption, 0, len(bands)*len(Strategies())*len(MixingVariants()))
	for _, band := range bands {
		for _, strategy := range Strategies() {
			for _, mixing := range MixingVariants() {
				estimate := math.Round(float64(instances)/band.average()) * strategy.estimateAdjustment()
				options = append(options, GroupingOption{
					Band:              band,
					Strategy:          strategy,
					Mixing:            mixing,
					EstimatedSessions: int(math.Round(estimate)),
				})
			}
		}
	}
	return options
}

// totalInstances sums every student's required course instances under
// their program's curriculum.
func totalInstances(students []Student, programs []Program) int {
	required := lo.SliceToMap(programs, func(p Program) (string, int) {
		return p.Name, p.TotalInstances()
	})
	return lo.SumBy(students, func(s Student) int {
		return required[s.Program]
	})
}

// ParseStrategy maps a flag value to its strategy.
func ParseStrategy(value string) (Strategy, error) {
	strategy, ok := lo.Find(Strategies(), func(s Strategy) bool {
		return string(s) == value
	})
	if !ok {
		return "", fmt.Errorf("unknown strategy %q", value)
	}
	return strategy, nil
}

// ParseMixingVariant maps a flag value to its mixing variant.
func ParseMixingVariant(value string) (MixingVariant, error) {
	variant, ok := lo.Find(MixingVariants(), func(v MixingVariant) bool {
		return string(v) == value
	})
	if !ok {
		return "", fmt.Errorf("unknown mixing variant %q", value)
	}
	return variant, nil
}
