package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// SplitRoster partitions a roster into numGroups near-equal slices,
// preserving order. The first len(roster) mod numGroups slices hold one
// extra member.
func SplitRoster(roster []int, numGroups int) ([][]int, error) {
	if numGroups < 1 {
		return nil, fmt.Errorf("cannot split %v students into %v groups", len(roster), numGroups)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("cannot split an empty roster")
	}

	base := len(roster) / numGroups
	extra := len(roster) % numGroups
	groups := make([][]int, 0, numGroups)
	cursor := 0
	for i := 0; i < numGroups; i++ {
		size := base
		if i < extra {
			size++
		}
		groups = append(groups, roster[cursor:cursor+size])
		cursor += size
	}
	return groups, nil
}

// FormGroups partitions the student body into the fewest near-equal
// groups that fit under the band ceiling. The mixing variant picks the
// pools: one pool per program, a single combined pool, or a combined
// pool interleaved round-robin across programs. Students are stamped
// with their group id.
func FormGroups(students []Student, band SizeBand, variant MixingVariant) ([]Group, error) {
	if len(students) == 0 {
		return nil, fmt.Errorf("cannot form groups from an empty student body")
	}

	pools, err := buildPools(students, variant)
	if err != nil {
		return nil, err
	}

	byId := lo.SliceToMap(lo.Range(len(students)), func(i int) (int, int) {
		return students[i].Id, i
	})

	groups := make([]Group, 0)
	for _, pool := range pools {
		// Fewest groups that keep every group at or under the band
		// ceiling. Whether they also reach the floor is Stage A's call.
		numGroups := int(math.Ceil(float64(len(pool.members)) / float64(band.Max)))
		if numGroups < 1 {
			numGroups = 1
		}
		rosters, err := SplitRoster(pool.members, numGroups)
		if err != nil {
			return nil, err
		}
		for _, roster := range rosters {
			group := Group{
				Id:       len(groups),
				Name:     fmt.Sprintf("%v-%v", pool.name, len(groups)),
				Program:  pool.program,
				Students: roster,
				Schedule: make(map[TimeSlot]string),
			}
			for _, studentId := range roster {
				students[byId[studentId]].Group = group.Id
			}
			groups = append(groups, group)
		}
	}
	return groups, nil
}

type rosterPool struct {
	name    string
	program string // empty for cross-program pools
	members []int
}

func buildPools(students []Student, variant MixingVariant) ([]rosterPool, error) {
	switch variant {
	case MixByProgram:
		byProgram := lo.GroupBy(students, func(s Student) string { return s.Program })
		pools := make([]rosterPool, 0, len(byProgram))
		for _, program := range sortedKeys(byProgram) {
			members := lo.Map(byProgram[program], func(s Student, _ int) int { return s.Id })
			pools = append(pools, rosterPool{name: program, program: program, members: members})
		}
		return pools, nil

	case MixAcrossPrograms:
		members := lo.Map(students, func(s Student, _ int) int { return s.Id })
		return []rosterPool{{name: "mixed", members: members}}, nil

	case MixBalanced:
		byProgram := lo.GroupBy(students, func(s Student) string { return s.Program })
		queues := make([][]Student, 0)
		for _, program := range sortedKeys(byProgram) {
			queues = append(queues, byProgram[program])
		}
		members := make([]int, 0, len(students))
		for len(members) < len(students) {
			for i := range queues {
				if len(queues[i]) > 0 {
					members = append(members, queues[i][0].Id)
					queues[i] = queues[i][1:]
				}
			}
		}
		return []rosterPool{{name: "balanced", members: members}}, nil

	default:
		return nil, fmt.Errorf("unknown mixing variant %q", variant)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
