package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mberube/schoolplan/pkg/model"
	"github.com/mberube/schoolplan/pkg/sat"
)

func main() {
	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input JSON file (students, teachers, classrooms, programs)")
	listOptionsPtr := flag.Bool("options", false, "Print the grouping-option table for the input and exit without solving")
	minSizePtr := flag.Int("min", 20, "Minimum session size, where 20 is the default")
	maxSizePtr := flag.Int("max", 25, "Maximum session size, where 25 is the default")
	strategyPtr := flag.String("strategy", string(model.StrategyBalance), `Session-count strategy. Allowed values are:
- "minimize-sessions" (pack students into as few sessions as possible),
- "balance" (trade session count against spread) and
- "room-affinity" (leave slack for preferred-room placement), where "balance" is the default`)
	mixingPtr := flag.String("mix", string(model.MixByProgram), `Program-mixing variant. Allowed values are:
- "by-program" (rigid per-program groups planned as units),
- "mixed" (students share sessions across programs) and
- "balanced" (cross-program sessions with an even program blend), where "by-program" is the default`)
	periodsPtr := flag.Int("periods", model.DefaultPeriodsPerDay, "Teaching periods per day")
	budgetPtr := flag.Duration("budget", 2*time.Minute, "Wall-clock budget per solve stage, where 2m is the default")
	gapPtr := flag.Float64("gap", 0, "Relative objective-gap tolerance (0 demands proven optimality)")
	warmStartPtr := flag.Bool("warmstart", true, "Seed the session solve with a greedy first-fit hint")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	verbosePtr := flag.Bool("verbose", false, "Log stage diagnostics to stderr")
	flag.Parse()

	// Validate arguments
	if *filePathPtr == "" {
		log.Fatal("an input file must be specified")
	} else if *minSizePtr < 1 || *maxSizePtr < *minSizePtr {
		log.Fatalf("invalid size band %v-%v", *minSizePtr, *maxSizePtr)
	} else if *gapPtr < 0 || *gapPtr > 1 {
		log.Fatalf("gap must lie between 0 and 1: %v", *gapPtr)
	}
	strategy, err := model.ParseStrategy(*strategyPtr)
	if err != nil {
		log.Fatal(err)
	}
	mixing, err := model.ParseMixingVariant(*mixingPtr)
	if err != nil {
		log.Fatal(err)
	}

	// Extract input
	input, err := model.InputFromJson(*filePathPtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	band := model.SizeBand{Min: *minSizePtr, Max: *maxSizePtr}
	if *listOptionsPtr {
		printOptionTable(input, band)
		return
	}

	logger := zap.NewNop()
	if *verbosePtr {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("cannot initialize logger: %v", err)
		}
	}

	// Solve
	scheduler := model.NewScheduler(model.Config{
		Logger:        logger,
		Band:          band,
		Strategy:      strategy,
		Mixing:        mixing,
		PeriodsPerDay: *periodsPtr,
		Budget:        *budgetPtr,
		RelativeGap:   *gapPtr,
		WarmStart:     *warmStartPtr,
	})
	timetable, err := scheduler.Schedule(input)
	if err != nil {
		log.Fatalf("an error occurred during scheduling: %v", err)
	}

	fmt.Printf("Status: %v\n", timetable.Status)
	fmt.Printf("Stage A: %v variables, %v constraints, %v\n",
		timetable.StageA.Variables, timetable.StageA.Constraints, timetable.StageA.Elapsed)
	fmt.Printf("Stage B: %v variables, %v constraints, %v\n",
		timetable.StageB.Variables, timetable.StageB.Constraints, timetable.StageB.Elapsed)

	if timetable.Status != sat.StatusOptimal && timetable.Status != sat.StatusFeasible {
		os.Exit(20)
	}

	// Verify the result before emitting it
	if !model.VerifyResources(timetable.Sessions, input.Teachers, input.Classrooms) {
		os.Exit(15)
	}

	writeOutput(timetable, *outFilePathPtr)
	os.Exit(10)
}

type sessionOutput struct {
	Id       int    `json:"id"`
	Course   string `json:"course"`
	Day      int    `json:"day"`
	Period   int    `json:"period"`
	Teacher  int    `json:"teacher"`
	Room     int    `json:"room"`
	Students []int  `json:"students"`
}

func writeOutput(timetable model.Timetable, outFile string) {
	sessions := slices.Clone(timetable.Sessions)
	slices.SortFunc(sessions, func(a, b model.CourseSession) int {
		if a.Slot.Day != b.Slot.Day {
			return a.Slot.Day - b.Slot.Day
		}
		if a.Slot.Period != b.Slot.Period {
			return a.Slot.Period - b.Slot.Period
		}
		return a.Id - b.Id
	})

	output := lo.Map(sessions, func(s model.CourseSession, _ int) sessionOutput {
		return sessionOutput{
			Id:       s.Id,
			Course:   s.Course,
			Day:      s.Slot.Day,
			Period:   s.Slot.Period,
			Teacher:  s.Teacher,
			Room:     s.Room,
			Students: s.Students,
		}
	})

	outputJson, err := json.Marshal(output)
	if err != nil {
		log.Fatalf("an error occurred while building output json: %v", err)
	}

	if outFile == "" {
		fmt.Println(string(outputJson))
	} else if err := os.WriteFile(outFile, outputJson, 0666); err != nil {
		log.Fatalf("an error occurred while writing to the output file: %v", err)
	}
}

func printOptionTable(input model.Input, band model.SizeBand) {
	options := model.GroupingOptions(input.Students, input.Programs, []model.SizeBand{band})
	fmt.Printf("%-10v %-20v %-12v %v\n", "band", "strategy", "mixing", "estimated sessions")
	for _, option := range options {
		fmt.Printf("%-10v %-20v %-12v %v\n",
			option.Band, option.Strategy, option.Mixing, option.EstimatedSessions)
	}
}
