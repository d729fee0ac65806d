package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mberube/schoolplan/pkg/model"
	"github.com/mberube/schoolplan/pkg/sat"
)

// Runs the full pipeline on one input across a list of size bands and
// writes a CSV comparing session counts, statuses and wall time. Wider
// bands should never need more sessions than narrower ones; this is the
// operational check for that.

type benchmarkResult struct {
	Band             model.SizeBand
	Strategy         model.Strategy
	Status           sat.Status
	Sessions         int
	PreferredMatches int
	StageA           time.Duration
	StageB           time.Duration
}

func main() {
	filePathPtr := flag.String("file", "", "Path to the input JSON file")
	bandsPtr := flag.String("bands", "15-20,20-25,25-30", "Comma-separated size bands to compare, as min-max pairs")
	strategyPtr := flag.String("strategy", string(model.StrategyMinimizeSessions), "Session-count strategy used for every run")
	budgetPtr := flag.Duration("budget", 2*time.Minute, "Wall-clock budget per solve stage")
	gapPtr := flag.Float64("gap", 0.1, "Relative objective-gap tolerance")
	outFilePathPtr := flag.String("out", "benchmark.csv", "Path to the CSV output file")
	flag.Parse()

	if *filePathPtr == "" {
		log.Fatal("an input file must be specified")
	}
	bands, err := parseBands(*bandsPtr)
	if err != nil {
		log.Fatal(err)
	}
	strategy, err := model.ParseStrategy(*strategyPtr)
	if err != nil {
		log.Fatal(err)
	}

	input, err := model.InputFromJson(*filePathPtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	results := make([]benchmarkResult, 0, len(bands))
	for _, band := range bands {
		fmt.Printf("solving band %v\n", band)
		scheduler := model.NewScheduler(model.Config{
			Band:        band,
			Strategy:    strategy,
			Mixing:      model.MixAcrossPrograms,
			Budget:      *budgetPtr,
			RelativeGap: *gapPtr,
			WarmStart:   true,
		})

		timetable, err := scheduler.Schedule(input)
		if err != nil {
			log.Fatalf("band %v failed: %v", band, err)
		}
		results = append(results, benchmarkResult{
			Band:             band,
			Strategy:         strategy,
			Status:           timetable.Status,
			Sessions:         len(timetable.Sessions),
			PreferredMatches: timetable.PreferredMatches,
			StageA:           timetable.StageA.Elapsed,
			StageB:           timetable.StageB.Elapsed,
		})
	}

	if err := writeCsv(results, *outFilePathPtr); err != nil {
		log.Fatalf("an error occurred while writing the csv: %v", err)
	}
}

func parseBands(value string) ([]model.SizeBand, error) {
	bands := make([]model.SizeBand, 0)
	for _, part := range strings.Split(value, ",") {
		bounds := strings.Split(strings.TrimSpace(part), "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid band %q", part)
		}
		minSize, minErr := strconv.Atoi(bounds[0])
		maxSize, maxErr := strconv.Atoi(bounds[1])
		if minErr != nil || maxErr != nil || minSize < 1 || maxSize < minSize {
			return nil, fmt.Errorf("invalid band %q", part)
		}
		bands = append(bands, model.SizeBand{Min: minSize, Max: maxSize})
	}
	return bands, nil
}

func writeCsv(results []benchmarkResult, outFile string) error {
	file, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{
		"band", "strategy", "status", "sessions", "preferred_matches", "stage_a_ms", "stage_b_ms",
	}); err != nil {
		return err
	}
	for _, result := range results {
		record := []string{
			result.Band.String(),
			string(result.Strategy),
			result.Status.String(),
			strconv.Itoa(result.Sessions),
			strconv.Itoa(result.PreferredMatches),
			strconv.FormatInt(result.StageA.Milliseconds(), 10),
			strconv.FormatInt(result.StageB.Milliseconds(), 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
