package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/arcsched/timetabler/pkg/timetable"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exit codes follow the SAT-solver convention: 10 solved, 20 infeasible,
// 15 when a produced schedule fails verification, 30 on budget expiry.
const (
	exitSolved       = 10
	exitVerifyFailed = 15
	exitInfeasible   = 20
	exitTimeout      = 30
)

func main() {
	filePathPtr := flag.String("file", "", "Path to the input file")
	outFilePathPtr := flag.String("out", "", "Path to the file where the schedule rows will be written; if empty, they'll be written into the Standard Output")
	backtracksPtr := flag.Int64("backtracks", -1, "Maximum backtracks for the whole run, shared across components; negative means unlimited")
	timeoutPtr := flag.Duration("timeout", 0, "Wall-clock budget for the whole run; 0 means none")
	workersPtr := flag.Int("workers", 1, "Parallel workers for independent components")
	improvePtr := flag.Int("improve", 100, "Local-search iterations after an initial solution; 0 disables improvement")
	gapWeightPtr := flag.Float64("gap-weight", 1.0, "Weight of instructor idle gaps in the cost")
	balanceWeightPtr := flag.Float64("balance-weight", 0.5, "Weight of room-load imbalance in the cost")
	compactWeightPtr := flag.Float64("compact-weight", 1.0, "Weight of group schedule spread in the cost")
	verbosePtr := flag.Bool("verbose", false, "Log search decisions")
	flag.Parse()

	logger := newLogger(*verbosePtr)
	defer logger.Sync()
	logger = logger.With(zap.String("run", uuid.NewString()))

	if *filePathPtr == "" {
		logger.Fatal("an input file must be specified")
	}

	input, err := timetable.InputFromJSON(*filePathPtr)
	if err != nil {
		logger.Fatal("cannot parse input file", zap.Error(err))
	}

	timetabler := timetable.New(timetable.Config{
		MaxBacktracks:     *backtracksPtr,
		Timeout:           *timeoutPtr,
		Workers:           *workersPtr,
		ImproveIterations: *improvePtr,
		Weights: timetable.Weights{
			IdleGaps:    *gapWeightPtr,
			RoomBalance: *balanceWeightPtr,
			Compactness: *compactWeightPtr,
		},
		Logger: logger,
	})

	started := time.Now()
	outcome, err := timetabler.Schedule(input)
	if err != nil {
		logger.Fatal("an error occurred during timetable construction", zap.Error(err))
	}
	logger.Info("scheduling finished",
		zap.Stringer("status", outcome.Status),
		zap.Int64("backtracks", outcome.Backtracks),
		zap.Duration("elapsed", time.Since(started)),
	)

	switch outcome.Status {
	case timetable.StatusInfeasible:
		logger.Warn("no feasible timetable exists",
			zap.String("reason", outcome.Conflict.Reason),
			zap.Uint64s("sessions", outcome.Conflict.Sessions),
		)
		os.Exit(exitInfeasible)

	case timetable.StatusTimeout:
		logger.Warn("search budget exhausted",
			zap.Int("placedSessions", len(outcome.Partial)),
		)
		writeRows(logger, timetable.Project(outcome.Partial, input), *outFilePathPtr)
		os.Exit(exitTimeout)
	}

	if !timetabler.Verify(outcome.Assignment, input) {
		logger.Error("produced timetable failed verification")
		os.Exit(exitVerifyFailed)
	}

	logger.Info("timetable verified", zap.Float64("cost", outcome.Cost))
	writeRows(logger, outcome.Rows, *outFilePathPtr)
	os.Exit(exitSolved)
}

func writeRows(logger *zap.Logger, rows []timetable.Row, outFile string) {
	rowsJson, err := json.Marshal(rows)
	if err != nil {
		logger.Fatal("an error occurred while building output json", zap.Error(err))
	}

	if outFile == "" {
		fmt.Println(string(rowsJson))
		return
	}
	if err := os.WriteFile(outFile, rowsJson, 0666); err != nil {
		logger.Fatal("an error occurred while writing to the output file", zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
