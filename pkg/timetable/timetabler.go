package timetable

import (
	"errors"
	"sync"
	"time"

	"github.com/arcsched/timetabler/internal/csp"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Status int

const (
	StatusSolved Status = iota
	StatusInfeasible
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type ConflictKind int

const (
	// StaticConflict: a session ran out of candidates before any search.
	StaticConflict ConflictKind = iota
	// SearchConflict: exhaustive search proved no solution exists.
	SearchConflict
)

// Conflict is a best-effort explanation of an infeasible outcome.
type Conflict struct {
	Kind     ConflictKind
	Sessions []uint64
	Reason   string
}

type Config struct {
	// MaxBacktracks bounds the whole run, divided evenly across independent
	// components; negative means unlimited.
	MaxBacktracks int64
	// Timeout is the wall-clock budget for the whole run; every component
	// solve shares a single deadline. Zero means none.
	Timeout time.Duration
	// Workers bounds the parallel component solves.
	Workers int
	// ImproveIterations bounds the local-search passes after a solve;
	// zero skips improvement.
	ImproveIterations int
	Weights           Weights
	Logger            *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxBacktracks:     -1,
		Workers:           1,
		ImproveIterations: 100,
		Weights:           DefaultWeights(),
	}
}

// Outcome is the result of a scheduling run. Expected infeasibility and
// budget expiry are statuses here, never errors.
type Outcome struct {
	Status     Status
	Assignment Assignment // complete solution, only when Status is StatusSolved
	Partial    Assignment // best-effort placements reached before a timeout
	Cost       float64
	Rows       []Row
	Backtracks int64
	Conflict   *Conflict
}

type Timetabler interface {
	// Schedule validates, compiles and solves the input. Errors are reserved
	// for malformed input; infeasibility comes back in the Outcome.
	Schedule(input Input) (Outcome, error)

	// Verify checks an assignment against every scheduling rule of the input.
	Verify(assignment Assignment, input Input) bool
}

func New(config Config) Timetabler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &cspTimetabler{config: config}
}

type cspTimetabler struct {
	config Config
}

func (timetabler *cspTimetabler) Schedule(input Input) (Outcome, error) {
	logger := timetabler.config.Logger

	if err := input.Validate(); err != nil {
		return Outcome{}, err
	}

	model, err := compile(input)
	if err != nil {
		return staticOutcome(err)
	}
	if err := checkSlotRoomSupply(model); err != nil {
		return staticOutcome(err)
	}

	parts := components(model)
	logger.Info("model compiled",
		zap.Int("sessions", len(model.sessions)),
		zap.Int("constraints", len(model.problem.Constraints)),
		zap.Int("components", len(parts)),
	)

	//** Independent components solve in parallel, each on private state,
	//** all drawing on one run-wide budget
	results := make([]csp.Result, len(parts))
	share := splitBacktracks(timetabler.config.MaxBacktracks, len(parts))
	var deadline time.Time
	if timetabler.config.Timeout > 0 {
		deadline = time.Now().Add(timetabler.config.Timeout)
	}
	semaphore := make(chan struct{}, timetabler.config.Workers)
	var waitGroup sync.WaitGroup

	for index, part := range parts {
		waitGroup.Add(1)
		go func(index int, part []int) {
			defer waitGroup.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			solver := csp.NewSolver(componentBudget(share, deadline), logger)
			results[index] = solver.Solve(subProblem(model, part))
		}(index, part)
	}
	waitGroup.Wait()

	return timetabler.merge(input, model, parts, results)
}

func (timetabler *cspTimetabler) merge(input Input, model *compiledModel, parts [][]int, results []csp.Result) (Outcome, error) {
	var backtracks int64
	for _, result := range results {
		backtracks += result.Backtracks
	}

	//** An infeasible component sinks the whole instance
	for index, result := range results {
		if result.Status != csp.Infeasible {
			continue
		}
		conflictSessions := lo.Map(result.Conflict, func(variable int, _ int) uint64 {
			return model.sessions[parts[index][variable]].Id
		})
		return Outcome{
			Status:     StatusInfeasible,
			Backtracks: backtracks,
			Conflict: &Conflict{
				Kind:     SearchConflict,
				Sessions: conflictSessions,
				Reason:   "search exhausted without a complete assignment",
			},
		}, nil
	}

	//** A timed-out component degrades the run to a best-effort partial
	if lo.SomeBy(results, func(result csp.Result) bool { return result.Status == csp.Timeout }) {
		partial := Assignment{}
		for index, result := range results {
			source := result.Partial
			if result.Status == csp.Solved {
				source = result.Assignment
			}
			for variable, value := range source {
				if value != csp.Unassigned {
					partial[model.sessions[parts[index][variable]].Id] = model.decode(value)
				}
			}
		}
		return Outcome{Status: StatusTimeout, Partial: partial, Backtracks: backtracks}, nil
	}

	assignment := Assignment{}
	for index, result := range results {
		for variable, value := range result.Assignment {
			assignment[model.sessions[parts[index][variable]].Id] = model.decode(value)
		}
	}

	objective := newObjective(timetabler.config.Weights, input)
	cost := objective.Cost(assignment)
	if timetabler.config.ImproveIterations > 0 {
		assignment, cost = objective.Improve(assignment, timetabler.config.ImproveIterations)
	}

	timetabler.config.Logger.Info("schedule solved",
		zap.Int64("backtracks", backtracks),
		zap.Float64("cost", cost),
	)

	return Outcome{
		Status:     StatusSolved,
		Assignment: assignment,
		Cost:       cost,
		Rows:       Project(assignment, input),
		Backtracks: backtracks,
	}, nil
}

func (timetabler *cspTimetabler) Verify(assignment Assignment, input Input) bool {
	return assignment.Verify(input)
}

// splitBacktracks divides the run's backtrack budget evenly across
// components. Unlimited and zero budgets pass through unchanged.
func splitBacktracks(maxBacktracks int64, components int) int64 {
	if maxBacktracks <= 0 || components <= 1 {
		return maxBacktracks
	}
	return maxBacktracks / int64(components)
}

// componentBudget derives one component's budget at launch time: its share of
// the backtracks plus whatever remains until the shared deadline. A component
// launched past the deadline gets a budget that expires immediately.
func componentBudget(share int64, deadline time.Time) csp.Budget {
	budget := csp.Budget{MaxBacktracks: share}
	if deadline.IsZero() {
		return budget
	}
	if remaining := time.Until(deadline); remaining > 0 {
		budget.MaxDuration = remaining
	} else {
		budget.MaxDuration = time.Nanosecond
	}
	return budget
}

func staticOutcome(err error) (Outcome, error) {
	var infeasible ModelInfeasibleError
	if errors.As(err, &infeasible) {
		return Outcome{
			Status: StatusInfeasible,
			Conflict: &Conflict{
				Kind:     StaticConflict,
				Sessions: []uint64{infeasible.Session},
				Reason:   infeasible.Reason,
			},
		}, nil
	}
	return Outcome{}, err
}
