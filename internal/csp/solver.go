package csp

import (
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Solver searches a Problem for a complete consistent assignment.
type Solver interface {
	Solve(problem Problem) Result
}

func NewSolver(budget Budget, logger *zap.Logger) Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backtrackingSolver{
		budget: budget,
		logger: logger,
	}
}

// backtrackingSolver runs chronological backtracking with forward checking,
// most-constrained-first variable selection and an explicit stack of choice
// points so a budget expiry can stop the search at any depth.
type backtrackingSolver struct {
	budget Budget
	logger *zap.Logger
}

// arc is one direction of a binary constraint as seen from a variable.
type arc struct {
	constraint Constraint
	other      int
	flipped    bool // variable is the y of the constraint's scope
}

func (a arc) allows(v, w Value) bool {
	if a.flipped {
		return a.constraint.Allows(w, v)
	}
	return a.constraint.Allows(v, w)
}

type searchState struct {
	domains  [][]Value
	values   []Value
	assigned []bool
	left     int
}

// choicePoint records a variable, its untried values and the domain snapshot
// taken before the variable was first assigned.
type choicePoint struct {
	variable int
	pending  []Value
	snapshot [][]Value
}

func (solver *backtrackingSolver) Solve(problem Problem) Result {
	total := len(problem.Domains)
	state := &searchState{
		domains:  make([][]Value, total),
		values:   make([]Value, total),
		assigned: make([]bool, total),
		left:     total,
	}
	for i, domain := range problem.Domains {
		state.domains[i] = slices.Clone(domain)
		state.values[i] = Unassigned
	}

	arcs := buildArcs(problem.Constraints, total)
	wipeouts := make([]int, total)

	var deadline time.Time
	if solver.budget.MaxDuration > 0 {
		deadline = time.Now().Add(solver.budget.MaxDuration)
	}

	//** Establish pairwise consistency before any branching
	if !propagateToFixpoint(state, arcs, wipeouts) {
		return Result{Status: Infeasible, Conflict: topWipeouts(wipeouts)}
	}

	var backtracks int64
	best := slices.Clone(state.values)
	bestAssigned := 0
	stack := make([]choicePoint, 0, total)

	timeout := func() Result {
		return Result{
			Status:     Timeout,
			Partial:    slices.Clone(best),
			Backtracks: backtracks,
			Conflict:   topWipeouts(wipeouts),
		}
	}

	for {
		if state.left == 0 {
			return Result{
				Status:     Solved,
				Assignment: slices.Clone(state.values),
				Partial:    slices.Clone(state.values),
				Backtracks: backtracks,
			}
		}

		if solver.overBudget(backtracks, deadline) {
			return timeout()
		}

		variable := selectVariable(state)
		stack = append(stack, choicePoint{
			variable: variable,
			pending:  solver.orderValues(problem, state, variable),
			snapshot: slices.Clone(state.domains),
		})

		for {
			top := &stack[len(stack)-1]
			progressed := false

			for len(top.pending) > 0 {
				value := top.pending[0]
				top.pending = top.pending[1:]

				restoreDomains(state, top.snapshot)
				assign(state, top.variable, value)
				if forwardCheck(state, arcs, top.variable, value, wipeouts) {
					progressed = true
					break
				}

				unassign(state, top.variable)
				backtracks++
				solver.logger.Debug("value rejected",
					zap.Int("variable", top.variable),
					zap.Int64("value", int64(value)),
					zap.Int64("backtracks", backtracks),
				)
				if solver.overBudget(backtracks, deadline) {
					return timeout()
				}
			}

			if progressed {
				if assignedCount := total - state.left; assignedCount > bestAssigned {
					bestAssigned = assignedCount
					copy(best, state.values)
				}
				break
			}

			//** Choice point exhausted: undo and climb
			restoreDomains(state, top.snapshot)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return Result{
					Status:     Infeasible,
					Backtracks: backtracks,
					Conflict:   topWipeouts(wipeouts),
				}
			}

			parent := &stack[len(stack)-1]
			unassign(state, parent.variable)
			backtracks++
			solver.logger.Debug("backtrack",
				zap.Int("variable", parent.variable),
				zap.Int("depth", len(stack)),
				zap.Int64("backtracks", backtracks),
			)
			if solver.overBudget(backtracks, deadline) {
				return timeout()
			}
		}
	}
}

func (solver *backtrackingSolver) overBudget(backtracks int64, deadline time.Time) bool {
	if solver.budget.MaxBacktracks >= 0 && backtracks > solver.budget.MaxBacktracks {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

// selectVariable picks the unassigned variable with the smallest remaining
// domain, smallest index on ties, so the search fails as early as possible.
func selectVariable(state *searchState) int {
	variable := -1
	for i, done := range state.assigned {
		if done {
			continue
		}
		if variable < 0 || len(state.domains[i]) < len(state.domains[variable]) {
			variable = i
		}
	}
	return variable
}

func (solver *backtrackingSolver) orderValues(problem Problem, state *searchState, variable int) []Value {
	values := slices.Clone(state.domains[variable])
	if problem.Score == nil {
		slices.Sort(values)
		return values
	}
	sort.SliceStable(values, func(i, j int) bool {
		si, sj := problem.Score(variable, values[i]), problem.Score(variable, values[j])
		if si != sj {
			return si < sj
		}
		return values[i] < values[j]
	})
	return values
}

func buildArcs(constraints []Constraint, total int) [][]arc {
	arcs := make([][]arc, total)
	for _, constraint := range constraints {
		x, y := constraint.Scope()
		arcs[x] = append(arcs[x], arc{constraint: constraint, other: y})
		arcs[y] = append(arcs[y], arc{constraint: constraint, other: x, flipped: true})
	}
	return arcs
}

// propagateToFixpoint revises every arc until no domain changes, pruning
// values with no support on the other side. Returns false on a wiped domain.
func propagateToFixpoint(state *searchState, arcs [][]arc, wipeouts []int) bool {
	for changed := true; changed; {
		changed = false
		for variable := range arcs {
			for _, a := range arcs[variable] {
				kept := state.domains[variable][:0:0]
				for _, v := range state.domains[variable] {
					supported := false
					for _, w := range state.domains[a.other] {
						if a.allows(v, w) {
							supported = true
							break
						}
					}
					if supported {
						kept = append(kept, v)
					}
				}
				if len(kept) == len(state.domains[variable]) {
					continue
				}
				state.domains[variable] = kept
				changed = true
				if len(kept) == 0 {
					wipeouts[variable]++
					return false
				}
			}
		}
	}
	return true
}

// forwardCheck prunes the domains of unassigned neighbours of the freshly
// assigned variable. Returns false when some neighbour's domain wipes out.
func forwardCheck(state *searchState, arcs [][]arc, variable int, value Value, wipeouts []int) bool {
	for _, a := range arcs[variable] {
		if state.assigned[a.other] {
			continue
		}
		kept := state.domains[a.other][:0:0]
		for _, w := range state.domains[a.other] {
			if a.allows(value, w) {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			wipeouts[a.other]++
			return false
		}
		state.domains[a.other] = kept
	}
	return true
}

func assign(state *searchState, variable int, value Value) {
	state.values[variable] = value
	state.assigned[variable] = true
	state.domains[variable] = []Value{value}
	state.left--
}

func unassign(state *searchState, variable int) {
	state.values[variable] = Unassigned
	state.assigned[variable] = false
	state.left++
}

// restoreDomains rolls the domains back to a choice-point snapshot. Inner
// slices are never mutated in place, so sharing them with the snapshot is safe.
func restoreDomains(state *searchState, snapshot [][]Value) {
	copy(state.domains, snapshot)
}

func topWipeouts(wipeouts []int) []int {
	max := 0
	for _, count := range wipeouts {
		if count > max {
			max = count
		}
	}
	if max == 0 {
		return nil
	}
	conflict := make([]int, 0, 1)
	for variable, count := range wipeouts {
		if count == max {
			conflict = append(conflict, variable)
		}
	}
	return conflict
}
