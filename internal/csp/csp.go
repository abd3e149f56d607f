package csp

import "time"

// Value is an opaque candidate value of a variable. Its numeric order is the
// deterministic tie-break order used during search, so callers encoding tuples
// into values control the lexicographic preference.
type Value int64

// Unassigned marks a variable without a value in a partial assignment.
const Unassigned Value = -1

type ConstraintKind int

const (
	ResourceExclusion ConstraintKind = iota
	CapacityBound
	QualificationBound
)

func (k ConstraintKind) String() string {
	switch k {
	case ResourceExclusion:
		return "resource-exclusion"
	case CapacityBound:
		return "capacity-bound"
	case QualificationBound:
		return "qualification-bound"
	default:
		return "unknown"
	}
}

// Constraint is a binary relation between two variables. Unary bounds
// (capacity, qualification) are folded into the initial domains by the caller;
// they still dispatch through this interface when kept for auditing.
type Constraint interface {
	Kind() ConstraintKind
	// Scope returns the indices of the two constrained variables.
	Scope() (x, y int)
	// Allows reports whether value v on x is consistent with value w on y.
	Allows(v, w Value) bool
}

// Problem is a finite-domain constraint problem over variables 0..len(Domains)-1.
type Problem struct {
	Domains     [][]Value
	Constraints []Constraint

	// Score ranks candidate values of a variable: lower scores are tried
	// first, ties fall back to numeric value order. Nil means numeric order.
	Score func(variable int, v Value) int
}

type Status int

const (
	Solved Status = iota
	Infeasible
	Timeout
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Infeasible:
		return "infeasible"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Budget bounds the search effort. A negative MaxBacktracks means unlimited;
// a zero MaxDuration means no wall-clock limit.
type Budget struct {
	MaxBacktracks int64
	MaxDuration   time.Duration
}

// Unbounded places no limit on the search.
func Unbounded() Budget {
	return Budget{MaxBacktracks: -1}
}

type Result struct {
	Status     Status
	Assignment []Value // complete assignment, only when Status is Solved
	Partial    []Value // deepest consistent partial reached, Unassigned marks holes
	Backtracks int64
	// Conflict lists the variables whose domains wiped out most often during
	// a failed search. Best effort, empty when nothing informative was seen.
	Conflict []int
}
