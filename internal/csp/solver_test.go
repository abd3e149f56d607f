package csp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pairConstraint struct {
	x, y    int
	allowed func(v, w Value) bool
}

func (c pairConstraint) Kind() ConstraintKind   { return ResourceExclusion }
func (c pairConstraint) Scope() (int, int)      { return c.x, c.y }
func (c pairConstraint) Allows(v, w Value) bool { return c.allowed(v, w) }

func notEqual(x, y int) Constraint {
	return pairConstraint{x: x, y: y, allowed: func(v, w Value) bool { return v != w }}
}

func TestSolve(t *testing.T) {
	t.Run("two variables with one exclusion", func(t *testing.T) {
		// Arrange
		problem := Problem{
			Domains:     [][]Value{{1, 2}, {1, 2}},
			Constraints: []Constraint{notEqual(0, 1)},
		}
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(problem)

		// Assert
		assert.Equal(t, Solved, result.Status)
		assert.NotEqual(t, result.Assignment[0], result.Assignment[1])
	})

	t.Run("empty problem is trivially solved", func(t *testing.T) {
		// Arrange
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(Problem{})

		// Assert
		assert.Equal(t, Solved, result.Status)
		assert.Empty(t, result.Assignment)
	})

	t.Run("pigeonhole is infeasible", func(t *testing.T) {
		// Arrange: three variables, two values, pairwise distinct
		problem := Problem{
			Domains: [][]Value{{1, 2}, {1, 2}, {1, 2}},
			Constraints: []Constraint{
				notEqual(0, 1),
				notEqual(1, 2),
				notEqual(0, 2),
			},
		}
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(problem)

		// Assert
		assert.Equal(t, Infeasible, result.Status)
		assert.NotEmpty(t, result.Conflict)
	})

	t.Run("initial propagation prunes to a chain solution", func(t *testing.T) {
		// Arrange: singleton at the end of a chain forces every value
		problem := Problem{
			Domains: [][]Value{{1, 2}, {1, 2}, {2}},
			Constraints: []Constraint{
				notEqual(0, 1),
				notEqual(1, 2),
			},
		}
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(problem)

		// Assert
		assert.Equal(t, Solved, result.Status)
		assert.Equal(t, []Value{2, 1, 2}, result.Assignment)
		assert.Zero(t, result.Backtracks)
	})

	t.Run("score steers value ordering", func(t *testing.T) {
		// Arrange: a lone variable where the score inverts numeric order
		problem := Problem{
			Domains: [][]Value{{3, 5}},
			Score:   func(_ int, v Value) int { return -int(v) },
		}
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(problem)

		// Assert
		assert.Equal(t, Solved, result.Status)
		assert.Equal(t, Value(5), result.Assignment[0])
	})
}

func TestSolveBudget(t *testing.T) {
	// Odd cycle with two values: arc-consistent, so proving infeasibility
	// needs at least one backtrack.
	oddCycle := Problem{
		Domains: [][]Value{{1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}},
		Constraints: []Constraint{
			notEqual(0, 1),
			notEqual(1, 2),
			notEqual(2, 3),
			notEqual(3, 4),
			notEqual(4, 0),
		},
	}

	t.Run("zero backtracks reports timeout", func(t *testing.T) {
		// Arrange
		solver := NewSolver(Budget{MaxBacktracks: 0}, nil)

		// Act
		result := solver.Solve(oddCycle)

		// Assert
		assert.Equal(t, Timeout, result.Status)
		assert.Nil(t, result.Assignment)
		assert.NotEmpty(t, result.Partial)
	})

	t.Run("unlimited backtracks proves infeasibility", func(t *testing.T) {
		// Arrange
		solver := NewSolver(Unbounded(), nil)

		// Act
		result := solver.Solve(oddCycle)

		// Assert
		assert.Equal(t, Infeasible, result.Status)
		assert.Positive(t, result.Backtracks)
	})

	t.Run("expired deadline reports timeout", func(t *testing.T) {
		// Arrange
		solver := NewSolver(Budget{MaxBacktracks: -1, MaxDuration: time.Nanosecond}, nil)

		// Act
		result := solver.Solve(oddCycle)

		// Assert
		assert.Equal(t, Timeout, result.Status)
	})
}

func TestSolveDeterministic(t *testing.T) {
	// Arrange: several interchangeable variables and values
	problem := Problem{
		Domains: [][]Value{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}},
		Constraints: []Constraint{
			notEqual(0, 1),
			notEqual(1, 2),
			notEqual(0, 2),
		},
	}
	solver := NewSolver(Unbounded(), nil)

	// Act
	first := solver.Solve(problem)
	second := solver.Solve(problem)

	// Assert
	assert.Equal(t, Solved, first.Status)
	assert.Equal(t, first.Assignment, second.Assignment)
	assert.Equal(t, first.Backtracks, second.Backtracks)
}
