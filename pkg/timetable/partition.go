package timetable

import (
	"slices"

	"github.com/arcsched/timetabler/internal/csp"
)

// components partitions the variables of a compiled model into connected
// components of the resource-sharing graph (an edge per emitted exclusion).
// Sessions in different components share nothing, so each component can be
// solved on its own and the results merged without cross-checks.
func components(model *compiledModel) [][]int {
	total := len(model.sessions)
	adjacency := make([][]int, total)
	for _, constraint := range model.problem.Constraints {
		x, y := constraint.Scope()
		adjacency[x] = append(adjacency[x], y)
		adjacency[y] = append(adjacency[y], x)
	}

	visited := make([]bool, total)
	result := make([][]int, 0)

	for root := 0; root < total; root++ {
		if visited[root] {
			continue
		}
		component := []int{root}
		visited[root] = true
		for frontier := 0; frontier < len(component); frontier++ {
			for _, neighbor := range adjacency[component[frontier]] {
				if !visited[neighbor] {
					visited[neighbor] = true
					component = append(component, neighbor)
				}
			}
		}
		slices.Sort(component)
		result = append(result, component)
	}

	return result
}

// subProblem projects the compiled problem onto one component, remapping
// variable indices to 0..len(component)-1.
func subProblem(model *compiledModel, component []int) csp.Problem {
	local := make(map[int]int, len(component))
	for position, variable := range component {
		local[variable] = position
	}

	domains := make([][]csp.Value, len(component))
	for position, variable := range component {
		domains[position] = model.problem.Domains[variable]
	}

	constraints := make([]csp.Constraint, 0)
	for _, constraint := range model.problem.Constraints {
		x, y := constraint.Scope()
		localX, okX := local[x]
		localY, okY := local[y]
		if okX && okY {
			constraints = append(constraints, remappedConstraint{inner: constraint, x: localX, y: localY})
		}
	}

	return csp.Problem{
		Domains:     domains,
		Constraints: constraints,
		Score: func(variable int, value csp.Value) int {
			return model.problem.Score(component[variable], value)
		},
	}
}

type remappedConstraint struct {
	inner csp.Constraint
	x, y  int
}

func (c remappedConstraint) Kind() csp.ConstraintKind {
	return c.inner.Kind()
}

func (c remappedConstraint) Scope() (int, int) {
	return c.x, c.y
}

func (c remappedConstraint) Allows(v, w csp.Value) bool {
	return c.inner.Allows(v, w)
}
