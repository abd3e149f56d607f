package timetable

import (
	"slices"

	"github.com/arcsched/timetabler/internal/csp"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// checkSlotRoomSupply proves some infeasible instances before any search by
// matching sessions against distinct (timeslot, room) starts: every session
// needs its own, so a maximum matching smaller than the session count means
// the supply cannot carry the demand.
func checkSlotRoomSupply(model *compiledModel) error {
	starts := make(map[int][]uint64, len(model.sessions))
	startSet := make(map[uint64]bool)
	for variable, domain := range model.problem.Domains {
		codes := lo.Uniq(lo.Map(domain, func(value csp.Value, _ int) uint64 {
			return uint64(value) / model.instructors // strip the instructor digit
		}))
		starts[variable] = codes
		for _, code := range codes {
			startSet[code] = true
		}
	}

	codes := lo.Keys(startSet)
	slices.Sort(codes)

	variables := lo.Map(lo.Range(len(model.sessions)), func(variable int, _ int) any { return variable })
	supply := lo.Map(codes, func(code uint64, _ int) any { return code })

	neighbors := func(variableAny any, codeAny any) (bool, error) {
		variable := variableAny.(int)
		code := codeAny.(uint64)
		return lo.Contains(starts[variable], code), nil
	}

	graph, err := bipartitegraph.NewBipartiteGraph(variables, supply, neighbors)
	if err != nil {
		return err
	}

	matching := graph.LargestMatching()
	if len(matching) >= len(model.sessions) {
		return nil
	}

	// Name an uncovered session so the caller has something actionable
	covered := make(map[int]bool, len(matching))
	for _, edge := range matching {
		covered[edge.Node1] = true
	}
	for variable, session := range model.sessions {
		if !covered[variable] {
			return ModelInfeasibleError{
				Session: session.Id,
				Reason:  "sessions outnumber the distinct timeslot-room starts they can use",
			}
		}
	}
	return nil
}
