package timetable

import (
	"maps"
	"math"
	"slices"

	"github.com/samber/lo"
)

// Weights scales the soft criteria folded into a schedule's cost. The exact
// mix is institution policy, so callers tune it rather than the engine.
type Weights struct {
	IdleGaps    float64
	RoomBalance float64
	Compactness float64
}

func DefaultWeights() Weights {
	return Weights{
		IdleGaps:    1.0,
		RoomBalance: 0.5,
		Compactness: 1.0,
	}
}

type objective struct {
	weights  Weights
	input    Input
	calendar Calendar
	sessions map[uint64]Session
}

func newObjective(weights Weights, input Input) *objective {
	return &objective{
		weights:  weights,
		input:    input,
		calendar: input.Calendar(),
		sessions: lo.SliceToMap(input.Sessions, func(session Session) (uint64, Session) { return session.Id, session }),
	}
}

// Cost scores a feasible assignment: idle gaps in instructor days, imbalance
// of room loads, and spread of group days. Lower is better, zero is ideal.
func (o *objective) Cost(assignment Assignment) float64 {
	instructorSlots := make(map[uint64][]Timeslot)
	groupSlots := make(map[uint64][]Timeslot)
	roomLoad := make(map[uint64]float64)

	for sessionId, triple := range assignment {
		session := o.sessions[sessionId]
		for _, slot := range o.calendar.Span(triple.Start, session.Duration) {
			instructorSlots[triple.Instructor] = append(instructorSlots[triple.Instructor], slot)
			groupSlots[session.Group] = append(groupSlots[session.Group], slot)
			roomLoad[triple.Room]++
		}
	}

	gaps := float64(countGaps(o.calendar, instructorSlots))
	spread := float64(countGaps(o.calendar, groupSlots))
	balance := roomLoadStddev(uint64(len(o.input.Rooms)), roomLoad)

	return o.weights.IdleGaps*gaps + o.weights.Compactness*spread + o.weights.RoomBalance*balance
}

// Improve runs greedy local search over timeslot swaps: two sessions of equal
// duration trade their start slots, a move is kept only when the result stays
// feasible and strictly lowers the cost. Best effort, no global optimum claim.
func (o *objective) Improve(assignment Assignment, maxIterations int) (Assignment, float64) {
	current := maps.Clone(assignment)
	cost := o.Cost(current)

	ids := slices.Sorted(maps.Keys(current))

	for iteration := 0; iteration < maxIterations; iteration++ {
		improved := false

		for i := 0; i < len(ids)-1 && !improved; i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if o.sessions[a].Duration != o.sessions[b].Duration || current[a].Start == current[b].Start {
					continue
				}

				candidate := maps.Clone(current)
				tripleA, tripleB := candidate[a], candidate[b]
				tripleA.Start, tripleB.Start = tripleB.Start, tripleA.Start
				candidate[a], candidate[b] = tripleA, tripleB

				if !candidate.Verify(o.input) {
					continue
				}
				if candidateCost := o.Cost(candidate); candidateCost < cost {
					current, cost = candidate, candidateCost
					improved = true
					break
				}
			}
		}

		if !improved {
			break
		}
	}

	return current, cost
}

// countGaps sums, per owner and day, the teachable idle periods strictly
// between that owner's first and last occupied period.
func countGaps(calendar Calendar, slotsPerOwner map[uint64][]Timeslot) uint64 {
	var total uint64
	for _, slots := range slotsPerOwner {
		perDay := lo.GroupBy(slots, func(slot Timeslot) uint64 { return slot.Day })
		for _, daySlots := range perDay {
			periods := lo.Map(daySlots, func(slot Timeslot, _ int) uint64 { return slot.Period })
			slices.Sort(periods)
			occupied := lo.SliceToMap(periods, func(period uint64) (uint64, bool) { return period, true })
			for period := periods[0]; period < periods[len(periods)-1]; period++ {
				if calendar.Teachable(period) && !occupied[period] {
					total++
				}
			}
		}
	}
	return total
}

func roomLoadStddev(rooms uint64, load map[uint64]float64) float64 {
	if rooms == 0 {
		return 0
	}
	var sum float64
	for room := uint64(0); room < rooms; room++ {
		sum += load[room]
	}
	mean := sum / float64(rooms)

	var variance float64
	for room := uint64(0); room < rooms; room++ {
		deviation := load[room] - mean
		variance += deviation * deviation
	}
	return math.Sqrt(variance / float64(rooms))
}
