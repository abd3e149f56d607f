package timetable

import (
	"slices"

	"github.com/arcsched/timetabler/internal/csp"
	"github.com/samber/lo"
)

// compiledModel is the search-ready form of an input: one variable per
// session whose values encode (timeslot, room, instructor) triples, plus the
// pairwise exclusions between sessions that can collide on a resource.
type compiledModel struct {
	input    Input
	calendar Calendar
	sessions []Session

	problem         csp.Problem
	compatibleRooms [][]uint64
	// pruned counts candidate triples removed per static rule before search.
	pruned map[csp.ConstraintKind]uint64

	rooms       uint64
	instructors uint64
}

// compile prunes every session's candidate triples by the static rules
// (capacity, features, qualification, availability, span fit) and emits the
// mutual-exclusion constraints. An empty domain fails compilation right away.
func compile(input Input) (*compiledModel, error) {
	model := &compiledModel{
		input:       input,
		calendar:    input.Calendar(),
		sessions:    input.Sessions,
		rooms:       uint64(len(input.Rooms)),
		instructors: uint64(len(input.Instructors)),
		pruned:      make(map[csp.ConstraintKind]uint64),
	}
	model.compatibleRooms = make([][]uint64, len(model.sessions))
	model.problem.Domains = make([][]csp.Value, len(model.sessions))

	for variable, session := range model.sessions {
		group := input.Groups[session.Group]

		qualified := lo.Filter(session.Instructors, func(id uint64, _ int) bool {
			return lo.Contains(input.Instructors[id].Subjects, session.Subject)
		})
		model.pruned[csp.QualificationBound] += uint64(len(session.Instructors) - len(qualified))
		if len(qualified) == 0 {
			return nil, ModelInfeasibleError{Session: session.Id, Reason: "no qualified instructor"}
		}
		slices.Sort(qualified)

		rooms := lo.FilterMap(input.Rooms, func(room Room, _ int) (uint64, bool) {
			return room.Id, room.Capacity >= group.Size && lo.Every(room.Features, session.Features)
		})
		model.pruned[csp.CapacityBound] += uint64(len(input.Rooms) - len(rooms))
		if len(rooms) == 0 {
			return nil, ModelInfeasibleError{Session: session.Id, Reason: "no room with the required capacity and features"}
		}
		model.compatibleRooms[variable] = rooms

		// Loop order matches the value encoding, so the domain comes out
		// sorted lexicographically by (timeslot, room, instructor).
		domain := make([]csp.Value, 0, len(rooms)*len(qualified))
		for _, start := range model.calendar.Starts(session.Duration) {
			span := model.calendar.Span(start, session.Duration)
			for _, room := range rooms {
				for _, instructor := range qualified {
					if instructorAvailable(input.Instructors[instructor], span) {
						domain = append(domain, model.encode(start, room, instructor))
					}
				}
			}
		}
		if len(domain) == 0 {
			return nil, ModelInfeasibleError{Session: session.Id, Reason: "no timeslot with an available qualified instructor"}
		}
		model.problem.Domains[variable] = domain
	}

	model.emitExclusions()
	model.problem.Score = model.fragmentationScore

	return model, nil
}

// emitExclusions adds one ResourceExclusion constraint per session pair that
// can collide: same group, or intersecting instructor or room candidates.
func (model *compiledModel) emitExclusions() {
	for i := 0; i < len(model.sessions)-1; i++ {
		for j := i + 1; j < len(model.sessions); j++ {
			sameGroup := model.sessions[i].Group == model.sessions[j].Group
			sharedInstructors := len(lo.Intersect(model.sessions[i].Instructors, model.sessions[j].Instructors)) > 0
			sharedRooms := len(lo.Intersect(model.compatibleRooms[i], model.compatibleRooms[j])) > 0

			if sameGroup || sharedInstructors || sharedRooms {
				model.problem.Constraints = append(model.problem.Constraints, exclusionConstraint{
					model:     model,
					x:         i,
					y:         j,
					sameGroup: sameGroup,
				})
			}
		}
	}
}

// fragmentationScore prefers tight room fits so large rooms stay free for
// large groups. Ties fall back to the encoded (timeslot, room, instructor)
// order, keeping the search deterministic.
func (model *compiledModel) fragmentationScore(variable int, value csp.Value) int {
	triple := model.decode(value)
	session := model.sessions[variable]
	return int(model.input.Rooms[triple.Room].Capacity - model.input.Groups[session.Group].Size)
}

// encode packs a triple into a value with the timeslot as the most
// significant digit, mixed-radix over rooms and instructors.
func (model *compiledModel) encode(start Timeslot, room, instructor uint64) csp.Value {
	slot := start.Day*model.calendar.PeriodsPerDay + start.Period
	return csp.Value((slot*model.rooms+room)*model.instructors + instructor)
}

func (model *compiledModel) decode(value csp.Value) Triple {
	index := uint64(value)

	instructor := index % model.instructors
	index /= model.instructors

	room := index % model.rooms
	index /= model.rooms

	return Triple{
		Start:      Timeslot{Day: index / model.calendar.PeriodsPerDay, Period: index % model.calendar.PeriodsPerDay},
		Room:       room,
		Instructor: instructor,
	}
}

func instructorAvailable(instructor Instructor, span []Timeslot) bool {
	return !lo.SomeBy(span, func(slot Timeslot) bool {
		return !instructor.Availability[slot.Period][slot.Day]
	})
}

type exclusionConstraint struct {
	model     *compiledModel
	x, y      int
	sameGroup bool
}

func (c exclusionConstraint) Kind() csp.ConstraintKind {
	return csp.ResourceExclusion
}

func (c exclusionConstraint) Scope() (int, int) {
	return c.x, c.y
}

func (c exclusionConstraint) Allows(v, w csp.Value) bool {
	a, b := c.model.decode(v), c.model.decode(w)
	if !spansOverlap(a.Start, c.model.sessions[c.x].Duration, b.Start, c.model.sessions[c.y].Duration) {
		return true
	}
	if c.sameGroup {
		return false
	}
	return a.Room != b.Room && a.Instructor != b.Instructor
}

func spansOverlap(a Timeslot, durationA uint64, b Timeslot, durationB uint64) bool {
	return a.Day == b.Day && a.Period < b.Period+durationB && b.Period < a.Period+durationA
}
