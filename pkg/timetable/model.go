package timetable

import "github.com/samber/lo"

// Timeslot is one teachable (day, period) cell of the calendar.
type Timeslot struct {
	Day    uint64
	Period uint64
}

func (t Timeslot) Before(other Timeslot) bool {
	if t.Day != other.Day {
		return t.Day < other.Day
	}
	return t.Period < other.Period
}

// Calendar is the institution's weekly grid. Break periods exist in the grid
// but never host a session, and a multi-period session cannot straddle one.
type Calendar struct {
	Days          uint64
	PeriodsPerDay uint64
	breaks        map[uint64]bool
}

func NewCalendar(days, periodsPerDay uint64, breaks []uint64) Calendar {
	return Calendar{
		Days:          days,
		PeriodsPerDay: periodsPerDay,
		breaks:        lo.SliceToMap(breaks, func(period uint64) (uint64, bool) { return period, true }),
	}
}

func (c Calendar) Teachable(period uint64) bool {
	return period < c.PeriodsPerDay && !c.breaks[period]
}

// Span returns the consecutive timeslots covered by a session starting at
// start, or nil if the span runs off the day or crosses a break.
func (c Calendar) Span(start Timeslot, duration uint64) []Timeslot {
	if start.Day >= c.Days || start.Period+duration > c.PeriodsPerDay {
		return nil
	}
	span := make([]Timeslot, 0, duration)
	for period := start.Period; period < start.Period+duration; period++ {
		if !c.Teachable(period) {
			return nil
		}
		span = append(span, Timeslot{Day: start.Day, Period: period})
	}
	return span
}

// Starts lists every timeslot where a session of the given duration fits,
// ordered by day then period.
func (c Calendar) Starts(duration uint64) []Timeslot {
	starts := make([]Timeslot, 0, c.Days*c.PeriodsPerDay)
	for day := uint64(0); day < c.Days; day++ {
		for period := uint64(0); period < c.PeriodsPerDay; period++ {
			start := Timeslot{Day: day, Period: period}
			if c.Span(start, duration) != nil {
				starts = append(starts, start)
			}
		}
	}
	return starts
}

// Triple is the resolved placement of a single session.
type Triple struct {
	Start      Timeslot
	Room       uint64
	Instructor uint64
}

// Assignment maps session ids to their placements. It is the solution
// artifact: built once by the engine and never mutated afterwards.
type Assignment map[uint64]Triple

// Verify sweeps the assignment against every scheduling rule: no instructor,
// room or group hosts two sessions in the same timeslot, rooms fit and equip
// their groups, and instructors are qualified and available throughout.
func (assignment Assignment) Verify(input Input) bool {
	calendar := input.Calendar()
	sessions := lo.SliceToMap(input.Sessions, func(session Session) (uint64, Session) { return session.Id, session })

	instructorBusy := make(map[uint64]map[Timeslot]bool)
	roomBusy := make(map[uint64]map[Timeslot]bool)
	groupBusy := make(map[uint64]map[Timeslot]bool)

	occupy := func(busy map[uint64]map[Timeslot]bool, id uint64, slot Timeslot) bool {
		if busy[id] == nil {
			busy[id] = make(map[Timeslot]bool)
		}
		if busy[id][slot] {
			return false
		}
		busy[id][slot] = true
		return true
	}

	for sessionId, triple := range assignment {
		session, known := sessions[sessionId]
		if !known {
			return false
		}
		if triple.Room >= uint64(len(input.Rooms)) || triple.Instructor >= uint64(len(input.Instructors)) {
			return false
		}

		room := input.Rooms[triple.Room]
		instructor := input.Instructors[triple.Instructor]
		group := input.Groups[session.Group]

		// Static compatibility: candidate set, qualification, capacity, features
		if !lo.Contains(session.Instructors, triple.Instructor) ||
			!lo.Contains(instructor.Subjects, session.Subject) ||
			room.Capacity < group.Size ||
			!lo.Every(room.Features, session.Features) {
			return false
		}

		span := calendar.Span(triple.Start, session.Duration)
		if span == nil {
			return false
		}

		for _, slot := range span {
			if !instructor.Availability[slot.Period][slot.Day] {
				return false
			}
			if !occupy(instructorBusy, triple.Instructor, slot) ||
				!occupy(roomBusy, triple.Room, slot) ||
				!occupy(groupBusy, session.Group, slot) {
				return false
			}
		}
	}

	return true
}
