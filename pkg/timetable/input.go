package timetable

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type Subject struct {
	Id   uint64
	Name string
}

type Room struct {
	Id       uint64
	Name     string
	Capacity uint64
	Features []string
}

type Instructor struct {
	Id       uint64
	Name     string
	Subjects []uint64 // subjects the instructor is qualified to teach
	// Availability[period][day] is false on timeslots the instructor
	// cannot teach.
	Availability [][]bool
}

type Group struct {
	Id   uint64
	Name string
	Size uint64
}

// Session is one teaching unit to place: a subject taught to a group by one
// of the candidate instructors, in a room carrying the required features,
// spanning Duration consecutive periods.
type Session struct {
	Id          uint64
	Subject     uint64
	Group       uint64
	Instructors []uint64
	Features    []string
	Duration    uint64
}

type Input struct {
	Days          uint64
	PeriodsPerDay uint64 `mapstructure:"periodsPerDay"`
	Breaks        []uint64
	Subjects      []Subject
	Rooms         []Room
	Instructors   []Instructor
	Groups        []Group
	Sessions      []Session
}

func (input Input) Calendar() Calendar {
	return NewCalendar(input.Days, input.PeriodsPerDay, input.Breaks)
}

// InputFromJSON reads and decodes an input file. Decoded input still has to
// pass Validate before compilation.
func InputFromJSON(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var input Input
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return Input{}, err
	}

	return input, nil
}

// Validate surfaces malformed records before the compiler runs: dangling
// references, ids out of line with positions, bad calendar dimensions.
func (input Input) Validate() error {
	if input.Days == 0 || input.PeriodsPerDay == 0 {
		return InputError{Field: "calendar", Reason: "days and periodsPerDay must be positive"}
	}
	for _, period := range input.Breaks {
		if period >= input.PeriodsPerDay {
			return InputError{Field: "breaks", Reason: fmt.Sprintf("break period %v outside the day", period)}
		}
	}

	for i, subject := range input.Subjects {
		if subject.Id != uint64(i) {
			return InputError{Field: "subjects", Reason: fmt.Sprintf("subject %v listed at position %v", subject.Id, i)}
		}
	}
	for i, room := range input.Rooms {
		if room.Id != uint64(i) {
			return InputError{Field: "rooms", Reason: fmt.Sprintf("room %v listed at position %v", room.Id, i)}
		}
	}
	for i, group := range input.Groups {
		if group.Id != uint64(i) {
			return InputError{Field: "groups", Reason: fmt.Sprintf("group %v listed at position %v", group.Id, i)}
		}
	}

	for i, instructor := range input.Instructors {
		if instructor.Id != uint64(i) {
			return InputError{Field: "instructors", Reason: fmt.Sprintf("instructor %v listed at position %v", instructor.Id, i)}
		}
		if uint64(len(instructor.Availability)) != input.PeriodsPerDay {
			return InputError{Field: "instructors", Reason: fmt.Sprintf("instructor %v availability must have %v period rows", instructor.Id, input.PeriodsPerDay)}
		}
		for _, row := range instructor.Availability {
			if uint64(len(row)) != input.Days {
				return InputError{Field: "instructors", Reason: fmt.Sprintf("instructor %v availability rows must have %v days", instructor.Id, input.Days)}
			}
		}
		for _, subject := range instructor.Subjects {
			if subject >= uint64(len(input.Subjects)) {
				return InputError{Field: "instructors", Reason: fmt.Sprintf("instructor %v references unknown subject %v", instructor.Id, subject)}
			}
		}
	}

	sessionIds := make(map[uint64]bool, len(input.Sessions))
	for _, session := range input.Sessions {
		if sessionIds[session.Id] {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("duplicate session id %v", session.Id)}
		}
		sessionIds[session.Id] = true

		if session.Subject >= uint64(len(input.Subjects)) {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("session %v references unknown subject %v", session.Id, session.Subject)}
		}
		if session.Group >= uint64(len(input.Groups)) {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("session %v references unknown group %v", session.Id, session.Group)}
		}
		if len(session.Instructors) == 0 {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("session %v has no instructor candidates", session.Id)}
		}
		if unknown, found := lo.Find(session.Instructors, func(id uint64) bool { return id >= uint64(len(input.Instructors)) }); found {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("session %v references unknown instructor %v", session.Id, unknown)}
		}
		if session.Duration == 0 || session.Duration > input.PeriodsPerDay {
			return InputError{Field: "sessions", Reason: fmt.Sprintf("session %v has duration %v outside the day", session.Id, session.Duration)}
		}
	}

	return nil
}
