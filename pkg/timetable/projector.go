package timetable

import (
	"slices"

	"github.com/samber/lo"
)

var dayNames = map[uint64]string{
	0: "Monday",
	1: "Tuesday",
	2: "Wednesday",
	3: "Thursday",
	4: "Friday",
	5: "Saturday",
	6: "Sunday",
}

// Row is one projected session with every reference resolved to its label,
// ready for an export collaborator.
type Row struct {
	Session    uint64 `json:"session"`
	Subject    string `json:"subject"`
	Group      string `json:"group"`
	Instructor string `json:"instructor"`
	Room       string `json:"room"`
	Day        uint64 `json:"day"`
	DayName    string `json:"dayName"`
	Period     uint64 `json:"period"`
	Duration   uint64 `json:"duration"`
}

// Project maps an assignment back to domain terms. Pure and deterministic:
// rows come out sorted by day, period, then room id.
func Project(assignment Assignment, input Input) []Row {
	sessions := lo.SliceToMap(input.Sessions, func(session Session) (uint64, Session) { return session.Id, session })

	rows := make([]Row, 0, len(assignment))
	for sessionId, triple := range assignment {
		session := sessions[sessionId]
		rows = append(rows, Row{
			Session:    sessionId,
			Subject:    input.Subjects[session.Subject].Name,
			Group:      input.Groups[session.Group].Name,
			Instructor: input.Instructors[triple.Instructor].Name,
			Room:       input.Rooms[triple.Room].Name,
			Day:        triple.Start.Day,
			DayName:    dayNames[triple.Start.Day],
			Period:     triple.Start.Period,
			Duration:   session.Duration,
		})
	}

	slices.SortFunc(rows, func(a, b Row) int {
		if a.Day != b.Day {
			return int(a.Day) - int(b.Day)
		}
		if a.Period != b.Period {
			return int(a.Period) - int(b.Period)
		}
		if a.Room != b.Room {
			if a.Room < b.Room {
				return -1
			}
			return 1
		}
		return int(a.Session) - int(b.Session)
	})

	return rows
}
