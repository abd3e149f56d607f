package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Two clusters that share no group, instructor or compatible room: the lab
// cluster only fits lab rooms, the lecture cluster only fits the big hall.
func disjointClustersInput() Input {
	return Input{
		Days:          1,
		PeriodsPerDay: 2,
		Subjects:      []Subject{{Id: 0, Name: "Chemistry"}, {Id: 1, Name: "History"}},
		Rooms: []Room{
			{Id: 0, Name: "Lab-1", Capacity: 20, Features: []string{"lab"}},
			{Id: 1, Name: "Hall", Capacity: 100},
		},
		Instructors: []Instructor{
			{Id: 0, Name: "Curie", Subjects: []uint64{0}, Availability: fullAvailability(2, 1)},
			{Id: 1, Name: "Herodotus", Subjects: []uint64{1}, Availability: fullAvailability(2, 1)},
		},
		Groups: []Group{
			{Id: 0, Name: "CH-1", Size: 15},
			{Id: 1, Name: "HI-1", Size: 80},
		},
		Sessions: []Session{
			{Id: 0, Subject: 0, Group: 0, Instructors: []uint64{0}, Features: []string{"lab"}, Duration: 1},
			{Id: 1, Subject: 0, Group: 0, Instructors: []uint64{0}, Features: []string{"lab"}, Duration: 1},
			{Id: 2, Subject: 1, Group: 1, Instructors: []uint64{1}, Duration: 1},
			{Id: 3, Subject: 1, Group: 1, Instructors: []uint64{1}, Duration: 1},
		},
	}
}

func TestComponents(t *testing.T) {
	t.Run("disjoint clusters split into two components", func(t *testing.T) {
		// Arrange
		model, err := compile(disjointClustersInput())
		assert.Nil(t, err)

		// Act
		parts := components(model)

		// Assert
		assert.Equal(t, [][]int{{0, 1}, {2, 3}}, parts)
	})

	t.Run("shared resources collapse into one component", func(t *testing.T) {
		// Arrange
		model, err := compile(overloadedInstructorInput())
		assert.Nil(t, err)

		// Act
		parts := components(model)

		// Assert
		assert.Len(t, parts, 1)
		assert.Len(t, parts[0], 4)
	})

	t.Run("sub-problems carry only their component's constraints", func(t *testing.T) {
		// Arrange
		model, err := compile(disjointClustersInput())
		assert.Nil(t, err)
		parts := components(model)

		// Act
		sub := subProblem(model, parts[1])

		// Assert: one exclusion between the two history sessions
		assert.Len(t, sub.Domains, 2)
		assert.Len(t, sub.Constraints, 1)
		x, y := sub.Constraints[0].Scope()
		assert.Equal(t, 0, x)
		assert.Equal(t, 1, y)
	})

	t.Run("partitioned solve satisfies every cluster", func(t *testing.T) {
		// Arrange
		input := disjointClustersInput()
		config := DefaultConfig()
		config.Workers = 2
		timetabler := New(config)

		// Act
		outcome, err := timetabler.Schedule(input)

		// Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusSolved, outcome.Status)
		assert.True(t, timetabler.Verify(outcome.Assignment, input))
	})
}
