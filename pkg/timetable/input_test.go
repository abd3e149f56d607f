package timetable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputFromJSON(t *testing.T) {
	// Arrange
	const inputJson = `{
		"days": 2,
		"periodsPerDay": 3,
		"breaks": [1],
		"subjects": [{"id": 0, "name": "Math"}],
		"rooms": [{"id": 0, "name": "A-101", "capacity": 30, "features": ["projector"]}],
		"instructors": [{
			"id": 0,
			"name": "Gauss",
			"subjects": [0],
			"availability": [[true, true], [true, false], [true, true]]
		}],
		"groups": [{"id": 0, "name": "CS-1", "size": 25}],
		"sessions": [{
			"id": 0,
			"subject": 0,
			"group": 0,
			"instructors": [0],
			"duration": 1
		}]
	}`
	file := filepath.Join(t.TempDir(), "input.json")
	assert.Nil(t, os.WriteFile(file, []byte(inputJson), 0666))

	// Act
	input, err := InputFromJSON(file)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), input.Days)
	assert.Equal(t, uint64(3), input.PeriodsPerDay)
	assert.Equal(t, []uint64{1}, input.Breaks)
	assert.Equal(t, "A-101", input.Rooms[0].Name)
	assert.Equal(t, []string{"projector"}, input.Rooms[0].Features)
	assert.False(t, input.Instructors[0].Availability[1][1])
	assert.Nil(t, input.Validate())
}

func TestValidate(t *testing.T) {
	scenarios := []struct {
		name   string
		mutate func(input *Input)
	}{
		{"empty calendar", func(input *Input) { input.Days = 0 }},
		{"break outside the day", func(input *Input) { input.Breaks = []uint64{9} }},
		{"room id out of line", func(input *Input) { input.Rooms[0].Id = 5 }},
		{"instructor availability with wrong period count", func(input *Input) {
			input.Instructors[0].Availability = fullAvailability(1, 2)
		}},
		{"instructor availability with wrong day count", func(input *Input) {
			input.Instructors[0].Availability = fullAvailability(3, 1)
		}},
		{"instructor with unknown subject", func(input *Input) {
			input.Instructors[0].Subjects = []uint64{4}
		}},
		{"session with unknown subject", func(input *Input) { input.Sessions[0].Subject = 4 }},
		{"session with unknown group", func(input *Input) { input.Sessions[0].Group = 4 }},
		{"session with unknown instructor", func(input *Input) {
			input.Sessions[0].Instructors = []uint64{4}
		}},
		{"session without candidates", func(input *Input) { input.Sessions[0].Instructors = nil }},
		{"session longer than the day", func(input *Input) { input.Sessions[0].Duration = 9 }},
		{"duplicate session ids", func(input *Input) {
			input.Sessions = append(input.Sessions, input.Sessions[0])
		}},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			// Arrange
			input := twoInstructorInput()
			scenario.mutate(&input)

			// Act
			err := input.Validate()

			// Assert
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	t.Run("well-formed input passes", func(t *testing.T) {
		assert.Nil(t, twoInstructorInput().Validate())
	})
}
