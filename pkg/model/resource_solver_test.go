package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mberube/schoolplan/pkg/sat"
)

func testSessions() []CourseSession {
	return []CourseSession{
		{Id: 0, Course: "math", Slot: TimeSlot{Day: 0, Period: 0}, Students: []int{1, 2}, Teacher: -1, Room: -1},
		{Id: 1, Course: "biology", Slot: TimeSlot{Day: 0, Period: 0}, Students: []int{3, 4}, Teacher: -1, Room: -1},
		{Id: 2, Course: "math", Slot: TimeSlot{Day: 0, Period: 1}, Students: []int{3, 4}, Teacher: -1, Room: -1},
	}
}

func TestAssignResources(t *testing.T) {
	// Arrange
	input := smallInput()
	assigner := NewResourceAssigner(sat.NewGophersatSolver(), nil)

	// Act
	plan, err := assigner.Assign(testSessions(), input.Teachers, input.Classrooms, sat.Options{})

	// Assert
	require.NoError(t, err)
	require.Equal(t, sat.StatusOptimal, plan.Status)
	assert.True(t, VerifyResources(plan.Sessions, input.Teachers, input.Classrooms))
}

func TestAssignResourcesPrefersTeacherRooms(t *testing.T) {
	// Arrange: teacher 1 prefers room 1 and nothing forces them apart
	input := smallInput()
	assigner := NewResourceAssigner(sat.NewGophersatSolver(), nil)

	// Act
	plan, err := assigner.Assign(testSessions(), input.Teachers, input.Classrooms, sat.Options{})

	// Assert: teacher 1 teaches two of the three sessions (two run
	// concurrently) and lands in room 1 for both
	require.NoError(t, err)
	require.Equal(t, sat.StatusOptimal, plan.Status)
	assert.Equal(t, 2, plan.PreferredMatches)
	for _, session := range plan.Sessions {
		if session.Teacher == 1 {
			assert.Equal(t, 1, session.Room)
		}
	}
}

func TestAssignResourcesIsIdempotent(t *testing.T) {
	// Arrange
	input := smallInput()
	sessions := testSessions()
	assigner := NewResourceAssigner(sat.NewGophersatSolver(), nil)

	// Act
	first, err := assigner.Assign(sessions, input.Teachers, input.Classrooms, sat.Options{})
	require.NoError(t, err)
	second, err := assigner.Assign(sessions, input.Teachers, input.Classrooms, sat.Options{})
	require.NoError(t, err)

	// Assert: the input is untouched and both runs succeed
	for _, session := range sessions {
		assert.Equal(t, -1, session.Teacher)
		assert.Equal(t, -1, session.Room)
	}
	assert.Equal(t, sat.StatusOptimal, first.Status)
	assert.Equal(t, sat.StatusOptimal, second.Status)
	assert.True(t, VerifyResources(first.Sessions, input.Teachers, input.Classrooms))
	assert.True(t, VerifyResources(second.Sessions, input.Teachers, input.Classrooms))
}

func TestProbeRejectsTeacherShortage(t *testing.T) {
	// Arrange: two concurrent sessions but a single teacher for both
	input := smallInput()
	teachers := input.Teachers[:1]
	assigner := NewResourceAssigner(sat.NewGophersatSolver(), nil)

	// Act
	_, err := assigner.Assign(testSessions()[:2], teachers, input.Classrooms, sat.Options{})

	// Assert
	var shortage *SlotShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "teachers", shortage.Resource)
	assert.Equal(t, TimeSlot{Day: 0, Period: 0}, shortage.Slot)
	assert.Equal(t, 2, shortage.Sessions)
	assert.Equal(t, 1, shortage.Supply)
}

func TestProbeRejectsRoomShortage(t *testing.T) {
	// Arrange: both rooms too small for either session
	input := smallInput()
	rooms := []Classroom{
		{Id: 1, Name: "closet", Capacity: 1},
		{Id: 2, Name: "booth", Capacity: 1},
	}
	assigner := NewResourceAssigner(sat.NewGophersatSolver(), nil)

	// Act
	_, err := assigner.Assign(testSessions()[:1], input.Teachers, rooms, sat.Options{})

	// Assert
	var shortage *SlotShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "rooms", shortage.Resource)
	assert.Equal(t, 0, shortage.Supply)
}

func TestVerifyResourcesCatchesDoubleBooking(t *testing.T) {
	// Arrange
	input := smallInput()
	sessions := testSessions()
	sessions[0].Teacher, sessions[0].Room = 1, 1
	sessions[1].Teacher, sessions[1].Room = 1, 2 // teacher 1 twice in slot (0,0)
	sessions[2].Teacher, sessions[2].Room = 2, 1

	// Assert
	assert.False(t, VerifyResources(sessions, input.Teachers, input.Classrooms))
}
