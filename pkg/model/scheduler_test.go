package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mberube/schoolplan/pkg/sat"
)

func TestSchedulePerStudent(t *testing.T) {
	// Arrange
	input := smallInput()
	scheduler := NewScheduler(Config{
		Band:   SizeBand{Min: 2, Max: 2},
		Mixing: MixAcrossPrograms,
	})

	// Act
	timetable, err := scheduler.Schedule(input)

	// Assert
	require.NoError(t, err)
	require.Equal(t, sat.StatusOptimal, timetable.Status)
	assert.Len(t, timetable.Sessions, 6)
	assert.True(t, VerifyResources(timetable.Sessions, input.Teachers, input.Classrooms))
	for _, student := range input.Students {
		assert.Len(t, timetable.Schedules[student.Id], 3)
	}
	assert.Positive(t, timetable.StageA.Variables)
	assert.Positive(t, timetable.StageB.Variables)
}

func TestScheduleWithRigidGroups(t *testing.T) {
	// Arrange: by-program mixing plans whole groups as units
	input := smallInput()
	scheduler := NewScheduler(Config{
		Band:   SizeBand{Min: 2, Max: 2},
		Mixing: MixByProgram,
	})

	// Act
	timetable, err := scheduler.Schedule(input)

	// Assert
	require.NoError(t, err)
	require.Equal(t, sat.StatusOptimal, timetable.Status)
	require.Len(t, timetable.Groups, 2)
	for _, group := range timetable.Groups {
		assert.Len(t, group.Schedule, 3)
	}
	assert.True(t, VerifyResources(timetable.Sessions, input.Teachers, input.Classrooms))
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	// Arrange
	input := smallInput()
	input.Programs[0].Courses["latin"] = 1
	scheduler := NewScheduler(Config{Band: SizeBand{Min: 2, Max: 2}})

	// Act
	_, err := scheduler.Schedule(input)

	// Assert
	var validationError *ValidationError
	require.ErrorAs(t, err, &validationError)
}

func TestScheduleReportsInfeasibleBand(t *testing.T) {
	// Arrange: three students cannot form exact pairs
	input := smallInput()
	input.Students = input.Students[:3]
	scheduler := NewScheduler(Config{
		Band:   SizeBand{Min: 2, Max: 2},
		Mixing: MixAcrossPrograms,
	})

	// Act
	timetable, err := scheduler.Schedule(input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, sat.StatusInfeasible, timetable.Status)
	assert.Empty(t, timetable.Sessions)
}

func TestWiderBandNeverNeedsMoreSessions(t *testing.T) {
	// Arrange
	input := smallInput()
	run := func(band SizeBand) int {
		scheduler := NewScheduler(Config{Band: band, Mixing: MixAcrossPrograms})
		timetable, err := scheduler.Schedule(input)
		require.NoError(t, err)
		require.Equal(t, sat.StatusOptimal, timetable.Status)
		return len(timetable.Sessions)
	}

	// Act
	narrow := run(SizeBand{Min: 2, Max: 2})
	wide := run(SizeBand{Min: 2, Max: 4})

	// Assert
	assert.LessOrEqual(t, wide, narrow)
}

func TestScheduleRealisticLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size solve")
	}

	// Arrange: 56 students, 36 required instances each, 13 teachers,
	// 8 rooms; the gap tolerance accepts the first incumbent. Five
	// periods a day leaves free slots, without which every slot would
	// have to split all 56 students into sessions of 20 to 25, which no
	// partition of 56 achieves.
	input := largeInput(56)
	scheduler := NewScheduler(Config{
		Band:          SizeBand{Min: 20, Max: 25},
		Strategy:      StrategyMinimizeSessions,
		Mixing:        MixAcrossPrograms,
		PeriodsPerDay: 5,
		Budget:        5 * time.Minute,
		RelativeGap:   1.0,
	})

	// Act
	timetable, err := scheduler.Schedule(input)

	// Assert
	require.NoError(t, err)
	require.Contains(t, []sat.Status{sat.StatusOptimal, sat.StatusFeasible}, timetable.Status)
	assert.Less(t, len(timetable.Sessions), 56*36)
	assert.True(t, VerifyResources(timetable.Sessions, input.Teachers, input.Classrooms))
	for _, student := range input.Students {
		assert.Len(t, timetable.Schedules[student.Id], 36)
	}
}
