package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// CourseResourceCount summarizes the supply side of one course type.
type CourseResourceCount struct {
	Course            string
	QualifiedTeachers int
	CompatibleRooms   int
}

// ValidationError reports input defects that make any solve pointless.
// It is raised before the expensive stages run.
type ValidationError struct {
	EmptyPrograms []string
	Shortages     []CourseResourceCount
}

func (e *ValidationError) Error() string {
	var parts []string
	for _, program := range e.EmptyPrograms {
		parts = append(parts, fmt.Sprintf("program %q has no students", program))
	}
	for _, shortage := range e.Shortages {
		parts = append(parts, fmt.Sprintf(
			"course %q has %v qualified teachers and %v compatible rooms",
			shortage.Course, shortage.QualifiedTeachers, shortage.CompatibleRooms,
		))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ValidateInput checks that every program has students and every course
// type in the catalog has at least one qualified teacher and one room
// that could host a minimum-size session of it.
func ValidateInput(input Input, band SizeBand) error {
	validationError := &ValidationError{}

	enrolled := lo.CountValuesBy(input.Students, func(s Student) string { return s.Program })
	for _, program := range input.Programs {
		if enrolled[program.Name] == 0 {
			validationError.EmptyPrograms = append(validationError.EmptyPrograms, program.Name)
		}
	}

	catalog := NewCatalog(input.Programs)
	for _, course := range catalog.Names() {
		teachers := lo.CountBy(input.Teachers, func(t Teacher) bool {
			return t.QualifiedFor(course)
		})
		rooms := lo.CountBy(input.Classrooms, func(c Classroom) bool {
			return c.Compatible(course, band.Min)
		})
		if teachers == 0 || rooms == 0 {
			validationError.Shortages = append(validationError.Shortages, CourseResourceCount{
				Course:            course,
				QualifiedTeachers: teachers,
				CompatibleRooms:   rooms,
			})
		}
	}

	if len(validationError.EmptyPrograms) > 0 || len(validationError.Shortages) > 0 {
		return validationError
	}
	return nil
}
