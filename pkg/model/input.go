package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// DefaultPeriodsPerDay is the number of teaching periods in a school day.
const DefaultPeriodsPerDay = 4

// minHorizonDays keeps the planning horizon from collapsing on tiny
// curricula, which would leave no slack for the daily-repeat rule.
const minHorizonDays = 9

type Student struct {
	Id      int
	Name    string
	Program string
	Group   int // -1 until group formation runs
}

type Teacher struct {
	Id             int
	Name           string
	Qualifications []string
	PreferredRoom  int // -1 when the teacher has no preference
}

type Classroom struct {
	Id              int
	Name            string
	Capacity        int
	AllowedSubjects []string // empty means every subject is allowed
}

// Program maps each course type of a curriculum to the number of session
// instances every enrolled student must attend.
type Program struct {
	Name    string
	Courses map[string]int
}

func (p Program) TotalInstances() int {
	return lo.Sum(lo.Values(p.Courses))
}

type TimeSlot struct {
	Day    int
	Period int
}

type Group struct {
	Id       int
	Name     string
	Program  string
	Students []int
	Schedule map[TimeSlot]string // slot -> course type, filled after Stage A
}

// CourseSession is one planned meeting: a course type at a slot with its
// attendee roster. Teacher and Room stay -1 until Stage B assigns them.
type CourseSession struct {
	Id       int
	Course   string
	Slot     TimeSlot
	Students []int
	Teacher  int
	Room     int
}

// ScheduleEntry is one line of a student's personal timetable.
type ScheduleEntry struct {
	Course  string
	Slot    TimeSlot
	Session int
}

// Catalog interns the course types referenced by the programs into dense
// 0-based ids, sorted by name so ids are stable across runs.
type Catalog struct {
	names []string
	ids   map[string]int
}

func NewCatalog(programs []Program) *Catalog {
	nameSet := make(map[string]bool)
	for _, program := range programs {
		for course := range program.Courses {
			nameSet[course] = true
		}
	}
	names := lo.Keys(nameSet)
	sort.Strings(names)
	ids := make(map[string]int, len(names))
	for id, name := range names {
		ids[name] = id
	}
	return &Catalog{names: names, ids: ids}
}

func (c *Catalog) Len() int           { return len(c.names) }
func (c *Catalog) Names() []string    { return c.names }
func (c *Catalog) Name(id int) string { return c.names[id] }

func (c *Catalog) Id(name string) (int, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Horizon is the slot grid the solver plans over.
type Horizon struct {
	Days          int
	PeriodsPerDay int
}

// NewHorizon sizes the grid to the heaviest curriculum: enough days to
// seat every required instance, never fewer than the minimum.
func NewHorizon(programs []Program, periodsPerDay int) Horizon {
	if periodsPerDay <= 0 {
		periodsPerDay = DefaultPeriodsPerDay
	}
	maxInstances := lo.Max(lo.Map(programs, func(p Program, _ int) int {
		return p.TotalInstances()
	}))
	days := int(math.Ceil(float64(maxInstances) / float64(periodsPerDay)))
	if days < minHorizonDays {
		days = minHorizonDays
	}
	return Horizon{Days: days, PeriodsPerDay: periodsPerDay}
}

func (h Horizon) Slots() int { return h.Days * h.PeriodsPerDay }

func (h Horizon) Slot(index int) TimeSlot {
	return TimeSlot{Day: index / h.PeriodsPerDay, Period: index % h.PeriodsPerDay}
}

func (h Horizon) Index(slot TimeSlot) int {
	return slot.Day*h.PeriodsPerDay + slot.Period
}

// Input is the complete problem handed to the scheduler.
type Input struct {
	Students   []Student
	Teachers   []Teacher
	Classrooms []Classroom
	Programs   []Program
}

type rawStudent struct {
	Id      int
	Name    string
	Program string
}

type rawTeacher struct {
	Id             int
	Name           string
	Qualifications []string
	PreferredRoom  *int
}

type rawClassroom struct {
	Id              int
	Name            string
	Capacity        int
	AllowedSubjects []string
}

type rawProgram struct {
	Name    string
	Courses map[string]int
}

type rawInput struct {
	Students   []rawStudent
	Teachers   []rawTeacher
	Classrooms []rawClassroom
	Programs   []rawProgram
}

// InputFromJson loads a problem document from a JSON file.
func InputFromJson(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var raw rawInput
	if err := mapstructure.Decode(inputJson, &raw); err != nil {
		return Input{}, err
	}
	return processRawInput(raw)
}

func processRawInput(raw rawInput) (Input, error) {
	programs := lo.Map(raw.Programs, func(p rawProgram, _ int) Program {
		return Program{Name: p.Name, Courses: p.Courses}
	})
	programNames := lo.SliceToMap(programs, func(p Program) (string, bool) {
		return p.Name, true
	})

	students := make([]Student, 0, len(raw.Students))
	for _, s := range raw.Students {
		if !programNames[s.Program] {
			return Input{}, fmt.Errorf("student %v enrolled in unknown program %q", s.Id, s.Program)
		}
		students = append(students, Student{Id: s.Id, Name: s.Name, Program: s.Program, Group: -1})
	}

	teachers := lo.Map(raw.Teachers, func(t rawTeacher, _ int) Teacher {
		preferred := -1
		if t.PreferredRoom != nil {
			preferred = *t.PreferredRoom
		}
		return Teacher{Id: t.Id, Name: t.Name, Qualifications: t.Qualifications, PreferredRoom: preferred}
	})

	classrooms := lo.Map(raw.Classrooms, func(c rawClassroom, _ int) Classroom {
		return Classroom{Id: c.Id, Name: c.Name, Capacity: c.Capacity, AllowedSubjects: c.AllowedSubjects}
	})

	return Input{
		Students:   students,
		Teachers:   teachers,
		Classrooms: classrooms,
		Programs:   programs,
	}, nil
}

// QualifiedFor reports whether the teacher may teach the course type.
func (t Teacher) QualifiedFor(course string) bool {
	return lo.Contains(t.Qualifications, course)
}

// Compatible reports whether the room can host a session of the course
// type with the given attendee count.
func (c Classroom) Compatible(course string, size int) bool {
	if c.Capacity < size {
		return false
	}
	return len(c.AllowedSubjects) == 0 || lo.Contains(c.AllowedSubjects, course)
}
