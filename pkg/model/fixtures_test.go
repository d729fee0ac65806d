package model

import "fmt"

// smallInput is a four-student, one-program problem small enough for
// exact solves in tests.
func smallInput() Input {
	return Input{
		Students: []Student{
			{Id: 1, Name: "Ana", Program: "science", Group: -1},
			{Id: 2, Name: "Ben", Program: "science", Group: -1},
			{Id: 3, Name: "Cleo", Program: "science", Group: -1},
			{Id: 4, Name: "Dmitri", Program: "science", Group: -1},
		},
		Teachers: []Teacher{
			{Id: 1, Name: "Moreau", Qualifications: []string{"math", "biology"}, PreferredRoom: 1},
			{Id: 2, Name: "Okafor", Qualifications: []string{"math", "biology"}, PreferredRoom: -1},
		},
		Classrooms: []Classroom{
			{Id: 1, Name: "A101", Capacity: 30},
			{Id: 2, Name: "A102", Capacity: 30},
		},
		Programs: []Program{
			{Name: "science", Courses: map[string]int{"math": 2, "biology": 1}},
		},
	}
}

// largeInput mirrors a realistic load: students across one program with
// an 11-course curriculum totaling 36 required instances, 13 teachers
// spanning every course, 8 unrestricted rooms.
func largeInput(students int) Input {
	courses := map[string]int{
		"math": 4, "french": 4, "english": 4,
		"biology": 3, "chemistry": 3, "physics": 3, "history": 3,
		"geography": 3, "arts": 3, "music": 3, "sports": 3,
	}
	courseNames := []string{
		"math", "french", "english", "biology", "chemistry", "physics",
		"history", "geography", "arts", "music", "sports",
	}

	input := Input{
		Programs: []Program{{Name: "general", Courses: courses}},
	}
	for i := 0; i < students; i++ {
		input.Students = append(input.Students, Student{
			Id: i + 1, Name: fmt.Sprintf("student-%v", i+1), Program: "general", Group: -1,
		})
	}
	for i := 0; i < 13; i++ {
		qualifications := []string{courseNames[i%len(courseNames)]}
		if i >= len(courseNames) {
			qualifications = courseNames
		}
		input.Teachers = append(input.Teachers, Teacher{
			Id: i + 1, Name: fmt.Sprintf("teacher-%v", i+1), Qualifications: qualifications, PreferredRoom: -1,
		})
	}
	for i := 0; i < 8; i++ {
		input.Classrooms = append(input.Classrooms, Classroom{
			Id: i + 1, Name: fmt.Sprintf("room-%v", i+1), Capacity: 30,
		})
	}
	return input
}
