package dummydb

import (
	"sync"

	"github.com/academia-app/academia/core/agenda"
	"github.com/academia-app/academia/core/curriculum"
	"github.com/academia-app/academia/core/student"
	"github.com/academia-app/academia/core/user"
)

type (
	// DB is an in-memory store backing tests and local tinkering.
	DB struct {
		user    *userTable
		program *programTable
		course  *courseTable
		entry   *entryTable
		prereq  *prereqTable
		student *studentTable
		state   *stateTable
		grade   *gradeTable
		event   *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	programTable struct {
		sync.RWMutex
		seq   int
		table map[int]*curriculum.Program
	}

	courseTable struct {
		sync.RWMutex
		seq   int
		table map[int]*curriculum.Course
	}

	entryTable struct {
		sync.RWMutex
		table map[[2]int]*curriculum.Entry // (programID, courseID)
	}

	prereqTable struct {
		sync.RWMutex
		table map[[2]int]struct{} // (courseID, prereqID)
	}

	studentTable struct {
		sync.RWMutex
		seq   int
		table map[int]*student.Student
	}

	stateTable struct {
		sync.RWMutex
		table map[[2]int]*student.CourseState // (studentID, courseID)
	}

	gradeTable struct {
		sync.RWMutex
		seq   int
		table map[int]*student.GradeEntry
	}

	eventTable struct {
		sync.RWMutex
		seq   int
		table map[int]*agenda.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		program: &programTable{table: make(map[int]*curriculum.Program)},
		course:  &courseTable{table: make(map[int]*curriculum.Course)},
		entry:   &entryTable{table: make(map[[2]int]*curriculum.Entry)},
		prereq:  &prereqTable{table: make(map[[2]int]struct{})},
		student: &studentTable{table: make(map[int]*student.Student)},
		state:   &stateTable{table: make(map[[2]int]*student.CourseState)},
		grade:   &gradeTable{table: make(map[int]*student.GradeEntry)},
		event:   &eventTable{table: make(map[int]*agenda.Event)},
	}
	return db, nil
}
