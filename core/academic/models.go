package academic

import (
	"fmt"
	"strings"
	"time"

	"github.com/studentpartner/backend/core"
)

type (
	Class struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	Section struct {
		ID        int       `json:"id"`
		ClassID   int       `json:"class_id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	Subject struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		Code      string    `json:"code"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Allocation assigns a teacher to a (class, section, subject) slot for an academic year.
	Allocation struct {
		ID           int       `json:"id"`
		TeacherID    int       `json:"teacher_id"`
		TeacherName  string    `json:"teacher_name,omitempty"`
		ClassID      int       `json:"class_id"`
		ClassName    string    `json:"class_name,omitempty"`
		SectionID    int       `json:"section_id"`
		SectionName  string    `json:"section_name,omitempty"`
		SubjectID    int       `json:"subject_id"`
		SubjectName  string    `json:"subject_name,omitempty"`
		AcademicYear string    `json:"academic_year"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Enrollment places a student in a class section for an academic year.
	Enrollment struct {
		ID           int       `json:"id"`
		StudentID    int       `json:"student_id"`
		ClassID      int       `json:"class_id"`
		ClassName    string    `json:"class_name,omitempty"`
		SectionID    int       `json:"section_id"`
		SectionName  string    `json:"section_name,omitempty"`
		AcademicYear string    `json:"academic_year"`
		RollNumber   string    `json:"roll_number,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Child struct {
		ID             int         `json:"id"`
		RegistrationID string      `json:"registration_id"`
		Name           string      `json:"name"`
		Enrollment     *Enrollment `json:"enrollment"`
	}
)

type (
	NewClass struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	NewSection struct {
		ClassID int    `json:"class_id" validate:"required"`
		Name    string `json:"name" validate:"required,max=100"`
	}

	NewSubject struct {
		Name string `json:"name" validate:"required,max=100"`
		Code string `json:"code" validate:"required,max=20,alphanum"`
	}

	NewAllocation struct {
		TeacherID    int    `json:"teacher_id" validate:"required"`
		ClassID      int    `json:"class_id" validate:"required"`
		SectionID    int    `json:"section_id" validate:"required"`
		SubjectID    int    `json:"subject_id" validate:"required"`
		AcademicYear string `json:"academic_year" validate:"required,academicyear"`
	}

	NewEnrollment struct {
		StudentID    int    `json:"student_id" validate:"required"`
		ClassID      int    `json:"class_id" validate:"required"`
		SectionID    int    `json:"section_id" validate:"required"`
		AcademicYear string `json:"academic_year" validate:"required,academicyear"`
		RollNumber   string `json:"roll_number" validate:"max=20"`
	}

	ParentLink struct {
		ParentID  int `json:"parent_id" validate:"required"`
		StudentID int `json:"student_id" validate:"required"`
	}
)

func (nc *NewClass) Clean() { nc.Name = core.CleanString(nc.Name) }

func (ns *NewSection) Clean() { ns.Name = core.CleanString(ns.Name) }

func (ns *NewSubject) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = strings.ToUpper(core.CleanString(ns.Code))
}

func (ne *NewEnrollment) Clean() {
	ne.AcademicYear = core.CleanString(ne.AcademicYear)
	ne.RollNumber = core.CleanString(ne.RollNumber)
}

// CurrentAcademicYear returns the YYYY-YY academic year containing t; years start in startMonth.
func CurrentAcademicYear(t time.Time, startMonth time.Month) string {
	year := t.Year()
	if t.Month() < startMonth {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}
