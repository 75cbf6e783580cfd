package coursework

import (
	"time"

	"github.com/studentpartner/backend/core"
)

type (
	MaterialType     string
	SubmissionStatus string
)

const (
	TypeMaterial   MaterialType = "material"
	TypeAssignment MaterialType = "assignment"

	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

type Material struct {
	ID           int          `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	FilePath     string       `json:"file_path,omitempty"` // link to the resource
	UploaderID   int          `json:"uploader_id"`
	UploaderName string       `json:"uploader_name,omitempty"`
	ClassID      int          `json:"class_id"`
	SectionID    int          `json:"section_id"`
	SubjectID    int          `json:"subject_id"`
	SubjectName  string       `json:"subject_name,omitempty"`
	Type         MaterialType `json:"type"`
	DueDate      core.Date    `json:"due_date"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (m Material) IsAssignment() bool { return m.Type == TypeAssignment }

type Submission struct {
	ID          int              `json:"id"`
	MaterialID  int              `json:"material_id"`
	StudentID   int              `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	FilePath    string           `json:"file_path,omitempty"`
	Content     string           `json:"content,omitempty"`
	Status      SubmissionStatus `json:"status"`
	Grade       string           `json:"grade,omitempty"`
	Feedback    string           `json:"feedback,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	GradedAt    *time.Time       `json:"graded_at"`
}

type NewMaterial struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Description string       `json:"description"`
	FilePath    string       `json:"file_path" validate:"omitempty,url,max=1024"`
	ClassID     int          `json:"class_id" validate:"required"`
	SectionID   int          `json:"section_id" validate:"required"`
	SubjectID   int          `json:"subject_id" validate:"required"`
	Type        MaterialType `json:"type" validate:"omitempty,oneof=material assignment"`
	DueDate     core.Date    `json:"due_date"`
}

type NewSubmission struct {
	FilePath string `json:"file_path" validate:"omitempty,url,max=1024"`
	Content  string `json:"content"`
}

type Grade struct {
	Grade    string `json:"grade" validate:"required,max=16"`
	Feedback string `json:"feedback"`
}
