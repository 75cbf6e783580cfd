package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/dashboard"
	"github.com/studentpartner/backend/core/result"
	"github.com/studentpartner/backend/core/user"
)

// school is a class with one section and one subject, taught by teacher to student.
type school struct {
	admin, teacher, student, parent user.User
	class                           academic.Class
	section                         academic.Section
	subject                         academic.Subject
}

func (app testApp) createSchool(t *testing.T) school {
	t.Helper()
	s := school{
		admin:   app.createUser(t, "Admin", "admin1", user.RoleAdmin),
		teacher: app.createUser(t, "Teacher", "teacher", user.RoleTeacher),
		student: app.createUser(t, "Hero", "hero01", user.RoleStudent),
		parent:  app.createUser(t, "Papa", "papa01", user.RoleParent),
	}
	adminToken := app.getToken(t, s.admin)

	mustDo := func(method, path string, wantCode int, body, dst interface{}) {
		t.Helper()
		resp := app.do(t, method, path, adminToken, body, dst)
		require.Equal(t, wantCode, resp.Code, resp.Body.String())
	}
	mustDo(http.MethodPost, "/v1/academic/classes", http.StatusCreated, academic.NewClass{Name: "Grade 6"}, &s.class)
	mustDo(http.MethodPost, "/v1/academic/sections", http.StatusCreated, academic.NewSection{ClassID: s.class.ID, Name: "A"}, &s.section)
	mustDo(http.MethodPost, "/v1/academic/subjects", http.StatusCreated, academic.NewSubject{Name: "Mathematics", Code: "MATH6"}, &s.subject)
	mustDo(http.MethodPut, "/v1/academic/allocations", http.StatusOK, academic.NewAllocation{
		TeacherID: s.teacher.ID, ClassID: s.class.ID, SectionID: s.section.ID, SubjectID: s.subject.ID, AcademicYear: "2024-25",
	}, nil)
	mustDo(http.MethodPut, "/v1/academic/enrollments", http.StatusOK, academic.NewEnrollment{
		StudentID: s.student.ID, ClassID: s.class.ID, SectionID: s.section.ID, AcademicYear: "2024-25", RollNumber: "07",
	}, nil)
	mustDo(http.MethodPost, "/v1/academic/parent-links", http.StatusNoContent, academic.ParentLink{ParentID: s.parent.ID, StudentID: s.student.ID}, nil)
	return s
}

func Test_academicApi(t *testing.T) {
	app := setup(t)
	s := app.createSchool(t)
	other := app.createUser(t, "Other", "other1", user.RoleStudent)
	teacherToken := app.getToken(t, s.teacher)
	enrollmentPath := fmt.Sprintf("/v1/academic/students/%d/enrollment", s.student.ID)

	app.run(t, []httpTest{
		{
			name: "Admin only", method: http.MethodPost, path: "/v1/academic/classes", token: teacherToken,
			body: marchallObj(t, academic.NewClass{Name: "Grade 7"}), wantCode: http.StatusForbidden,
		},
		{
			name: "Duplicate class", method: http.MethodPost, path: "/v1/academic/classes", token: app.getToken(t, s.admin),
			body:     marchallObj(t, academic.NewClass{Name: "Grade 6"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": academic.ErrClassExists.Error()}),
		},
		{
			name: "Invalid academic year", method: http.MethodPut, path: "/v1/academic/enrollments", token: app.getToken(t, s.admin),
			body: marchallObj(t, academic.NewEnrollment{
				StudentID: other.ID, ClassID: s.class.ID, SectionID: s.section.ID, AcademicYear: "2024",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Sections of class", method: http.MethodGet, path: fmt.Sprintf("/v1/academic/sections?class_id=%d", s.class.ID),
			token: teacherToken, wantData: marchallList(t, s.section),
		},
		{name: "Students have no allocations", method: http.MethodGet, path: "/v1/academic/allocations", token: app.getToken(t, s.student), wantCode: http.StatusForbidden},
		{name: "Classmates do not see enrollments", method: http.MethodGet, path: enrollmentPath, token: app.getToken(t, other), wantCode: http.StatusForbidden},
		{name: "Unenrolled student", method: http.MethodGet, path: fmt.Sprintf("/v1/academic/students/%d/enrollment", other.ID), token: teacherToken, wantCode: http.StatusNotFound},
		{name: "Only parents have children", method: http.MethodGet, path: "/v1/academic/children", token: teacherToken, wantCode: http.StatusForbidden},
	})

	t.Run("Allocations", func(t *testing.T) {
		var allocs []academic.Allocation
		resp := app.do(t, http.MethodGet, "/v1/academic/allocations", teacherToken, nil, &allocs)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.Len(t, allocs, 1)
		assert.Equal(t, s.subject.ID, allocs[0].SubjectID)
		assert.Equal(t, "2024-25", allocs[0].AcademicYear)
	})

	t.Run("Parents follow their children", func(t *testing.T) {
		parentToken := app.getToken(t, s.parent)
		var enr academic.Enrollment
		resp := app.do(t, http.MethodGet, enrollmentPath, parentToken, nil, &enr)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, s.section.ID, enr.SectionID)
		assert.Equal(t, "07", enr.RollNumber)

		var children []academic.Child
		resp = app.do(t, http.MethodGet, "/v1/academic/children", parentToken, nil, &children)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.Len(t, children, 1)
		assert.Equal(t, s.student.ID, children[0].ID)
		require.NotNil(t, children[0].Enrollment)

		link := academic.ParentLink{ParentID: s.parent.ID, StudentID: s.student.ID}
		resp = app.do(t, http.MethodDelete, "/v1/academic/parent-links", app.getToken(t, s.admin), link, nil)
		require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
		resp = app.do(t, http.MethodGet, enrollmentPath, parentToken, nil, nil)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func Test_courseworkApi(t *testing.T) {
	app := setup(t)
	s := app.createSchool(t)
	stranger := app.createUser(t, "Stranger", "strange", user.RoleTeacher)
	teacherToken := app.getToken(t, s.teacher)
	studentToken := app.getToken(t, s.student)

	newAssignment := coursework.NewMaterial{
		Title: "Fractions", ClassID: s.class.ID, SectionID: s.section.ID, SubjectID: s.subject.ID,
		Type: coursework.TypeAssignment, DueDate: core.NewDate(2024, 10, 1),
	}
	app.run(t, []httpTest{
		{
			name: "Teachers upload for their own subjects", method: http.MethodPost, path: "/v1/coursework/materials",
			token: app.getToken(t, stranger), body: marchallObj(t, newAssignment), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject_id": coursework.ErrNotTeaching.Error()}),
		},
		{
			name: "Students do not upload", method: http.MethodPost, path: "/v1/coursework/materials",
			token: studentToken, body: marchallObj(t, newAssignment), wantCode: http.StatusForbidden,
		},
		{
			name: "Assignments need a due date", method: http.MethodPost, path: "/v1/coursework/materials", token: teacherToken,
			body: marchallObj(t, coursework.NewMaterial{
				Title: "Fractions", ClassID: s.class.ID, SectionID: s.section.ID, SubjectID: s.subject.ID, Type: coursework.TypeAssignment,
			}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"due_date": "assignments need a due_date"}),
		},
	})

	var m coursework.Material
	resp := app.do(t, http.MethodPost, "/v1/coursework/materials", teacherToken, newAssignment, &m)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var materials []coursework.Material
	resp = app.do(t, http.MethodGet, fmt.Sprintf("/v1/coursework/sections/%d/materials", s.section.ID), studentToken, nil, &materials)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, materials, 1)
	assert.Equal(t, m.ID, materials[0].ID)

	submissionsPath := fmt.Sprintf("/v1/coursework/materials/%d/submissions", m.ID)
	app.run(t, []httpTest{
		{
			name: "Empty submission", method: http.MethodPost, path: submissionsPath, token: studentToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: coursework.ErrEmptySubmission.Error()}),
		},
		{name: "Unknown material", method: http.MethodPost, path: "/v1/coursework/materials/9999/submissions", token: studentToken, body: []byte(`{"content":"1/2"}`), wantCode: http.StatusNotFound},
	})

	var sub coursework.Submission
	resp = app.do(t, http.MethodPost, submissionsPath, studentToken, coursework.NewSubmission{FilePath: "https://files.test.cd/hero01/fractions.pdf"}, &sub)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, coursework.SubmissionSubmitted, sub.Status)

	app.run(t, []httpTest{
		{
			name: "Submitted once", method: http.MethodPost, path: submissionsPath, token: studentToken, body: []byte(`{"content":"1/2"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: coursework.ErrAlreadySubmitted.Error()}),
		},
		{name: "Only the uploader reviews", method: http.MethodGet, path: submissionsPath, token: app.getToken(t, stranger), wantCode: http.StatusForbidden},
	})

	var subs []coursework.Submission
	resp = app.do(t, http.MethodGet, submissionsPath, teacherToken, nil, &subs)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, subs, 1)

	var graded coursework.Submission
	resp = app.do(t, http.MethodPut, fmt.Sprintf("/v1/coursework/submissions/%d/grade", sub.ID), teacherToken, coursework.Grade{Grade: "A", Feedback: "Neat"}, &graded)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, coursework.SubmissionGraded, graded.Status)
	assert.NotNil(t, graded.GradedAt)
}

func Test_resultAndDashboardApi(t *testing.T) {
	app := setup(t)
	s := app.createSchool(t)
	teacherToken := app.getToken(t, s.teacher)

	newResult := result.NewResult{StudentID: s.student.ID, SubjectID: s.subject.ID, ExamName: "Midterm", MarksObtained: 42, MaxMarks: 50}
	app.run(t, []httpTest{
		{
			name: "Marks above max", method: http.MethodPost, path: "/v1/results", token: teacherToken,
			body:     marchallObj(t, result.NewResult{StudentID: s.student.ID, SubjectID: s.subject.ID, ExamName: "Midterm", MarksObtained: 51, MaxMarks: 50}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"marks_obtained": result.ErrMarksAboveMax.Error()}),
		},
		{
			name: "Results are for students", method: http.MethodPost, path: "/v1/results", token: teacherToken,
			body:     marchallObj(t, result.NewResult{StudentID: s.parent.ID, SubjectID: s.subject.ID, ExamName: "Midterm", MaxMarks: 50}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "user is not a student"}),
		},
		{name: "Students do not grade", method: http.MethodPost, path: "/v1/results", token: app.getToken(t, s.student), body: marchallObj(t, newResult), wantCode: http.StatusForbidden},
	})

	resp := app.do(t, http.MethodPost, "/v1/results", teacherToken, newResult, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var results []result.ExamResult
	resp = app.do(t, http.MethodGet, fmt.Sprintf("/v1/results/students/%d", s.student.ID), app.getToken(t, s.parent), nil, &results)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, results, 1)
	assert.Equal(t, 42.0, results[0].MarksObtained)

	t.Run("Dashboard", func(t *testing.T) {
		app.run(t, []httpTest{
			{name: "Auth required", method: http.MethodGet, path: "/v1/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: "Zero month is the current one", method: http.MethodGet, path: "/v1/dashboard?year=2024&month=0", token: teacherToken, wantCode: http.StatusOK},
			{name: "Month out of range", method: http.MethodGet, path: "/v1/dashboard?year=2024&month=13", token: teacherToken, wantCode: http.StatusBadRequest},
		})

		var d dashboard.Dashboard
		resp := app.do(t, http.MethodGet, "/v1/dashboard?year=2024&month=2", app.getToken(t, s.student), nil, &d)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, s.student.ID, d.User.ID)
		assert.Equal(t, 29, d.Calendar.Days)
		require.NotNil(t, d.Student)
		assert.Nil(t, d.Teacher)
		require.NotNil(t, d.Student.Enrollment)
		assert.Len(t, d.Student.Results, 1)

		var pd dashboard.Dashboard
		resp = app.do(t, http.MethodGet, "/v1/dashboard", app.getToken(t, s.parent), nil, &pd)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.NotNil(t, pd.Parent)
		assert.Nil(t, pd.Student)
		assert.Len(t, pd.Parent.Children, 1)
	})
}
