package coursework_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
	"github.com/studentpartner/backend/testutil"
)

type fixture struct {
	svc                               coursework.Service
	admin, teacher, outsider, student user.User
	section                           academic.Section
	subject                           academic.Subject
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	validate := testutil.NewValidator()
	db := testutil.PrepareDB(t)
	ctx := context.Background()

	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(db, usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf)
	academicSvc := academic.NewService(sqlxrepos.NewAcademicRepository(db), usrSvc, validate)

	f := fixture{
		svc:      coursework.NewService(sqlxrepos.NewCourseworkRepository(db), academicSvc, validate),
		admin:    testutil.CreateUser(t, usrRepo, "Admin", "admin1", "", "", user.RoleAdmin, user.StatusActive),
		teacher:  testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "", "", user.RoleTeacher, user.StatusActive),
		outsider: testutil.CreateUser(t, usrRepo, "Outsider", "outsider", "", "", user.RoleTeacher, user.StatusActive),
		student:  testutil.CreateUser(t, usrRepo, "Student", "student", "", "", user.RoleStudent, user.StatusActive),
	}
	class, err := academicSvc.CreateClass(ctx, f.admin, academic.NewClass{Name: "Class 10"})
	require.NoError(t, err)
	f.section, err = academicSvc.CreateSection(ctx, f.admin, academic.NewSection{ClassID: class.ID, Name: "A"})
	require.NoError(t, err)
	f.subject, err = academicSvc.CreateSubject(ctx, f.admin, academic.NewSubject{Name: "Mathematics", Code: "MATH101"})
	require.NoError(t, err)
	_, err = academicSvc.AllocateTeacher(ctx, f.admin, academic.NewAllocation{
		TeacherID: f.teacher.ID, ClassID: class.ID, SectionID: f.section.ID, SubjectID: f.subject.ID, AcademicYear: "2024-25",
	})
	require.NoError(t, err)
	return f
}

func (f fixture) newMaterial(typ coursework.MaterialType, due core.Date) coursework.NewMaterial {
	return coursework.NewMaterial{
		Title:     "Chapter 1",
		ClassID:   f.section.ClassID,
		SectionID: f.section.ID,
		SubjectID: f.subject.ID,
		Type:      typ,
		DueDate:   due,
	}
}

func TestService_CreateMaterial(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	due := core.NewDate(2024, 10, 1)

	tests := []struct {
		name    string
		actor   user.User
		nm      coursework.NewMaterial
		wantErr string
	}{
		{name: "students cannot", actor: f.student, nm: f.newMaterial(coursework.TypeMaterial, core.Date{}), wantErr: core.ErrPermissionDenied.Error()},
		{name: "not teaching", actor: f.outsider, nm: f.newMaterial(coursework.TypeMaterial, core.Date{}), wantErr: coursework.ErrNotTeaching.Error()},
		{name: "assignment needs due date", actor: f.teacher, nm: f.newMaterial(coursework.TypeAssignment, core.Date{}), wantErr: "assignments need a due_date"},
		{name: "teacher", actor: f.teacher, nm: f.newMaterial(coursework.TypeAssignment, due)},
		{name: "admin", actor: f.admin, nm: f.newMaterial("", due)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.svc.CreateMaterial(ctx, tt.actor, tt.nm)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, m.ID)
			assert.Equal(t, tt.actor.ID, m.UploaderID)
		})
	}

	t.Run("materials drop the due date", func(t *testing.T) {
		mats, err := f.svc.SectionMaterials(ctx, f.section.ID)
		require.NoError(t, err)
		require.Len(t, mats, 2)
		for _, m := range mats {
			if m.Type == coursework.TypeMaterial {
				assert.True(t, m.DueDate.IsZero())
			} else {
				assert.True(t, due.Equal(m.DueDate), m.DueDate.String())
			}
		}
	})
}

func TestService_SubmitAndGrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assignment, err := f.svc.CreateMaterial(ctx, f.teacher, f.newMaterial(coursework.TypeAssignment, core.NewDate(2024, 10, 1)))
	require.NoError(t, err)
	reading, err := f.svc.CreateMaterial(ctx, f.teacher, f.newMaterial(coursework.TypeMaterial, core.Date{}))
	require.NoError(t, err)

	answer := coursework.NewSubmission{Content: "42"}
	_, err = f.svc.Submit(ctx, f.teacher, assignment.ID, answer)
	assert.Equal(t, core.ErrPermissionDenied, err)
	_, err = f.svc.Submit(ctx, f.student, assignment.ID, coursework.NewSubmission{Content: "  "})
	assert.Equal(t, core.NewValidationError(coursework.ErrEmptySubmission), err)
	_, err = f.svc.Submit(ctx, f.student, reading.ID, answer)
	assert.Equal(t, core.NewValidationError(coursework.ErrNotAssignment), err)
	_, err = f.svc.Submit(ctx, f.student, assignment.ID+100, answer)
	assert.True(t, core.IsNotFound(err))

	sub, err := f.svc.Submit(ctx, f.student, assignment.ID, answer)
	require.NoError(t, err)
	assert.Equal(t, coursework.SubmissionSubmitted, sub.Status)

	_, err = f.svc.Submit(ctx, f.student, assignment.ID, answer)
	assert.Equal(t, core.NewValidationError(coursework.ErrAlreadySubmitted), err)

	_, err = f.svc.Submissions(ctx, f.outsider, assignment.ID)
	assert.Equal(t, core.ErrPermissionDenied, err)
	subs, err := f.svc.Submissions(ctx, f.admin, assignment.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)

	_, err = f.svc.Grade(ctx, f.outsider, sub.ID, coursework.Grade{Grade: "A"})
	assert.Equal(t, core.ErrPermissionDenied, err)
	graded, err := f.svc.Grade(ctx, f.teacher, sub.ID, coursework.Grade{Grade: " A ", Feedback: "Well done"})
	require.NoError(t, err)
	assert.Equal(t, coursework.SubmissionGraded, graded.Status)
	assert.Equal(t, "A", graded.Grade)
	assert.NotNil(t, graded.GradedAt)
}
