package academic

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

var (
	ErrClassNotFound      = core.NewNotFoundError("class")
	ErrSectionNotFound    = core.NewNotFoundError("section")
	ErrSubjectNotFound    = core.NewNotFoundError("subject")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")

	ErrClassExists       = errors.New("a class with this name already exists")
	ErrSectionExists     = errors.New("this class already has a section with this name")
	ErrSubjectExists     = errors.New("a subject with this code already exists")
	ErrSectionNotInClass = errors.New("section does not belong to class")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
		GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)

		CreateSection(ctx context.Context, s Section, exec ...core.DBExecutor) (Section, error)
		GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (Section, error)
		QuerySections(ctx context.Context, classID int, exec ...core.DBExecutor) ([]Section, error)

		CreateSubject(ctx context.Context, s Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubject(ctx context.Context, id int, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)

		// UpsertAllocation replaces the teacher of an existing (class, section, subject, year) slot.
		UpsertAllocation(ctx context.Context, a Allocation, exec ...core.DBExecutor) (Allocation, error)
		QueryAllocations(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]Allocation, error)
		// IsTeaching reports whether teacherID is allocated to any slot of sectionID (or of subjectID in it, when non zero).
		IsTeaching(ctx context.Context, teacherID, sectionID, subjectID int, exec ...core.DBExecutor) (bool, error)

		// UpsertEnrollment updates the class, section and roll number of an existing (student, year) enrollment.
		UpsertEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		// LatestEnrollment returns the most recently created enrollment of a student.
		LatestEnrollment(ctx context.Context, studentID int, exec ...core.DBExecutor) (Enrollment, error)

		LinkParent(ctx context.Context, parentID, studentID int, createdAt time.Time, exec ...core.DBExecutor) error
		UnlinkParent(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) error
		ChildrenIDs(ctx context.Context, parentID int, exec ...core.DBExecutor) ([]int, error)
		IsParentOf(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) (bool, error)
	}

	Service interface {
		CreateClass(ctx context.Context, actor user.User, nc NewClass) (Class, error)
		Classes(ctx context.Context) ([]Class, error)
		CreateSection(ctx context.Context, actor user.User, ns NewSection) (Section, error)
		Sections(ctx context.Context, classID int) ([]Section, error)
		CreateSubject(ctx context.Context, actor user.User, ns NewSubject) (Subject, error)
		Subjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)

		AllocateTeacher(ctx context.Context, actor user.User, na NewAllocation) (Allocation, error)
		TeacherAllocations(ctx context.Context, teacherID int) ([]Allocation, error)
		IsTeaching(ctx context.Context, teacherID, sectionID, subjectID int) (bool, error)

		EnrollStudent(ctx context.Context, actor user.User, ne NewEnrollment) (Enrollment, error)
		// CurrentEnrollment returns nil when the student was never enrolled.
		CurrentEnrollment(ctx context.Context, studentID int) (*Enrollment, error)

		LinkParent(ctx context.Context, actor user.User, link ParentLink) error
		UnlinkParent(ctx context.Context, actor user.User, link ParentLink) error
		Children(ctx context.Context, parentID int) ([]Child, error)
		IsParentOf(ctx context.Context, parentID, studentID int) (bool, error)
	}

	service struct {
		repo     Repository
		userSvc  user.Service
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, validate *validator.Validate) Service {
	return &service{
		repo:     repo,
		userSvc:  userSvc,
		validate: validate,
	}
}

func requireAdmin(actor user.User) error {
	if !actor.IsAdmin() {
		return core.ErrPermissionDenied
	}
	return nil
}

// requireRole checks that the user id holds role, reporting errors on field.
func (svc *service) requireRole(ctx context.Context, id int, role user.Role, field string) (user.User, error) {
	usr, err := svc.userSvc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, core.NewFieldError(field, "user not found")
		}
		return user.User{}, err
	}
	if usr.Role != role {
		return user.User{}, core.NewFieldError(field, "user is not a "+string(role))
	}
	return usr, nil
}

func (svc *service) CreateClass(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	if err := requireAdmin(actor); err != nil {
		return Class{}, err
	}
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Class{}, err
	}
	c, err := svc.repo.CreateClass(ctx, Class{Name: nc.Name, CreatedAt: time.Now().UTC()})
	if errors.Cause(err) == ErrClassExists {
		return Class{}, core.NewFieldError("name", ErrClassExists.Error())
	}
	return c, err
}

func (svc *service) Classes(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *service) CreateSection(ctx context.Context, actor user.User, ns NewSection) (Section, error) {
	if err := requireAdmin(actor); err != nil {
		return Section{}, err
	}
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Section{}, err
	}
	if _, err := svc.repo.GetClass(ctx, ns.ClassID); err != nil {
		if core.IsNotFound(err) {
			return Section{}, core.NewFieldError("class_id", ErrClassNotFound.Error())
		}
		return Section{}, err
	}
	s, err := svc.repo.CreateSection(ctx, Section{ClassID: ns.ClassID, Name: ns.Name, CreatedAt: time.Now().UTC()})
	if errors.Cause(err) == ErrSectionExists {
		return Section{}, core.NewFieldError("name", ErrSectionExists.Error())
	}
	return s, err
}

func (svc *service) Sections(ctx context.Context, classID int) ([]Section, error) {
	return svc.repo.QuerySections(ctx, classID)
}

func (svc *service) CreateSubject(ctx context.Context, actor user.User, ns NewSubject) (Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return Subject{}, err
	}
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Subject{}, err
	}
	s, err := svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, Code: ns.Code, CreatedAt: time.Now().UTC()})
	if errors.Cause(err) == ErrSubjectExists {
		return Subject{}, core.NewFieldError("code", ErrSubjectExists.Error())
	}
	return s, err
}

func (svc *service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) GetSubject(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

// checkSlot verifies that the section belongs to the class (and that the subject exists, when non zero).
func (svc *service) checkSlot(ctx context.Context, classID, sectionID, subjectID int) error {
	sec, err := svc.repo.GetSection(ctx, sectionID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewFieldError("section_id", ErrSectionNotFound.Error())
		}
		return err
	}
	if sec.ClassID != classID {
		return core.NewFieldError("section_id", ErrSectionNotInClass.Error())
	}
	if subjectID != 0 {
		if _, err = svc.repo.GetSubject(ctx, subjectID); err != nil {
			if core.IsNotFound(err) {
				return core.NewFieldError("subject_id", ErrSubjectNotFound.Error())
			}
			return err
		}
	}
	return nil
}

func (svc *service) AllocateTeacher(ctx context.Context, actor user.User, na NewAllocation) (Allocation, error) {
	if err := requireAdmin(actor); err != nil {
		return Allocation{}, err
	}
	na.AcademicYear = core.CleanString(na.AcademicYear)
	if err := svc.validate.Struct(na); err != nil {
		return Allocation{}, err
	}
	if _, err := svc.requireRole(ctx, na.TeacherID, user.RoleTeacher, "teacher_id"); err != nil {
		return Allocation{}, err
	}
	if err := svc.checkSlot(ctx, na.ClassID, na.SectionID, na.SubjectID); err != nil {
		return Allocation{}, err
	}

	now := time.Now().UTC()
	return svc.repo.UpsertAllocation(ctx, Allocation{
		TeacherID:    na.TeacherID,
		ClassID:      na.ClassID,
		SectionID:    na.SectionID,
		SubjectID:    na.SubjectID,
		AcademicYear: na.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) TeacherAllocations(ctx context.Context, teacherID int) ([]Allocation, error) {
	return svc.repo.QueryAllocations(ctx, teacherID)
}

func (svc *service) IsTeaching(ctx context.Context, teacherID, sectionID, subjectID int) (bool, error) {
	return svc.repo.IsTeaching(ctx, teacherID, sectionID, subjectID)
}

func (svc *service) EnrollStudent(ctx context.Context, actor user.User, ne NewEnrollment) (Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return Enrollment{}, err
	}
	ne.Clean()
	if err := svc.validate.Struct(ne); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.requireRole(ctx, ne.StudentID, user.RoleStudent, "student_id"); err != nil {
		return Enrollment{}, err
	}
	if err := svc.checkSlot(ctx, ne.ClassID, ne.SectionID, 0); err != nil {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	return svc.repo.UpsertEnrollment(ctx, Enrollment{
		StudentID:    ne.StudentID,
		ClassID:      ne.ClassID,
		SectionID:    ne.SectionID,
		AcademicYear: ne.AcademicYear,
		RollNumber:   ne.RollNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) CurrentEnrollment(ctx context.Context, studentID int) (*Enrollment, error) {
	e, err := svc.repo.LatestEnrollment(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (svc *service) LinkParent(ctx context.Context, actor user.User, link ParentLink) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := svc.validate.Struct(link); err != nil {
		return err
	}
	if _, err := svc.requireRole(ctx, link.ParentID, user.RoleParent, "parent_id"); err != nil {
		return err
	}
	if _, err := svc.requireRole(ctx, link.StudentID, user.RoleStudent, "student_id"); err != nil {
		return err
	}
	return svc.repo.LinkParent(ctx, link.ParentID, link.StudentID, time.Now().UTC())
}

func (svc *service) UnlinkParent(ctx context.Context, actor user.User, link ParentLink) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return svc.repo.UnlinkParent(ctx, link.ParentID, link.StudentID)
}

func (svc *service) Children(ctx context.Context, parentID int) ([]Child, error) {
	ids, err := svc.repo.ChildrenIDs(ctx, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	if len(ids) == 0 {
		return []Child{}, nil
	}
	students, err := svc.userSvc.Query(ctx, &user.QueryFilter{IDs: ids}, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	children := make([]Child, 0, len(students))
	for _, st := range students {
		enr, err := svc.CurrentEnrollment(ctx, st.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting enrollment of %d", st.ID)
		}
		children = append(children, Child{
			ID:             st.ID,
			RegistrationID: st.RegistrationID,
			Name:           st.Name,
			Enrollment:     enr,
		})
	}
	return children, nil
}

func (svc *service) IsParentOf(ctx context.Context, parentID, studentID int) (bool, error) {
	return svc.repo.IsParentOf(ctx, parentID, studentID)
}
