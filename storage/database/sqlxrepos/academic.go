package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/storage/database"
)

type academicRepository struct {
	repository
}

var _ academic.Repository = (*academicRepository)(nil)

func NewAcademicRepository(exec core.DBExecutor) *academicRepository {
	return &academicRepository{repository{exec: exec}}
}

// Classes

func (repo academicRepository) CreateClass(ctx context.Context, c academic.Class, exec ...core.DBExecutor) (academic.Class, error) {
	id, err := insertID(ctx, repo.getExec(exec), `INSERT INTO classes (name, created_at) VALUES (?, ?) RETURNING id`, c.Name, c.CreatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return academic.Class{}, academic.ErrClassExists
		}
		return academic.Class{}, errors.Wrap(err, "inserting class")
	}
	c.ID = id
	return c, nil
}

func (repo academicRepository) GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (academic.Class, error) {
	var c academic.Class
	exe := repo.getExec(exec)
	err := exe.QueryRowxContext(ctx, exe.Rebind(`SELECT id, name, created_at FROM classes WHERE id = ?`), id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return academic.Class{}, trapNoRowsErr(err, academic.ErrClassNotFound, "getting class")
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (repo academicRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]academic.Class, error) {
	rows, err := repo.getExec(exec).QueryxContext(ctx, `SELECT id, name, created_at FROM classes ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer rows.Close()

	classes := make([]academic.Class, 0)
	for rows.Next() {
		var c academic.Class
		if err = rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning class")
		}
		c.CreatedAt = c.CreatedAt.UTC()
		classes = append(classes, c)
	}
	return classes, errors.Wrap(rows.Err(), "iterating classes")
}

// Sections

type sectionRow struct {
	ID        int       `db:"id"`
	ClassID   int       `db:"class_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r sectionRow) section() academic.Section {
	return academic.Section{ID: r.ID, ClassID: r.ClassID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func (repo academicRepository) CreateSection(ctx context.Context, s academic.Section, exec ...core.DBExecutor) (academic.Section, error) {
	id, err := insertID(ctx, repo.getExec(exec), `INSERT INTO sections (class_id, name, created_at) VALUES (?, ?, ?) RETURNING id`,
		s.ClassID, s.Name, s.CreatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return academic.Section{}, academic.ErrSectionExists
		}
		return academic.Section{}, errors.Wrap(err, "inserting section")
	}
	s.ID = id
	return s, nil
}

func (repo academicRepository) GetSection(ctx context.Context, id int, exec ...core.DBExecutor) (academic.Section, error) {
	var row sectionRow
	b := sq.Select("id", "class_id", "name", "created_at").From("sections").Where(sq.Eq{"id": id})
	if err := getBuilt(ctx, repo.getExec(exec), &row, b); err != nil {
		return academic.Section{}, trapNoRowsErr(err, academic.ErrSectionNotFound, "getting section")
	}
	return row.section(), nil
}

func (repo academicRepository) QuerySections(ctx context.Context, classID int, exec ...core.DBExecutor) ([]academic.Section, error) {
	b := sq.Select("id", "class_id", "name", "created_at").From("sections").OrderBy("class_id ASC", "name ASC")
	if classID != 0 {
		b = b.Where(sq.Eq{"class_id": classID})
	}
	var rows []sectionRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	sections := make([]academic.Section, 0, len(rows))
	for _, r := range rows {
		sections = append(sections, r.section())
	}
	return sections, nil
}

// Subjects

type subjectRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
}

func (r subjectRow) subject() academic.Subject {
	return academic.Subject{ID: r.ID, Name: r.Name, Code: r.Code, CreatedAt: r.CreatedAt.UTC()}
}

func (repo academicRepository) CreateSubject(ctx context.Context, s academic.Subject, exec ...core.DBExecutor) (academic.Subject, error) {
	id, err := insertID(ctx, repo.getExec(exec), `INSERT INTO subjects (name, code, created_at) VALUES (?, ?, ?) RETURNING id`,
		s.Name, s.Code, s.CreatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err, "code") {
			return academic.Subject{}, academic.ErrSubjectExists
		}
		return academic.Subject{}, errors.Wrap(err, "inserting subject")
	}
	s.ID = id
	return s, nil
}

func (repo academicRepository) GetSubject(ctx context.Context, id int, exec ...core.DBExecutor) (academic.Subject, error) {
	var row subjectRow
	b := sq.Select("id", "name", "code", "created_at").From("subjects").Where(sq.Eq{"id": id})
	if err := getBuilt(ctx, repo.getExec(exec), &row, b); err != nil {
		return academic.Subject{}, trapNoRowsErr(err, academic.ErrSubjectNotFound, "getting subject")
	}
	return row.subject(), nil
}

func (repo academicRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]academic.Subject, error) {
	var rows []subjectRow
	b := sq.Select("id", "name", "code", "created_at").From("subjects").OrderBy("name ASC")
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]academic.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.subject())
	}
	return subjects, nil
}

// Allocations

type allocationRow struct {
	ID           int       `db:"id"`
	TeacherID    int       `db:"teacher_id"`
	TeacherName  string    `db:"teacher_name"`
	ClassID      int       `db:"class_id"`
	ClassName    string    `db:"class_name"`
	SectionID    int       `db:"section_id"`
	SectionName  string    `db:"section_name"`
	SubjectID    int       `db:"subject_id"`
	SubjectName  string    `db:"subject_name"`
	AcademicYear string    `db:"academic_year"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r allocationRow) allocation() academic.Allocation {
	return academic.Allocation{
		ID:           r.ID,
		TeacherID:    r.TeacherID,
		TeacherName:  r.TeacherName,
		ClassID:      r.ClassID,
		ClassName:    r.ClassName,
		SectionID:    r.SectionID,
		SectionName:  r.SectionName,
		SubjectID:    r.SubjectID,
		SubjectName:  r.SubjectName,
		AcademicYear: r.AcademicYear,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func selectAllocations() sq.SelectBuilder {
	return sq.Select(
		"a.id", "a.teacher_id", "u.name AS teacher_name", "a.class_id", "c.name AS class_name",
		"a.section_id", "s.name AS section_name", "a.subject_id", "sj.name AS subject_name",
		"a.academic_year", "a.created_at", "a.updated_at",
	).
		From("subject_allocations a").
		Join("users u ON u.id = a.teacher_id").
		Join("classes c ON c.id = a.class_id").
		Join("sections s ON s.id = a.section_id").
		Join("subjects sj ON sj.id = a.subject_id")
}

func (repo academicRepository) UpsertAllocation(ctx context.Context, a academic.Allocation, exec ...core.DBExecutor) (academic.Allocation, error) {
	const q = `INSERT INTO subject_allocations (teacher_id, class_id, section_id, subject_id, academic_year, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (class_id, section_id, subject_id, academic_year)
DO UPDATE SET teacher_id = excluded.teacher_id, updated_at = excluded.updated_at
RETURNING id`

	exe := repo.getExec(exec)
	id, err := insertID(ctx, exe, q, a.TeacherID, a.ClassID, a.SectionID, a.SubjectID, a.AcademicYear, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return academic.Allocation{}, errors.Wrap(err, "upserting allocation")
	}

	var row allocationRow
	if err = getBuilt(ctx, exe, &row, selectAllocations().Where(sq.Eq{"a.id": id})); err != nil {
		return academic.Allocation{}, errors.Wrap(err, "getting allocation")
	}
	return row.allocation(), nil
}

func (repo academicRepository) QueryAllocations(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]academic.Allocation, error) {
	b := selectAllocations().OrderBy("a.academic_year DESC", "c.name ASC", "s.name ASC", "sj.name ASC")
	if teacherID != 0 {
		b = b.Where(sq.Eq{"a.teacher_id": teacherID})
	}
	var rows []allocationRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying allocations")
	}
	allocs := make([]academic.Allocation, 0, len(rows))
	for _, r := range rows {
		allocs = append(allocs, r.allocation())
	}
	return allocs, nil
}

func (repo academicRepository) IsTeaching(ctx context.Context, teacherID, sectionID, subjectID int, exec ...core.DBExecutor) (bool, error) {
	where := sq.And{sq.Eq{"teacher_id": teacherID}, sq.Eq{"section_id": sectionID}}
	if subjectID != 0 {
		where = append(where, sq.Eq{"subject_id": subjectID})
	}
	return repo.exists(ctx, repo.getExec(exec), sq.Select("1").From("subject_allocations").Where(where))
}

// exists runs SELECT EXISTS (sub).
func (repo academicRepository) exists(ctx context.Context, exe core.DBExecutor, sub sq.SelectBuilder) (bool, error) {
	q, args, err := sub.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var found bool
	if err = exe.QueryRowxContext(ctx, exe.Rebind("SELECT EXISTS ("+q+")"), args...).Scan(&found); err != nil {
		return false, errors.Wrap(err, "checking existence")
	}
	return found, nil
}

// Enrollments

type enrollmentRow struct {
	ID           int         `db:"id"`
	StudentID    int         `db:"student_id"`
	ClassID      int         `db:"class_id"`
	ClassName    string      `db:"class_name"`
	SectionID    int         `db:"section_id"`
	SectionName  string      `db:"section_name"`
	AcademicYear string      `db:"academic_year"`
	RollNumber   null.String `db:"roll_number"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func selectEnrollments() sq.SelectBuilder {
	return sq.Select(
		"e.id", "e.student_id", "e.class_id", "c.name AS class_name", "e.section_id", "s.name AS section_name",
		"e.academic_year", "e.roll_number", "e.created_at", "e.updated_at",
	).
		From("student_enrollments e").
		Join("classes c ON c.id = e.class_id").
		Join("sections s ON s.id = e.section_id")
}

func (r enrollmentRow) enrollment() academic.Enrollment {
	return academic.Enrollment{
		ID:           r.ID,
		StudentID:    r.StudentID,
		ClassID:      r.ClassID,
		ClassName:    r.ClassName,
		SectionID:    r.SectionID,
		SectionName:  r.SectionName,
		AcademicYear: r.AcademicYear,
		RollNumber:   r.RollNumber.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (repo academicRepository) UpsertEnrollment(ctx context.Context, e academic.Enrollment, exec ...core.DBExecutor) (academic.Enrollment, error) {
	const q = `INSERT INTO student_enrollments (student_id, class_id, section_id, academic_year, roll_number, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (student_id, academic_year)
DO UPDATE SET class_id = excluded.class_id, section_id = excluded.section_id, roll_number = excluded.roll_number, updated_at = excluded.updated_at
RETURNING id`

	exe := repo.getExec(exec)
	id, err := insertID(ctx, exe, q, e.StudentID, e.ClassID, e.SectionID, e.AcademicYear, nullString(e.RollNumber), e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if err != nil {
		return academic.Enrollment{}, errors.Wrap(err, "upserting enrollment")
	}

	var row enrollmentRow
	if err = getBuilt(ctx, exe, &row, selectEnrollments().Where(sq.Eq{"e.id": id})); err != nil {
		return academic.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.enrollment(), nil
}

func (repo academicRepository) LatestEnrollment(ctx context.Context, studentID int, exec ...core.DBExecutor) (academic.Enrollment, error) {
	var row enrollmentRow
	b := selectEnrollments().Where(sq.Eq{"e.student_id": studentID}).OrderBy("e.created_at DESC", "e.id DESC").Limit(1)
	if err := getBuilt(ctx, repo.getExec(exec), &row, b); err != nil {
		return academic.Enrollment{}, trapNoRowsErr(err, academic.ErrEnrollmentNotFound, "getting latest enrollment")
	}
	return row.enrollment(), nil
}

// Parents

func (repo academicRepository) LinkParent(ctx context.Context, parentID, studentID int, createdAt time.Time, exec ...core.DBExecutor) error {
	const q = `INSERT INTO parent_students (parent_id, student_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`

	exe := repo.getExec(exec)
	if _, err := exe.ExecContext(ctx, exe.Rebind(q), parentID, studentID, createdAt.UTC()); err != nil {
		return errors.Wrap(err, "linking parent")
	}
	return nil
}

func (repo academicRepository) UnlinkParent(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) error {
	b := sq.Delete("parent_students").Where(sq.Eq{"parent_id": parentID, "student_id": studentID})
	if _, err := execBuilt(ctx, repo.getExec(exec), b); err != nil {
		return errors.Wrap(err, "unlinking parent")
	}
	return nil
}

func (repo academicRepository) ChildrenIDs(ctx context.Context, parentID int, exec ...core.DBExecutor) ([]int, error) {
	ids := make([]int, 0)
	b := sq.Select("student_id").From("parent_students").Where(sq.Eq{"parent_id": parentID}).OrderBy("student_id ASC")
	if err := selectBuilt(ctx, repo.getExec(exec), &ids, b); err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	return ids, nil
}

func (repo academicRepository) IsParentOf(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) (bool, error) {
	sub := sq.Select("1").From("parent_students").Where(sq.Eq{"parent_id": parentID, "student_id": studentID})
	return repo.exists(ctx, repo.getExec(exec), sub)
}
