package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/user"
)

const academicYearStart = time.June

type seedUser struct {
	name, uname string
	role        user.Role
}

var seedUsers = []seedUser{
	{name: "School Admin", uname: "admin1", role: user.RoleAdmin},
	{name: "Tina Teacher", uname: "teacher1", role: user.RoleTeacher},
	{name: "Sam Student", uname: "student1", role: user.RoleStudent},
	{name: "Pat Parent", uname: "parent1", role: user.RoleParent},
}

// seed creates a small school; running it again only fills in what is missing.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	pwd, err := promptPassword(cli.printUsage)
	if err != nil {
		return err
	}

	users := make(map[user.Role]user.User, len(seedUsers))
	for _, su := range seedUsers {
		usr, err := cli.seedUser(ctx, su, pwd)
		if err != nil {
			return errors.Wrapf(err, "seeding %s", su.uname)
		}
		users[su.role] = usr
	}
	admin, teacher, student, parent := users[user.RoleAdmin], users[user.RoleTeacher], users[user.RoleStudent], users[user.RoleParent]

	class, section, subject, err := cli.seedCatalog(ctx, admin)
	if err != nil {
		return err
	}
	year := academic.CurrentAcademicYear(time.Now().UTC(), academicYearStart)

	if _, err = cli.academicSvc.AllocateTeacher(ctx, admin, academic.NewAllocation{
		TeacherID: teacher.ID, ClassID: class.ID, SectionID: section.ID, SubjectID: subject.ID, AcademicYear: year,
	}); err != nil {
		return errors.Wrap(err, "allocating teacher")
	}
	if _, err = cli.academicSvc.EnrollStudent(ctx, admin, academic.NewEnrollment{
		StudentID: student.ID, ClassID: class.ID, SectionID: section.ID, AcademicYear: year, RollNumber: "01",
	}); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	if err = cli.academicSvc.LinkParent(ctx, admin, academic.ParentLink{ParentID: parent.ID, StudentID: student.ID}); err != nil {
		return errors.Wrap(err, "linking parent")
	}

	leaves, err := cli.leaveSvc.Mine(ctx, student)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	if len(leaves) == 0 {
		start := core.DateOf(time.Now().UTC()).AddDays(7)
		if _, err = cli.leaveSvc.Apply(ctx, student, leave.NewLeave{Reason: "Family event", StartDate: start, EndDate: start.AddDays(1)}); err != nil {
			return errors.Wrap(err, "applying for leave")
		}
	}

	materials, err := cli.courseworkSvc.SectionMaterials(ctx, section.ID)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if len(materials) == 0 {
		if _, err = cli.courseworkSvc.CreateMaterial(ctx, teacher, coursework.NewMaterial{
			Title:       "Linear equations",
			Description: "Solve the exercises of chapter 3.",
			ClassID:     class.ID,
			SectionID:   section.ID,
			SubjectID:   subject.ID,
			Type:        coursework.TypeAssignment,
			DueDate:     core.DateOf(time.Now().UTC()).AddDays(14),
		}); err != nil {
			return errors.Wrap(err, "creating assignment")
		}
	}

	fmt.Printf("Seeded %s: users %s, %s, %s and %s.\n", year, admin.Username, teacher.Username, student.Username, parent.Username)
	return nil
}

func (cli *commandLine) seedUser(ctx context.Context, su seedUser, pwd string) (user.User, error) {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, su.uname)
	if err == nil || !core.IsNotFound(err) {
		return usr, err
	}
	return cli.usrSvc.Create(ctx, cliActor, user.NewUser{
		Name:            su.name,
		Username:        su.uname,
		Email:           su.uname + "@example.com",
		Role:            su.role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
}

func (cli *commandLine) seedCatalog(ctx context.Context, admin user.User) (c academic.Class, s academic.Section, sub academic.Subject, err error) {
	classes, err := cli.academicSvc.Classes(ctx)
	if err != nil {
		return c, s, sub, errors.Wrap(err, "querying classes")
	}
	if c, err = findOrCreate(classes, func(c academic.Class) bool { return c.Name == "Class 10" }, func() (academic.Class, error) {
		return cli.academicSvc.CreateClass(ctx, admin, academic.NewClass{Name: "Class 10"})
	}); err != nil {
		return c, s, sub, errors.Wrap(err, "seeding class")
	}

	sections, err := cli.academicSvc.Sections(ctx, c.ID)
	if err != nil {
		return c, s, sub, errors.Wrap(err, "querying sections")
	}
	if s, err = findOrCreate(sections, func(s academic.Section) bool { return s.Name == "A" }, func() (academic.Section, error) {
		return cli.academicSvc.CreateSection(ctx, admin, academic.NewSection{ClassID: c.ID, Name: "A"})
	}); err != nil {
		return c, s, sub, errors.Wrap(err, "seeding section")
	}

	subjects, err := cli.academicSvc.Subjects(ctx)
	if err != nil {
		return c, s, sub, errors.Wrap(err, "querying subjects")
	}
	if sub, err = findOrCreate(subjects, func(s academic.Subject) bool { return s.Code == "MATH101" }, func() (academic.Subject, error) {
		return cli.academicSvc.CreateSubject(ctx, admin, academic.NewSubject{Name: "Mathematics", Code: "MATH101"})
	}); err != nil {
		return c, s, sub, errors.Wrap(err, "seeding subject")
	}
	return c, s, sub, nil
}

func findOrCreate[T any](items []T, match func(T) bool, create func() (T, error)) (T, error) {
	for _, it := range items {
		if match(it) {
			return it, nil
		}
	}
	return create()
}
