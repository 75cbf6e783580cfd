// Package dashboard aggregates, for a user, what their role based home page shows.
package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/announcement"
	"github.com/studentpartner/backend/core/attendance"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/meeting"
	"github.com/studentpartner/backend/core/result"
	"github.com/studentpartner/backend/core/task"
	"github.com/studentpartner/backend/core/user"
)

const recentAnnouncements = 5

type (
	Dashboard struct {
		User          user.User                   `json:"user"`
		Calendar      attendance.Calendar         `json:"calendar"`
		Tasks         []task.Task                 `json:"tasks"`
		Announcements []announcement.Announcement `json:"announcements"`
		Meetings      []meeting.Meeting           `json:"meetings"`

		Student *StudentSection `json:"student,omitempty"`
		Teacher *TeacherSection `json:"teacher,omitempty"`
		Parent  *ParentSection  `json:"parent,omitempty"`
		Admin   *AdminSection   `json:"admin,omitempty"`
	}

	StudentSection struct {
		Enrollment *academic.Enrollment `json:"enrollment"`
		Results    []result.ExamResult  `json:"results"`
	}

	TeacherSection struct {
		Allocations   []academic.Allocation `json:"allocations"`
		PendingLeaves []leave.Leave         `json:"pending_leaves"`
	}

	ParentSection struct {
		Children []academic.Child `json:"children"`
	}

	AdminSection struct {
		PendingLeaves []leave.Leave     `json:"pending_leaves"`
		PendingUsers  int               `json:"pending_users"`
		UsersPerRole  map[user.Role]int `json:"users_per_role"`
	}

	Services struct {
		User         user.Service
		Attendance   attendance.Service
		Task         task.Service
		Announcement announcement.Service
		Meeting      meeting.Service
		Leave        leave.Service
		Academic     academic.Service
		Result       result.Service
	}

	Service interface {
		// Build returns the dashboard of actor for the given month; zero year/month mean the current month.
		Build(ctx context.Context, actor user.User, year, month int) (Dashboard, error)
	}

	service struct {
		svcs Services
	}
)

var _ Service = (*service)(nil)

func NewService(svcs Services) Service {
	return &service{svcs: svcs}
}

func (svc *service) Build(ctx context.Context, actor user.User, year, month int) (Dashboard, error) {
	today := attendance.Today()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}

	cal, err := svc.svcs.Attendance.Calendar(ctx, actor, actor.ID, year, month)
	if err != nil {
		return Dashboard{}, err
	}
	tasks, err := svc.svcs.Task.Mine(ctx, actor)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying tasks")
	}
	anns, err := svc.svcs.Announcement.ForRole(ctx, actor.Role, recentAnnouncements)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying announcements")
	}
	meetings, err := svc.svcs.Meeting.Upcoming(ctx, actor.Role, meeting.DefaultUpcomingLimit)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying meetings")
	}

	d := Dashboard{
		User:          actor,
		Calendar:      cal,
		Tasks:         tasks,
		Announcements: anns,
		Meetings:      meetings,
	}

	switch actor.Role {
	case user.RoleStudent:
		d.Student, err = svc.studentSection(ctx, actor)
	case user.RoleTeacher:
		d.Teacher, err = svc.teacherSection(ctx, actor)
	case user.RoleParent:
		d.Parent, err = svc.parentSection(ctx, actor)
	case user.RoleAdmin:
		d.Admin, err = svc.adminSection(ctx, actor)
	}
	if err != nil {
		return Dashboard{}, errors.Wrapf(err, "building %s section", actor.Role)
	}
	return d, nil
}

func (svc *service) studentSection(ctx context.Context, actor user.User) (*StudentSection, error) {
	enr, err := svc.svcs.Academic.CurrentEnrollment(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	results, err := svc.svcs.Result.StudentResults(ctx, actor, actor.ID)
	if err != nil {
		return nil, err
	}
	return &StudentSection{Enrollment: enr, Results: results}, nil
}

func (svc *service) teacherSection(ctx context.Context, actor user.User) (*TeacherSection, error) {
	allocs, err := svc.svcs.Academic.TeacherAllocations(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	leaves, err := svc.svcs.Leave.Pending(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &TeacherSection{Allocations: allocs, PendingLeaves: leaves}, nil
}

func (svc *service) parentSection(ctx context.Context, actor user.User) (*ParentSection, error) {
	children, err := svc.svcs.Academic.Children(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return &ParentSection{Children: children}, nil
}

func (svc *service) adminSection(ctx context.Context, actor user.User) (*AdminSection, error) {
	leaves, err := svc.svcs.Leave.Pending(ctx, actor)
	if err != nil {
		return nil, err
	}
	pending, err := svc.svcs.User.Count(ctx, &user.QueryFilter{Status: user.StatusPending})
	if err != nil {
		return nil, err
	}
	perRole := make(map[user.Role]int, len(user.AllRoles))
	for _, r := range user.AllRoles {
		if perRole[r], err = svc.svcs.User.Count(ctx, &user.QueryFilter{Roles: []user.Role{r}}); err != nil {
			return nil, err
		}
	}
	return &AdminSection{PendingLeaves: leaves, PendingUsers: pending, UsersPerRole: perRole}, nil
}
