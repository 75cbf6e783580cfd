package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// cliActor performs the CLI operations that need an acting admin.
var cliActor = user.User{Name: "Admin CLI", Role: user.RoleAdmin, Status: user.StatusActive}

type commandLine struct {
	conf          *core.Config
	db            *sqlx.DB
	validate      *validator.Validate
	usrRepo       user.Repository
	usrSvc        user.Service
	academicSvc   academic.Service
	leaveSvc      leave.Service
	courseworkSvc coursework.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, reset, version, ...)")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  adduser -name NAME -username USERNAME -email EMAIL -role ROLE [-phone PHONE] - create a user")
	fmt.Println("  backfill-regids - allocate a registration ID to every user lacking one")
	fmt.Println("  seed - create sample users, classes and coursework")
	fmt.Println("  resetdb -force - drop every table then migrate")
}

// promptPassword reads a password without echo; empty passwords print the usage.
func promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", string(user.RoleStudent), "The user's role: student, parent, teacher or admin.")
	addUserPhone := addUserCmd.String("phone", "", "The user's phone number, E.164 formatted.")

	resetDBCmd := flag.NewFlagSet("resetdb", flag.ContinueOnError)
	resetDBForce := resetDBCmd.Bool("force", false, "Confirm that every row will be lost.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if err := checkAddUserFlags(*addUserName, *addUserUname, *addUserEmail); err != nil {
			addUserCmd.Usage()
			return err
		}
		role, err := user.ParseRole(*addUserRole)
		if err != nil {
			return err
		}
		pwd, err := promptPassword(addUserCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			Name:            *addUserName,
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Phone:           *addUserPhone,
			Role:            role,
			Password:        pwd,
			PasswordConfirm: pwd,
		})

	case "backfill-regids":
		return cli.backfillRegistrationIDs()

	case "seed":
		return cli.seed()

	case "resetdb":
		if err := resetDBCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !*resetDBForce {
			resetDBCmd.Usage()
			return errResetNotForced
		}
		return cli.resetDB()

	default:
		cli.printUsage()
		return errHelp
	}
}
