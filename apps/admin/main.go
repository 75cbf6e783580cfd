package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
	logsvc "github.com/studentpartner/backend/services/logger"
	"github.com/studentpartner/backend/storage/database"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)
	academicSvc := academic.NewService(sqlxrepos.NewAcademicRepository(db), usrSvc, validate)

	// start CLI
	cli := commandLine{
		conf:          conf,
		db:            db,
		validate:      validate,
		usrRepo:       usrRepo,
		usrSvc:        usrSvc,
		academicSvc:   academicSvc,
		leaveSvc:      leave.NewService(sqlxrepos.NewLeaveRepository(db), usrSvc, mailSvc, validate),
		courseworkSvc: coursework.NewService(sqlxrepos.NewCourseworkRepository(db), academicSvc, validate),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		db.Close()
		os.Exit(1)
	}
}
