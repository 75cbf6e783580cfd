package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/studentpartner/backend/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errResetNotForced = errors.New("resetdb deletes every row: run it with -force")
)

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(context.Background(), cli.db.DB, cli.conf.Database.Engine, args[0], args[1:]...)
}

// resetDB rolls back every migration then applies them again.
func (cli *commandLine) resetDB() error {
	ctx := context.Background()
	for _, command := range []string{"reset", "up"} {
		if err := gooseRunFunc(ctx, cli.db.DB, cli.conf.Database.Engine, command); err != nil {
			return err
		}
	}
	fmt.Println("Database reset.")
	return nil
}
