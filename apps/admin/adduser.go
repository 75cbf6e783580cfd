package main

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"

	"github.com/studentpartner/backend/core/user"
)

func checkAddUserFlags(name, uname, email string) error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(name, "name"),
		vala.StringNotEmpty(uname, "username"),
		vala.StringNotEmpty(email, "email"),
	).Check()
}

// addUser creates an active user.User with any role.
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, cliActor, nu)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s %q with registration ID %s.\n", usr.Role, usr.Username, usr.RegistrationID)
	return nil
}

func (cli *commandLine) backfillRegistrationIDs() error {
	users, err := cli.usrSvc.BackfillRegistrationIDs(context.Background())
	if err != nil {
		return err
	}
	for _, usr := range users {
		fmt.Printf("%s\t%s\n", usr.RegistrationID, usr.Username)
	}
	fmt.Printf("%d registration IDs allocated.\n", len(users))
	return nil
}
