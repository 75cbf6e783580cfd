// Package appfs embeds the files the binaries need at runtime: SQL migrations, email templates and assets.
package appfs

import "embed"

//go:embed migrations all:templates assets
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	CommonPasswordsGZ = "assets/common-passwords.txt.gz"
)

// MigrationsDirFor returns the migrations directory of the given DB engine.
func MigrationsDirFor(engine string) string {
	return MigrationsDir + "/" + engine
}
