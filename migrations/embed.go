// Package migrations embeds lumicore's SQL schema into the binary and
// registers it with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/lumicore/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
