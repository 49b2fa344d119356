// README: Schema migrations applied at startup from the migrations directory.
package infra

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"wander/internal/logger"
)

// Migrate runs all pending migrations against the given database URL.
// A missing migrations directory is logged and skipped so tests and dev
// tooling can run against a pre-provisioned schema.
func Migrate(dbURL string, log logger.ILogger) error {
	cwd, _ := os.Getwd()
	mPath := filepath.Join(cwd, "migrations")

	m, err := migrate.New("file://"+mPath, dbURL)
	if err != nil {
		log.Warning("migration init error or no migrations found", logger.Error(err))
		return nil
	}
	if err := m.Up(); err != nil {
		if strings.Contains(err.Error(), "no change") {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	log.Info("migrations applied")
	return nil
}
