//go:build integration

package testutil

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/Gunvolt24/eventpipe/internal/repo/postgres"
)

// ApplyMigrationsGoose применяет встроенные миграции репозитория Postgres.
func ApplyMigrationsGoose(dsn string) error {
	goose.SetLogger(log.New(os.Stdout, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return postgres.Migrate(ctx, dsn)
}
