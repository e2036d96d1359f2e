package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/storage/db"
	"pulsescore-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	cfg := config.Load()
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = strings.ToLower(strings.TrimSpace(os.Args[1]))
	}
	run, err := commandFor(command)
	if err != nil {
		telemetry.Error("migrate.usage", map[string]any{"error": err.Error()})
		os.Exit(2)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Error("migrate.config_invalid", map[string]any{"error": "DATABASE_URL is required"})
		os.Exit(1)
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions(db.ProfileMigrate, 0, false).WithEnv(os.LookupEnv))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := run(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
}

func commandFor(name string) (func(context.Context, *sql.DB) error, error) {
	switch name {
	case "up":
		return db.RunMigrations, nil
	case "down":
		return db.RollbackMigration, nil
	case "status":
		return db.MigrationStatus, nil
	default:
		return nil, fmt.Errorf("unknown command %q (want up, down or status)", name)
	}
}
