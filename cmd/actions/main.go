// Package main is the entrypoint for the content-actions service (binary name "actions").
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/content-actions/internal/config"
	"github.com/morezero/content-actions/internal/server"
	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/db"
)

const usage = `Usage: actions [command]
       actions serve              Start the service (NATS, HTTP health and metrics).
       actions migrate up         Run database migrations.
       actions migrate status     Show migration status.
       actions clear              Truncate content and application tables; schema is preserved.
       actions seed [file]        Seed applications and content from a seed file.
       actions types              List registered action types.

Commands:
  serve           (default) Start the content-actions service.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  clear           Truncate data; schema preserved.
  seed [file]     Seed from file, then ACTIONS_SEED_FILE, then the built-in defaults.
  types           Print the registered action type names, one per line.

Environment: DATABASE_URL (required), COMMS_URL, MIGRATION_PATH, HTTP_PORT, ACTIONS_SEED_FILE, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("actions migrate: require subcommand (up, status)")
		}
		switch sub := args[1]; sub {
		case "up":
			if err := withPool(runMigrateUp); err != nil {
				log.Fatalf("actions migrate up: %v", err)
			}
		case "status":
			if err := withPool(db.MigrationStatus); err != nil {
				log.Fatalf("actions migrate status: %v", err)
			}
		default:
			log.Fatalf("actions migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "clear":
		if err := withPool(runClear); err != nil {
			log.Fatalf("actions clear: %v", err)
		}
		return
	case "seed":
		seedFile := ""
		if len(args) > 1 {
			seedFile = args[1]
		}
		if err := withPool(seedRunner(seedFile)); err != nil {
			log.Fatalf("actions seed: %v", err)
		}
		return
	case "types":
		printTypes(os.Stdout, actions.DefaultRegistry())
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("actions: %v", err)
	}
}

// dbCommand runs against an open pool. withPool always passes MIGRATION_PATH
// as migrationPath; commands that do not read migrations ignore it.
type dbCommand func(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error

// withPool loads config, opens a pool and runs fn with MIGRATION_PATH.
func withPool(fn dbCommand) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	server.SetupLogging(cfg)
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName(cfg.COMMSName+"-cli"), db.WithMaxConns(2))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, pool, cfg.MigrationPath)
}

func runMigrateUp(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	migrations, err := db.LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runClear(ctx context.Context, pool *pgxpool.Pool, _ string) error {
	if err := db.ClearAll(ctx, pool); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// seedRunner seeds from seedFile. An empty seedFile lets the loader fall
// back to ACTIONS_SEED_FILE and then the defaults.
func seedRunner(seedFile string) dbCommand {
	return func(ctx context.Context, pool *pgxpool.Pool, _ string) error {
		return db.Seed(ctx, pool, seedFile)
	}
}

func printTypes(w io.Writer, reg *actions.Registry) {
	for _, name := range reg.Names() {
		fmt.Fprintln(w, name)
	}
}
