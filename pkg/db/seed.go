package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/content-actions/pkg/bootstrap"
	"github.com/morezero/content-actions/pkg/content"
)

const seedLogPrefix = "db:seed"

// Seed loads seed config (explicit path, then ACTIONS_SEED_FILE, then the
// embedded defaults) and upserts its content nodes and application
// descriptors in one transaction. Re-running it is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, seedFilePath string) error {
	cfg, err := bootstrap.LoadSeedConfig(seedFilePath)
	if err != nil {
		return fmt.Errorf("%s - load seed config: %w", seedLogPrefix, err)
	}
	return SeedConfig(ctx, pool, cfg)
}

// SeedConfig writes cfg to the database.
func SeedConfig(ctx context.Context, pool *pgxpool.Pool, cfg *bootstrap.SeedConfig) error {
	if cfg == nil || (len(cfg.Applications) == 0 && len(cfg.Content) == 0) {
		slog.Info(fmt.Sprintf("%s - nothing to seed", seedLogPrefix))
		return nil
	}
	slog.Info(fmt.Sprintf("%s - seeding %s %s", seedLogPrefix, cfg.Name, cfg.Version))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for _, node := range cfg.Content {
		version := node.Version
		if version == "" {
			version = "1.0.0"
		}
		if _, err := content.ParseVersion(version); err != nil {
			return fmt.Errorf("%s - content %s: %w", seedLogPrefix, node.Path, err)
		}
		var lockedBy *string
		if node.LockedBy != "" {
			lb := node.LockedBy
			lockedBy = &lb
		}
		kind := node.Kind
		if kind == "" {
			kind = "generic"
		}
		if err := upsertContentTx(ctx, tx, node.Path, node.NodeType, kind, node.Mode,
			node.ApprovingMode, version, lockedBy, node.Permissions); err != nil {
			return err
		}
	}

	for _, app := range cfg.Applications {
		var desc *string
		if app.Description != "" {
			d := app.Description
			desc = &d
		}
		paramsJSON, err := marshalParameters(app.Parameters)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertApplicationSQL,
			app.ScopePath, app.Name, app.ActionType, desc, paramsJSON, nowUTC()); err != nil {
			return fmt.Errorf("%s - upsert application %s %s: %w", seedLogPrefix, app.ScopePath, app.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - seeded %d content nodes and %d applications",
		seedLogPrefix, len(cfg.Content), len(cfg.Applications)))
	return nil
}
