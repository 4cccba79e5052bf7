package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearAll truncates applications, content_permissions and content_items.
// Schema is preserved.
func ClearAll(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing content and application tables", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE
		applications,
		content_permissions,
		content_items
		CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Tables cleared", clearLogPrefix))
	return nil
}
