package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/content"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for content and application descriptors.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// =========================================================================
// CONTENT OPERATIONS
// =========================================================================

// GetContent loads the node at path as seen by viewer. Returns nil when the
// node does not exist.
func (r *Repository) GetContent(ctx context.Context, path, viewer string) (*content.Item, error) {
	slog.Debug(fmt.Sprintf("%s - GetContent path=%s viewer=%s", repoLogPrefix, path, viewer))

	row := r.pool.QueryRow(ctx,
		`SELECT path, node_type, kind, versioning_mode, approving_mode, version,
		        locked_by, created, modified
		 FROM content_items
		 WHERE path = $1`, path)

	var c ContentRow
	err := row.Scan(&c.Path, &c.NodeType, &c.Kind, &c.VersioningMode, &c.ApprovingMode,
		&c.Version, &c.LockedBy, &c.Created, &c.Modified)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetContent scan failed: %w", repoLogPrefix, err)
	}

	perms, err := r.getPermissions(ctx, path, viewer)
	if err != nil {
		return nil, err
	}
	return c.ToItem(viewer, perms)
}

func (r *Repository) getPermissions(ctx context.Context, path, viewer string) ([]string, error) {
	if viewer == "" {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT permission FROM content_permissions
		 WHERE path = $1 AND user_id = $2
		 ORDER BY permission`, path, viewer)
	if err != nil {
		return nil, fmt.Errorf("%s - getPermissions failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%s - getPermissions scan failed: %w", repoLogPrefix, err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UpsertContentParams holds parameters for UpsertContent.
type UpsertContentParams struct {
	Path           string
	NodeType       string
	Kind           string
	VersioningMode string
	ApprovingMode  bool
	Version        string
	LockedBy       *string
	// Permissions maps user id to granted permission names and replaces
	// the node's existing grants when non-nil.
	Permissions map[string][]string
}

// UpsertContent creates or updates a content node and its permission grants.
func (r *Repository) UpsertContent(ctx context.Context, params UpsertContentParams) error {
	slog.Info(fmt.Sprintf("%s - UpsertContent path=%s", repoLogPrefix, params.Path))

	kind := params.Kind
	if kind == "" {
		kind = "generic"
	}
	version := params.Version
	if version == "" {
		version = "1.0.0"
	}
	if _, err := content.ParseVersion(version); err != nil {
		return fmt.Errorf("%s - UpsertContent %s: %w", repoLogPrefix, params.Path, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", repoLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	if err := upsertContentTx(ctx, tx, params.Path, params.NodeType, kind, params.VersioningMode,
		params.ApprovingMode, version, params.LockedBy, params.Permissions); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit failed: %w", repoLogPrefix, err)
	}
	return nil
}

func upsertContentTx(ctx context.Context, tx pgx.Tx, path, nodeType, kind, mode string, approving bool,
	version string, lockedBy *string, permissions map[string][]string) error {
	now := nowUTC()
	if mode == "" {
		mode = "inherited"
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO content_items (path, node_type, kind, versioning_mode, approving_mode, version, locked_by, created, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (path) DO UPDATE SET
		   node_type = EXCLUDED.node_type,
		   kind = EXCLUDED.kind,
		   versioning_mode = EXCLUDED.versioning_mode,
		   approving_mode = EXCLUDED.approving_mode,
		   version = EXCLUDED.version,
		   locked_by = EXCLUDED.locked_by,
		   modified = $8`,
		path, nodeType, kind, mode, approving, version, lockedBy, now)
	if err != nil {
		return fmt.Errorf("%s - upsert content %s: %w", repoLogPrefix, path, err)
	}

	if permissions == nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM content_permissions WHERE path = $1`, path); err != nil {
		return fmt.Errorf("%s - clear permissions %s: %w", repoLogPrefix, path, err)
	}
	for user, perms := range permissions {
		for _, p := range perms {
			_, err := tx.Exec(ctx,
				`INSERT INTO content_permissions (path, user_id, permission)
				 VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`, path, user, p)
			if err != nil {
				return fmt.Errorf("%s - grant %s to %s on %s: %w", repoLogPrefix, p, user, path, err)
			}
		}
	}
	return nil
}

// =========================================================================
// APPLICATION OPERATIONS
// =========================================================================

// inScope matches descriptors whose scope_path is contentPath or one of its
// ancestors. $1 is the content path.
const inScope = `(scope_path = $1 OR scope_path = '/' OR starts_with($1, scope_path || '/'))`

// GetApplication returns the descriptor named name registered on the nearest
// ancestor of contentPath (the path itself included), or nil.
func (r *Repository) GetApplication(ctx context.Context, contentPath, name string) (*actions.Application, error) {
	slog.Debug(fmt.Sprintf("%s - GetApplication path=%s name=%s", repoLogPrefix, contentPath, name))

	row := r.pool.QueryRow(ctx,
		`SELECT id, scope_path, name, action_type, description, parameters, created, modified
		 FROM applications
		 WHERE name = $2 AND `+inScope+`
		 ORDER BY length(scope_path) DESC
		 LIMIT 1`, contentPath, name)

	a, err := scanApplication(row)
	if err != nil || a == nil {
		return nil, err
	}
	return a.ToApplication()
}

// ListApplications returns, for each descriptor name in scope of
// contentPath, the one on the nearest ancestor. Nearest scopes come first.
func (r *Repository) ListApplications(ctx context.Context, contentPath string) ([]actions.Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, scope_path, name, action_type, description, parameters, created, modified
		 FROM (
		   SELECT DISTINCT ON (name) id, scope_path, name, action_type, description, parameters, created, modified
		   FROM applications
		   WHERE `+inScope+`
		   ORDER BY name, length(scope_path) DESC
		 ) nearest
		 ORDER BY length(scope_path) DESC, name`, contentPath)
	if err != nil {
		return nil, fmt.Errorf("%s - ListApplications query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var apps []actions.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		app, err := a.ToApplication()
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - ListApplications rows failed: %w", repoLogPrefix, err)
	}
	return apps, nil
}

// UpsertApplicationParams holds parameters for UpsertApplication.
type UpsertApplicationParams struct {
	ScopePath   string
	Name        string
	ActionType  string
	Description *string
	Parameters  map[string]interface{}
}

// UpsertApplication creates or updates the descriptor keyed by scope path and name.
func (r *Repository) UpsertApplication(ctx context.Context, params UpsertApplicationParams) (*actions.Application, error) {
	slog.Info(fmt.Sprintf("%s - UpsertApplication scope=%s name=%s", repoLogPrefix, params.ScopePath, params.Name))

	paramsJSON, err := marshalParameters(params.Parameters)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, upsertApplicationSQL,
		params.ScopePath, params.Name, params.ActionType, params.Description, paramsJSON, nowUTC())

	a, err := scanApplication(row)
	if err != nil {
		return nil, err
	}
	return a.ToApplication()
}

const upsertApplicationSQL = `INSERT INTO applications (scope_path, name, action_type, description, parameters, created, modified)
 VALUES ($1, $2, $3, $4, $5, $6, $6)
 ON CONFLICT (scope_path, name) DO UPDATE SET
   action_type = EXCLUDED.action_type,
   description = COALESCE(EXCLUDED.description, applications.description),
   parameters = EXCLUDED.parameters,
   modified = $6
 RETURNING id, scope_path, name, action_type, description, parameters, created, modified`

func nowUTC() time.Time { return time.Now().UTC() }

func marshalParameters(params map[string]interface{}) ([]byte, error) {
	if params == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%s - marshal parameters: %w", repoLogPrefix, err)
	}
	return b, nil
}

func scanApplication(row pgx.Row) (*ApplicationRow, error) {
	var a ApplicationRow
	err := row.Scan(&a.ID, &a.ScopePath, &a.Name, &a.ActionType, &a.Description,
		&a.Parameters, &a.Created, &a.Modified)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan application failed: %w", repoLogPrefix, err)
	}
	return &a, nil
}
