package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table names shared with the legacy deployment.
const (
	TableTrees       = "releng_treestatus_trees"
	TableLog         = "releng_treestatus_log"
	TableChanges     = "releng_treestatus_changes"
	TableChangeTrees = "releng_treestatus_change_trees"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS releng_treestatus_trees (
	tree VARCHAR(32) PRIMARY KEY,
	status VARCHAR(64) NOT NULL DEFAULT 'open',
	reason TEXT NOT NULL DEFAULT '',
	message_of_the_day TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_log (
	id SERIAL PRIMARY KEY,
	tree VARCHAR(32) NOT NULL,
	"when" TIMESTAMPTZ NOT NULL,
	who TEXT NOT NULL,
	status VARCHAR(64) NOT NULL,
	reason TEXT NOT NULL,
	tags TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_tree ON releng_treestatus_log (tree)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_when ON releng_treestatus_log ("when")`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_tree_when ON releng_treestatus_log (tree, "when")`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_changes (
	id SERIAL PRIMARY KEY,
	who TEXT NOT NULL,
	reason TEXT NOT NULL,
	"when" TIMESTAMPTZ NOT NULL,
	status VARCHAR(64) NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_changes_when ON releng_treestatus_changes ("when")`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_change_trees (
	id SERIAL PRIMARY KEY,
	stack_id INTEGER NOT NULL REFERENCES releng_treestatus_changes (id) ON DELETE CASCADE,
	tree VARCHAR(32) NOT NULL,
	last_state TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_change_trees_stack_tree ON releng_treestatus_change_trees (stack_id, tree)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_change_trees_tree ON releng_treestatus_change_trees (tree)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS releng_treestatus_trees (
	tree VARCHAR(32) PRIMARY KEY,
	status VARCHAR(64) NOT NULL DEFAULT 'open',
	reason TEXT NOT NULL DEFAULT '',
	message_of_the_day TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tree VARCHAR(32) NOT NULL,
	"when" TEXT NOT NULL,
	who TEXT NOT NULL,
	status VARCHAR(64) NOT NULL,
	reason TEXT NOT NULL,
	tags TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_tree ON releng_treestatus_log (tree)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_when ON releng_treestatus_log ("when")`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_log_tree_when ON releng_treestatus_log (tree, "when")`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	who TEXT NOT NULL,
	reason TEXT NOT NULL,
	"when" TEXT NOT NULL,
	status VARCHAR(64) NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_changes_when ON releng_treestatus_changes ("when")`,
	`CREATE TABLE IF NOT EXISTS releng_treestatus_change_trees (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stack_id INTEGER NOT NULL REFERENCES releng_treestatus_changes (id) ON DELETE CASCADE,
	tree VARCHAR(32) NOT NULL,
	last_state TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_change_trees_stack_tree ON releng_treestatus_change_trees (stack_id, tree)`,
	`CREATE INDEX IF NOT EXISTS ix_releng_treestatus_change_trees_tree ON releng_treestatus_change_trees (tree)`,
}

// EnsureSchema creates the four treestatus tables when they are missing.
// Schema evolution of existing deployments is handled outside the service.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := postgresSchema
	if IsSQLite(db.DriverName()) {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
