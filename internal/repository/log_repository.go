package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treestatus-api/internal/models"
)

// LogRepository reads and appends per-tree status history.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs the repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// ListByTree returns the newest entries first. limit <= 0 returns everything.
func (r *LogRepository) ListByTree(ctx context.Context, tree string, limit int) ([]models.Log, error) {
	query := `SELECT ` + logColumns + ` FROM releng_treestatus_log WHERE tree = ? ORDER BY "when" DESC, id DESC`
	args := []interface{}{tree}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list logs for %s: %w", tree, err)
	}
	logs := make([]models.Log, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// Latest returns the newest entry of a tree, or nil when it has no history.
func (r *LogRepository) Latest(ctx context.Context, tree string) (*models.Log, error) {
	return latestLog(ctx, r.db, tree)
}

// Append stores a single entry outside of any stack.
func (r *LogRepository) Append(ctx context.Context, entry *models.Log) error {
	return insertLog(ctx, r.db, entry)
}
