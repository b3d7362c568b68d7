package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/pkg/database"
	"github.com/noah-isme/treestatus-api/pkg/timecodec"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer = sqlx.ExtContext

type logRow struct {
	ID     int64             `db:"id"`
	Tree   string            `db:"tree"`
	When   timecodec.UTCTime `db:"when"`
	Who    string            `db:"who"`
	Status string            `db:"status"`
	Reason string            `db:"reason"`
	Tags   string            `db:"tags"`
}

func (r logRow) toModel() (models.Log, error) {
	tags, err := models.DecodeTags(r.Tags)
	if err != nil {
		return models.Log{}, fmt.Errorf("log %d: %w", r.ID, err)
	}
	return models.Log{
		ID:     r.ID,
		Tree:   r.Tree,
		When:   r.When.Time,
		Who:    r.Who,
		Status: r.Status,
		Reason: r.Reason,
		Tags:   tags,
	}, nil
}

const logColumns = `id, tree, "when", who, status, reason, tags`

// withTx runs fn inside one transaction using the driver's isolation level.
func withTx(ctx context.Context, db *sqlx.DB, label string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, database.TxOptions(db.DriverName()))
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", label, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", label, err)
	}
	return nil
}

// uniqueSorted returns names without duplicates in lock order.
func uniqueSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// uniqueOrdered drops duplicates keeping first-seen order.
func uniqueOrdered(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// lockTrees loads the named trees, row-locking them in name order on
// backends that support it. Any missing tree yields sql.ErrNoRows.
func lockTrees(ctx context.Context, q queryer, names []string) (map[string]models.Tree, error) {
	names = uniqueSorted(names)
	if len(names) == 0 {
		return map[string]models.Tree{}, nil
	}
	query, args, err := sqlx.In(`SELECT tree, status, reason, message_of_the_day
	FROM releng_treestatus_trees WHERE tree IN (?) ORDER BY tree`+database.LockClause(q.DriverName()), names)
	if err != nil {
		return nil, fmt.Errorf("build tree lock query: %w", err)
	}
	var trees []models.Tree
	if err := sqlx.SelectContext(ctx, q, &trees, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lock trees: %w", err)
	}
	byName := make(map[string]models.Tree, len(trees))
	for _, tree := range trees {
		byName[tree.Tree] = tree
	}
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("tree %s: %w", name, sql.ErrNoRows)
		}
	}
	return byName, nil
}

func updateTree(ctx context.Context, q queryer, tree models.Tree) error {
	const query = `UPDATE releng_treestatus_trees SET status = ?, reason = ?, message_of_the_day = ? WHERE tree = ?`
	if _, err := q.ExecContext(ctx, q.Rebind(query), tree.Status, tree.Reason, tree.MessageOfTheDay, tree.Tree); err != nil {
		return fmt.Errorf("update tree %s: %w", tree.Tree, err)
	}
	return nil
}

func insertLog(ctx context.Context, q queryer, entry *models.Log) error {
	tags, err := models.EncodeTags(entry.Tags)
	if err != nil {
		return err
	}
	const query = `INSERT INTO releng_treestatus_log (tree, "when", who, status, reason, tags)
	VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	codec := database.Codec(q.DriverName())
	if err := q.QueryRowxContext(ctx, q.Rebind(query),
		entry.Tree, codec.Encode(entry.When), entry.Who, entry.Status, entry.Reason, tags,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("insert log for %s: %w", entry.Tree, err)
	}
	entry.When = entry.When.UTC().Truncate(timecodec.Precision)
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	return nil
}

// latestLog returns the newest log entry of tree, or nil when it has none.
func latestLog(ctx context.Context, q queryer, tree string) (*models.Log, error) {
	query := `SELECT ` + logColumns + ` FROM releng_treestatus_log WHERE tree = ? ORDER BY "when" DESC, id DESC LIMIT 1`
	var row logRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), tree); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest log for %s: %w", tree, err)
	}
	entry, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
