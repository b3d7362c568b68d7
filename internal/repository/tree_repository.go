package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/pkg/database"
)

// ErrTreeExists is returned when creating a tree that is already tracked.
var ErrTreeExists = errors.New("tree already exists")

// TreeRepository persists tracked trees.
type TreeRepository struct {
	db *sqlx.DB
}

// NewTreeRepository constructs the repository.
func NewTreeRepository(db *sqlx.DB) *TreeRepository {
	return &TreeRepository{db: db}
}

// List returns every tree ordered by name.
func (r *TreeRepository) List(ctx context.Context) ([]models.Tree, error) {
	const query = `SELECT tree, status, reason, message_of_the_day FROM releng_treestatus_trees ORDER BY tree`
	trees := []models.Tree{}
	if err := r.db.SelectContext(ctx, &trees, query); err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	return trees, nil
}

// Get fetches one tree. A missing tree yields sql.ErrNoRows.
func (r *TreeRepository) Get(ctx context.Context, name string) (*models.Tree, error) {
	const query = `SELECT tree, status, reason, message_of_the_day FROM releng_treestatus_trees WHERE tree = ?`
	var tree models.Tree
	if err := r.db.GetContext(ctx, &tree, r.db.Rebind(query), name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get tree %s: %w", name, err)
	}
	return &tree, nil
}

// Create inserts the tree together with its first log entry.
func (r *TreeRepository) Create(ctx context.Context, tree models.Tree, entry *models.Log) error {
	return withTx(ctx, r.db, "create tree", func(tx *sqlx.Tx) error {
		var exists int
		const existsQuery = `SELECT COUNT(1) FROM releng_treestatus_trees WHERE tree = ?`
		if err := tx.GetContext(ctx, &exists, tx.Rebind(existsQuery), tree.Tree); err != nil {
			return fmt.Errorf("check tree %s: %w", tree.Tree, err)
		}
		if exists > 0 {
			return fmt.Errorf("tree %s: %w", tree.Tree, ErrTreeExists)
		}

		const insertQuery = `INSERT INTO releng_treestatus_trees (tree, status, reason, message_of_the_day) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertQuery), tree.Tree, tree.Status, tree.Reason, tree.MessageOfTheDay); err != nil {
			return fmt.Errorf("insert tree %s: %w", tree.Tree, err)
		}
		if entry == nil {
			return nil
		}
		entry.Tree = tree.Tree
		return insertLog(ctx, tx, entry)
	})
}

// Delete removes a tree along with its log history and stack snapshots.
// Stacks left without snapshots are removed as well.
func (r *TreeRepository) Delete(ctx context.Context, name string) error {
	return withTx(ctx, r.db, "delete tree", func(tx *sqlx.Tx) error {
		// Stacks before trees, same order as a revert.
		var stackIDs []int64
		stacksQuery := `SELECT id FROM releng_treestatus_changes
		WHERE id IN (SELECT stack_id FROM releng_treestatus_change_trees WHERE tree = ?)
		ORDER BY id` + database.LockClause(tx.DriverName())
		if err := tx.SelectContext(ctx, &stackIDs, tx.Rebind(stacksQuery), name); err != nil {
			return fmt.Errorf("lock stacks of %s: %w", name, err)
		}
		if _, err := lockTrees(ctx, tx, []string{name}); err != nil {
			return err
		}
		statements := []struct {
			label string
			query string
			args  []interface{}
		}{
			{"delete tree logs", `DELETE FROM releng_treestatus_log WHERE tree = ?`, []interface{}{name}},
			{"delete tree snapshots", `DELETE FROM releng_treestatus_change_trees WHERE tree = ?`, []interface{}{name}},
			{"delete empty stacks", `DELETE FROM releng_treestatus_changes WHERE id NOT IN (SELECT stack_id FROM releng_treestatus_change_trees)`, nil},
			{"delete tree", `DELETE FROM releng_treestatus_trees WHERE tree = ?`, []interface{}{name}},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt.query), stmt.args...); err != nil {
				return fmt.Errorf("%s %s: %w", stmt.label, name, err)
			}
		}
		return nil
	})
}

// TreeUpdate describes an edit applied to several trees without recording a stack.
type TreeUpdate struct {
	Trees           []string
	Status          *string
	Reason          string
	Tags            []string
	MessageOfTheDay *string
	Who             string
	When            time.Time
}

// Apply updates the trees in one transaction. A Log row is appended per tree
// when the status is set; the appended entries are returned.
func (r *TreeRepository) Apply(ctx context.Context, update TreeUpdate) ([]models.Log, error) {
	var entries []models.Log
	err := withTx(ctx, r.db, "update trees", func(tx *sqlx.Tx) error {
		trees, err := lockTrees(ctx, tx, update.Trees)
		if err != nil {
			return err
		}
		entries = make([]models.Log, 0, len(trees))
		for _, name := range uniqueOrdered(update.Trees) {
			tree := trees[name]
			if update.Status != nil {
				tree.Status = *update.Status
				tree.Reason = update.Reason
				entry := models.Log{
					Tree:   name,
					When:   update.When,
					Who:    update.Who,
					Status: *update.Status,
					Reason: update.Reason,
					Tags:   update.Tags,
				}
				if err := insertLog(ctx, tx, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			if update.MessageOfTheDay != nil {
				tree.MessageOfTheDay = *update.MessageOfTheDay
			}
			if err := updateTree(ctx, tx, tree); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Ping reports database reachability for the heartbeat.
func (r *TreeRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
