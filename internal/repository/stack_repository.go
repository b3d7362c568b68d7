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
	"github.com/noah-isme/treestatus-api/pkg/timecodec"
)

// StackParams describes a remembered bulk status change.
type StackParams struct {
	Trees           []string
	Status          string
	Reason          string
	Tags            []string
	MessageOfTheDay *string
	Who             string
	When            time.Time
}

type changeRow struct {
	ID     int64             `db:"id"`
	Who    string            `db:"who"`
	Reason string            `db:"reason"`
	When   timecodec.UTCTime `db:"when"`
	Status string            `db:"status"`
}

func (r changeRow) toModel() models.StatusChange {
	return models.StatusChange{
		ID:     r.ID,
		Who:    r.Who,
		Reason: r.Reason,
		When:   r.When.Time,
		Status: r.Status,
		Trees:  []models.StatusChangeTree{},
	}
}

type changeTreeRow struct {
	ID        int64  `db:"id"`
	StackID   int64  `db:"stack_id"`
	Tree      string `db:"tree"`
	LastState string `db:"last_state"`
}

func (r changeTreeRow) toModel() (models.StatusChangeTree, error) {
	state, err := models.LoadLastState(r.LastState)
	if err != nil {
		return models.StatusChangeTree{}, fmt.Errorf("stack %d tree %s: %w", r.StackID, r.Tree, err)
	}
	return models.StatusChangeTree{ID: r.ID, StackID: r.StackID, Tree: r.Tree, LastState: state}, nil
}

const changeColumns = `id, who, reason, "when", status`

// StackRepository persists revertible status changes and their per-tree snapshots.
type StackRepository struct {
	db *sqlx.DB
}

// NewStackRepository constructs the repository.
func NewStackRepository(db *sqlx.DB) *StackRepository {
	return &StackRepository{db: db}
}

// Create applies params to every tree and records the previous state of each
// one so the change can be reverted. A missing tree yields sql.ErrNoRows and
// nothing is written.
func (r *StackRepository) Create(ctx context.Context, params StackParams) (*models.StatusChange, error) {
	var stack *models.StatusChange
	err := withTx(ctx, r.db, "create stack", func(tx *sqlx.Tx) error {
		trees, err := lockTrees(ctx, tx, params.Trees)
		if err != nil {
			return err
		}
		if len(trees) == 0 {
			return fmt.Errorf("create stack: no trees")
		}

		codec := database.Codec(tx.DriverName())
		const insertChange = `INSERT INTO releng_treestatus_changes (who, reason, "when", status) VALUES (?, ?, ?, ?) RETURNING id`
		created := models.StatusChange{
			Who:    params.Who,
			Reason: params.Reason,
			When:   params.When.UTC().Truncate(timecodec.Precision),
			Status: params.Status,
		}
		if err := tx.QueryRowxContext(ctx, tx.Rebind(insertChange),
			params.Who, params.Reason, codec.Encode(params.When), params.Status,
		).Scan(&created.ID); err != nil {
			return fmt.Errorf("insert stack: %w", err)
		}

		created.Trees = make([]models.StatusChangeTree, 0, len(trees))
		for _, name := range uniqueOrdered(params.Trees) {
			snapshot, err := applyToTree(ctx, tx, created.ID, trees[name], params)
			if err != nil {
				return err
			}
			created.Trees = append(created.Trees, snapshot)
		}
		stack = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stack, nil
}

func applyToTree(ctx context.Context, tx *sqlx.Tx, stackID int64, tree models.Tree, params StackParams) (models.StatusChangeTree, error) {
	previous, err := latestLog(ctx, tx, tree.Tree)
	if err != nil {
		return models.StatusChangeTree{}, err
	}
	state := models.LastState{
		Status: tree.Status,
		Reason: tree.Reason,
		Tags:   []string{},
	}
	if previous != nil {
		state.Tags = previous.Tags
		id := previous.ID
		state.LogID = &id
	}

	entry := models.Log{
		Tree:   tree.Tree,
		When:   params.When,
		Who:    params.Who,
		Status: params.Status,
		Reason: params.Reason,
		Tags:   params.Tags,
	}
	if err := insertLog(ctx, tx, &entry); err != nil {
		return models.StatusChangeTree{}, err
	}
	state.CurrentStatus = entry.Status
	state.CurrentReason = entry.Reason
	state.CurrentTags = entry.Tags
	currentID := entry.ID
	state.CurrentLogID = &currentID

	encoded, err := state.Encode()
	if err != nil {
		return models.StatusChangeTree{}, err
	}
	snapshot := models.StatusChangeTree{StackID: stackID, Tree: tree.Tree, LastState: state}
	const insertSnapshot = `INSERT INTO releng_treestatus_change_trees (stack_id, tree, last_state) VALUES (?, ?, ?) RETURNING id`
	if err := tx.QueryRowxContext(ctx, tx.Rebind(insertSnapshot), stackID, tree.Tree, encoded).Scan(&snapshot.ID); err != nil {
		return models.StatusChangeTree{}, fmt.Errorf("insert snapshot for %s: %w", tree.Tree, err)
	}

	tree.Status = params.Status
	tree.Reason = params.Reason
	if params.MessageOfTheDay != nil {
		tree.MessageOfTheDay = *params.MessageOfTheDay
	}
	if err := updateTree(ctx, tx, tree); err != nil {
		return models.StatusChangeTree{}, err
	}
	return snapshot, nil
}

// Get loads one stack with its snapshots in insertion order.
func (r *StackRepository) Get(ctx context.Context, id int64) (*models.StatusChange, error) {
	return loadStack(ctx, r.db, id, false)
}

// List returns every stack, newest first.
func (r *StackRepository) List(ctx context.Context) ([]models.StatusChange, error) {
	var rows []changeRow
	query := `SELECT ` + changeColumns + ` FROM releng_treestatus_changes ORDER BY "when" DESC, id DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	stacks := make([]models.StatusChange, 0, len(rows))
	if len(rows) == 0 {
		return stacks, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	snapshots, err := loadSnapshots(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stack := row.toModel()
		if trees, ok := snapshots[row.ID]; ok {
			stack.Trees = trees
		}
		stacks = append(stacks, stack)
	}
	return stacks, nil
}

// Revert restores every tree of the stack to its recorded previous state,
// appends a log entry per tree and removes the stack. An unknown stack yields
// sql.ErrNoRows and nothing is written.
func (r *StackRepository) Revert(ctx context.Context, id int64, who string, when time.Time) (*models.StatusChange, error) {
	var reverted *models.StatusChange
	err := withTx(ctx, r.db, "revert stack", func(tx *sqlx.Tx) error {
		stack, err := loadStack(ctx, tx, id, true)
		if err != nil {
			return err
		}
		trees, err := lockTrees(ctx, tx, stack.TreeNames())
		if err != nil {
			return err
		}
		for _, snapshot := range stack.Trees {
			tree := trees[snapshot.Tree]
			tree.Status = snapshot.LastState.Status
			tree.Reason = snapshot.LastState.Reason
			if err := updateTree(ctx, tx, tree); err != nil {
				return err
			}
			entry := models.Log{
				Tree:   snapshot.Tree,
				When:   when,
				Who:    who,
				Status: snapshot.LastState.Status,
				Reason: snapshot.LastState.Reason,
				Tags:   snapshot.LastState.Tags,
			}
			if err := insertLog(ctx, tx, &entry); err != nil {
				return err
			}
		}
		if err := deleteStack(ctx, tx, id); err != nil {
			return err
		}
		reverted = stack
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reverted, nil
}

// Discard removes a stack and its snapshots without touching the trees.
func (r *StackRepository) Discard(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, "discard stack", func(tx *sqlx.Tx) error {
		if _, err := lockStack(ctx, tx, id); err != nil {
			return err
		}
		return deleteStack(ctx, tx, id)
	})
}

func lockStack(ctx context.Context, q queryer, id int64) (changeRow, error) {
	query := `SELECT ` + changeColumns + ` FROM releng_treestatus_changes WHERE id = ?` + database.LockClause(q.DriverName())
	return getStackRow(ctx, q, query, id)
}

func getStackRow(ctx context.Context, q queryer, query string, id int64) (changeRow, error) {
	var row changeRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return changeRow{}, fmt.Errorf("stack %d: %w", id, sql.ErrNoRows)
		}
		return changeRow{}, fmt.Errorf("load stack %d: %w", id, err)
	}
	return row, nil
}

func loadStack(ctx context.Context, q queryer, id int64, lock bool) (*models.StatusChange, error) {
	var (
		row changeRow
		err error
	)
	if lock {
		row, err = lockStack(ctx, q, id)
	} else {
		row, err = getStackRow(ctx, q, `SELECT `+changeColumns+` FROM releng_treestatus_changes WHERE id = ?`, id)
	}
	if err != nil {
		return nil, err
	}
	snapshots, err := loadSnapshots(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	stack := row.toModel()
	if trees, ok := snapshots[id]; ok {
		stack.Trees = trees
	}
	return &stack, nil
}

func loadSnapshots(ctx context.Context, q queryer, stackIDs []int64) (map[int64][]models.StatusChangeTree, error) {
	query, args, err := sqlx.In(`SELECT id, stack_id, tree, last_state
	FROM releng_treestatus_change_trees WHERE stack_id IN (?) ORDER BY id`, stackIDs)
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}
	var rows []changeTreeRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	grouped := make(map[int64][]models.StatusChangeTree, len(stackIDs))
	for _, row := range rows {
		snapshot, err := row.toModel()
		if err != nil {
			return nil, err
		}
		grouped[row.StackID] = append(grouped[row.StackID], snapshot)
	}
	return grouped, nil
}

func deleteStack(ctx context.Context, q queryer, id int64) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM releng_treestatus_change_trees WHERE stack_id = ?`), id); err != nil {
		return fmt.Errorf("delete snapshots of stack %d: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM releng_treestatus_changes WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete stack %d: %w", id, err)
	}
	return nil
}
