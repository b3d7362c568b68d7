package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/dto"
	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/internal/repository"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

type treeRepository interface {
	List(ctx context.Context) ([]models.Tree, error)
	Get(ctx context.Context, name string) (*models.Tree, error)
	Create(ctx context.Context, tree models.Tree, entry *models.Log) error
	Delete(ctx context.Context, name string) error
	Apply(ctx context.Context, update repository.TreeUpdate) ([]models.Log, error)
}

type logRepository interface {
	ListByTree(ctx context.Context, tree string, limit int) ([]models.Log, error)
}

type stackCreator interface {
	Create(ctx context.Context, params repository.StackParams) (*models.StatusChange, error)
}

// TreeServiceConfig tunes caching, log listings and store timeouts.
type TreeServiceConfig struct {
	CacheTTL         time.Duration
	LogLimit         int
	StatementTimeout time.Duration
}

// TreeService exposes tree reads and status updates.
type TreeService struct {
	trees     treeRepository
	logs      logRepository
	stacks    stackCreator
	cache     *CacheService
	notifier  Notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TreeServiceConfig
	now       func() time.Time
}

// NewTreeService constructs the service.
func NewTreeService(
	trees treeRepository,
	logs logRepository,
	stacks stackCreator,
	cache *CacheService,
	notifier Notifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TreeServiceConfig,
) *TreeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if cfg.LogLimit <= 0 {
		cfg.LogLimit = 20
	}
	svc := &TreeService{
		trees:     trees,
		logs:      logs,
		stacks:    stacks,
		cache:     cache,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	svc.validator.RegisterValidation("tree_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		for _, known := range models.KnownTreeStatuses {
			if status == known {
				return true
			}
		}
		return false
	})
	return svc
}

// List returns every tree.
func (s *TreeService) List(ctx context.Context) ([]models.Tree, error) {
	var cached []models.Tree
	if hit, _ := s.cache.Get(ctx, treeListCacheKey, &cached); hit {
		return cached, nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()
	start := time.Now()
	trees, err := s.trees.List(ctx)
	s.metrics.ObserveDBQuery("tree.list", time.Since(start))
	if err != nil {
		return nil, storeError(err, "", "failed to list trees")
	}
	_ = s.cache.Set(ctx, treeListCacheKey, trees, s.cfg.CacheTTL)
	return trees, nil
}

// Get returns one tree.
func (s *TreeService) Get(ctx context.Context, name string) (*models.Tree, error) {
	var cached models.Tree
	if hit, _ := s.cache.Get(ctx, treeCacheKey(name), &cached); hit {
		return &cached, nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()
	tree, err := s.trees.Get(ctx, name)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("tree %s not found", name), "failed to load tree")
	}
	_ = s.cache.Set(ctx, treeCacheKey(name), tree, s.cfg.CacheTTL)
	return tree, nil
}

// Create starts tracking a tree and logs its initial status.
func (s *TreeService) Create(ctx context.Context, name string, req dto.CreateTreeRequest, who string) (*models.Tree, error) {
	if err := s.validator.Var(name, "required,max=32"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tree name")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	tree := models.NewTree(name)
	if req.Status != "" {
		tree.Status = req.Status
	}
	tree.Reason = req.Reason
	tree.MessageOfTheDay = req.MessageOfTheDay
	if err := validateClosing(tree.Status, tree.Reason); err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.Log{When: now, Who: who, Status: tree.Status, Reason: tree.Reason, Tags: []string{}}

	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()
	if err := s.trees.Create(ctx, tree, entry); err != nil {
		if errors.Is(err, repository.ErrTreeExists) {
			return nil, appErrors.WrapAs(appErrors.ErrConflict, err, fmt.Sprintf("tree %s already exists", name))
		}
		return nil, storeError(err, "", "failed to create tree")
	}

	s.afterWrite(ctx, models.StatusChangeEvent{
		Kind: models.EventTreeCreated, Trees: []string{name}, Status: tree.Status, Reason: tree.Reason, Who: who, When: now,
	})
	return &tree, nil
}

// Delete stops tracking a tree and drops its history.
func (s *TreeService) Delete(ctx context.Context, name, who string) error {
	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()
	if err := s.trees.Delete(ctx, name); err != nil {
		return storeError(err, fmt.Sprintf("tree %s not found", name), "failed to delete tree")
	}
	s.afterWrite(ctx, models.StatusChangeEvent{Kind: models.EventTreeDeleted, Trees: []string{name}, Who: who, When: s.now()})
	return nil
}

// Update applies a status and/or message of the day to several trees. When
// req.Remember is set the change is recorded as a stack and returned.
func (s *TreeService) Update(ctx context.Context, req dto.UpdateTreesRequest, who string) (*models.StatusChange, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.Status == nil && req.MessageOfTheDay == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either status or message_of_the_day is required")
	}
	if req.Remember && req.Status == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remembered updates must set a status")
	}
	if req.Status != nil {
		if err := validateClosing(*req.Status, req.Reason); err != nil {
			return nil, err
		}
	}

	now := s.now()
	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()

	event := models.StatusChangeEvent{Kind: models.EventTreeUpdated, Trees: req.Trees, Reason: req.Reason, Who: who, When: now}
	if req.Status != nil {
		event.Status = *req.Status
	}

	if req.Remember {
		start := time.Now()
		stack, err := s.stacks.Create(ctx, repository.StackParams{
			Trees:           req.Trees,
			Status:          *req.Status,
			Reason:          req.Reason,
			Tags:            req.Tags,
			MessageOfTheDay: req.MessageOfTheDay,
			Who:             who,
			When:            now,
		})
		s.metrics.ObserveDBQuery("stack.create", time.Since(start))
		if err != nil {
			return nil, storeError(err, "one or more trees not found", "failed to update trees")
		}
		event.Kind = models.EventStackCreated
		event.Trees = stack.TreeNames()
		event.StackID = &stack.ID
		s.afterWrite(ctx, event)
		return stack, nil
	}

	start := time.Now()
	_, err := s.trees.Apply(ctx, repository.TreeUpdate{
		Trees:           req.Trees,
		Status:          req.Status,
		Reason:          req.Reason,
		Tags:            req.Tags,
		MessageOfTheDay: req.MessageOfTheDay,
		Who:             who,
		When:            now,
	})
	s.metrics.ObserveDBQuery("tree.apply", time.Since(start))
	if err != nil {
		return nil, storeError(err, "one or more trees not found", "failed to update trees")
	}
	s.afterWrite(ctx, event)
	return nil, nil
}

// Logs returns the newest log entries of a tree; all lifts the default limit.
func (s *TreeService) Logs(ctx context.Context, name string, all bool) ([]models.Log, error) {
	if _, err := s.Get(ctx, name); err != nil {
		return nil, err
	}
	limit := s.cfg.LogLimit
	if all {
		limit = 0
	}

	ctx, cancel := withTimeout(ctx, s.cfg.StatementTimeout)
	defer cancel()
	logs, err := s.logs.ListByTree(ctx, name, limit)
	if err != nil {
		return nil, storeError(err, "", "failed to load logs")
	}
	return logs, nil
}

func (s *TreeService) afterWrite(ctx context.Context, event models.StatusChangeEvent) {
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), treeCacheKeys(event.Trees)...)
	s.metrics.RecordStatusChange(event.Kind)
	s.notifier.Notify(ctx, event)
	s.logger.Info("trees updated",
		zap.String("kind", event.Kind),
		zap.Strings("trees", event.Trees),
		zap.String("status", event.Status),
		zap.String("who", event.Who),
	)
}

func validateClosing(status, reason string) error {
	if status == models.TreeStatusClosed && reason == "" {
		return appErrors.Clone(appErrors.ErrValidation, "closing a tree requires a reason")
	}
	return nil
}
