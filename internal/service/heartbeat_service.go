package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/pkg/cache"
	"github.com/noah-isme/treestatus-api/pkg/database"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

const heartbeatTTL = time.Minute

var errPostcondition = errors.New("postcondition failed")

// HeartbeatService checks that the cache and the database are usable.
type HeartbeatService struct {
	cache   cache.Backend
	db      database.Pinger
	metrics *MetricsService
	logger  *zap.Logger
	token   func() string
}

// NewHeartbeatService constructs the service. db may be nil to probe only the cache.
func NewHeartbeatService(backend cache.Backend, db database.Pinger, metrics *MetricsService, logger *zap.Logger) *HeartbeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatService{cache: backend, db: db, metrics: metrics, logger: logger, token: newProbeToken}
}

// newProbeToken returns six upper-case hex characters of a fresh UUID.
func newProbeToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// Check runs the cache probe and pings the database.
func (s *HeartbeatService) Check(ctx context.Context) error {
	if err := s.Probe(ctx); err != nil {
		return err
	}
	if s.db == nil {
		return nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("heartbeat database ping failed", zap.Error(err))
		s.metrics.RecordHeartbeatFailure("db_ping")
		return appErrors.WrapAs(appErrors.ErrHeartbeat, err, "cannot reach the database")
	}
	return nil
}

// Probe exercises get, set, get, delete and get on a random key. Any backend
// error or unexpected result is logged and reported as ErrHeartbeat.
func (s *HeartbeatService) Probe(ctx context.Context) error {
	key, value := s.token(), s.token()

	step, err := s.probe(ctx, key, value)
	if err != nil {
		s.logger.Error("cache heartbeat failed", zap.String("step", step), zap.String("key", key), zap.Error(err))
		s.metrics.RecordHeartbeatFailure(step)
		return appErrors.WrapAs(appErrors.ErrHeartbeat, err, "")
	}
	return nil
}

func (s *HeartbeatService) probe(ctx context.Context, key, value string) (string, error) {
	if s.cache == nil {
		return "init", errors.New("no cache configured")
	}

	if _, found, err := s.cache.Get(ctx, key); err != nil {
		return "get_before_set", err
	} else if found {
		return "get_before_set", fmt.Errorf("%w: key %s already present", errPostcondition, key)
	}

	if ok, err := s.cache.Set(ctx, key, value, heartbeatTTL); err != nil {
		return "set", err
	} else if !ok {
		return "set", fmt.Errorf("%w: set reported failure", errPostcondition)
	}

	if got, found, err := s.cache.Get(ctx, key); err != nil {
		return "get_after_set", err
	} else if !found || got != value {
		return "get_after_set", fmt.Errorf("%w: read back %q, want %q", errPostcondition, got, value)
	}

	if ok, err := s.cache.Delete(ctx, key); err != nil {
		return "delete", err
	} else if !ok {
		return "delete", fmt.Errorf("%w: delete reported failure", errPostcondition)
	}

	if _, found, err := s.cache.Get(ctx, key); err != nil {
		return "get_after_delete", err
	} else if found {
		return "get_after_delete", fmt.Errorf("%w: key %s survived delete", errPostcondition, key)
	}
	return "", nil
}
