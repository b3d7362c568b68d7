package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

const (
	treeListCacheKey = "trees:list"
	treeCachePrefix  = "tree:"
)

func treeCacheKey(name string) string {
	return treeCachePrefix + name
}

// treeCacheKeys lists every key holding data about the given trees.
func treeCacheKeys(names []string) []string {
	keys := make([]string, 0, len(names)+1)
	keys = append(keys, treeListCacheKey)
	for _, name := range names {
		keys = append(keys, treeCacheKey(name))
	}
	return keys
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError maps repository failures onto API errors. Typed errors raised
// below the service (decode failures) pass through unchanged.
func storeError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WrapAs(appErrors.ErrNotFound, err, notFound)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.WrapAs(appErrors.ErrInternal, err, internal)
}
