package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// CascadeLocker serializes writes on one hierarchy (Redis).
type CascadeLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

func categoryLockKey(categoryID string) string {
	return "category:" + categoryID
}

// lockCategories takes the hierarchy lock of every given category in id
// order and returns a func releasing them in reverse. A held lock releases
// what was taken and yields ErrCascadeInProgress. An unreachable lock store
// is logged and the caller proceeds unlocked.
func lockCategories(ctx context.Context, locker CascadeLocker, releaseTimeout time.Duration, log zerolog.Logger, categoryIDs ...string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}

	ids := uniqueIDs(categoryIDs)
	sort.Strings(ids)

	var held []string
	release := func() {
		// ctx may already be cancelled here.
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := locker.Release(releaseCtx, held[i]); err != nil {
				log.Warn().Err(err).Str("lock", held[i]).Msg("failed to release cascade lock")
			}
		}
	}

	for _, id := range ids {
		key := categoryLockKey(id)
		ok, err := locker.Acquire(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("lock", key).Msg("cascade lock unavailable, proceeding unlocked")
			continue
		}
		if !ok {
			release()
			return nil, domain.ErrCascadeInProgress
		}
		held = append(held, key)
	}
	return release, nil
}
