package out

import (
	"context"
	"errors"
	"fmt"

	catalogout "mathbot/internal/modules/catalog/port/out"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/kv"
)

const RawCacheKey = "mb_lessons_cache"

type KVRawCache struct {
	store kv.Store
}

func NewKVRawCache(store kv.Store) catalogout.RawCache {
	return &KVRawCache{store: store}
}

func (c *KVRawCache) Load(ctx context.Context) ([]byte, error) {
	raw, err := c.store.Get(ctx, RawCacheKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("load lesson cache: %w", err)
	}
	return raw, nil
}

func (c *KVRawCache) Save(ctx context.Context, raw []byte) error {
	if err := c.store.Set(ctx, RawCacheKey, raw); err != nil {
		return fmt.Errorf("save lesson cache: %w", err)
	}
	return nil
}

func (c *KVRawCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, RawCacheKey); err != nil {
		return fmt.Errorf("clear lesson cache: %w", err)
	}
	return nil
}
