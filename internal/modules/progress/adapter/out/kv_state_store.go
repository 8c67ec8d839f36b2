package out

import (
	"context"
	"errors"
	"fmt"

	progressout "mathbot/internal/modules/progress/port/out"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/kv"
)

const StateKey = "mb_lessons_progress_v1"

type KVStateStore struct {
	store kv.Store
}

func NewKVStateStore(store kv.Store) progressout.StateStore {
	return &KVStateStore{store: store}
}

func (s *KVStateStore) Load(ctx context.Context) ([]byte, error) {
	raw, err := s.store.Get(ctx, StateKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("load progress state: %w", err)
	}
	return raw, nil
}

func (s *KVStateStore) Save(ctx context.Context, raw []byte) error {
	if err := s.store.Set(ctx, StateKey, raw); err != nil {
		return fmt.Errorf("save progress state: %w", err)
	}
	return nil
}
