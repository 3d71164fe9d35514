package store

import (
	"context"
	"fmt"
	"strconv"
)

// CursorStore defines the interface for storing and retrieving event log cursors
//
//go:generate mockgen -source=cursor_store.go -destination=../mocks/cursor_store.go -package=mocks -mock_names=CursorStore=MockCursorStore
type CursorStore interface {
	// GetEventCursor retrieves the last processed event sequence for a consumer
	GetEventCursor(ctx context.Context, key string) (uint64, error)
	// SetEventCursor stores the last processed event sequence for a consumer
	SetEventCursor(ctx context.Context, key string, sequence uint64) error
}

type cursorStore struct {
	store Store
}

// NewCursorStore creates a new cursor store backed by the key-value table
func NewCursorStore(store Store) CursorStore {
	return &cursorStore{store: store}
}

// GetEventCursor retrieves the last processed event sequence for a consumer
func (s *cursorStore) GetEventCursor(ctx context.Context, key string) (uint64, error) {
	value, err := s.store.GetKeyValue(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to get event cursor: %w", err)
	}
	if value == "" {
		return 0, nil // Return 0 if no cursor exists
	}

	sequence, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse event cursor: %w", err)
	}

	return sequence, nil
}

// SetEventCursor stores the last processed event sequence for a consumer
func (s *cursorStore) SetEventCursor(ctx context.Context, key string, sequence uint64) error {
	if err := s.store.SetKeyValue(ctx, key, strconv.FormatUint(sequence, 10)); err != nil {
		return fmt.Errorf("failed to set event cursor: %w", err)
	}
	return nil
}
