// Package wizard persists the in-progress wizard configuration of each
// experiment draft.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"annotator/internal/annotate/projector"
)

type Store interface {
	Get(ctx context.Context, draftID string) (projector.Config, error)
	Put(ctx context.Context, draftID string, cfg projector.Config) error
}

var (
	ErrNotFound  = errors.New("wizard config not found")
	ErrInvalidID = errors.New("invalid draft id")
)

func normalizeID(draftID string) (string, error) {
	id := strings.TrimSpace(draftID)
	if id == "" {
		return "", fmt.Errorf("%w: draft_id is required", ErrInvalidID)
	}
	return id, nil
}

// Configs are stored encoded so that callers never share maps with the store.
func encode(cfg projector.Config) ([]byte, error) {
	if cfg == nil {
		cfg = projector.Config{}
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode wizard config: %w", err)
	}
	return b, nil
}

func decode(raw []byte) (projector.Config, error) {
	cfg := projector.Config{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode wizard config: %w", err)
	}
	return cfg, nil
}
