package screenshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store keeps reference screenshots per experiment draft.
type Store interface {
	Put(ctx context.Context, draftID, name string, content []byte) error
	Get(ctx context.Context, draftID, name string) ([]byte, error)
	GetURL(ctx context.Context, draftID, name string) (string, error)
	List(ctx context.Context, draftID string) ([]string, error)
}

var (
	ErrNotFound   = errors.New("screenshot not found")
	ErrInvalidKey = errors.New("invalid screenshot key")
)

func normalizeKey(draftID, name string) (string, string, error) {
	draftID = strings.TrimSpace(draftID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if draftID == "" {
		return "", "", fmt.Errorf("%w: draft_id is required", ErrInvalidKey)
	}
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrInvalidKey)
	}
	if strings.Contains(name, "..") {
		return "", "", fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	return draftID, name, nil
}

func objectKey(draftID, name string) string {
	return strings.TrimSpace(draftID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}
