// Package kvstore persists the application's JSON documents under fixed keys.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Store is the capability every backend provides: read a document by key and
// overwrite it. A missing key is reported with ok=false, not an error.
type Store interface {
	Get(ctx context.Context, key string) (doc []byte, ok bool, err error)
	Set(ctx context.Context, key string, doc []byte) error
}

// Load decodes the document stored under key.
// A missing document, or one that fails to decode, yields the zero value and ok=false.
func Load[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T
	doc, ok, err := s.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || len(doc) == 0 {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		slog.Warn("Discarding undecodable document", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}

// Save encodes v as JSON and writes it under key.
func Save(ctx context.Context, s Store, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, doc); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
