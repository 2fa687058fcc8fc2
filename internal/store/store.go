// Package store provides best-effort session snapshot persistence. The
// orchestrator treats every store failure as non-fatal: snapshots are
// written after in-memory mutation and a missing or broken store only costs
// recoverability, never a running round.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot exists for a session id
var ErrNotFound = errors.New("snapshot not found")

// Store persists session snapshots. State is the serialized session record;
// aux carries per-character agent memory. Blobs expire after the
// implementation's TTL.
type Store interface {
	Save(ctx context.Context, sessionID string, state, aux []byte) error
	Load(ctx context.Context, sessionID string) (state, aux []byte, err error)
	Delete(ctx context.Context, sessionID string) error
}
