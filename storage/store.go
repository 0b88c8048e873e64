package storage

import (
	"context"
	"errors"
)

var ErrNotInitialized = errors.New("store is not initialized")

// BrainRecord is a checkpointed brain. Payload holds the serialized brain
// parameters; ratings are never stored.
type BrainRecord struct {
	ID         string
	ParentID   string
	Generation int
	Payload    []byte
}

// Store persists brain checkpoints across training runs.
type Store interface {
	Init(ctx context.Context) error
	SaveBrain(ctx context.Context, record BrainRecord) error
	GetBrain(ctx context.Context, id string) (BrainRecord, bool, error)
	// LatestBrain returns the record of the highest generation. Within a
	// generation the record whose id was inserted last wins.
	LatestBrain(ctx context.Context) (BrainRecord, bool, error)
}

func validate(record BrainRecord) error {
	if record.ID == "" {
		return errors.New("brain record id is required")
	}
	if len(record.Payload) == 0 {
		return errors.New("brain record payload is empty")
	}
	return nil
}
