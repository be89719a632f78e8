package queue

import (
	"context"
	"errors"
)

// SlotManager bounds the number of downloads in flight across every worker
// process sharing the queue. One slot is held per claimed task from claim
// until the final success/failure report.
type SlotManager interface {
	Acquire(ctx context.Context) error

	Release(ctx context.Context) error

	Reset(ctx context.Context, count int) error
}

var ErrNoSlotAvailable = errors.New("no download slot available")
