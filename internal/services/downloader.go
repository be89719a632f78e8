package services

import (
	"context"
	"math/rand"
	"time"

	model "harvestq.com/harvestq/internal/models"
)

// Downloader runs the transfer for one claimed task. Implementations live
// outside the engine; the pool only cares about the outcome it reports.
type Downloader interface {
	// Download returns the download type that was used and a short detail
	// line for the task log. A non-nil error marks the task failed with the
	// error text as its log.
	Download(ctx context.Context, task *model.Task) (downloadType int, detail string, err error)
}

// SimulatedDownloader stands in for the real transfer step in local runs:
// it sleeps for a bounded random duration and reports success.
type SimulatedDownloader struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

func (d *SimulatedDownloader) Download(ctx context.Context, task *model.Task) (int, string, error) {
	delay := d.MinDelay
	if d.MaxDelay > d.MinDelay {
		delay += time.Duration(rand.Int63n(int64(d.MaxDelay - d.MinDelay)))
	}

	select {
	case <-time.After(delay):
		return 0, "completed", nil
	case <-ctx.Done():
		return 0, "", ctx.Err()
	}
}
