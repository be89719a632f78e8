package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "harvestq.com/harvestq/internal/models"
	"harvestq.com/harvestq/internal/queue"
	repository "harvestq.com/harvestq/internal/repositories"
)

// PoolService is the worker side of the queue: a poller claims batches of
// pending tasks through the store's atomic claim, hands them to workers over
// a channel, and each worker runs the downloader and reports the outcome.
// Claimed tasks never pass through more than one worker; exclusivity comes
// from the claim itself, not from anything in this process.
type PoolService struct {
	repo     *repository.TaskRepository
	slots    queue.SlotManager
	download Downloader
	log      *zap.Logger

	tasks        chan model.Task
	pollInterval time.Duration
	pollBatch    int

	wg       sync.WaitGroup
	pollWG   sync.WaitGroup
	pollStop chan struct{}
}

func NewPoolService(
	repo *repository.TaskRepository,
	slots queue.SlotManager,
	downloader Downloader,
	logger *zap.Logger,
	workers int,
	queueSize int,
	pollInterval time.Duration,
	pollBatch int,
) *PoolService {
	p := &PoolService{
		repo:         repo,
		slots:        slots,
		download:     downloader,
		log:          logger,
		tasks:        make(chan model.Task, queueSize),
		pollInterval: pollInterval,
		pollBatch:    pollBatch,
		pollStop:     make(chan struct{}),
	}

	p.pollWG.Add(1)
	go p.pollLoop()

	for i := 0; i < workers; i++ {
		workerID := uuid.NewString()[:8]
		p.wg.Add(1)
		go p.worker(workerID)
	}

	return p
}

func (p *PoolService) pollLoop() {
	defer p.pollWG.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pollOnce()
		case <-p.pollStop:
			return
		}
	}
}

// pollOnce claims at most as many tasks as it can hold download slots for.
// Slots acquired for tasks that turned out not to exist go straight back.
func (p *PoolService) pollOnce() {
	ctx := context.Background()

	acquired := 0
	for acquired < p.pollBatch {
		err := p.slots.Acquire(ctx)
		if err == nil {
			acquired++
			continue
		}
		if !errors.Is(err, queue.ErrNoSlotAvailable) {
			p.log.Warn("slot acquire failed", zap.Error(err))
		}
		break
	}
	if acquired == 0 {
		return
	}

	claimed, err := p.repo.ClaimPending(ctx, acquired)
	if err != nil {
		p.log.Error("claim failed", zap.Error(err))
		claimed = nil
	}

	for i := len(claimed); i < acquired; i++ {
		if err := p.slots.Release(ctx); err != nil {
			p.log.Warn("slot release failed", zap.Error(err))
		}
	}

	for _, task := range claimed {
		p.tasks <- task
	}
}

func (p *PoolService) worker(workerID string) {
	defer p.wg.Done()

	p.log.Info("worker started", zap.String("worker_id", workerID))

	for task := range p.tasks {
		p.handleTask(workerID, task)
	}

	p.log.Info("worker stopped", zap.String("worker_id", workerID))
}

func (p *PoolService) handleTask(workerID string, task model.Task) {
	ctx := context.Background()
	defer func() {
		if err := p.slots.Release(ctx); err != nil {
			p.log.Warn("slot release failed", zap.String("worker_id", workerID), zap.Error(err))
		}
	}()

	p.log.Info("downloading",
		zap.String("worker_id", workerID),
		zap.Int64("task_id", task.ID),
		zap.String("url", task.URL))

	downloadType, detail, err := p.download.Download(ctx, &task)
	if err != nil {
		if _, markErr := p.repo.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
			p.log.Error("failed to record failure",
				zap.String("worker_id", workerID), zap.Int64("task_id", task.ID), zap.Error(markErr))
		}
		return
	}

	if _, err := p.repo.MarkSuccess(ctx, task.ID, downloadType, detail); err != nil {
		p.log.Error("failed to record success",
			zap.String("worker_id", workerID), zap.Int64("task_id", task.ID), zap.Error(err))
	}
}

// Shutdown stops the poller, lets workers drain the tasks already claimed,
// and gives up when ctx expires. Tasks still queued at that point stay in
// processing until an operator resets them.
func (p *PoolService) Shutdown(ctx context.Context) {
	close(p.pollStop)
	p.pollWG.Wait()
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool shut down cleanly")
	case <-ctx.Done():
		p.log.Warn("worker pool shutdown timed out")
	}
}
