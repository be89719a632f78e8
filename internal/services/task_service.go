package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "harvestq.com/harvestq/internal/errors"
	model "harvestq.com/harvestq/internal/models"
	repository "harvestq.com/harvestq/internal/repositories"
)

// TaskService fronts the task store for the HTTP API and the CLI. It adds
// the one piece of policy the store itself does not: on a duplicate
// registration it recovers and returns the existing task instead of the
// conflict.
type TaskService struct {
	repo *repository.TaskRepository
	log  *zap.Logger
}

func NewTaskService(repo *repository.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo: repo,
		log:  logger,
	}
}

// Register inserts the task, or returns the already-registered one for the
// same URL. The second return value reports whether a new row was created.
func (s *TaskService) Register(ctx context.Context, entry model.NewTask) (*model.Task, bool, error) {
	task, err := s.repo.Register(ctx, entry)
	if err == nil {
		return task, true, nil
	}
	if !errors.Is(err, apperrors.ErrDuplicateURL) {
		return nil, false, err
	}

	id, err := s.repo.LookupByURL(ctx, entry.URL)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	s.log.Info("registration deduplicated", zap.Int64("task_id", id), zap.String("url", entry.URL))
	return existing, false, nil
}

func (s *TaskService) RegisterBatch(ctx context.Context, entries []model.NewTask) ([]int64, error) {
	return s.repo.RegisterBatch(ctx, entries)
}

func (s *TaskService) Claim(ctx context.Context, max int) ([]model.Task, error) {
	return s.repo.ClaimPending(ctx, max)
}

func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) ListByStatus(ctx context.Context, status model.Status, max int) ([]model.Task, error) {
	return s.repo.ListByStatus(ctx, status, max)
}

func (s *TaskService) ListDeleted(ctx context.Context, max int) ([]model.Task, error) {
	return s.repo.ListDeleted(ctx, max)
}

func (s *TaskService) ListRecent(ctx context.Context, hours, max int) ([]model.Task, error) {
	return s.repo.ListRecent(ctx, hours, max)
}

func (s *TaskService) Complete(ctx context.Context, id int64, downloadType int, logMsg string) (bool, error) {
	return s.repo.MarkSuccess(ctx, id, downloadType, logMsg)
}

func (s *TaskService) Fail(ctx context.Context, id int64, errorLog string) (bool, error) {
	return s.repo.MarkFailed(ctx, id, errorLog)
}

func (s *TaskService) Delete(ctx context.Context, id int64, reason string) (bool, error) {
	return s.repo.SoftDelete(ctx, id, reason)
}

func (s *TaskService) DeleteBatch(ctx context.Context, ids []int64, reason string) (int64, error) {
	return s.repo.SoftDeleteBatch(ctx, ids, reason)
}

func (s *TaskService) Restore(ctx context.Context, id int64) (bool, error) {
	return s.repo.Restore(ctx, id)
}

func (s *TaskService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *TaskService) Purge(ctx context.Context, days int) (int64, error) {
	return s.repo.PurgeOlderThan(ctx, days)
}

func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
