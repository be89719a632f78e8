package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "harvestq.com/harvestq/internal/errors"
	model "harvestq.com/harvestq/internal/models"
)

// TaskRepository is the task store engine: it owns the lifecycle of task
// rows and enforces the claiming, dedup, and soft-delete invariants through
// the database's transactional guarantees. It holds no mutable state of its
// own beyond the connection pool inside *gorm.DB, so a single instance is
// safe for any number of concurrent callers.
type TaskRepository struct {
	db            *gorm.DB
	table         string
	log           *zap.Logger
	restoreTarget model.Status
	strict        bool
}

type Option func(*TaskRepository)

// WithRestoreTarget overrides the status a restored task returns to.
// Default is StatusPending.
func WithRestoreTarget(s model.Status) Option {
	return func(r *TaskRepository) { r.restoreTarget = s }
}

// WithStrictTransitions makes SetStatus reject transitions outside the
// pending -> processing -> success/failed lifecycle instead of writing
// whatever the caller asks for.
func WithStrictTransitions() Option {
	return func(r *TaskRepository) { r.strict = true }
}

func NewTaskRepository(db *gorm.DB, table string, logger *zap.Logger, opts ...Option) *TaskRepository {
	r := &TaskRepository{
		db:            db,
		table:         table,
		log:           logger,
		restoreTarget: model.StatusPending,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// allowedTransitions is the lifecycle enforced when strict mode is on.
// Deletion and restore bypass it; they have their own guards.
var allowedTransitions = map[model.Status]map[model.Status]bool{
	model.StatusPending:    {model.StatusProcessing: true, model.StatusDeleted: true},
	model.StatusProcessing: {model.StatusSuccess: true, model.StatusFailed: true, model.StatusDeleted: true},
	model.StatusSuccess:    {model.StatusDeleted: true},
	model.StatusFailed:     {model.StatusDeleted: true},
	model.StatusDeleted:    {},
}

func (r *TaskRepository) tasks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

// Register inserts a new pending task. A URL that already has a row, in any
// status including deleted, yields ErrDuplicateURL; use LookupByURL to
// recover the existing id.
func (r *TaskRepository) Register(ctx context.Context, entry model.NewTask) (*model.Task, error) {
	now := time.Now().UTC()
	task := &model.Task{
		URL:        entry.URL,
		Title:      entry.Title,
		Duration:   entry.Duration,
		Status:     model.StatusPending,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := r.tasks(ctx).Create(task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateURL
		}
		return nil, apperrors.Storage("register task", err)
	}

	r.log.Info("task registered", zap.Int64("task_id", task.ID), zap.String("url", task.URL))
	return task, nil
}

// RegisterBatch inserts every entry whose URL is not yet registered and
// silently skips the rest. All inserts happen in one transaction; the
// returned ids cover only the rows actually created.
func (r *TaskRepository) RegisterBatch(ctx context.Context, entries []model.NewTask) ([]int64, error) {
	var ids []int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			task := model.Task{
				URL:        entry.URL,
				Title:      entry.Title,
				Duration:   entry.Duration,
				Status:     model.StatusPending,
				CreatedAt:  now,
				ModifiedAt: now,
			}
			res := tx.Table(r.table).
				Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url"}}, DoNothing: true}).
				Create(&task)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				ids = append(ids, task.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage("register batch", err)
	}

	r.log.Info("batch registered", zap.Int("accepted", len(ids)), zap.Int("submitted", len(entries)))
	return ids, nil
}

// LookupByURL returns the id of the task registered for url, deleted or not.
func (r *TaskRepository) LookupByURL(ctx context.Context, url string) (int64, error) {
	var task model.Task
	err := r.tasks(ctx).Select("id").Where("url = ?", url).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrTaskNotFound
		}
		return 0, apperrors.Storage("lookup by url", err)
	}
	return task.ID, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := r.tasks(ctx).Where("id = ?", id).Take(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, apperrors.Storage("get task", err)
	}
	return &task, nil
}

// ClaimPending atomically moves up to max of the oldest pending tasks to
// processing and returns them. Concurrent claimers partition the pending
// set: on Postgres the selecting read locks rows FOR UPDATE SKIP LOCKED, so
// two workers claiming at once never block each other and never receive the
// same task. An empty pending set yields an empty slice, not an error.
func (r *TaskRepository) ClaimPending(ctx context.Context, max int) ([]model.Task, error) {
	if max <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	var claimed []model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Table(r.table).
			Where("status = ?", model.StatusPending).
			Order("created_at asc, id asc").
			Limit(max)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{
				Strength: clause.LockingStrengthUpdate,
				Options:  clause.LockingOptionsSkipLocked,
			})
		}
		if err := query.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]int64, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
		}

		now := time.Now().UTC()
		res := tx.Table(r.table).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":      model.StatusProcessing,
			"modified_at": now,
		})
		if res.Error != nil {
			return res.Error
		}

		for i := range claimed {
			claimed[i].Status = model.StatusProcessing
			claimed[i].ModifiedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage("claim pending", err)
	}

	if len(claimed) > 0 {
		r.log.Info("tasks claimed", zap.Int("count", len(claimed)))
	}
	return claimed, nil
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status model.Status, max int) ([]model.Task, error) {
	if max <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	var tasks []model.Task
	err := r.tasks(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Limit(max).
		Find(&tasks).Error
	if err != nil {
		return nil, apperrors.Storage("list by status", err)
	}
	return tasks, nil
}

// ListDeleted returns soft-deleted tasks, most recently deleted first.
func (r *TaskRepository) ListDeleted(ctx context.Context, max int) ([]model.Task, error) {
	if max <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	var tasks []model.Task
	err := r.tasks(ctx).
		Where("status = ?", model.StatusDeleted).
		Order("modified_at desc").
		Limit(max).
		Find(&tasks).Error
	if err != nil {
		return nil, apperrors.Storage("list deleted", err)
	}
	return tasks, nil
}

// ListRecent returns tasks registered within the last hours, newest first.
func (r *TaskRepository) ListRecent(ctx context.Context, hours, max int) ([]model.Task, error) {
	if max <= 0 || hours <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}

	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	var tasks []model.Task
	err := r.tasks(ctx).
		Where("created_at >= ?", cutoff).
		Order("created_at desc").
		Limit(max).
		Find(&tasks).Error
	if err != nil {
		return nil, apperrors.Storage("list recent", err)
	}
	return tasks, nil
}

// SetStatus applies a status transition, stamping modified_at. Fields left
// nil in upd keep their stored value. Returns false without error when the
// id does not exist. In strict mode an illegal transition yields
// ErrInvalidTransition.
func (r *TaskRepository) SetStatus(ctx context.Context, id int64, upd model.StatusUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":      upd.Status,
		"modified_at": time.Now().UTC(),
	}
	if upd.DownloadType != nil {
		updates["download_type"] = *upd.DownloadType
	}
	if upd.Log != nil {
		updates["log"] = *upd.Log
	}

	var updated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.strict {
			var current model.Task
			err := tx.Table(r.table).Select("id", "status").Where("id = ?", id).Take(&current).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !allowedTransitions[current.Status][upd.Status] {
				return apperrors.ErrInvalidTransition
			}
		}

		res := tx.Table(r.table).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			return false, err
		}
		return false, apperrors.Storage("set status", err)
	}

	if updated {
		r.log.Info("task status updated", zap.Int64("task_id", id), zap.Stringer("status", upd.Status))
	} else {
		r.log.Warn("status update skipped, task not found", zap.Int64("task_id", id))
	}
	return updated, nil
}

// MarkSuccess records a completed download. An empty log defaults to
// "completed".
func (r *TaskRepository) MarkSuccess(ctx context.Context, id int64, downloadType int, logMsg string) (bool, error) {
	if logMsg == "" {
		logMsg = "completed"
	}
	return r.SetStatus(ctx, id, model.StatusUpdate{
		Status:       model.StatusSuccess,
		DownloadType: &downloadType,
		Log:          &logMsg,
	})
}

// MarkFailed records a failed download. The prior download_type is kept.
func (r *TaskRepository) MarkFailed(ctx context.Context, id int64, errorLog string) (bool, error) {
	return r.SetStatus(ctx, id, model.StatusUpdate{
		Status: model.StatusFailed,
		Log:    &errorLog,
	})
}

// MarkProcessing hand-claims a single task, for callers that picked it up
// outside ClaimPending.
func (r *TaskRepository) MarkProcessing(ctx context.Context, id int64, logMsg string) (bool, error) {
	if logMsg == "" {
		logMsg = "processing"
	}
	return r.SetStatus(ctx, id, model.StatusUpdate{
		Status: model.StatusProcessing,
		Log:    &logMsg,
	})
}

// SoftDelete marks a task deleted and records the reason in its log. It is
// idempotent: deleting an already-deleted task succeeds and only refreshes
// modified_at and the reason.
func (r *TaskRepository) SoftDelete(ctx context.Context, id int64, reason string) (bool, error) {
	res := r.tasks(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.StatusDeleted,
		"log":         reason,
		"modified_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, apperrors.Storage("soft delete", res.Error)
	}

	if res.RowsAffected == 1 {
		r.log.Info("task soft-deleted", zap.Int64("task_id", id), zap.String("reason", reason))
		return true, nil
	}
	return false, nil
}

// SoftDeleteBatch deletes every listed task that is not already deleted and
// returns how many rows it transitioned.
func (r *TaskRepository) SoftDeleteBatch(ctx context.Context, ids []int64, reason string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.tasks(ctx).
		Where("id IN ? AND status <> ?", ids, model.StatusDeleted).
		Updates(map[string]interface{}{
			"status":      model.StatusDeleted,
			"log":         reason,
			"modified_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperrors.Storage("soft delete batch", res.Error)
	}

	r.log.Info("batch soft-deleted", zap.Int64("deleted", res.RowsAffected), zap.Int("submitted", len(ids)))
	return res.RowsAffected, nil
}

// Restore moves a deleted task back to the configured restore target,
// pending unless overridden. Returns false when the task does not exist or
// is not currently deleted. The task's log keeps the deletion reason until
// some later update overwrites it.
func (r *TaskRepository) Restore(ctx context.Context, id int64) (bool, error) {
	res := r.tasks(ctx).
		Where("id = ? AND status = ?", id, model.StatusDeleted).
		Updates(map[string]interface{}{
			"status":      r.restoreTarget,
			"modified_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, apperrors.Storage("restore", res.Error)
	}

	if res.RowsAffected == 1 {
		r.log.Info("task restored", zap.Int64("task_id", id), zap.Stringer("status", r.restoreTarget))
		return true, nil
	}
	return false, nil
}

// Stats counts tasks per status in a single query, so the numbers are one
// consistent snapshot even under concurrent writers.
func (r *TaskRepository) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	err := r.tasks(ctx).
		Select(`COUNT(*) AS total,
			COUNT(CASE WHEN status = ? THEN 1 END) AS pending,
			COUNT(CASE WHEN status = ? THEN 1 END) AS processing,
			COUNT(CASE WHEN status = ? THEN 1 END) AS success,
			COUNT(CASE WHEN status = ? THEN 1 END) AS failed,
			COUNT(CASE WHEN status = ? THEN 1 END) AS deleted`,
			model.StatusPending, model.StatusProcessing, model.StatusSuccess,
			model.StatusFailed, model.StatusDeleted).
		Scan(&stats).Error
	if err != nil {
		return nil, apperrors.Storage("stats", err)
	}
	return &stats, nil
}

// PurgeOlderThan hard-deletes success and failed rows registered more than
// days ago. Pending, processing, and soft-deleted rows are never purged.
func (r *TaskRepository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, apperrors.ErrInvalidLimit
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res := r.tasks(ctx).
		Where("status IN ? AND created_at < ?",
			[]model.Status{model.StatusSuccess, model.StatusFailed}, cutoff).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, apperrors.Storage("purge", res.Error)
	}

	if res.RowsAffected > 0 {
		r.log.Info("tasks purged", zap.Int64("purged", res.RowsAffected), zap.Int("older_than_days", days))
	}
	return res.RowsAffected, nil
}

// Ping probes storage connectivity.
func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.Storage("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Storage("ping", err)
	}
	return nil
}
