package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "harvestq.com/harvestq/internal/models"
	"harvestq.com/harvestq/internal/queue"
	repository "harvestq.com/harvestq/internal/repositories"
)

// mockSlotManager is an in-memory slot pool for tests.
type mockSlotManager struct {
	mu    sync.Mutex
	slots int
}

func newMockSlotManager(capacity int) *mockSlotManager {
	return &mockSlotManager{slots: capacity}
}

func (m *mockSlotManager) Acquire(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots <= 0 {
		return queue.ErrNoSlotAvailable
	}
	m.slots--
	return nil
}

func (m *mockSlotManager) Release(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots++
	return nil
}

func (m *mockSlotManager) Reset(ctx context.Context, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = count
	return nil
}

func (m *mockSlotManager) available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots
}

// scriptedDownloader fails any URL containing "bad" and succeeds otherwise.
type scriptedDownloader struct{}

func (scriptedDownloader) Download(ctx context.Context, task *model.Task) (int, string, error) {
	if strings.Contains(task.URL, "bad") {
		return 0, "", errors.New("download refused")
	}
	return 1, "completed", nil
}

func setupTestRepo(t *testing.T) *repository.TaskRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Table("harvest_tasks_test").AutoMigrate(&model.Task{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return repository.NewTaskRepository(db, "harvest_tasks_test", zap.NewNop())
}

func TestTaskServiceRegisterDeduplicates(t *testing.T) {
	repo := setupTestRepo(t)
	service := NewTaskService(repo, zap.NewNop())
	ctx := context.Background()

	task, created, err := service.Register(ctx, model.NewTask{URL: "https://example.com/v/1"})
	if err != nil {
		t.Fatalf("failed to register task: %v", err)
	}
	if !created {
		t.Error("expected first registration to create a row")
	}

	again, created, err := service.Register(ctx, model.NewTask{URL: "https://example.com/v/1"})
	if err != nil {
		t.Fatalf("failed to re-register task: %v", err)
	}
	if created {
		t.Error("expected second registration to be deduplicated")
	}
	if again.ID != task.ID {
		t.Errorf("expected existing id %d, got %d", task.ID, again.ID)
	}
}

func TestPoolProcessesClaimedTasks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	ids := make([]int64, 0, 5)
	for _, url := range []string{
		"https://example.com/v/ok1",
		"https://example.com/v/ok2",
		"https://example.com/v/bad",
		"https://example.com/v/ok3",
		"https://example.com/v/ok4",
	} {
		task, err := repo.Register(ctx, model.NewTask{URL: url})
		if err != nil {
			t.Fatalf("failed to register %s: %v", url, err)
		}
		ids = append(ids, task.ID)
	}

	const capacity = 3
	slots := newMockSlotManager(capacity)
	pool := NewPoolService(repo, slots, scriptedDownloader{}, zap.NewNop(),
		2, capacity, 20*time.Millisecond, capacity)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.Success+stats.Failed == int64(len(ids)) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Success != 4 {
		t.Errorf("expected 4 successes, got %d", stats.Success)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failed)
	}
	if stats.Pending != 0 || stats.Processing != 0 {
		t.Errorf("expected no pending or processing tasks, got %d/%d", stats.Pending, stats.Processing)
	}

	if got := slots.available(); got != capacity {
		t.Errorf("expected all %d slots returned, got %d", capacity, got)
	}
}

func TestPoolLeavesNothingDoubleProcessed(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	const taskCount = 20
	entries := make([]model.NewTask, taskCount)
	for i := range entries {
		entries[i] = model.NewTask{URL: fmt.Sprintf("https://example.com/v/n%d", i)}
	}
	if _, err := repo.RegisterBatch(ctx, entries); err != nil {
		t.Fatalf("failed to register batch: %v", err)
	}

	slots := newMockSlotManager(taskCount)
	pool := NewPoolService(repo, slots, scriptedDownloader{}, zap.NewNop(),
		4, taskCount, 10*time.Millisecond, 5)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.Success == taskCount {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Success != taskCount {
		t.Errorf("expected %d successes, got %d", taskCount, stats.Success)
	}
}
