package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/store"
)

// TaskStore is a file-backed implementation of store.TaskStore. All tasks
// are held in memory in insertion order and mirrored to a JSON file on
// every mutation.
type TaskStore struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	tasks []*domain.Task
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// OpenTaskStore loads the task file at path, creating the parent directory
// if needed. A missing file is an empty store.
func OpenTaskStore(path string, logger *slog.Logger) (*TaskStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create task store directory: %w", err)
	}

	var tasks []*domain.Task
	if err := readJSON(path, &tasks); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load task store: %w", err)
	}

	logger.Info("task store opened", "path", path, "task_count", len(tasks))

	return &TaskStore{
		path:   path,
		logger: logger.With(slog.String("component", "jsonfile_task_store")),
		tasks:  tasks,
	}, nil
}

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := task.Clone()
	if stored.ID == domain.UnassignedID {
		stored.ID = s.nextIDLocked()
	} else if s.indexOfLocked(stored.ID) >= 0 {
		return nil, store.ErrDuplicateID
	}

	s.tasks = append(s.tasks, stored)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}

	return stored.Clone(), nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return nil, store.ErrTaskNotFound
	}
	return s.tasks[i].Clone(), nil
}

// List implements store.TaskStore.List.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		snapshot = append(snapshot, t.Clone())
	}
	return snapshot, nil
}

// ListByUser implements store.TaskStore.ListByUser.
func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot []*domain.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			snapshot = append(snapshot, t.Clone())
		}
	}
	return snapshot, nil
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(task.ID)
	if i < 0 {
		return store.ErrTaskNotFound
	}

	s.tasks[i] = task.Clone()
	return s.persistLocked()
}

// Delete implements store.TaskStore.Delete. Unknown IDs are a no-op.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return nil
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.persistLocked()
}

// Flush implements store.TaskStore.Flush.
func (s *TaskStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *TaskStore) indexOfLocked(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) nextIDLocked() int64 {
	var next int64
	for _, t := range s.tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

func (s *TaskStore) persistLocked() error {
	// Marshal a non-nil slice so an emptied store writes [] not null.
	tasks := s.tasks
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	if err := writeAtomic(s.path, tasks); err != nil {
		s.logger.Error("task store rewrite failed", "path", s.path, "error", err)
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return nil
}
