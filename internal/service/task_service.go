package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/scheduler"
	"github.com/jfowler/remind-api/internal/store"
)

// TaskService composes the task store, the connection registry, and the
// scheduler loop into the surface the API layer consumes. Ownership
// checks are the caller's responsibility; the service only exposes
// user-scoped queries.
type TaskService struct {
	tasks     store.TaskStore
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// NewTaskService creates a TaskService with the given collaborators.
func NewTaskService(
	tasks store.TaskStore,
	reg *registry.Registry,
	sched *scheduler.Scheduler,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		registry:  reg,
		scheduler: sched,
		logger:    logger.With(slog.String("component", "task_service")),
	}
}

// CreateTask validates and stores a new task for the given owner,
// returning it with its store-assigned ID.
func (s *TaskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
	date domain.TaskDate,
	repeatDays, repeatCount *int,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, name, description, date, repeatDays, repeatCount)
	if err != nil {
		return nil, err
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		"task_id", created.ID,
		"user_id", created.UserID.String(),
		"date", created.Date.String())
	return created, nil
}

// ListTasks returns a snapshot of every stored task in insertion order.
func (s *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.List(ctx)
}

// ListTasksByUser returns the tasks owned by the given user in insertion
// order.
func (s *TaskService) ListTasksByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.tasks.ListByUser(ctx, userID)
}

// GetTask retrieves a task by ID. Returns store.ErrTaskNotFound for an
// unknown ID.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// DeleteTask removes a task by ID.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// Connect registers a live notification connection for the given user.
func (s *TaskService) Connect(userID uuid.UUID, conn registry.Conn) {
	s.registry.Register(userID, conn)
	s.logger.Info("connection registered",
		"user_id", userID.String(),
		"total_connections", s.registry.Len())
}

// Disconnect removes a connection from the registry. Idempotent.
func (s *TaskService) Disconnect(conn registry.Conn) {
	s.registry.Unregister(conn)
	s.logger.Info("connection unregistered",
		"total_connections", s.registry.Len())
}

// Start launches the scheduler loop.
func (s *TaskService) Start() error {
	return s.scheduler.Start()
}

// Stop shuts the scheduler loop down and flushes the store.
func (s *TaskService) Stop() {
	s.scheduler.Stop()
}
