package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jfowler/remind-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
//
// Implementations own the stored tasks: query operations return copies, so
// mutating a returned task never bypasses the durable-save contract. Every
// mutating call persists the full task set before returning.
type TaskStore interface {
	// Create saves a new task. When the task's ID is domain.UnassignedID
	// the store assigns max(existing IDs)+1 (0 for an empty store) and the
	// returned task carries the final ID. A caller-supplied ID that
	// collides with an existing task fails with ErrDuplicateID.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// GetByID retrieves a copy of the task with the given ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns a snapshot of all tasks in insertion order.
	List(ctx context.Context) ([]*domain.Task, error)

	// ListByUser returns a snapshot of the tasks owned by the given user,
	// preserving insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update replaces the stored task with the same ID. Used by the
	// scheduler to persist an advanced recurrence in place.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task with the given ID. Deleting an unknown ID is
	// an idempotent no-op.
	Delete(ctx context.Context, id int64) error

	// Flush forces a rewrite of the backing storage. The scheduler calls
	// it once on shutdown to guarantee a final persistence pass.
	Flush(ctx context.Context) error
}
