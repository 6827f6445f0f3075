package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/store"
)

// TaskStore implements store.TaskStore using a PostgreSQL database.
//
// Task IDs follow the same max+1 assignment as the JSON file store, computed
// inside the INSERT so concurrent creates cannot race to the same ID. A
// separate seq column preserves insertion order for listings, since max+1
// can reuse the ID of a deleted task.
type TaskStore struct {
	db *sql.DB
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a PostgreSQL implementation of the TaskStore
// interface. The database connection is initialized and managed by the
// caller.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, user_id, name, description,
	year, month, day, hour, minute, repeat_days, repeat_count`

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created := task.Clone()

	if task.ID == domain.UnassignedID {
		const query = `
			INSERT INTO tasks (id, user_id, name, description,
				year, month, day, hour, minute, repeat_days, repeat_count)
			SELECT COALESCE(MAX(id) + 1, 0), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			FROM tasks
			RETURNING id`

		err := s.db.QueryRowContext(ctx, query,
			task.UserID, task.Name, task.Description,
			task.Date.Year, task.Date.Month, task.Date.Day, task.Date.Hour, task.Date.Minute,
			task.RepeatDays, task.RepeatCount,
		).Scan(&created.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return created, nil
	}

	const query = `
		INSERT INTO tasks (id, user_id, name, description,
			year, month, day, hour, minute, repeat_days, repeat_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Name, task.Description,
		task.Date.Year, task.Date.Month, task.Date.Day, task.Date.Hour, task.Date.Minute,
		task.RepeatDays, task.RepeatCount)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", store.ErrDuplicateID, err)
		}
		return nil, mapError(err)
	}
	return created, nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, mapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks ORDER BY seq`, taskColumns)
	return s.queryTasks(ctx, query)
}

// ListByUser implements store.TaskStore.ListByUser.
func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE user_id = $1 ORDER BY seq`, taskColumns)
	return s.queryTasks(ctx, query, userID)
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	const query = `
		UPDATE tasks
		SET user_id = $2, name = $3, description = $4,
			year = $5, month = $6, day = $7, hour = $8, minute = $9,
			repeat_days = $10, repeat_count = $11
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Name, task.Description,
		task.Date.Year, task.Date.Month, task.Date.Day, task.Date.Hour, task.Date.Minute,
		task.RepeatDays, task.RepeatCount)
	if err != nil {
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Delete implements store.TaskStore.Delete. Deleting an unknown ID is a
// no-op.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return mapError(err)
	}
	return nil
}

// Flush implements store.TaskStore.Flush. Every mutation is already
// durable, so a flush only verifies the connection is still healthy.
func (s *TaskStore) Flush(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, mapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

// scanner abstracts sql.Row and sql.Rows for task scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID, &task.UserID, &task.Name, &task.Description,
		&task.Date.Year, &task.Date.Month, &task.Date.Day, &task.Date.Hour, &task.Date.Minute,
		&task.RepeatDays, &task.RepeatCount)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
