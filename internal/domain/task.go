package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDNegative is returned when a task carries a negative ID.
	// Store-assigned IDs are always non-negative; UnassignedID marks a
	// task whose ID the store should assign.
	ErrTaskIDNegative = errors.New("task ID cannot be negative")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskNameEmpty is returned when a task's name is empty.
	ErrTaskNameEmpty = errors.New("task name cannot be empty")

	// ErrTaskRepeatDaysInvalid is returned when a repeat interval is zero
	// or negative.
	ErrTaskRepeatDaysInvalid = errors.New("task repeat interval must be a positive number of days")
)

// UnassignedID marks a task that has not yet been assigned an ID by the
// task store.
const UnassignedID int64 = -1

// TaskStatus describes where a task's scheduled time stands relative to
// the current time. It is derived on every evaluation and never stored.
type TaskStatus string

const (
	// StatusPending means the task's date is still in the future.
	StatusPending TaskStatus = "pending"

	// StatusTimeUp means the task's date equals the current time at
	// minute resolution; the task is due for delivery now.
	StatusTimeUp TaskStatus = "time_up"

	// StatusOutdated means the task's date is already in the past.
	StatusOutdated TaskStatus = "outdated"
)

// Task is a scheduled reminder owned by a user. When its date arrives the
// scheduler delivers a notification to the owner's live connections and,
// if the task repeats, advances it to its next occurrence.
type Task struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        TaskDate  `json:"date"`

	// RepeatDays, when set, is the recurrence interval in calendar days.
	RepeatDays *int `json:"repeat_days,omitempty"`

	// RepeatCount, when set alongside RepeatDays, bounds how many more
	// times the task fires. It is ignored when RepeatDays is nil.
	RepeatCount *int `json:"repeat_count,omitempty"`
}

// NewTask creates a Task with an unassigned ID, ready to be handed to a
// task store. Returns an error if validation fails.
func NewTask(userID uuid.UUID, name, description string, date TaskDate, repeatDays, repeatCount *int) (*Task, error) {
	task := &Task{
		ID:          UnassignedID,
		UserID:      userID,
		Name:        name,
		Description: description,
		Date:        date,
		RepeatDays:  repeatDays,
		RepeatCount: repeatCount,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID < UnassignedID {
		return ErrTaskIDNegative
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Name == "" {
		return ErrTaskNameEmpty
	}

	if err := t.Date.Validate(); err != nil {
		return err
	}

	if t.RepeatDays != nil && *t.RepeatDays <= 0 {
		return ErrTaskRepeatDaysInvalid
	}

	return nil
}

// Status computes the task's schedule status relative to now at minute
// resolution. The result is derived fresh on each call.
func (t *Task) Status(now time.Time) TaskStatus {
	current := TaskDateFromTime(now)
	switch {
	case t.Date.Equal(current):
		return StatusTimeUp
	case t.Date.Before(current):
		return StatusOutdated
	default:
		return StatusPending
	}
}

// Clone returns a deep copy of the task. Stores hand out clones so that
// callers cannot mutate stored state through returned values.
func (t *Task) Clone() *Task {
	clone := *t
	if t.RepeatDays != nil {
		v := *t.RepeatDays
		clone.RepeatDays = &v
	}
	if t.RepeatCount != nil {
		v := *t.RepeatCount
		clone.RepeatCount = &v
	}
	return &clone
}
