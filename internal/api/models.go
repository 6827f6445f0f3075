package api

import (
	"github.com/jfowler/remind-api/internal/domain"
)

// RegisterRequest holds the parameters for creating a new user account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest holds the parameters for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// CreateTaskRequest holds the parameters for scheduling a new task. The
// date is split into calendar fields; minutes are the finest resolution.
type CreateTaskRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Year        int    `json:"year" validate:"required"`
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	Day         int    `json:"day" validate:"required,min=1,max=31"`
	Hour        int    `json:"hour" validate:"min=0,max=23"`
	Minute      int    `json:"minute" validate:"min=0,max=59"`
	RepeatDays  *int   `json:"repeat_days" validate:"omitempty,gt=0"`
	RepeatCount *int   `json:"repeat_count" validate:"omitempty,gte=0"`
}

// Date assembles the request's calendar fields into a TaskDate.
func (r CreateTaskRequest) Date() domain.TaskDate {
	return domain.TaskDate{
		Year:   r.Year,
		Month:  r.Month,
		Day:    r.Day,
		Hour:   r.Hour,
		Minute: r.Minute,
	}
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Date        domain.TaskDate `json:"date"`
	RepeatDays  *int            `json:"repeat_days"`
	RepeatCount *int            `json:"repeat_count"`
	Status      string          `json:"status"`
}

// MessageResponse carries a human-readable confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewTaskResponse converts a domain task into its API representation,
// deriving the status from the current wall clock.
func NewTaskResponse(task *domain.Task, status domain.TaskStatus) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID.String(),
		Name:        task.Name,
		Description: task.Description,
		Date:        task.Date,
		RepeatDays:  task.RepeatDays,
		RepeatCount: task.RepeatCount,
		Status:      string(status),
	}
}
