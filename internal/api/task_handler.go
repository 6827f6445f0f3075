package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jfowler/remind-api/internal/api/shared"
	"github.com/jfowler/remind-api/internal/service"
	"github.com/jfowler/remind-api/internal/store"
)

// TaskHandler handles task CRUD requests. Every route requires an
// authenticated user; tasks are only visible to their owner.
type TaskHandler struct {
	service *service.TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a TaskHandler backed by the given service.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.service.CreateTask(
		r.Context(), userID, req.Name, req.Description, req.Date(), req.RepeatDays, req.RepeatCount)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task, task.Status(time.Now())))
}

// List handles GET /api/tasks, returning the authenticated user's tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	tasks, err := h.service.ListTasksByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list tasks", "error", err, "user_id", userID.String())
		respondWithServiceError(w, r, err)
		return
	}

	now := time.Now()
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task, task.Status(now)))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// Get handles GET /api/tasks/{id}. Tasks owned by other users respond
// with 403 rather than 404 so a caller can tell "not mine" from "gone".
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if task.UserID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not have access to this task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task, task.Status(time.Now())))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		respondWithServiceError(w, r, err)
		return
	}
	if task.UserID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not have access to this task")
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Task deleted"})
}

func parseTaskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
