// Package scheduler implements the periodic task evaluation loop. Once per
// tick it inspects every stored task, delivers notifications for tasks
// whose time has arrived, advances recurring tasks, and prunes exhausted
// ones.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/store"
)

// Lifecycle errors
var (
	// ErrAlreadyRunning is returned when Start is called on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrStopped is returned when Start is called after Stop; a stopped
	// scheduler is terminal.
	ErrStopped = errors.New("scheduler has been stopped")
)

// Config holds scheduler tuning parameters.
type Config struct {
	// TickInterval is the period between evaluation passes.
	TickInterval time.Duration

	// DeliveryTimeout bounds each per-connection send so a stalled peer
	// cannot stall the evaluation pass.
	DeliveryTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:    30 * time.Second,
		DeliveryTimeout: 5 * time.Second,
	}
}

// Notification is the payload delivered to a user's connections when a
// task fires.
type Notification struct {
	TaskID      int64           `json:"task_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Date        domain.TaskDate `json:"date"`
}

// Scheduler runs the evaluation loop against a task store and a
// connection registry.
type Scheduler struct {
	store    store.TaskStore
	registry *registry.Registry
	config   Config
	logger   *slog.Logger
	now      func() time.Time // injectable for testing

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Scheduler. Zero config fields fall back to defaults.
func New(
	taskStore store.TaskStore,
	reg *registry.Registry,
	config Config,
	logger *slog.Logger,
) *Scheduler {
	defaults := DefaultConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = defaults.DeliveryTimeout
	}

	return &Scheduler{
		store:    taskStore,
		registry: reg,
		config:   config,
		logger:   logger.With(slog.String("component", "scheduler")),
		now:      time.Now,
	}
}

// Start launches the evaluation loop. Returns ErrAlreadyRunning if the
// loop is active and ErrStopped if the scheduler was already stopped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)

	s.logger.Info("scheduler started", "tick_interval", s.config.TickInterval)
	return nil
}

// Stop signals the loop to exit, waits for the in-flight pass to finish,
// and performs a final persistence flush. Safe to call concurrently with
// an evaluation pass and idempotent afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	running := s.running
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if running {
		cancel()
		<-done
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := s.store.Flush(flushCtx); err != nil {
		s.logger.Error("final persistence flush failed", "error", err)
	}

	s.logger.Info("scheduler stopped")
}

// run is the loop body. The tick wait is the only blocking point; a stop
// request is observed within at most one tick interval.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate performs one pass over a snapshot of all tasks. Per-task
// errors are logged and never terminate the pass.
func (s *Scheduler) evaluate(ctx context.Context) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to snapshot tasks", "error", err)
		return
	}

	now := s.now()
	for _, task := range tasks {
		switch task.Status(now) {
		case domain.StatusPending:
			// Not due yet.
		case domain.StatusOutdated:
			// Missed tasks are silently dropped from delivery, never
			// retried late. They stay in the store untouched.
			s.logger.Debug("skipping outdated task",
				"task_id", task.ID,
				"task_date", task.Date.String())
		case domain.StatusTimeUp:
			s.fire(ctx, task)
		}
	}
}

// fire delivers one notification to every live connection of the task's
// owner, then advances or removes the task. A task fires at most once per
// pass regardless of how far behind its next occurrence lands.
func (s *Scheduler) fire(ctx context.Context, task *domain.Task) {
	logger := s.logger.With(
		slog.Int64("task_id", task.ID),
		slog.String("user_id", task.UserID.String()),
	)

	payload, err := json.Marshal(Notification{
		TaskID:      task.ID,
		Name:        task.Name,
		Description: task.Description,
		Date:        task.Date,
	})
	if err != nil {
		logger.Error("failed to encode notification", "error", err)
		return
	}

	// Snapshot under the registry lock, deliver outside it: a send may
	// itself trigger a disconnect and re-enter the registry.
	conns := s.registry.ConnectionsFor(task.UserID)
	delivered := 0
	for _, conn := range conns {
		// Sends are bounded by the delivery timeout alone. A stop request
		// cancels the loop context at the tick boundary; deliveries already
		// underway drain rather than failing mid-pass.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.DeliveryTimeout)
		err := conn.Send(sendCtx, payload)
		cancel()
		if err != nil {
			// One unreachable connection must not block the others.
			logger.Warn("notification delivery failed", "error", err)
			continue
		}
		delivered++
	}

	logger.Info("task fired",
		"connections", len(conns),
		"delivered", delivered)

	advanced, continues := domain.Advance(task)
	if continues {
		if err := s.store.Update(ctx, advanced); err != nil {
			// Accepted risk: in-memory state is kept, the failure is
			// surfaced loudly rather than rolled back.
			logger.Error("failed to persist advanced task", "error", err)
		}
		return
	}

	if err := s.store.Delete(ctx, task.ID); err != nil {
		logger.Error("failed to remove exhausted task", "error", err)
	}
}
