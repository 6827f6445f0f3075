package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore that counts flushes.
type fakeTaskStore struct {
	mu      sync.Mutex
	tasks   []*domain.Task
	flushes int
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := task.Clone()
	if stored.ID == domain.UnassignedID {
		stored.ID = int64(len(f.tasks))
	}
	f.tasks = append(f.tasks, stored)
	return stored.Clone(), nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakeTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == task.ID {
			f.tasks[i] = task.Clone()
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (f *fakeTaskStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeTaskStore) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// fakeConn records delivered messages and can be made to fail.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
}

func (f *fakeConn) Send(ctx context.Context, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection reset")
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeConn) Close(code int, reason string) error { return nil }

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func newScheduler(t *testing.T, fs *fakeTaskStore, reg *registry.Registry, now time.Time) *Scheduler {
	t.Helper()
	s := New(fs, reg, DefaultConfig(), testLogger())
	s.now = func() time.Time { return now }
	return s
}

func dueTask(userID uuid.UUID, now time.Time) *domain.Task {
	return &domain.Task{
		ID:          domain.UnassignedID,
		UserID:      userID,
		Name:        "dentist",
		Description: "annual checkup",
		Date:        domain.TaskDateFromTime(now),
	}
}

func TestEvaluateFiresAndRemovesOneShotTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 15, 4, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	conn := &fakeConn{}
	reg.Register(userID, conn)

	created, err := fs.Create(context.Background(), dueTask(userID, now))
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)
	s.evaluate(context.Background())

	require.Equal(t, 1, conn.count())

	var note Notification
	require.NoError(t, json.Unmarshal(conn.messages[0], &note))
	assert.Equal(t, created.ID, note.TaskID)
	assert.Equal(t, "dentist", note.Name)
	assert.Equal(t, "annual checkup", note.Description)

	// The fired one-shot task is gone by the next pass.
	remaining, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)

	s.evaluate(context.Background())
	assert.Equal(t, 1, conn.count(), "no repeat delivery on the next pass")
}

func TestEvaluateSkipsPendingAndOutdated(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 15, 4, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	conn := &fakeConn{}
	reg.Register(userID, conn)

	pending := dueTask(userID, now.Add(time.Hour))
	outdated := dueTask(userID, now.Add(-time.Hour))
	_, err := fs.Create(context.Background(), pending)
	require.NoError(t, err)
	_, err = fs.Create(context.Background(), outdated)
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)
	s.evaluate(context.Background())

	assert.Equal(t, 0, conn.count())

	// Skipped tasks are left in place.
	remaining, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestEvaluateAdvancesFiniteRecurrence(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	conn := &fakeConn{}
	reg.Register(userID, conn)

	task := dueTask(userID, now)
	task.RepeatDays = intPtr(1)
	task.RepeatCount = intPtr(2)
	created, err := fs.Create(context.Background(), task)
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)

	// First firing: delivered, advanced a day, one repeat left.
	s.evaluate(context.Background())
	require.Equal(t, 1, conn.count())

	got, err := fs.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDateFromTime(now.AddDate(0, 0, 1)), got.Date)
	require.NotNil(t, got.RepeatCount)
	assert.Equal(t, 1, *got.RepeatCount)

	// A day later: second and final firing removes the task.
	s.now = func() time.Time { return now.AddDate(0, 0, 1) }
	s.evaluate(context.Background())
	require.Equal(t, 2, conn.count())

	_, err = fs.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestEvaluateFiresAtMostOncePerPass(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	conn := &fakeConn{}
	reg.Register(userID, conn)

	task := dueTask(userID, now)
	task.RepeatDays = intPtr(1)
	_, err := fs.Create(context.Background(), task)
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)
	s.evaluate(context.Background())

	// One firing in the pass even though the task repeats; the advanced
	// occurrence waits for a later tick.
	assert.Equal(t, 1, conn.count())

	// Same pass conditions again: the advanced date is tomorrow, nothing fires.
	s.evaluate(context.Background())
	assert.Equal(t, 1, conn.count())
}

func TestDeliveryFailureIsIsolated(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}
	reg.Register(userID, broken)
	reg.Register(userID, healthy)

	created, err := fs.Create(context.Background(), dueTask(userID, now))
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)
	s.evaluate(context.Background())

	// The broken connection does not block the healthy one.
	assert.Equal(t, 0, broken.count())
	assert.Equal(t, 1, healthy.count())

	// Recurrence bookkeeping proceeds despite the delivery failure.
	_, err = fs.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestEvaluateRoutesToOwnerOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()

	owner := uuid.New()
	bystander := uuid.New()

	ownerConn := &fakeConn{}
	bystanderConn := &fakeConn{}
	reg.Register(owner, ownerConn)
	reg.Register(bystander, bystanderConn)

	_, err := fs.Create(context.Background(), dueTask(owner, now))
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)
	s.evaluate(context.Background())

	assert.Equal(t, 1, ownerConn.count())
	assert.Equal(t, 0, bystanderConn.count())
}

// deadlineConn refuses sends whose context is already done, the way a
// real connection write would fail once its deadline derives from a
// canceled context.
type deadlineConn struct {
	fakeConn
}

func (c *deadlineConn) Send(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.fakeConn.Send(ctx, message)
}

func TestDeliveryDrainsAfterLoopCancellation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.Local)
	fs := &fakeTaskStore{}
	reg := registry.New()
	userID := uuid.New()

	conn := &deadlineConn{}
	reg.Register(userID, conn)

	_, err := fs.Create(context.Background(), dueTask(userID, now))
	require.NoError(t, err)

	s := newScheduler(t, fs, reg, now)

	// A stop request cancels the loop context; a pass already in flight
	// still delivers, bounded only by the delivery timeout.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.evaluate(ctx)

	assert.Equal(t, 1, conn.count())
}

func TestSchedulerLifecycle(t *testing.T) {
	t.Parallel()

	fs := &fakeTaskStore{}
	s := New(fs, registry.New(), Config{TickInterval: time.Hour}, testLogger())

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)

	s.Stop()
	assert.ErrorIs(t, s.Start(), ErrStopped, "stopped is terminal")

	// Stop is idempotent and flushed exactly once more is fine; at least
	// one flush happened on the first Stop.
	flushed := fs.flushes
	assert.GreaterOrEqual(t, flushed, 1, "Stop performs a final persistence flush")
	s.Stop()
}

func TestStopWithoutStartStillFlushes(t *testing.T) {
	t.Parallel()

	fs := &fakeTaskStore{}
	s := New(fs, registry.New(), DefaultConfig(), testLogger())

	s.Stop()
	assert.Equal(t, 1, fs.flushes)
}
