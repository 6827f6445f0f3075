package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfowler/remind-api/internal/domain"
	"github.com/jfowler/remind-api/internal/platform/jsonfile"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/scheduler"
	"github.com/jfowler/remind-api/internal/store"
)

type recordingConn struct {
	closed bool
}

func (c *recordingConn) Send(ctx context.Context, message []byte) error { return nil }
func (c *recordingConn) Close(code int, reason string) error {
	c.closed = true
	return nil
}

func newTestService(t *testing.T) *TaskService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tasks, err := jsonfile.OpenTaskStore(filepath.Join(t.TempDir(), "tasks.json"), logger)
	require.NoError(t, err)

	reg := registry.New()
	sched := scheduler.New(tasks, reg, scheduler.DefaultConfig(), logger)
	return NewTaskService(tasks, reg, sched, logger)
}

func TestTaskServiceCreateAndGet(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	date := domain.TaskDate{Year: 2025, Month: 8, Day: 1, Hour: 9, Minute: 30}

	created, err := svc.CreateTask(ctx, userID, "pay rent", "transfer before noon", date, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.ID)

	got, err := svc.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay rent", got.Name)
	assert.Equal(t, userID, got.UserID)

	_, err = svc.GetTask(ctx, 42)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskServiceCreateValidates(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	date := domain.TaskDate{Year: 2025, Month: 8, Day: 1, Hour: 9, Minute: 30}

	_, err := svc.CreateTask(context.Background(), uuid.New(), "", "", date, nil, nil)
	assert.ErrorIs(t, err, domain.ErrTaskNameEmpty)
}

func TestTaskServiceListScoping(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	date := domain.TaskDate{Year: 2025, Month: 8, Day: 1, Hour: 9, Minute: 30}

	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.CreateTask(ctx, alice, "a1", "", date, nil, nil)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, "a2", "", date, nil, nil)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, bob, "b1", "", date, nil, nil)
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bobs, err := svc.ListTasksByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "b1", bobs[0].Name)
}

func TestTaskServiceDelete(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	date := domain.TaskDate{Year: 2025, Month: 8, Day: 1, Hour: 9, Minute: 30}

	created, err := svc.CreateTask(ctx, uuid.New(), "temp", "", date, nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, created.ID))
	_, err = svc.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, svc.DeleteTask(ctx, created.ID))
}

func TestTaskServiceConnectionLifecycle(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	conn := &recordingConn{}
	svc.Connect(uuid.New(), conn)
	svc.Disconnect(conn)
	svc.Disconnect(conn) // idempotent
}

func TestTaskServiceSchedulerLifecycle(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	require.NoError(t, svc.Start())
	assert.ErrorIs(t, svc.Start(), scheduler.ErrAlreadyRunning)
	svc.Stop()
	assert.ErrorIs(t, svc.Start(), scheduler.ErrStopped)
}
