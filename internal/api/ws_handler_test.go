package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiMiddleware "github.com/jfowler/remind-api/internal/api/middleware"
	"github.com/jfowler/remind-api/internal/config"
	"github.com/jfowler/remind-api/internal/platform/jsonfile"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/scheduler"
	"github.com/jfowler/remind-api/internal/service"
	"github.com/jfowler/remind-api/internal/service/auth"
)

type wsTestServer struct {
	srv        *httptest.Server
	registry   *registry.Registry
	jwtService auth.JWTService
}

// newWSTestServer assembles the handler behind the same middleware stack
// the real router installs, so the upgrade path is exercised end to end.
func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tasks, err := jsonfile.OpenTaskStore(filepath.Join(t.TempDir(), "tasks.json"), logger)
	require.NoError(t, err)

	reg := registry.New()
	sched := scheduler.New(tasks, reg, scheduler.DefaultConfig(), logger)
	svc := service.NewTaskService(tasks, reg, sched, logger)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-key-that-is-long-enough!",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(apiMiddleware.TraceMiddleware(logger))
	r.Get("/ws", NewWSHandler(svc, jwtService, logger).Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsTestServer{srv: srv, registry: reg, jwtService: jwtService}
}

func (s *wsTestServer) dial(t *testing.T, token string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	return conn, err
}

func TestWSRejectsBadTokenWithCloseCode(t *testing.T) {
	t.Parallel()
	ts := newWSTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.token"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			conn, err := ts.dial(t, tt.token)
			// The upgrade itself succeeds so the close code can reach the
			// client; the rejection arrives as a close frame.
			require.NoError(t, err)
			defer func() { _ = conn.Close() }()

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			_, _, err = conn.ReadMessage()
			require.Error(t, err)
			assert.True(t, websocket.IsCloseError(err, 4001), "expected close code 4001, got: %v", err)
		})
	}

	assert.Equal(t, 0, ts.registry.Len(), "rejected connections are never registered")
}

func TestWSRegistersAndDeliversNotifications(t *testing.T) {
	t.Parallel()
	ts := newWSTestServer(t)
	userID := uuid.New()

	token, err := ts.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	conn, err := ts.dial(t, token)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// Registration happens after the handshake; wait for it.
	require.Eventually(t, func() bool {
		return len(ts.registry.ConnectionsFor(userID)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Deliver through the registered connection, the way the scheduler does.
	registered := ts.registry.ConnectionsFor(userID)[0]
	sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, registered.Send(sendCtx, []byte(`{"task_id":0,"name":"dentist"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"task_id":0,"name":"dentist"}`, string(payload))

	// Closing the client unregisters the connection.
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return ts.registry.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
