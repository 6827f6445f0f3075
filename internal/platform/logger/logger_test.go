package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		logger, err := Setup(level)
		require.NoError(t, err, "level %q", level)
		assert.NotNil(t, logger)
	}

	_, err := Setup("verbose")
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	scoped := base.With(slog.String("request_id", "abc"))

	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx))
	assert.Same(t, scoped, FromContextOrDefault(ctx, base))

	empty := context.Background()
	assert.Same(t, base, FromContextOrDefault(empty, base))
	assert.NotNil(t, FromContext(empty))
}
