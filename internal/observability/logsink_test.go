package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/config"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	mu     sync.Mutex
	bodies []string
	auth   string
}

func (r *sinkRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, string(raw))
		r.auth = req.Header.Get("Authorization")
		r.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (r *sinkRecorder) snapshot() ([]string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...), r.auth
}

func sinkConfig(endpoint string) config.Config {
	return config.Config{
		LogLevel:        logging.LevelInfo,
		LogSinkEnabled:  true,
		LogSinkEndpoint: endpoint,
		LogSinkToken:    "sink-token",
		LogSinkTimeout:  2 * time.Second,
		LogSinkMinLevel: logging.LevelError,
		ServiceName:     "ctf-scoreboard-api",
		AppEnv:          config.EnvDev,
	}
}

func TestInitLogSink_ShipsErrors(t *testing.T) {
	t.Parallel()

	rec := &sinkRecorder{}
	srv := rec.server(t)

	logger, shutdown, err := InitLogSink(sinkConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	logger.ErrorContext(context.Background(), "leaderboard rebuild failed", "event_id", "class-a")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	bodies, auth := rec.snapshot()
	require.Len(t, bodies, 1)
	assert.Equal(t, "Bearer sink-token", auth)
	assert.True(t, strings.Contains(bodies[0], `"event_id":"class-a"`))
	assert.True(t, strings.Contains(bodies[0], `"service":"ctf-scoreboard-api"`))
}

func TestInitLogSink_RespectsMinLevel(t *testing.T) {
	t.Parallel()

	rec := &sinkRecorder{}
	srv := rec.server(t)

	logger, shutdown, err := InitLogSink(sinkConfig(srv.URL), logging.NewNop())
	require.NoError(t, err)

	logger.InfoContext(context.Background(), "flag submitted")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	bodies, _ := rec.snapshot()
	assert.Empty(t, bodies)
}

func TestInitLogSink_Disabled(t *testing.T) {
	t.Parallel()

	base := logging.NewNop()
	logger, shutdown, err := InitLogSink(config.Config{}, base)
	require.NoError(t, err)
	assert.Same(t, base, logger)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitLogSink_RequiresEndpoint(t *testing.T) {
	t.Parallel()

	cfg := sinkConfig("  ")
	_, _, err := InitLogSink(cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNormalizeLogSinkEndpoint(t *testing.T) {
	assert.Equal(t, "", normalizeLogSinkEndpoint(" "))
	assert.Equal(t, "https://logs.example.com", normalizeLogSinkEndpoint("logs.example.com"))
	assert.Equal(t, "http://127.0.0.1:9000", normalizeLogSinkEndpoint("http://127.0.0.1:9000"))
}
