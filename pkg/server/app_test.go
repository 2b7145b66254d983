package server

import (
	"context"
	"testing"
	"time"

	"MacroPulse/internal/handler/api"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	applogger "MacroPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContextShutsDownOnCancel(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	log := applogger.NewNop()
	h := api.NewSnapshotEchoHandler(log, nil, nil, cfg.Cache.TTL, nil)
	srv := xhttp.NewServer(h,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(0),
		xhttp.WithMetricsPath(""),
		xhttp.WithLogger(log),
		xhttp.WithTimeouts(time.Second, time.Second, time.Second),
	)
	app := New(cfg, log, srv, h, nil, ratelimit.New(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
}
