package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"agency_crm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type workerConfig struct {
	redisURL string
}

func (c workerConfig) GetRedisURL() string       { return c.redisURL }
func (c workerConfig) GetRedisTLSInsecure() bool { return false }
func (c workerConfig) GetAsynqQueueName() string { return "drips-test" }
func (c workerConfig) GetAsynqConcurrency() int  { return 1 }

func TestWorkerRunStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.NewWithWriter("production", io.Discard)

	worker, err := NewWorker(workerConfig{redisURL: "redis://" + mr.Addr()}, NewDripDispatcher(nil, nil, nil, log), log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestNewWorkerRequiresRedisURL(t *testing.T) {
	_, err := NewWorker(workerConfig{}, nil, nil)
	require.Error(t, err)
}
