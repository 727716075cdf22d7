package listener

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lurefield/internal/logger"
)

type recorder struct {
	mu  sync.Mutex
	obs []*logger.Observation
}

func (r *recorder) Emit(o *logger.Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, o)
}

func TestServeDispatchesWorkers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handled := make(chan string, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		Serve(ctx, ln, "RDP", &recorder{}, func(conn net.Conn) {
			handled <- conn.RemoteAddr().String()
		})
		close(done)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-handled:
	case <-time.After(3 * time.Second):
		t.Fatal("worker was never dispatched")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not stop after cancellation")
	}
}

func TestServeSurvivesWorkerPanic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	go Serve(ctx, ln, "SSH", rec, func(conn net.Conn) {
		calls <- struct{}{}
		panic("boom")
	})

	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		conn.Close()
		select {
		case <-calls:
		case <-time.After(3 * time.Second):
			t.Fatalf("connection %d never reached a worker", i)
		}
	}

	deadline := time.After(3 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.obs)
		rec.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 2 panic observations, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, o := range rec.obs {
		require.Equal(t, logger.SeverityError, o.Severity)
		require.Contains(t, o.Message, "panic")
	}
}

func TestListenRejectsConflictingBind(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	_, err = Listen(port)
	require.Error(t, err)
}
