package honeypot

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lurefield/internal/config"
	"lurefield/internal/logger"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestBindFailureIsFatalForThatServiceOnly(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := &config.Config{
		RDP:      true,
		MySQL:    true,
		RDPPort:  taken.Addr().(*net.TCPAddr).Port,
		MySQLPort: freePort(t),
	}

	sink := logger.New()
	hp := New(cfg, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, hp.Start(ctx), "MySQL should still come up when RDP cannot bind")

	cancel()
	waitStopped(t, hp)
}

func TestStartFailsWhenNothingBinds(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := &config.Config{
		RDP:     true,
		RDPPort: taken.Addr().(*net.TCPAddr).Port,
	}

	hp := New(cfg, logger.New(), nil)
	require.Error(t, hp.Start(context.Background()))
}

func TestCancellationStopsListeners(t *testing.T) {
	cfg := &config.Config{
		MySQL:     true,
		RDP:       true,
		MySQLPort: freePort(t),
		RDPPort:   freePort(t),
	}

	hp := New(cfg, logger.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hp.Start(ctx))

	cancel()
	waitStopped(t, hp)
}

func waitStopped(t *testing.T, hp *Honeypot) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		hp.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("listeners did not stop within the accept timeout")
	}
}
