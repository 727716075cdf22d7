// Package honeypot wires the impersonators to their listeners and runs them
// until shutdown.
package honeypot

import (
	"context"
	"fmt"
	"net"
	"sync"

	"lurefield/internal/config"
	"lurefield/internal/listener"
	"lurefield/internal/logger"
	"lurefield/internal/metrics"
	"lurefield/internal/mysql"
)

// Honeypot starts one listener per enabled service. A service that fails to
// bind is fatal for that service only.
type Honeypot struct {
	cfg     *config.Config
	sink    *logger.Sink
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func New(cfg *config.Config, sink *logger.Sink, m *metrics.Metrics) *Honeypot {
	return &Honeypot{cfg: cfg, sink: sink, metrics: m}
}

// Start launches the enabled impersonators. It returns an error only when
// nothing could be started.
func (h *Honeypot) Start(ctx context.Context) error {
	started := 0

	if h.cfg.SSH {
		sshHp, err := NewSSHHoneypot(h.sink)
		if err != nil {
			h.sink.Error(config.ServiceSSH, fmt.Sprintf("Failed to start SSH honeypot: %v", err))
		} else if h.launch(ctx, config.ServiceSSH, h.cfg.SSHPort, sshHp.HandleConn) {
			started++
		}
	}

	if h.cfg.HTTP {
		if h.launchHTTP(ctx) {
			started++
		}
	}

	if h.cfg.MySQL {
		srv := mysql.NewServer(h.sink, h.cfg.StrictProto41)
		if h.launch(ctx, config.ServiceMySQL, h.cfg.MySQLPort, srv.HandleConn) {
			started++
		}
	}

	if h.cfg.RDP {
		rdp := NewRDPHoneypot(h.sink)
		if h.launch(ctx, config.ServiceRDP, h.cfg.RDPPort, rdp.HandleConn) {
			started++
		}
	}

	if started == 0 {
		return fmt.Errorf("no honeypot service could be started")
	}
	return nil
}

func (h *Honeypot) launch(ctx context.Context, service string, port int, handler listener.Handler) bool {
	ln, err := listener.Listen(port)
	if err != nil {
		h.sink.Error(service, fmt.Sprintf("Failed to start %s honeypot: %v", service, err))
		return false
	}
	h.sink.Info(service, fmt.Sprintf("%s honeypot started on port %d", service, port))

	counted := handler
	if h.metrics != nil {
		inner := handler
		counted = func(conn net.Conn) {
			h.metrics.IncConnections(service)
			inner(conn)
		}
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		listener.Serve(ctx, ln, service, h.sink, counted)
	}()
	return true
}

func (h *Honeypot) launchHTTP(ctx context.Context) bool {
	ln, err := listener.Listen(h.cfg.HTTPPort)
	if err != nil {
		h.sink.Error(config.ServiceHTTP, fmt.Sprintf("Failed to start HTTP honeypot: %v", err))
		return false
	}
	h.sink.Info(config.ServiceHTTP,
		fmt.Sprintf("HTTP honeypot started on port %d (fake service: WordPress)", h.cfg.HTTPPort))

	httpHp := NewHTTPHoneypot(h.sink)
	httpHp.metrics = h.metrics
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := httpHp.Serve(ctx, ln); err != nil {
			h.sink.Error(config.ServiceHTTP, fmt.Sprintf("HTTP honeypot stopped: %v", err))
		}
	}()
	return true
}

// Wait blocks until every listener has stopped.
func (h *Honeypot) Wait() {
	h.wg.Wait()
}
