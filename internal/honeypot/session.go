package honeypot

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"lurefield/internal/logger"
)

// session tracks one accepted connection from open to close. Only the
// owning worker touches it.
type session struct {
	id      string
	service string
	remote  string
	ip      string
	start   time.Time
	sink    logger.Emitter
}

func newSession(service string, conn net.Conn, sink logger.Emitter) *session {
	remote := conn.RemoteAddr().String()
	s := &session{
		id:      uuid.NewString(),
		service: service,
		remote:  remote,
		ip:      hostOnly(remote),
		start:   time.Now(),
		sink:    sink,
	}
	sink.Emit(logger.NewObservation(service, fmt.Sprintf("Connection from %s", remote)).
		WithRemote(remote).
		WithAttr("session_id", s.id))
	return s
}

// close emits the session's single closing observation.
func (s *session) close() {
	s.sink.Emit(logger.NewObservation(s.service,
		fmt.Sprintf("Connection closed: %s | Duration: %.1fs", s.ip, time.Since(s.start).Seconds())).
		WithRemote(s.remote).
		WithAttr("session_id", s.id))
}

func hostOnly(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
