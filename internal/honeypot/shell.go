package honeypot

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"lurefield/internal/config"
	"lurefield/internal/decoy"
	"lurefield/internal/logger"
)

// shell is the fake interactive shell: a byte-at-a-time line editor over an
// SSH channel that answers a small command catalog and captures everything
// the attacker types.
type shell struct {
	ch     io.ReadWriteCloser
	remote string
	user   string
	sink   logger.Emitter

	rawIn    chan byte
	done     chan struct{}
	doneOnce sync.Once
}

func newShell(ch io.ReadWriteCloser, remote, user string, sink logger.Emitter) *shell {
	return &shell{
		ch:     ch,
		remote: remote,
		user:   user,
		sink:   sink,
		rawIn:  make(chan byte, 256),
		done:   make(chan struct{}),
	}
}

func (s *shell) inputReader() {
	buf := make([]byte, 1)
	for {
		n, err := s.ch.Read(buf)
		if n > 0 {
			select {
			case s.rawIn <- buf[0]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.closeDone()
			return
		}
	}
}

func (s *shell) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *shell) write(data string) {
	_, _ = s.ch.Write([]byte(data))
}

// run drives the line editor until logout, disconnect, or the shell timeout.
func (s *shell) run() {
	defer s.closeDone()
	go s.inputReader()

	s.write(decoy.ShellWelcome)
	s.write(decoy.ShellLastLogin)
	s.write(decoy.ShellPrompt)

	timeout := time.After(config.ShellTimeout)
	var buf []byte

	for {
		var b byte
		select {
		case b = <-s.rawIn:
		case <-s.done:
			return
		case <-timeout:
			return
		}

		switch {
		case b == '\r' || b == '\n':
			s.write("\r\n")
			line := strings.TrimSpace(string(buf))
			buf = buf[:0]
			if line != "" {
				if s.dispatch(line) {
					return
				}
			}
			s.write(decoy.ShellPrompt)

		case b == 0x7f || b == 0x08:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				s.write("\x08 \x08")
			}

		case b == 0x03: // Ctrl+C
			buf = buf[:0]
			s.write("^C\r\n")
			s.write(decoy.ShellPrompt)

		case b == 0x04: // Ctrl+D
			if len(buf) == 0 {
				s.write("logout\r\n")
				return
			}

		case b == '\t' || b >= 0x20:
			buf = append(buf, b)
			s.write(string([]byte{b}))
		}
	}
}

// dispatch logs one command and writes its canned response. Returns true
// when the session should end.
func (s *shell) dispatch(line string) bool {
	s.sink.Emit(logger.NewObservation(config.ServiceSSH,
		fmt.Sprintf("Command received - IP: %s, Command: '%s'", hostOnly(s.remote), line)).
		WithRemote(s.remote).
		WithAttr("username", s.user).
		WithAttr("command", line))

	fields := strings.Fields(strings.ToLower(line))
	token := fields[0]

	if token == "exit" || token == "logout" || token == "quit" {
		s.write("logout\r\n")
		return true
	}

	key := token
	if token == "uname" && len(fields) > 1 && fields[1] == "-a" {
		key = "uname -a"
	}

	if response, ok := decoy.ShellResponses[key]; ok {
		s.write(response + "\r\n")
	} else {
		s.write(fmt.Sprintf("bash: %s: command not found\r\n", line))
	}
	return false
}
