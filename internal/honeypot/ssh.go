package honeypot

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"lurefield/internal/config"
	"lurefield/internal/logger"
)

// SSHHoneypot impersonates an OpenSSH server. Every password is accepted so
// the attacker lands in the fake shell; public keys always fail so clients
// fall back to password and leak a credential.
type SSHHoneypot struct {
	sink logger.Emitter
	cfg  *ssh.ServerConfig
}

// NewSSHHoneypot loads or creates the host key and builds the server config.
func NewSSHHoneypot(sink logger.Emitter) (*SSHHoneypot, error) {
	signer, generated, err := loadOrGenerateHostKey(config.SSHHostKey)
	if err != nil {
		return nil, fmt.Errorf("host key: %w", err)
	}
	if generated {
		sink.Emit(logger.NewObservation(config.ServiceSSH,
			fmt.Sprintf("Generated new SSH host key: %s", config.SSHHostKey)))
	}

	h := &SSHHoneypot{sink: sink}

	cfg := &ssh.ServerConfig{
		ServerVersion: config.SSHBanner,
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			remote := meta.RemoteAddr().String()
			sink.Emit(logger.NewObservation(config.ServiceSSH,
				fmt.Sprintf("Password attempt - IP: %s, Username: '%s', Password: '%s'",
					hostOnly(remote), meta.User(), password)).
				WithRemote(remote).
				WithSeverity(logger.SeverityWarning).
				WithAttr("username", meta.User()).
				WithAttr("password", string(password)).
				Credential())
			return &ssh.Permissions{}, nil
		},
		PublicKeyCallback: func(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			remote := meta.RemoteAddr().String()
			sink.Emit(logger.NewObservation(config.ServiceSSH,
				fmt.Sprintf("Public key attempt - IP: %s, Username: '%s', Key: %s",
					hostOnly(remote), meta.User(), ssh.FingerprintSHA256(key))).
				WithRemote(remote).
				WithAttr("username", meta.User()).
				WithAttr("key_fingerprint", ssh.FingerprintSHA256(key)))
			return nil, fmt.Errorf("public key rejected")
		},
	}
	cfg.AddHostKey(signer)
	h.cfg = cfg
	return h, nil
}

// loadOrGenerateHostKey reads the PKCS#1 PEM host key, creating a 2048-bit
// RSA key on first run.
func loadOrGenerateHostKey(path string) (ssh.Signer, bool, error) {
	if data, err := os.ReadFile(path); err == nil {
		if block, _ := pem.Decode(data); block != nil {
			if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
				signer, err := ssh.NewSignerFromKey(key)
				return signer, false, err
			}
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}); err != nil {
		return nil, false, err
	}
	signer, err := ssh.NewSignerFromKey(key)
	return signer, true, err
}

// HandleConn runs the SSH transport over one TCP connection.
func (h *SSHHoneypot) HandleConn(conn net.Conn) {
	sess := newSession(config.ServiceSSH, conn, h.sink)
	defer sess.close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, h.cfg)
	if err != nil {
		h.sink.Emit(logger.NewObservation(config.ServiceSSH,
			fmt.Sprintf("SSH negotiation failed: %v", err)).
			WithRemote(sess.remote).
			WithSeverity(logger.SeverityDebug))
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, chanReqs, err := newChan.Accept()
		if err != nil {
			break
		}
		h.handleSession(ch, chanReqs, sshConn.User(), sess)
	}
}

// handleSession answers channel requests and starts the fake shell once the
// client asks for one. A client that never requests a shell is dropped
// after the pre-shell wait.
func (h *SSHHoneypot) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request, user string, sess *session) {
	defer ch.Close()

	shellReady := make(chan struct{}, 1)
	go func() {
		for req := range reqs {
			switch req.Type {
			case "pty-req", "env":
				_ = req.Reply(true, nil)
			case "shell":
				_ = req.Reply(true, nil)
				select {
				case shellReady <- struct{}{}:
				default:
				}
			default:
				if req.WantReply {
					_ = req.Reply(false, nil)
				}
			}
		}
	}()

	select {
	case <-shellReady:
		newShell(ch, sess.remote, user, h.sink).run()
	case <-time.After(config.ShellRequestWait):
	}
}
