package honeypot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"lurefield/internal/config"
	"lurefield/internal/logger"
	"lurefield/internal/signature"
)

// RDPHoneypot answers just enough TPKT/X.224 to make RDP clients and
// scanners believe a terminal server is present, then mines the initial
// bytes for evidence.
type RDPHoneypot struct {
	sink    logger.Emitter
	markers *signature.ByteMatcher

	// Pacing between frames; real clients expect the server to take a beat.
	confirmDelay time.Duration
	closeDelay   time.Duration
}

func NewRDPHoneypot(sink logger.Emitter) *RDPHoneypot {
	return &RDPHoneypot{
		sink:         sink,
		markers:      signature.RDPMarkers(),
		confirmDelay: 500 * time.Millisecond,
		closeDelay:   2 * time.Second,
	}
}

// HandleConn plays the two-frame exchange: connection confirm, then an MCS
// connect-response once the client sends more data.
func (h *RDPHoneypot) HandleConn(conn net.Conn) {
	sess := newSession(config.ServiceRDP, conn, h.sink)
	defer sess.close()

	buf := make([]byte, 4096)
	_ = conn.SetReadDeadline(time.Now().Add(config.RDPReadTimeout))
	n, err := conn.Read(buf)
	if err != nil {
		return
	}
	data := buf[:n]

	h.logConnectionRequest(sess, data)

	for _, marker := range h.markers.Classify(data) {
		h.sink.Emit(logger.NewObservation(config.ServiceRDP,
			fmt.Sprintf("Attack pattern detected - IP: %s, Pattern: %s", sess.ip, marker)).
			WithRemote(sess.remote).
			WithSeverity(logger.SeverityWarning).
			WithAttr("signature", marker))
	}

	if _, err := conn.Write(connectionConfirmFrame()); err != nil {
		return
	}

	time.Sleep(h.confirmDelay)

	_ = conn.SetReadDeadline(time.Now().Add(config.RDPReadTimeout))
	if n, err := conn.Read(buf); err == nil && n > 0 {
		data := buf[:n]
		if _, err := conn.Write(mcsConnectResponseFrame(config.RDPServerName)); err != nil {
			return
		}
		h.sink.Emit(logger.NewObservation(config.ServiceRDP,
			fmt.Sprintf("Additional data from %s, length: %d", sess.ip, n)).
			WithRemote(sess.remote).
			WithAttr("length", n))

		if bytes.Contains(data, []byte("NTLMSSP")) {
			h.sink.Emit(logger.NewObservation(config.ServiceRDP,
				fmt.Sprintf("NTLM authentication attempt from %s", sess.ip)).
				WithRemote(sess.remote).
				WithSeverity(logger.SeverityWarning))
		}
	}

	time.Sleep(h.closeDelay)
}

// logConnectionRequest extracts the mstshash cookie and username hints from
// the connection request bytes.
func (h *RDPHoneypot) logConnectionRequest(sess *session, data []byte) {
	obs := logger.NewObservation(config.ServiceRDP,
		fmt.Sprintf("Connection attempt - IP: %s", sess.ip)).
		WithRemote(sess.remote)

	if idx := bytes.Index(data, []byte("mstshash=")); idx >= 0 {
		start := idx + len("mstshash=")
		if end := bytes.IndexByte(data[start:], 0x00); end >= 0 {
			computer := string(data[start : start+end])
			obs.Message += fmt.Sprintf(", Computer: %s", computer)
			obs.WithAttr("computer", computer)
		}
	}

	for _, hint := range []string{"Administrator", "admin", "user"} {
		if bytes.Contains(data, []byte(hint)) {
			obs.Message += fmt.Sprintf(", Username hint: %s", hint)
			obs.WithAttr("username_hint", hint)
			break
		}
	}

	h.sink.Emit(obs)
}

// connectionConfirmFrame builds the TPKT + X.224 connection confirm with an
// RDP negotiation response. The TPKT length bytes are rewritten after
// assembly; real clients validate them.
func connectionConfirmFrame() []byte {
	frame := []byte{
		0x03, 0x00, 0x00, 0x00, // TPKT header, length patched below
		0x02, 0xf0, 0x80, // X.224 data header
		0x03, 0x00, 0x00, 0x13,
		0x0e, 0xd0, 0x00, 0x00,
		0x00, 0x00, 0x00,
		0x02,       // TYPE_RDP_NEG_RSP
		0x00, 0x08, // flags, length
	}
	frame = binary.LittleEndian.AppendUint32(frame, 0x00080001)

	frame[2] = byte(len(frame) >> 8)
	frame[3] = byte(len(frame))
	return frame
}

// mcsConnectResponseFrame builds the MCS connect-response-shaped frame that
// carries the advertised server name. The header bytes are fixed constants,
// carried verbatim from the wire captures this exchange was modeled on.
func mcsConnectResponseFrame(serverName string) []byte {
	frame := []byte{
		0x03, 0x00, 0x00, 0x27,
		0x02, 0xf0, 0x80,
		0x64, 0x00, 0x05, 0x03, 0x00, 0x47, 0x00,
	}
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(serverName)))
	frame = append(frame, serverName...)
	frame = append(frame, make([]byte, 20)...)
	return frame
}
