package mysql

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand"

	"lurefield/internal/config"
)

const authPluginName = "mysql_native_password"

// newScramble returns the 20-byte auth challenge. Bytes stay in the
// printable range [32,126] the way stock servers generate them.
func newScramble() []byte {
	scramble := make([]byte, 20)
	for i := range scramble {
		scramble[i] = byte(32 + rand.Intn(95))
	}
	return scramble
}

// buildHandshake builds the Protocol::HandshakeV10 payload.
func buildHandshake(connID uint32, scramble []byte) []byte {
	payload := []byte{protocolVersion}
	payload = append(payload, config.MySQLVersion...)
	payload = append(payload, 0x00)
	payload = binary.LittleEndian.AppendUint32(payload, connID)
	payload = append(payload, scramble[:8]...)
	payload = append(payload, 0x00)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(serverCapabilities&0xffff))
	payload = append(payload, charsetUTF8)
	payload = binary.LittleEndian.AppendUint16(payload, statusAutocommit)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(serverCapabilities>>16))
	payload = append(payload, 0x15) // auth plugin data length
	payload = append(payload, make([]byte, 10)...)
	payload = append(payload, scramble[8:]...)
	payload = append(payload, 0x00)
	payload = append(payload, authPluginName...)
	payload = append(payload, 0x00)
	return payload
}

// handshakeResponse is what we extract from the client's HandshakeResponse41.
type handshakeResponse struct {
	capabilities uint32
	username     string
	authHex      string
	database     string
}

// parseHandshakeResponse extracts credentials from the client response:
// 4-byte capabilities, 4-byte max packet, charset, 23 reserved bytes, then a
// NUL-terminated username, a length-prefixed auth response, and optionally a
// NUL-terminated database name. Malformed input degrades to "unknown" and
// the session keeps going so the attacker learns nothing.
func parseHandshakeResponse(payload []byte) handshakeResponse {
	resp := handshakeResponse{username: "unknown"}

	if len(payload) >= 4 {
		resp.capabilities = binary.LittleEndian.Uint32(payload[:4])
	}
	if len(payload) < 32 {
		return resp
	}

	pos := 4 + 4 + 1 + 23

	end := indexByte(payload, 0x00, pos)
	if end < 0 {
		return resp
	}
	resp.username = string(payload[pos:end])
	pos = end + 1

	if pos < len(payload) {
		authLen := int(payload[pos])
		pos++
		if authLen > 0 && pos+authLen <= len(payload) {
			resp.authHex = hex.EncodeToString(payload[pos : pos+authLen])
			pos += authLen
		}
	}

	if pos < len(payload) {
		if end := indexByte(payload, 0x00, pos); end >= 0 {
			resp.database = string(payload[pos:end])
		}
	}

	return resp
}

func indexByte(b []byte, c byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}
