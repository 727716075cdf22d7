// Package mysql implements enough of the MySQL client/server binary protocol
// for real clients and scanners to complete a login and issue queries against
// the impersonated server.
package mysql

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Command bytes handled in the command phase.
const (
	comQuit   = 0x01
	comInitDB = 0x02
	comQuery  = 0x03
)

// Wire constants.
const (
	protocolVersion = 10

	charsetUTF8   = 0x21 // utf8_general_ci
	charsetBinary = 0x3f

	statusAutocommit uint16 = 0x0002

	fieldTypeLongLong  = 0x08
	fieldTypeVarString = 0xfd

	nullMarker = 0xfb
)

// Client capability flags advertised in the handshake.
const (
	clientLongPassword              = 1 << 0
	clientConnectWithDB             = 1 << 3
	clientProtocol41                = 1 << 4
	clientTransactions              = 1 << 5
	clientSecureConnection          = 1 << 6
	clientMultiResults              = 1 << 7
	clientPSMultiResults            = 1 << 8
	clientPluginAuth                = 1 << 9
	clientConnectAttrs              = 1 << 10
	clientPluginAuthLenencData      = 1 << 11
	clientDeprecateEOF              = 1 << 13
	clientSSL                       = 1 << 15
	clientMultiStatements           = 1 << 16
	clientPSMultiStatements         = 1 << 17
	clientSessionTrack              = 1 << 19
	clientCanHandleExpiredPasswords = 1 << 23
	clientOptionalResultsetMetadata = 1 << 24
	clientQueryAttributes           = 1 << 27
)

const serverCapabilities = clientLongPassword |
	clientConnectWithDB |
	clientProtocol41 |
	clientTransactions |
	clientSecureConnection |
	clientMultiResults |
	clientPSMultiResults |
	clientPluginAuth |
	clientConnectAttrs |
	clientPluginAuthLenencData |
	clientDeprecateEOF |
	clientSSL |
	clientMultiStatements |
	clientPSMultiStatements |
	clientSessionTrack |
	clientCanHandleExpiredPasswords |
	clientOptionalResultsetMetadata |
	clientQueryAttributes

// writePacket frames a payload: 3-byte little-endian length, sequence id,
// then the payload.
func writePacket(w io.Writer, seq byte, payload []byte) error {
	header := []byte{
		byte(len(payload)),
		byte(len(payload) >> 8),
		byte(len(payload) >> 16),
		seq,
	}
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readPacket reads one framed packet. A truncated header or payload is an
// error, never a panic.
func readPacket(r io.Reader) (payload []byte, seq byte, err error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, err
	}
	length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
	seq = header[3]

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, 0, err
	}
	return payload, seq, nil
}

// appendLenencInt appends a length-encoded integer.
func appendLenencInt(b []byte, v uint64) []byte {
	switch {
	case v < 251:
		return append(b, byte(v))
	case v < 1<<16:
		return append(b, 0xfc, byte(v), byte(v>>8))
	case v < 1<<24:
		return append(b, 0xfd, byte(v), byte(v>>8), byte(v>>16))
	default:
		b = append(b, 0xfe)
		return binary.LittleEndian.AppendUint64(b, v)
	}
}

// decodeLenencInt decodes a length-encoded integer, returning the value and
// the number of bytes consumed.
func decodeLenencInt(b []byte) (v uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	switch first := b[0]; {
	case first < 251:
		return uint64(first), 1, nil
	case first == 0xfc:
		if len(b) < 3 {
			return 0, 0, io.ErrUnexpectedEOF
		}
		return uint64(b[1]) | uint64(b[2])<<8, 3, nil
	case first == 0xfd:
		if len(b) < 4 {
			return 0, 0, io.ErrUnexpectedEOF
		}
		return uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16, 4, nil
	case first == 0xfe:
		if len(b) < 9 {
			return 0, 0, io.ErrUnexpectedEOF
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	default:
		return 0, 0, fmt.Errorf("invalid length-encoded integer prefix 0x%02x", first)
	}
}

// appendLenencString appends a length-encoded string.
func appendLenencString(b []byte, s string) []byte {
	b = appendLenencInt(b, uint64(len(s)))
	return append(b, s...)
}

// decodeLenencString decodes a length-encoded string, returning the string
// and the number of bytes consumed.
func decodeLenencString(b []byte) (s string, n int, err error) {
	length, n, err := decodeLenencInt(b)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(b)-n) < length {
		return "", 0, io.ErrUnexpectedEOF
	}
	return string(b[n : n+int(length)]), n + int(length), nil
}

// buildOK builds an OK payload. affected_rows is written as the low 3 bytes
// of a 4-byte little-endian integer rather than length-encoded. Real servers
// use lenenc, which takes one byte for values below 251 where this always
// takes three; the quirk is preserved deliberately.
func buildOK(affectedRows uint32, message string) []byte {
	var rows [4]byte
	binary.LittleEndian.PutUint32(rows[:], affectedRows)

	payload := []byte{0x00}
	payload = append(payload, rows[:3]...)
	payload = append(payload, 0x00, 0x00) // last insert id
	payload = binary.LittleEndian.AppendUint16(payload, statusAutocommit)
	payload = append(payload, 0x00, 0x00) // warnings
	payload = append(payload, message...)
	return payload
}

// buildErr builds an ERR payload with SQL state HY000.
func buildErr(code uint16, message string) []byte {
	payload := []byte{0xff}
	payload = binary.LittleEndian.AppendUint16(payload, code)
	payload = append(payload, 0x23)
	payload = append(payload, "HY000"...)
	payload = append(payload, message...)
	return payload
}

// buildEOF builds an EOF payload: marker, warning count, status flags.
func buildEOF() []byte {
	payload := []byte{0xfe}
	payload = binary.LittleEndian.AppendUint16(payload, 0)
	payload = binary.LittleEndian.AppendUint16(payload, statusAutocommit)
	return payload
}

// columnDef describes one column of a result set.
type columnDef struct {
	schema    string
	table     string
	orgTable  string
	name      string
	orgName   string
	charset   uint16
	length    uint32
	fieldType byte
	flags     uint16
	decimals  byte
}

// build encodes the column definition packet payload.
func (c columnDef) build() []byte {
	var payload []byte
	payload = appendLenencString(payload, "def")
	payload = appendLenencString(payload, c.schema)
	payload = appendLenencString(payload, c.table)
	payload = appendLenencString(payload, c.orgTable)
	payload = appendLenencString(payload, c.name)
	payload = appendLenencString(payload, c.orgName)
	payload = append(payload, 0x0c)
	payload = binary.LittleEndian.AppendUint16(payload, c.charset)
	payload = binary.LittleEndian.AppendUint32(payload, c.length)
	payload = append(payload, c.fieldType)
	payload = binary.LittleEndian.AppendUint16(payload, c.flags)
	payload = append(payload, c.decimals)
	payload = append(payload, 0x00, 0x00)
	return payload
}

// textRow encodes a single-column text row.
func textRow(value string) []byte {
	return appendLenencString(nil, value)
}

// nullRow is the single-column NULL row.
func nullRow() []byte {
	return []byte{nullMarker}
}
