package mysql

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenencIntRoundTrip(t *testing.T) {
	cases := []struct {
		value uint64
		width int
	}{
		{0, 1},
		{1, 1},
		{250, 1},
		{251, 3},
		{65535, 3},
		{65536, 4},
		{1<<24 - 1, 4},
		{1 << 24, 9},
		{1 << 40, 9},
		{^uint64(0), 9},
	}

	for _, tc := range cases {
		encoded := appendLenencInt(nil, tc.value)
		require.Len(t, encoded, tc.width, "value %d", tc.value)

		decoded, n, err := decodeLenencInt(encoded)
		require.NoError(t, err, "value %d", tc.value)
		assert.Equal(t, tc.value, decoded)
		assert.Equal(t, tc.width, n)
	}
}

func TestLenencIntRejectsBadInput(t *testing.T) {
	_, _, err := decodeLenencInt(nil)
	assert.Error(t, err)

	_, _, err = decodeLenencInt([]byte{0xfb})
	assert.Error(t, err, "NULL marker is not an integer")

	_, _, err = decodeLenencInt([]byte{0xfc, 0x01})
	assert.Error(t, err, "truncated 2-byte integer")

	_, _, err = decodeLenencInt([]byte{0xfe, 1, 2, 3})
	assert.Error(t, err, "truncated 8-byte integer")
}

func TestLenencStringRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"Database",
		"5.7.29-log",
		string([]byte{0x00, 0xff, 0x1b, 0x80}),
		string(bytes.Repeat([]byte("x"), 300)),
	}

	for _, s := range cases {
		encoded := appendLenencString(nil, s)
		decoded, n, err := decodeLenencString(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
		assert.Equal(t, len(encoded), n)
	}
}

func TestPacketFraming(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello mysql")
	require.NoError(t, writePacket(&buf, 3, payload))

	framed := buf.Bytes()
	require.Len(t, framed, 4+len(payload))
	assert.Equal(t, byte(len(payload)), framed[0])
	assert.Equal(t, byte(0), framed[1])
	assert.Equal(t, byte(0), framed[2])
	assert.Equal(t, byte(3), framed[3])

	got, seq, err := readPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, byte(3), seq)
	assert.Equal(t, payload, got)
}

func TestReadPacketTruncatedHeader(t *testing.T) {
	_, _, err := readPacket(bytes.NewReader([]byte{0x05, 0x00, 0x00}))
	assert.Error(t, err)
}

func TestReadPacketTruncatedPayload(t *testing.T) {
	_, _, err := readPacket(bytes.NewReader([]byte{0x05, 0x00, 0x00, 0x00, 'a', 'b'}))
	assert.Error(t, err)
}

func TestBuildOK(t *testing.T) {
	assert.Equal(t,
		[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00},
		buildOK(0, ""))

	withMsg := buildOK(1, "Database changed")
	assert.Equal(t, byte(0x00), withMsg[0])
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, withMsg[1:4], "affected rows, low 3 bytes LE")
	assert.Equal(t, "Database changed", string(withMsg[10:]))
}

func TestBuildErr(t *testing.T) {
	payload := buildErr(1064, "Unknown command")
	assert.Equal(t, byte(0xff), payload[0])
	assert.Equal(t, []byte{0x28, 0x04}, payload[1:3])
	assert.Equal(t, byte(0x23), payload[3])
	assert.Equal(t, "HY000", string(payload[4:9]))
	assert.Equal(t, "Unknown command", string(payload[9:]))
}

func TestBuildEOF(t *testing.T) {
	assert.Equal(t, []byte{0xfe, 0x00, 0x00, 0x02, 0x00}, buildEOF())
}

func TestColumnDefBuild(t *testing.T) {
	col := columnDef{
		schema: "information_schema", table: "SCHEMATA", orgTable: "SCHEMATA",
		name: "Database", orgName: "SCHEMA_NAME",
		charset: charsetUTF8, length: 256, fieldType: fieldTypeVarString,
		flags: 0x0001,
	}
	payload := col.build()

	// Six length-encoded strings, then the fixed 0x0c marker.
	rest := payload
	for _, want := range []string{"def", "information_schema", "SCHEMATA", "SCHEMATA", "Database", "SCHEMA_NAME"} {
		s, n, err := decodeLenencString(rest)
		require.NoError(t, err)
		assert.Equal(t, want, s)
		rest = rest[n:]
	}

	require.Len(t, rest, 13)
	assert.Equal(t, byte(0x0c), rest[0])
	assert.Equal(t, []byte{charsetUTF8, 0x00}, rest[1:3])
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x00}, rest[3:7], "length 256 LE")
	assert.Equal(t, byte(fieldTypeVarString), rest[7])
	assert.Equal(t, []byte{0x01, 0x00}, rest[8:10])
	assert.Equal(t, byte(0x00), rest[10])
	assert.Equal(t, []byte{0x00, 0x00}, rest[11:13])
}

func TestHandshakePayloadLayout(t *testing.T) {
	scramble := newScramble()
	require.Len(t, scramble, 20)
	for _, b := range scramble {
		assert.GreaterOrEqual(t, b, byte(32))
		assert.LessOrEqual(t, b, byte(126))
	}

	payload := buildHandshake(42, scramble)

	assert.Equal(t, byte(10), payload[0])
	assert.Equal(t, "5.7.29-log", string(payload[1:11]))
	assert.Equal(t, byte(0), payload[11])
	assert.Equal(t, []byte{42, 0, 0, 0}, payload[12:16])
	assert.Equal(t, scramble[:8], payload[16:24])
	assert.Equal(t, byte(0), payload[24])

	// Capability flags, lower then upper 16 bits.
	lower := uint32(payload[25]) | uint32(payload[26])<<8
	upper := uint32(payload[30]) | uint32(payload[31])<<8
	assert.Equal(t, uint32(serverCapabilities), lower|upper<<16)
	assert.NotZero(t, lower&clientProtocol41)
	assert.NotZero(t, lower&clientSecureConnection)

	assert.Equal(t, byte(charsetUTF8), payload[27])
	assert.Equal(t, []byte{0x02, 0x00}, payload[28:30])
	assert.Equal(t, byte(0x15), payload[32])
	assert.Equal(t, make([]byte, 10), payload[33:43])
	assert.Equal(t, scramble[8:], payload[43:55])
	assert.Equal(t, byte(0), payload[55])
	assert.Equal(t, "mysql_native_password", string(payload[56:77]))
	assert.Equal(t, byte(0), payload[77])
}

func TestParseHandshakeResponse(t *testing.T) {
	resp := parseHandshakeResponse(clientHandshakeResponse("root", bytes.Repeat([]byte{0xab}, 20), "wordpress"))
	assert.Equal(t, "root", resp.username)
	assert.Equal(t, bytes.Repeat([]byte("ab"), 20), []byte(resp.authHex))
	assert.Equal(t, "wordpress", resp.database)
	assert.NotZero(t, resp.capabilities&clientProtocol41)
}

func TestParseHandshakeResponseShortPayload(t *testing.T) {
	resp := parseHandshakeResponse([]byte{0x01, 0x02})
	assert.Equal(t, "unknown", resp.username)
	assert.Empty(t, resp.authHex)
	assert.Empty(t, resp.database)
}
