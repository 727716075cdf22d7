package mysql

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lurefield/internal/config"
	"lurefield/internal/decoy"
	"lurefield/internal/logger"
	"lurefield/internal/signature"
)

// Server is the MySQL impersonator. One instance serves every connection;
// the only cross-session state is the connection id counter.
type Server struct {
	sink      logger.Emitter
	injection *signature.Matcher
	sensitive *signature.Matcher
	strict    bool

	connIDs atomic.Uint32
}

// NewServer creates the impersonator. strictProto41 rejects clients that do
// not negotiate CLIENT_PROTOCOL_41.
func NewServer(sink logger.Emitter, strictProto41 bool) *Server {
	return &Server{
		sink:      sink,
		injection: signature.SQLInjection(),
		sensitive: signature.SensitiveOperations(),
		strict:    strictProto41,
	}
}

// HandleConn drives one session: handshake, credential capture, then the
// command phase until quit, timeout, or a protocol error.
func (s *Server) HandleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	ip := hostOnly(remote)
	connID := s.connIDs.Add(1)
	sessionID := uuid.NewString()
	start := time.Now()
	queries := 0

	s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
		fmt.Sprintf("Connection from %s (ID: %d)", ip, connID)).
		WithRemote(remote).
		WithAttr("connection_id", connID).
		WithAttr("session_id", sessionID))

	defer func() {
		s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
			fmt.Sprintf("Session ended: %s | Duration: %.1fs | Queries: %d",
				ip, time.Since(start).Seconds(), queries)).
			WithRemote(remote).
			WithAttr("session_id", sessionID).
			WithAttr("queries", queries))
	}()

	scramble := newScramble()
	if err := writePacket(conn, 0, buildHandshake(connID, scramble)); err != nil {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(config.MySQLReadTimeout))
	payload, seq, err := readPacket(conn)
	if err != nil {
		s.debugf(remote, "handshake response read: %v", err)
		return
	}

	resp := parseHandshakeResponse(payload)
	if s.strict && resp.capabilities&clientProtocol41 == 0 {
		_ = writePacket(conn, seq+1, buildErr(1251,
			"Client does not support authentication protocol requested by server; consider upgrading MySQL client"))
		return
	}

	s.logLogin(ip, remote, resp)

	if err := writePacket(conn, seq+1, buildOK(0, "")); err != nil {
		return
	}

	currentDB := resp.database

	for {
		_ = conn.SetReadDeadline(time.Now().Add(config.MySQLReadTimeout))
		payload, seq, err := readPacket(conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
					fmt.Sprintf("Session timeout: %s", ip)).WithRemote(remote))
			} else {
				s.debugf(remote, "command read: %v", err)
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		switch payload[0] {
		case comQuery:
			query := strings.TrimSpace(string(payload[1:]))
			queries++
			s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
				fmt.Sprintf("Query from %s: %s", ip, clip(query, 100))).
				WithRemote(remote).
				WithAttr("query", query))
			s.analyzeQuery(query, ip, remote)
			if err := s.dispatchQuery(conn, seq+1, query, &currentDB); err != nil {
				return
			}

		case comInitDB:
			currentDB = string(payload[1:])
			if err := writePacket(conn, seq+1, buildOK(0, "Database changed")); err != nil {
				return
			}

		case comQuit:
			s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
				fmt.Sprintf("Client quit: %s", ip)).WithRemote(remote))
			return

		default:
			s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
				fmt.Sprintf("Unknown command %#04x from %s", payload[0], ip)).
				WithRemote(remote).
				WithSeverity(logger.SeverityWarning))
			if err := writePacket(conn, seq+1, buildErr(1064, "Unknown command")); err != nil {
				return
			}
		}
	}
}

func (s *Server) logLogin(ip, remote string, resp handshakeResponse) {
	msg := fmt.Sprintf("Login attempt from %s | User: %s", ip, resp.username)
	obs := logger.NewObservation(config.ServiceMySQL, msg).
		WithRemote(remote).
		WithSeverity(logger.SeverityWarning).
		WithAttr("username", resp.username)
	obs.Credential()
	if resp.authHex != "" {
		obs.Message += fmt.Sprintf(" | Hash: %s...", clip(resp.authHex, 32))
		obs.WithAttr("auth_hash", clip(resp.authHex, 32))
	}
	if resp.database != "" {
		obs.Message += fmt.Sprintf(" | DB: %s", resp.database)
		obs.WithAttr("database", resp.database)
	}
	s.sink.Emit(obs)
}

// analyzeQuery classifies a query against both pattern catalogs; every hit
// is its own WARNING observation.
func (s *Server) analyzeQuery(query, ip, remote string) {
	for _, label := range s.injection.Classify(query) {
		s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
			fmt.Sprintf("SQL Injection from %s: %s - Query: %s", ip, label, clip(query, 100))).
			WithRemote(remote).
			WithSeverity(logger.SeverityWarning).
			WithAttr("signature", label).
			WithAttr("query", query))
	}
	for _, label := range s.sensitive.Classify(query) {
		s.sink.Emit(logger.NewObservation(config.ServiceMySQL,
			fmt.Sprintf("Sensitive operation from %s: %s - Query: %s", ip, label, clip(query, 100))).
			WithRemote(remote).
			WithSeverity(logger.SeverityWarning).
			WithAttr("signature", label).
			WithAttr("query", query))
	}
}

// dispatchQuery answers a COM_QUERY. Responses start at the client's
// sequence id plus one.
func (s *Server) dispatchQuery(w io.Writer, seq byte, query string, currentDB *string) error {
	lower := strings.ToLower(query)

	switch {
	case strings.HasPrefix(lower, "show databases"):
		rows := make([][]byte, len(decoy.Databases))
		for i, db := range decoy.Databases {
			rows[i] = textRow(db)
		}
		col := columnDef{
			schema: "information_schema", table: "SCHEMATA", orgTable: "SCHEMATA",
			name: "Database", orgName: "SCHEMA_NAME",
			charset: charsetUTF8, length: 256, fieldType: fieldTypeVarString, flags: 0x0001,
		}
		return writeResultSet(w, seq, col, rows)

	case strings.HasPrefix(lower, "use "):
		if fields := strings.Fields(query[4:]); len(fields) > 0 {
			*currentDB = strings.Trim(fields[0], ";`'\"")
		}
		return writePacket(w, seq, buildOK(0, "Database changed"))

	case strings.HasPrefix(lower, "show tables"):
		db := *currentDB
		colName := "Tables_in_test"
		if db != "" {
			colName = "Tables_in_" + db
		}
		tables := decoy.TablesFor(db)
		rows := make([][]byte, len(tables))
		for i, table := range tables {
			rows[i] = textRow(table)
		}
		col := columnDef{
			schema: "information_schema", table: "TABLES", orgTable: "TABLES",
			name: colName, orgName: "TABLE_NAME",
			charset: charsetUTF8, length: 256, fieldType: fieldTypeVarString, flags: 0x0001,
		}
		return writeResultSet(w, seq, col, rows)

	case strings.HasPrefix(lower, "select "):
		return s.dispatchSelect(w, seq, lower)

	default:
		return writePacket(w, seq, buildOK(0, ""))
	}
}

func (s *Server) dispatchSelect(w io.Writer, seq byte, lower string) error {
	switch {
	case strings.Contains(lower, "@@version") || strings.Contains(lower, "version()"):
		col := columnDef{
			name:    "@@version",
			charset: charsetUTF8, length: 60, fieldType: fieldTypeVarString,
			flags: 0x0001, decimals: 0x1f,
		}
		return writeResultSet(w, seq, col, [][]byte{textRow(config.MySQLVersion)})

	case strings.Contains(lower, "user()") || strings.Contains(lower, "current_user"):
		col := columnDef{
			name:    "user()",
			charset: charsetUTF8, length: 77, fieldType: fieldTypeVarString,
			flags: 0x0001, decimals: 0x1f,
		}
		return writeResultSet(w, seq, col, [][]byte{textRow(decoy.MySQLCurrentUser)})

	case strings.Contains(lower, "database()"):
		col := columnDef{
			name:    "database()",
			charset: charsetUTF8, length: 256, fieldType: fieldTypeVarString,
			decimals: 0x1f,
		}
		return writeResultSet(w, seq, col, [][]byte{nullRow()})

	case strings.Contains(lower, "select 1") || strings.Contains(lower, "select '1'"):
		col := columnDef{
			name:    "1",
			charset: charsetBinary, length: 1, fieldType: fieldTypeLongLong,
			flags: 0x0081,
		}
		return writeResultSet(w, seq, col, [][]byte{textRow("1")})

	default:
		return writePacket(w, seq, buildOK(0, ""))
	}
}

// writeResultSet emits the full result-set sequence: column count, column
// definition, EOF, the rows, and a trailing EOF, incrementing the sequence
// id through the whole exchange.
func writeResultSet(w io.Writer, seq byte, col columnDef, rows [][]byte) error {
	if err := writePacket(w, seq, []byte{0x01}); err != nil {
		return err
	}
	seq++
	if err := writePacket(w, seq, col.build()); err != nil {
		return err
	}
	seq++
	if err := writePacket(w, seq, buildEOF()); err != nil {
		return err
	}
	seq++
	for _, row := range rows {
		if err := writePacket(w, seq, row); err != nil {
			return err
		}
		seq++
	}
	return writePacket(w, seq, buildEOF())
}

func (s *Server) debugf(remote, format string, args ...interface{}) {
	s.sink.Emit(logger.NewObservation(config.ServiceMySQL, fmt.Sprintf(format, args...)).
		WithRemote(remote).
		WithSeverity(logger.SeverityDebug))
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func hostOnly(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
