package storage

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Backend names accepted by the factory.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// DetectBackend infers the backend from a connection string: postgres://
// and postgresql:// URLs (or key=value DSNs containing "host=") select
// Postgres; everything else is treated as a SQLite path.
func DetectBackend(conn string) string {
	c := strings.TrimSpace(strings.ToLower(conn))
	if strings.HasPrefix(c, "postgres://") || strings.HasPrefix(c, "postgresql://") || strings.Contains(c, "host=") {
		return BackendPostgres
	}
	return BackendSQLite
}

// SQLiteConnString builds a SQLite connection string with standard pragmas.
//
// Includes busy_timeout (prevents "database is locked" under concurrency)
// and foreign_keys (the schema's cascade deletes rely on enforcement).
// Honors the SHIFTCREW_LOCK_TIMEOUT env var for the busy timeout (default
// 30s). If readOnly is true, the connection is opened in read-only mode.
// If path is already a file: URI, pragmas are appended only if absent.
func SQLiteConnString(path string, readOnly bool) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	busy := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("SHIFTCREW_LOCK_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			busy = d
		}
	}
	busyMs := int64(busy / time.Millisecond)

	if strings.HasPrefix(path, "file:") {
		conn := path
		sep := "?"
		if strings.Contains(conn, "?") {
			sep = "&"
		}
		if readOnly && !strings.Contains(conn, "mode=") {
			conn += sep + "mode=ro"
			sep = "&"
		}
		if !strings.Contains(conn, "_pragma=busy_timeout") {
			conn += fmt.Sprintf("%s_pragma=busy_timeout(%d)", sep, busyMs)
			sep = "&"
		}
		if !strings.Contains(conn, "_pragma=foreign_keys") {
			conn += sep + "_pragma=foreign_keys(ON)"
			sep = "&"
		}
		if !strings.Contains(conn, "_time_format") {
			conn += sep + "_time_format=sqlite"
		}
		return conn
	}

	if readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_time_format=sqlite", path, busyMs)
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_time_format=sqlite", path, busyMs)
}
