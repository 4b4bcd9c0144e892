// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/cliparse"
	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/google/uuid"
)

// TestSecret signs capability tokens in tests
const TestSecret = "test-token-secret"

// PostgresEnv names the variable that points the tests at a PostgreSQL
// database instead of a temporary SQLite file.
const PostgresEnv = "QUORUMVOTE_TEST_POSTGRES"

// SetupTestDB creates a fresh test database with the full schema. The
// database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	var (
		conn *sql.DB
		err  error
	)
	if url := os.Getenv(PostgresEnv); url != "" {
		conn, err = db.Open(db.TypePostgres, url)
		if err != nil {
			t.Fatalf("Failed to open test database: %v", err)
		}
		// Clean up tables before each test
		_, err = conn.Exec(`
			DROP TABLE IF EXISTS vote CASCADE;
			DROP TABLE IF EXISTS role_assignment CASCADE;
			DROP TABLE IF EXISTS attendance CASCADE;
			DROP TABLE IF EXISTS option CASCADE;
			DROP TABLE IF EXISTS question CASCADE;
			DROP TABLE IF EXISTS meeting CASCADE;
		`)
		if err != nil {
			t.Fatalf("Failed to clean database: %v", err)
		}
	} else {
		path := filepath.Join(t.TempDir(), "test.db")
		conn, err = db.Open(db.TypeSQLite, path)
		if err != nil {
			t.Fatalf("Failed to open test database: %v", err)
		}
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file::memory:",
		DatabaseType: db.TypeSQLite,
		TokenSecret:  TestSecret,
		LockScope:    "meeting",
		EventBuffer:  16,
	}
}

// CreateTestMeeting inserts a meeting with the given quorum threshold and
// returns its ID
func CreateTestMeeting(t *testing.T, conn *sql.DB, threshold float64) string {
	t.Helper()

	meetingID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO meeting (id, name, date, quorum_threshold, created_at)
		VALUES ($1, 'Test Meeting', '2025-03-01', $2, $3)
	`, meetingID, threshold, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test meeting: %v", err)
	}

	return meetingID
}

// AddTestQuestion adds a question with options to a meeting and returns the
// question ID and option IDs in order
func AddTestQuestion(t *testing.T, conn *sql.DB, meetingID, text string, options ...string) (string, []string) {
	t.Helper()

	var position int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM question WHERE meeting_id = $1`, meetingID).Scan(&position); err != nil {
		t.Fatalf("Failed to count questions: %v", err)
	}

	questionID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO question (id, meeting_id, text, position)
		VALUES ($1, $2, $3, $4)
	`, questionID, meetingID, text, position)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	optionIDs := make([]string, len(options))
	for i, label := range options {
		optionIDs[i] = uuid.NewString()
		_, err := conn.Exec(`
			INSERT INTO option (id, question_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, optionIDs[i], questionID, label, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return questionID, optionIDs
}

// AddTestAttendance inserts one attendance row per state/shares pair and
// returns the record IDs in order
func AddTestAttendance(t *testing.T, conn *sql.DB, meetingID string, rows ...models.AttendanceRecord) []string {
	t.Helper()

	var offset int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM attendance WHERE meeting_id = $1`, meetingID).Scan(&offset); err != nil {
		t.Fatalf("Failed to count attendance: %v", err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = uuid.NewString()
		if r.Holder == "" {
			r.Holder = "Holder " + ids[i][:8]
		}
		_, err := conn.Exec(`
			INSERT INTO attendance (id, meeting_id, holder, representative, proxy, shares, state, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, ids[i], meetingID, r.Holder, r.Representative, r.Proxy, r.Shares, string(r.State), offset+i)
		if err != nil {
			t.Fatalf("Failed to create test attendance: %v", err)
		}
	}

	return ids
}

// Row is shorthand for an attendance record with only shares and state set
func Row(shares int64, state models.AttendanceState) models.AttendanceRecord {
	return models.AttendanceRecord{Shares: shares, State: state}
}

// CountVotes returns the number of ledger rows for a meeting
func CountVotes(t *testing.T, conn *sql.DB, meetingID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE meeting_id = $1`, meetingID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// TestToken signs a capability for use in Authorization headers
func TestToken(t *testing.T, capability auth.Capability) string {
	t.Helper()

	token, err := auth.IssueToken(TestSecret, capability, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// BearerHeaders returns request headers carrying a token for capability
func BearerHeaders(t *testing.T, capability auth.Capability) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + TestToken(t, capability)}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
