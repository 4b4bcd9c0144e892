// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	svc, err := NewServices(db, cfg, prometheus.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("Failed to wire services: %v", err)
	}
	t.Cleanup(svc.Close)

	return NewRouter(svc, cfg), db
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "quorumvote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	for _, name := range []string{"quorumvote_event_subscribers", "quorumvote_write_lock_keys"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("Expected metric %s in /metrics output", name)
		}
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Without a token every protected route answers 401, never 405
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/meetings"},
		{"GET", "/meetings/m1"},
		{"PATCH", "/meetings/m1"},
		{"DELETE", "/meetings/m1"},
		{"PUT", "/meetings/m1/questions"},
		{"GET", "/meetings/m1/questions"},
		{"POST", "/meetings/m1/assignments"},
		{"GET", "/meetings/m1/assignments"},
		{"PUT", "/meetings/m1/attendance"},
		{"POST", "/meetings/m1/attendance/import"},
		{"GET", "/meetings/m1/attendance"},
		{"GET", "/meetings/m1/attendance/export"},
		{"POST", "/meetings/m1/attendance/state"},
		{"POST", "/meetings/m1/attendance/r1/state"},
		{"GET", "/meetings/m1/attendance/summary"},
		{"GET", "/meetings/m1/quorum"},
		{"POST", "/meetings/m1/votes"},
		{"GET", "/meetings/m1/results"},
		{"GET", "/meetings/m1/events"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"PUT", "/meetings/m1/votes"},
		{"DELETE", "/meetings/m1/quorum"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestRoleEnforcement(t *testing.T) {
	mux, db := newTestRouter(t)
	meetingID := testutil.CreateTestMeeting(t, db, 50)

	admin := testutil.BearerHeaders(t, auth.Capability{UserID: "root", Admin: true})
	voter := testutil.BearerHeaders(t, auth.Capability{UserID: "v1", Roles: map[string][]models.Role{meetingID: {models.RoleVoter}}})
	operator := testutil.BearerHeaders(t, auth.Capability{UserID: "o1", Roles: map[string][]models.Role{meetingID: {models.RoleOperator}}})
	stranger := testutil.BearerHeaders(t, auth.Capability{UserID: "x"})

	testCases := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		{"admin reads meeting", "GET", "/meetings/" + meetingID, admin, http.StatusOK},
		{"stranger reads meeting", "GET", "/meetings/" + meetingID, stranger, http.StatusOK},
		{"voter cannot delete", "DELETE", "/meetings/" + meetingID, voter, http.StatusForbidden},
		{"voter cannot list attendance", "GET", "/meetings/" + meetingID + "/attendance", voter, http.StatusForbidden},
		{"operator lists attendance", "GET", "/meetings/" + meetingID + "/attendance", operator, http.StatusOK},
		{"voter reads quorum", "GET", "/meetings/" + meetingID + "/quorum", voter, http.StatusOK},
		{"stranger cannot read quorum", "GET", "/meetings/" + meetingID + "/quorum", stranger, http.StatusForbidden},
		{"operator reads results", "GET", "/meetings/" + meetingID + "/results", operator, http.StatusOK},
		{"operator cannot vote", "POST", "/meetings/" + meetingID + "/votes", operator, http.StatusForbidden},
		{"admin reads assignments", "GET", "/meetings/" + meetingID + "/assignments", admin, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest(tc.method, tc.path, nil, tc.headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, db := newTestRouter(t)
	meetingID := testutil.CreateTestMeeting(t, db, 50)
	admin := testutil.BearerHeaders(t, auth.Capability{UserID: "root", Admin: true})

	t.Run("meeting ID extraction", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest("GET", "/meetings/"+meetingID, nil, admin))

		testutil.AssertStatus(t, w, http.StatusOK)
		var m models.Meeting
		testutil.AssertJSON(t, w, &m)
		if m.ID != meetingID {
			t.Errorf("Expected meeting %s, got %s", meetingID, m.ID)
		}
	})

	t.Run("unknown meeting", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest("GET", "/meetings/does-not-exist", nil, admin))

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}
