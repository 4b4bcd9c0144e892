// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/models"
)

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps event streams working through the logger.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes an error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// WriteError maps a service error onto a status code and error body.
// Storage failures are logged and reported with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	var (
		validation *models.ValidationError
		quorum     *models.QuorumError
	)

	switch {
	case errors.As(err, &validation):
		ErrorResponse(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, models.ErrInvalidInput):
		ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.As(err, &quorum):
		JSONResponse(w, http.StatusConflict, models.QuorumErrorResponse{
			Error:            http.StatusText(http.StatusConflict),
			Message:          quorum.Error(),
			CurrentPercent:   quorum.CurrentPercent,
			ThresholdPercent: quorum.ThresholdPercent,
		})
	case errors.Is(err, models.ErrQuorumNotMet):
		ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		ErrorResponse(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// ParseJSONBody parses JSON request body into the provided struct.
// Numbers landing in interface fields stay json.Number so share counts
// keep their integer precision.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// RequireCapability verifies the bearer token and stores the capability
// in the request context.
func RequireCapability(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, err := auth.FromBearer(secret, r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, err)
				return
			}
			next(w, r.WithContext(auth.WithCapability(r.Context(), c)))
		}
	}
}

// RequireAdmin rejects callers whose capability is not an admin one.
// It must run inside RequireCapability.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := auth.FromContext(r.Context())
		if !ok {
			WriteError(w, auth.ErrMissingToken)
			return
		}
		if !c.Admin {
			ErrorResponse(w, http.StatusForbidden, "admin capability required")
			return
		}
		next(w, r)
	}
}

// RequireRole rejects callers holding none of roles on the meeting named by
// the {id} path value. Admins always pass.
func RequireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, ok := auth.FromContext(r.Context())
			if !ok {
				WriteError(w, auth.ErrMissingToken)
				return
			}
			if !c.HasRole(r.PathValue("id"), roles...) {
				ErrorResponse(w, http.StatusForbidden, "missing role for this meeting")
				return
			}
			next(w, r)
		}
	}
}

// CORS middleware for frontend access
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Last-Event-ID")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP from request
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
