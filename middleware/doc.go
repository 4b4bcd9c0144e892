// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). The wrapped writer still flushes, so event streams work.

# Capabilities

RequireCapability verifies the bearer token and puts the capability in the
request context. RequireAdmin and RequireRole run inside it:

	auth := middleware.RequireCapability(secret)
	mux.HandleFunc("POST /meetings/{id}/votes",
		auth(middleware.RequireRole(models.RoleVoter)(h.CastVote)))

RequireRole checks the meeting in the {id} path value. A bad token gives 401,
a missing role 403.

# Errors

WriteError maps service errors to responses:

	ErrInvalidInput   400
	ErrNotFound       404
	ErrQuorumNotMet   409 (with current and threshold percent)
	token errors      401
	anything else     500, details only in the log

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes with UseNumber, so share counts in untyped fields keep
full integer precision.

# CORS and Client IP

CORS allows GET, POST, PUT, PATCH, DELETE and OPTIONS from any origin.
GetClientIP honors X-Forwarded-For and X-Real-IP.
*/
package middleware
