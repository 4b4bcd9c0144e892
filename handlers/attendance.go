// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quorumvote/attendance"
	"github.com/danielhkuo/quorumvote/middleware"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
)

// maxImportBytes bounds a CSV upload
const maxImportBytes = 10 << 20

type AttendanceHandler struct {
	store      *attendance.Store
	calculator *quorum.Calculator
}

func NewAttendanceHandler(store *attendance.Store, calculator *quorum.Calculator) *AttendanceHandler {
	return &AttendanceHandler{store: store, calculator: calculator}
}

// ReplaceAttendance handles PUT /meetings/{id}/attendance
func (h *AttendanceHandler) ReplaceAttendance(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceAttendanceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.replace(w, r, req.Rows)
}

// ImportAttendance handles POST /meetings/{id}/attendance/import with a CSV body
func (h *AttendanceHandler) ImportAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer r.Body.Close()

	rows, err := attendance.ReadCSV(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "CSV body too large")
			return
		}
		middleware.WriteError(w, err)
		return
	}

	h.replace(w, r, rows)
}

func (h *AttendanceHandler) replace(w http.ResponseWriter, r *http.Request, rows []models.AttendanceRow) {
	meetingID := r.PathValue("id")

	stored, err := h.store.ReplaceAll(r.Context(), meetingID, attendance.FromRows(rows))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReplaceAttendanceResponse{
		MeetingID: meetingID,
		Imported:  len(stored),
	})
}

// ListAttendance handles GET /meetings/{id}/attendance
func (h *AttendanceHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, records)
}

// ExportAttendance handles GET /meetings/{id}/attendance/export
func (h *AttendanceHandler) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	records, err := h.store.List(r.Context(), meetingID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance-`+meetingID+`.csv"`)
	if err := attendance.WriteCSV(w, records); err != nil {
		slog.Error("failed to write attendance export", "meeting_id", meetingID, "error", err)
	}
}

// UpdateState handles POST /meetings/{id}/attendance/{recordID}/state
func (h *AttendanceHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	record, err := h.store.UpdateState(r.Context(), r.PathValue("id"), r.PathValue("recordID"), req.State)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, record)
}

// SetAllStates handles POST /meetings/{id}/attendance/state
func (h *AttendanceHandler) SetAllStates(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	meetingID := r.PathValue("id")
	records, err := h.store.SetAllStates(r.Context(), meetingID, req.State)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	state, _ := models.ParseState(req.State)
	middleware.JSONResponse(w, http.StatusOK, models.SetAllStatesResponse{
		MeetingID: meetingID,
		State:     state,
		Updated:   len(records),
	})
}

// GetSummary handles GET /meetings/{id}/attendance/summary
func (h *AttendanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// GetQuorum handles GET /meetings/{id}/quorum
func (h *AttendanceHandler) GetQuorum(w http.ResponseWriter, r *http.Request) {
	summary, err := h.calculator.Compute(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}
