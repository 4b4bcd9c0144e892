// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quorumvote/meeting"
	"github.com/danielhkuo/quorumvote/middleware"
	"github.com/danielhkuo/quorumvote/models"
)

type MeetingHandler struct {
	registry *meeting.Registry
}

func NewMeetingHandler(registry *meeting.Registry) *MeetingHandler {
	return &MeetingHandler{registry: registry}
}

type meetingResponse struct {
	*models.Meeting
	Questions []models.Question `json:"questions"`
}

// CreateMeeting handles POST /meetings
func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMeetingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	m, questions, err := h.registry.Create(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, meetingResponse{Meeting: m, Questions: questions})
}

// GetMeeting handles GET /meetings/{id}
func (h *MeetingHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := h.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, m)
}

// UpdateMeeting handles PATCH /meetings/{id}
func (h *MeetingHandler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMeetingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	m, err := h.registry.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, m)
}

// DeleteMeeting handles DELETE /meetings/{id}
func (h *MeetingHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceQuestions handles PUT /meetings/{id}/questions
func (h *MeetingHandler) ReplaceQuestions(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceQuestionsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	questions, err := h.registry.ReplaceQuestions(r.Context(), r.PathValue("id"), req.Questions)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, questions)
}

// GetQuestions handles GET /meetings/{id}/questions
func (h *MeetingHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.registry.Questions(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, questions)
}

// AssignRoles handles POST /meetings/{id}/assignments
func (h *MeetingHandler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	var req models.AssignRolesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	assigned, err := h.registry.Assign(r.Context(), r.PathValue("id"), req.Assignments)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.AssignRolesResponse{Assigned: assigned})
}

// GetAssignments handles GET /meetings/{id}/assignments
func (h *MeetingHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.registry.Assignments(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, assignments)
}
