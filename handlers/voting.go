// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/ledger"
	"github.com/danielhkuo/quorumvote/middleware"
	"github.com/danielhkuo/quorumvote/models"
)

type VotingHandler struct {
	ledger *ledger.Ledger
}

func NewVotingHandler(l *ledger.Ledger) *VotingHandler {
	return &VotingHandler{ledger: l}
}

// CastVote handles POST /meetings/{id}/votes
//
// The voter is the capability's user. A meeting without quorum answers 409.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.FromContext(r.Context())
	if !ok {
		middleware.WriteError(w, auth.ErrMissingToken)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	shares, err := models.ParseShares(req.Shares)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	vote, err := h.ledger.CastVote(r.Context(), models.VoteInput{
		MeetingID:  r.PathValue("id"),
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
		VoterID:    c.UserID,
		Shares:     shares,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		VoteID: vote.ID,
		CastAt: vote.CastAt,
	})
}

// GetResults handles GET /meetings/{id}/results
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.ledger.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, results)
}
