package models

import "time"

// Attendance states
const (
	StateInPerson AttendanceState = "IN_PERSON"
	StateVirtual  AttendanceState = "VIRTUAL"
	StateAbsent   AttendanceState = "ABSENT"
)

// Meeting roles
const (
	RoleOperator Role = "attendance-operator"
	RoleVoter    Role = "voter"
)

// Event types
const (
	EventStateChanged   = "state-changed"
	EventVoteRegistered = "vote-registered"
)

type AttendanceState string

type Role string

// Domain types

type Meeting struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            string    `json:"date,omitempty"`
	QuorumThreshold float64   `json:"quorum_threshold"`
	CreatedAt       time.Time `json:"created_at"`
}

type AttendanceRecord struct {
	ID             string          `json:"id"`
	MeetingID      string          `json:"meeting_id"`
	Holder         string          `json:"holder"`
	Representative string          `json:"representative"`
	Proxy          string          `json:"proxy"`
	Shares         int64           `json:"shares"`
	State          AttendanceState `json:"state"`
	Position       int             `json:"-"`
}

type Question struct {
	ID        string   `json:"id"`
	MeetingID string   `json:"meeting_id"`
	Text      string   `json:"text"`
	Options   []Option `json:"options"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

type RoleAssignment struct {
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
}

type Vote struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meeting_id"`
	QuestionID string    `json:"question_id"`
	OptionID   string    `json:"option_id"`
	VoterID    string    `json:"voter_id"`
	Shares     int64     `json:"shares"`
	CastAt     time.Time `json:"cast_at"`
}

// VoteInput is what a voter hands to the ledger; VoterID comes from the
// caller's capability, never from the request body.
type VoteInput struct {
	MeetingID  string
	QuestionID string
	OptionID   string
	VoterID    string
	Shares     int64
}

// Summary types

type StateTotals struct {
	Count  int   `json:"count"`
	Shares int64 `json:"shares"`
}

type AttendanceSummary struct {
	MeetingID string                          `json:"meeting_id"`
	PerState  map[AttendanceState]StateTotals `json:"per_state"`
	Totals    StateTotals                     `json:"totals"`
}

type StateQuorum struct {
	Shares      int64   `json:"shares"`
	PctOfTotal  float64 `json:"pct_of_total"`
	PctOfActive float64 `json:"pct_of_active"`
}

type QuorumSummary struct {
	MeetingID        string                          `json:"meeting_id"`
	TotalShares      int64                           `json:"total_shares"`
	ActiveShares     int64                           `json:"active_shares"`
	ThresholdPercent float64                         `json:"threshold_percent"`
	CurrentPercent   float64                         `json:"current_percent"`
	Met              bool                            `json:"met"`
	PerState         map[AttendanceState]StateQuorum `json:"per_state"`
}

type OptionResult struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Shares     int64   `json:"shares"`
	Percentage float64 `json:"percentage"`
}

type QuestionResult struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Options []OptionResult `json:"options"`
}

type Results struct {
	MeetingID    string           `json:"meeting_id"`
	ActiveShares int64            `json:"active_shares"`
	Questions    []QuestionResult `json:"questions"`
}

// Request types

type CreateMeetingRequest struct {
	Name            string            `json:"name"`
	Date            string            `json:"date"`
	QuorumThreshold float64           `json:"quorum_threshold"`
	Questions       []QuestionRequest `json:"questions,omitempty"`
}

type UpdateMeetingRequest struct {
	Name            *string  `json:"name,omitempty"`
	Date            *string  `json:"date,omitempty"`
	QuorumThreshold *float64 `json:"quorum_threshold,omitempty"`
}

type QuestionRequest struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type ReplaceQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions"`
}

type AssignRolesRequest struct {
	Assignments []RoleAssignment `json:"assignments"`
}

// AttendanceRow is one loosely-typed row handed over by an import collaborator.
// Shares may arrive as a JSON number or string.
type AttendanceRow struct {
	Holder         string `json:"holder"`
	Representative string `json:"representative"`
	Proxy          string `json:"proxy"`
	Shares         any    `json:"shares"`
	Attendance     string `json:"attendance"`
}

type ReplaceAttendanceRequest struct {
	Rows []AttendanceRow `json:"rows"`
}

type UpdateStateRequest struct {
	State string `json:"state"`
}

type CastVoteRequest struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
	Shares     any    `json:"shares"`
}

// Response types

type ReplaceAttendanceResponse struct {
	MeetingID string `json:"meeting_id"`
	Imported  int    `json:"imported"`
}

type SetAllStatesResponse struct {
	MeetingID string          `json:"meeting_id"`
	State     AttendanceState `json:"state"`
	Updated   int             `json:"updated"`
}

type AssignRolesResponse struct {
	Assigned int `json:"assigned"`
}

type CastVoteResponse struct {
	VoteID string    `json:"vote_id"`
	CastAt time.Time `json:"cast_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// QuorumErrorResponse is the 409 body of a vote rejected by the quorum gate.
type QuorumErrorResponse struct {
	Error            string  `json:"error"`
	Message          string  `json:"message"`
	CurrentPercent   float64 `json:"current_percent"`
	ThresholdPercent float64 `json:"threshold_percent"`
}
