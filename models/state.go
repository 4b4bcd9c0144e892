// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AllStates lists the attendance states in display order.
var AllStates = []AttendanceState{StateInPerson, StateVirtual, StateAbsent}

// stateAliases maps the spreadsheet vocabulary of earlier imports onto the enum.
var stateAliases = map[string]AttendanceState{
	"PRESENCIAL": StateInPerson,
	"AUSENTE":    StateAbsent,
	"IN PERSON":  StateInPerson,
	"IN-PERSON":  StateInPerson,
}

// Valid reports whether s is one of the three attendance states.
func (s AttendanceState) Valid() bool {
	switch s {
	case StateInPerson, StateVirtual, StateAbsent:
		return true
	default:
		return false
	}
}

// Active reports whether shares in this state count towards quorum.
func (s AttendanceState) Active() bool {
	return s == StateInPerson || s == StateVirtual
}

// ParseState strictly parses an attendance state after trimming and
// uppercasing. Unknown values fail with ErrInvalidState.
func ParseState(raw string) (AttendanceState, error) {
	s := AttendanceState(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "state", Reason: "must be one of IN_PERSON, VIRTUAL, ABSENT", err: ErrInvalidState}
	}
	return s, nil
}

// NormalizeState coerces free text to an attendance state, defaulting to ABSENT.
func NormalizeState(raw string) AttendanceState {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if s := AttendanceState(key); s.Valid() {
		return s
	}
	if s, ok := stateAliases[key]; ok {
		return s
	}
	return StateAbsent
}

// Valid reports whether r is an assignable meeting role.
func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleVoter
}

// CoerceShares turns an imported share value into a non-negative integer.
// Anything that does not parse becomes 0.
func CoerceShares(raw any) int64 {
	n, err := ParseShares(raw)
	if err != nil {
		// spreadsheets hand over "1500.0" for integer cells
		if f, ok := floatValue(raw); ok && f >= 0 && f < math.MaxInt64 {
			return int64(f)
		}
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// ParseShares parses a share count supplied as a JSON number, an integer, or
// a numeric string. Non-integral or non-numeric input fails with ErrInvalidInput.
func ParseShares(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
			return 0, invalidShares()
		}
		return int64(v), nil
	case json.Number:
		return parseShareString(v.String())
	case string:
		return parseShareString(v)
	default:
		return 0, invalidShares()
	}
}

func parseShareString(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, invalidShares()
	}
	return n, nil
}

func floatValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func invalidShares() error {
	return &ValidationError{Field: "shares", Reason: "must be an integer"}
}
