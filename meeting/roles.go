// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package meeting

import (
	"context"
	"strings"

	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
)

// Assign grants roles on a meeting. Assignments that already exist are
// skipped silently; the returned count only includes new ones.
func (r *Registry) Assign(ctx context.Context, meetingID string, assignments []models.RoleAssignment) (int, error) {
	for i := range assignments {
		assignments[i].UserID = strings.TrimSpace(assignments[i].UserID)
		if assignments[i].UserID == "" {
			return 0, models.NewValidationError("user_id", "is required")
		}
		if !assignments[i].Role.Valid() {
			return 0, models.NewValidationError("role", "must be attendance-operator or voter")
		}
	}

	if _, err := loadMeeting(ctx, r.db, meetingID); err != nil {
		return 0, err
	}

	assigned := 0
	for _, a := range assignments {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO role_assignment (meeting_id, user_id, role)
			VALUES ($1, $2, $3)
		`, meetingID, a.UserID, string(a.Role))
		if db.IsUniqueViolation(err) {
			r.logger.Debug("role already assigned",
				"meeting_id", meetingID,
				"user_id", a.UserID,
				"role", a.Role)
			continue
		}
		if err != nil {
			return assigned, models.StorageError("insert role assignment", err)
		}
		assigned++
	}

	r.logger.Info("roles assigned", "meeting_id", meetingID, "assigned", assigned, "requested", len(assignments))
	return assigned, nil
}

// Assignments lists the role assignments of a meeting.
func (r *Registry) Assignments(ctx context.Context, meetingID string) ([]models.RoleAssignment, error) {
	if _, err := loadMeeting(ctx, r.db, meetingID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT meeting_id, user_id, role
		FROM role_assignment
		WHERE meeting_id = $1
		ORDER BY user_id, role
	`, meetingID)
	if err != nil {
		return nil, models.StorageError("list role assignments", err)
	}
	defer rows.Close()

	out := []models.RoleAssignment{}
	for rows.Next() {
		var a models.RoleAssignment
		if err := rows.Scan(&a.MeetingID, &a.UserID, &a.Role); err != nil {
			return nil, models.StorageError("scan role assignment", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list role assignments", err)
	}
	return out, nil
}

// RolesFor returns every role a user holds, keyed by meeting id.
func (r *Registry) RolesFor(ctx context.Context, userID string) (map[string][]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT meeting_id, role
		FROM role_assignment
		WHERE user_id = $1
		ORDER BY meeting_id, role
	`, userID)
	if err != nil {
		return nil, models.StorageError("load roles", err)
	}
	defer rows.Close()

	roles := make(map[string][]models.Role)
	for rows.Next() {
		var (
			meetingID string
			role      models.Role
		)
		if err := rows.Scan(&meetingID, &role); err != nil {
			return nil, models.StorageError("scan roles", err)
		}
		roles[meetingID] = append(roles[meetingID], role)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("load roles", err)
	}
	return roles, nil
}
