// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attendance

import (
	"strings"

	"github.com/danielhkuo/quorumvote/models"
)

// FromRows turns loosely typed import rows into records ready for
// ReplaceAll. It never rejects a row: unknown attendance values become
// ABSENT and unparseable shares become 0.
func FromRows(rows []models.AttendanceRow) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, len(rows))
	for i, row := range rows {
		records[i] = models.AttendanceRecord{
			Holder:         strings.TrimSpace(row.Holder),
			Representative: strings.TrimSpace(row.Representative),
			Proxy:          strings.TrimSpace(row.Proxy),
			Shares:         models.CoerceShares(row.Shares),
			State:          models.NormalizeState(row.Attendance),
		}
	}
	return records
}
