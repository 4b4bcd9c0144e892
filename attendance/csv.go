// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danielhkuo/quorumvote/models"
)

type column int

const (
	colHolder column = iota
	colRepresentative
	colProxy
	colShares
	colAttendance
)

// headerAliases accepts both the shareholder registry spreadsheet headings
// and plain English ones. Keys are compared uppercased and trimmed.
var headerAliases = map[string]column{
	"ACCIONISTA":           colHolder,
	"HOLDER":               colHolder,
	"SHAREHOLDER":          colHolder,
	"REPRESENTANTE LEGAL":  colRepresentative,
	"REPRESENTATIVE":       colRepresentative,
	"LEGAL REPRESENTATIVE": colRepresentative,
	"APODERADO":            colProxy,
	"PROXY":                colProxy,
	"NO. ACCIONES":         colShares,
	"ACCIONES":             colShares,
	"SHARES":               colShares,
	"ASISTENCIA":           colAttendance,
	"ATTENDANCE":           colAttendance,
	"STATE":                colAttendance,
}

// ExportHeader is the header row written by WriteCSV. ReadCSV accepts it.
var ExportHeader = []string{"ID", "HOLDER", "REPRESENTATIVE", "PROXY", "SHARES", "ATTENDANCE"}

// ReadCSV parses an attendance sheet. The holder and shares columns are
// required; representative, proxy and attendance are optional. Unknown
// columns are ignored. Values are passed through untouched for FromRows to
// normalize.
func ReadCSV(r io.Reader) ([]models.AttendanceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("file", "is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", models.ErrInvalidInput, err)
	}

	index := make(map[column]int)
	for i, name := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if c, ok := headerAliases[key]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	for _, required := range []struct {
		col  column
		name string
	}{{colHolder, "holder"}, {colShares, "shares"}} {
		if _, ok := index[required.col]; !ok {
			return nil, &models.ValidationError{Field: required.name, Reason: "column is required"}
		}
	}

	get := func(record []string, c column) string {
		i, ok := index[c]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := []models.AttendanceRow{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		}
		if blank(record) {
			continue
		}
		rows = append(rows, models.AttendanceRow{
			Holder:         get(record, colHolder),
			Representative: get(record, colRepresentative),
			Proxy:          get(record, colProxy),
			Shares:         get(record, colShares),
			Attendance:     get(record, colAttendance),
		})
	}
	return rows, nil
}

// WriteCSV writes records with ExportHeader.
func WriteCSV(w io.Writer, records []models.AttendanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			r.ID,
			r.Holder,
			r.Representative,
			r.Proxy,
			strconv.FormatInt(r.Shares, 10),
			string(r.State),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
