// Package credreport fetches the AWS IAM credential report, evaluates each
// user against the credential hygiene policy and alerts the offenders.
package credreport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Entry is one user row of the credential report.
type Entry struct {
	Username              string     `json:"username"`
	PasswordEnabled       bool       `json:"passwordEnabled"`
	PasswordLastUsed      *time.Time `json:"passwordLastUsed,omitempty"`
	PasswordLastChanged   *time.Time `json:"passwordLastChanged,omitempty"`
	PasswordNextRotation  *time.Time `json:"passwordNextRotation,omitempty"`
	MFAActive             bool       `json:"mfaActive"`
	AccessKey1Active      bool       `json:"accessKey1Active"`
	AccessKey1LastRotated *time.Time `json:"accessKey1LastRotated,omitempty"`
	AccessKey2Active      bool       `json:"accessKey2Active"`
	AccessKey2LastRotated *time.Time `json:"accessKey2LastRotated,omitempty"`
}

// Report column names.
const (
	colUser                  = "user"
	colPasswordEnabled       = "password_enabled"
	colPasswordLastUsed      = "password_last_used"
	colPasswordLastChanged   = "password_last_changed"
	colPasswordNextRotation  = "password_next_rotation"
	colMFAActive             = "mfa_active"
	colAccessKey1Active      = "access_key_1_active"
	colAccessKey1LastRotated = "access_key_1_last_rotated"
	colAccessKey2Active      = "access_key_2_active"
	colAccessKey2LastRotated = "access_key_2_last_rotated"
)

var requiredColumns = []string{
	colUser,
	colPasswordEnabled,
	colPasswordLastUsed,
	colPasswordLastChanged,
	colPasswordNextRotation,
	colMFAActive,
	colAccessKey1Active,
	colAccessKey1LastRotated,
	colAccessKey2Active,
	colAccessKey2LastRotated,
}

// ErrEmptyReport is returned by Parse when the report has no header row.
var ErrEmptyReport = errors.New("credential report is empty")

// Parse reads a credential report CSV. Columns are located by header name.
func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("credential report is missing column %q", col)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read report line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		row := row{record: record, index: index}
		entry := Entry{
			Username:         row.get(colUser),
			PasswordEnabled:  row.flag(colPasswordEnabled),
			MFAActive:        row.flag(colMFAActive),
			AccessKey1Active: row.flag(colAccessKey1Active),
			AccessKey2Active: row.flag(colAccessKey2Active),
		}
		for col, dst := range map[string]**time.Time{
			colPasswordLastUsed:      &entry.PasswordLastUsed,
			colPasswordLastChanged:   &entry.PasswordLastChanged,
			colPasswordNextRotation:  &entry.PasswordNextRotation,
			colAccessKey1LastRotated: &entry.AccessKey1LastRotated,
			colAccessKey2LastRotated: &entry.AccessKey2LastRotated,
		} {
			ts, err := parseTimestamp(row.get(col))
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, col, err)
			}
			*dst = ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type row struct {
	record []string
	index  map[string]int
}

func (r row) get(col string) string {
	i := r.index[col]
	if i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r row) flag(col string) bool {
	return r.get(col) == "true"
}

// parseTimestamp maps the report's placeholder values to nil.
func parseTimestamp(v string) (*time.Time, error) {
	switch v {
	case "", "N/A", "not_supported", "no_information":
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return &t, nil
}
