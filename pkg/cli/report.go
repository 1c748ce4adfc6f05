package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/report"
)

// ReportView renders one validation report for people.
type ReportView struct {
	*report.Report
}

// String lists the report summary followed by each invalid record's errors.
// Record numbers are 1-based.
func (v ReportView) String() string {
	r := v.Report
	var b strings.Builder

	status := "VALID"
	if !r.Valid {
		status = "INVALID"
	}
	fmt.Fprintf(&b, "Report %s\n", r.ID)
	fmt.Fprintf(&b, "Dictionary: %s@%s  Schema: %s\n", r.Dictionary, r.Version, r.Schema)
	fmt.Fprintf(&b, "Result: %s (%d of %d records invalid, %d errors)\n",
		status, r.InvalidRecordCount, r.RecordCount, r.FieldErrorCount())

	for _, re := range r.Errors {
		fmt.Fprintf(&b, "\nRecord %d:\n", re.Index+1)
		for _, fe := range re.Errors {
			fmt.Fprintf(&b, "  - %s [%s]", fe.FieldName, fe.Reason)
			if fe.Value != nil {
				fmt.Fprintf(&b, " value=%s", dictionary.FormatValue(fe.Value))
			}
			fmt.Fprintf(&b, ": %s\n", fe.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ReportList renders stored reports as a table.
type ReportList []*report.Report

// Header returns the column names.
func (l ReportList) Header() []string {
	return []string{"ID", "CREATED", "DICTIONARY", "VERSION", "SCHEMA", "VALID", "RECORDS", "INVALID"}
}

// Rows returns one row per report.
func (l ReportList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Dictionary,
			r.Version,
			r.Schema,
			strconv.FormatBool(r.Valid),
			strconv.Itoa(r.RecordCount),
			strconv.Itoa(r.InvalidRecordCount),
		}
	}
	return rows
}
