// Package exports projects lead rosters into flat rows and CSV files.
//
// Export is pure and deterministic: identical inputs always give identical
// rows, and no timestamps end up inside row data.
package exports

import (
	"fmt"

	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"
)

// ColumnSpec maps a column name to an extraction over one lead.
type ColumnSpec struct {
	Name    string
	Extract func(domain.Lead) (Value, error)
}

// ExportRow is one projected lead, one cell per column.
type ExportRow struct {
	Cells []Value
}

// Record renders the row for a CSV writer.
func (r ExportRow) Record() []string {
	out := make([]string, len(r.Cells))
	for i, cell := range r.Cells {
		out[i] = cell.String()
	}
	return out
}

// Header returns the column names in order.
func Header(columns []ColumnSpec) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.Name
	}
	return out
}

// Export keeps the leads accepted by predicate, in input order, and projects
// each through columns. A nil predicate keeps everything. An extraction error
// aborts the export with a validation error naming the column and lead.
func Export(leads []domain.Lead, predicate Predicate, columns []ColumnSpec) ([]ExportRow, error) {
	if predicate == nil {
		predicate = All
	}

	rows := make([]ExportRow, 0, len(leads))
	for _, lead := range leads {
		if !predicate(lead) {
			continue
		}

		cells := make([]Value, len(columns))
		for i, col := range columns {
			if col.Extract == nil {
				return nil, apperr.Validationf("column %q has no extractor", col.Name).WithOp("exports.Export")
			}
			value, err := col.Extract(lead)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindValidation,
					fmt.Sprintf("column %q failed for lead %s", col.Name, lead.ID), err).WithOp("exports.Export")
			}
			cells[i] = value
		}
		rows = append(rows, ExportRow{Cells: cells})
	}
	return rows, nil
}
