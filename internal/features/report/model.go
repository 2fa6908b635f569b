package report

import "go-claims/internal/features/claim"

// Dashboard is an adjuster's view of the claims assigned to them.
type Dashboard struct {
	AdminID        string        `json:"admin_id"`
	AssignedClaims []claim.Claim `json:"assigned_claims"`
	PendingCount   int           `json:"pending_count"`
}

// Column is one exported spreadsheet column.
type Column struct {
	Header string
	Width  float64
}

// Sheet is a tabular export: one header row then one row per record.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
