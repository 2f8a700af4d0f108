package model

import "time"

// DisbursementAuditEntry is one immutable row in the audit_log table. The
// worker appends an entry for every workflow event so the trail survives
// edits to the catalog document itself.
type DisbursementAuditEntry struct {
	ID             int64     `json:"id"`
	StartupID      string    `json:"startupId"`
	GrantID        string    `json:"grantId"`
	DisbursementID string    `json:"disbursementId"`
	Status         string    `json:"status"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurredAt"`
	RecordedAt     time.Time `json:"recordedAt"`
}
