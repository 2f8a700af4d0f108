package mq

import "time"

// RoutingKeyDisbursementRequested announces a new pending disbursement.
const RoutingKeyDisbursementRequested = "grant.disbursement.requested"

// RoutingKeyDisbursementStatus builds the routing key for a workflow
// transition, e.g. grant.disbursement.released.
func RoutingKeyDisbursementStatus(status string) string {
	return "grant.disbursement." + status
}

// DisbursementEventPayload is published on every workflow mutation so the
// milestone-reminder and notification subsystems can react.
type DisbursementEventPayload struct {
	StartupID      string    `json:"startup_id"`
	GrantID        string    `json:"grant_id"`
	DisbursementID string    `json:"disbursement_id"`
	Status         string    `json:"status"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurred_at"`
}
