package grant

import (
	"time"

	"incubatorhub/internal/model"
)

// GrantFinancialSummary is the per-grant money position derived from the raw
// disbursement and expenditure lists. All amounts share the grant's currency.
type GrantFinancialSummary struct {
	GrantID                  string     `json:"grantId"`
	Currency                 string     `json:"currency"`
	TotalSanctioned          float64    `json:"totalSanctioned"`
	TotalReleased            float64    `json:"totalReleased"`
	TotalPendingAmount       float64    `json:"totalPendingAmount"`
	PendingCount             int        `json:"pendingCount"`
	TotalRejectedAmount      float64    `json:"totalRejectedAmount"`
	TotalUtilised            float64    `json:"totalUtilised"`
	AvailableToUtilise       float64    `json:"availableToUtilise"`
	RemainingSanctionBalance float64    `json:"remainingSanctionBalance"`
	LastDisbursementAt       *time.Time `json:"lastDisbursementAt,omitempty"`
	UpcomingTargetRelease    *time.Time `json:"upcomingTargetRelease,omitempty"`
}

// Summarize buckets a grant's disbursements by workflow status and reconciles
// them against expenditures. Pure; safe to call repeatedly and concurrently.
func Summarize(g model.GrantRecord) GrantFinancialSummary {
	s := GrantFinancialSummary{
		GrantID:         g.ID,
		Currency:        g.Currency,
		TotalSanctioned: g.TotalSanctionedAmount,
	}

	for _, d := range g.Disbursements {
		switch d.Status {
		case model.DisbursementReleased:
			s.TotalReleased += d.Amount
			if eff := d.EffectiveDate(); eff != nil {
				if s.LastDisbursementAt == nil || eff.After(*s.LastDisbursementAt) {
					s.LastDisbursementAt = eff
				}
			}
		case model.DisbursementPending, model.DisbursementApproved:
			s.TotalPendingAmount += d.Amount
			s.PendingCount++
			target := d.TargetReleaseDate
			if target == nil {
				target = d.RequestedAt
			}
			if target != nil {
				if s.UpcomingTargetRelease == nil || target.Before(*s.UpcomingTargetRelease) {
					s.UpcomingTargetRelease = target
				}
			}
		case model.DisbursementRejected:
			s.TotalRejectedAmount += d.Amount
		}
	}

	for _, e := range g.Expenditures {
		s.TotalUtilised += e.Amount
	}

	s.AvailableToUtilise = s.TotalReleased - s.TotalUtilised
	s.RemainingSanctionBalance = s.TotalSanctioned - (s.TotalReleased + s.TotalPendingAmount)
	if s.RemainingSanctionBalance < 0 {
		s.RemainingSanctionBalance = 0
	}
	return s
}
