package grant

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"incubatorhub/internal/model"
	"incubatorhub/pkg/metrics"
)

// Period is an inclusive reporting window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) validate() error {
	if p.Start.After(p.End) {
		return ErrInvalidPeriod
	}
	return nil
}

// contains reports whether t falls inside the window, bounds included.
func (p Period) contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

type ExpenseBreakdownEntry struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type ComplianceSummary struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
	Overdue   int    `json:"overdue"`
	Remarks   string `json:"remarks"`
}

// UtilizationCertificate reconciles disbursed against spent money over a
// reporting period, in the shape funders expect for compliance sign-off.
type UtilizationCertificate struct {
	CertificateNumber       string                  `json:"certificateNumber"`
	GrantID                 string                  `json:"grantId"`
	GrantName               string                  `json:"grantName,omitempty"`
	FundingAgency           string                  `json:"fundingAgency,omitempty"`
	Currency                string                  `json:"currency"`
	Period                  Period                  `json:"period"`
	TotalSanctioned         float64                 `json:"totalSanctioned"`
	TotalDisbursedToDate    float64                 `json:"totalDisbursedToDate"`
	DisbursedDuringPeriod   float64                 `json:"disbursedDuringPeriod"`
	OpeningBalance          float64                 `json:"openingBalance"`
	UtilizationDuringPeriod float64                 `json:"utilizationDuringPeriod"`
	CumulativeUtilization   float64                 `json:"cumulativeUtilization"`
	ClosingBalance          float64                 `json:"closingBalance"`
	ExpenseBreakdown        []ExpenseBreakdownEntry `json:"expenseBreakdown"`
	ComplianceSummary       ComplianceSummary       `json:"complianceSummary"`
	GeneratedAt             time.Time               `json:"generatedAt"`
}

type DocumentationFinding struct {
	ExpenditureID string  `json:"expenditureId"`
	Category      string  `json:"category,omitempty"`
	Amount        float64 `json:"amount"`
	Finding       string  `json:"finding"`
}

type OutstandingAction struct {
	ID      string                 `json:"id"`
	Title   string                 `json:"title,omitempty"`
	Status  model.ComplianceStatus `json:"status"`
	DueDate *time.Time             `json:"dueDate,omitempty"`
}

// ComplianceReport is the period-scoped eligibility and obligations review.
type ComplianceReport struct {
	GrantID               string                 `json:"grantId"`
	GrantName             string                 `json:"grantName,omitempty"`
	Currency              string                 `json:"currency"`
	Period                Period                 `json:"period"`
	TotalSanctioned       float64                `json:"totalSanctioned"`
	TotalExpenditure      float64                `json:"totalExpenditure"`
	EligibleExpenditure   float64                `json:"eligibleExpenditure"`
	IneligibleExpenditure float64                `json:"ineligibleExpenditure"`
	UtilisationRatio      float64                `json:"utilisationRatio"`
	DocumentationFindings []DocumentationFinding `json:"documentationFindings"`
	Observations          []string               `json:"observations"`
	Recommendations       []string               `json:"recommendations"`
	OutstandingActions    []OutstandingAction    `json:"outstandingActions"`
	GeneratedAt           time.Time              `json:"generatedAt"`
}

// ReportBundle carries both reports generated over the same period.
type ReportBundle struct {
	UtilizationCertificate UtilizationCertificate `json:"utilizationCertificate"`
	ComplianceReport       ComplianceReport       `json:"complianceReport"`
}

// UtilizationCertificate generates the certificate for one grant. A caller
// may supply its own certificate number; otherwise one is derived
// deterministically from the grant id and period end.
func (s *Service) UtilizationCertificate(ctx context.Context, startupID, grantID string, period Period, certificateNumber string) (UtilizationCertificate, error) {
	start := time.Now()
	cat, err := s.Catalog(ctx, startupID)
	if err != nil {
		return UtilizationCertificate{}, err
	}
	g, err := pickGrant(&cat, grantID)
	if err != nil {
		return UtilizationCertificate{}, err
	}
	cert, err := BuildUtilizationCertificate(*g, period, certificateNumber, s.now().UTC())
	if err != nil {
		return UtilizationCertificate{}, err
	}
	metrics.RecordReportGeneration("utilization_certificate", time.Since(start))
	return cert, nil
}

// ComplianceReport generates the compliance report for one grant.
func (s *Service) ComplianceReport(ctx context.Context, startupID, grantID string, period Period) (ComplianceReport, error) {
	start := time.Now()
	cat, err := s.Catalog(ctx, startupID)
	if err != nil {
		return ComplianceReport{}, err
	}
	g, err := pickGrant(&cat, grantID)
	if err != nil {
		return ComplianceReport{}, err
	}
	report, err := BuildComplianceReport(*g, period, s.policy.IneligibleTagKeywords, s.now().UTC())
	if err != nil {
		return ComplianceReport{}, err
	}
	metrics.RecordReportGeneration("compliance_report", time.Since(start))
	return report, nil
}

// ReportBundle generates both reports over the same period.
func (s *Service) ReportBundle(ctx context.Context, startupID, grantID string, period Period, certificateNumber string) (ReportBundle, error) {
	cert, err := s.UtilizationCertificate(ctx, startupID, grantID, period, certificateNumber)
	if err != nil {
		return ReportBundle{}, err
	}
	report, err := s.ComplianceReport(ctx, startupID, grantID, period)
	if err != nil {
		return ReportBundle{}, err
	}
	return ReportBundle{UtilizationCertificate: cert, ComplianceReport: report}, nil
}

// BuildUtilizationCertificate is the pure reconciliation over one grant.
// Records without a usable date stay out of every date-windowed sum.
// Empty data degrades to zeroed totals; only a malformed period fails.
func BuildUtilizationCertificate(g model.GrantRecord, period Period, certificateNumber string, now time.Time) (UtilizationCertificate, error) {
	if err := period.validate(); err != nil {
		return UtilizationCertificate{}, err
	}

	var releasedBefore, disbursedDuring, disbursedToDate float64
	for _, d := range g.Disbursements {
		if d.Status != model.DisbursementReleased {
			continue
		}
		eff := d.EffectiveDate()
		if eff == nil {
			continue
		}
		if !eff.After(period.End) {
			disbursedToDate += d.Amount
		}
		if eff.Before(period.Start) {
			releasedBefore += d.Amount
		} else if period.contains(*eff) {
			disbursedDuring += d.Amount
		}
	}

	var spentBefore, spentDuring, spentToDate float64
	byCategory := map[string]float64{}
	for _, e := range g.Expenditures {
		if e.SpentAt == nil {
			continue
		}
		if !e.SpentAt.After(period.End) {
			spentToDate += e.Amount
		}
		if e.SpentAt.Before(period.Start) {
			spentBefore += e.Amount
		} else if period.contains(*e.SpentAt) {
			spentDuring += e.Amount
			byCategory[breakdownCategory(e.Category)] += e.Amount
		}
	}

	if certificateNumber == "" {
		certificateNumber = fmt.Sprintf("UC-%s-%s", g.ID, period.End.Format("20060102"))
	}

	return UtilizationCertificate{
		CertificateNumber:       certificateNumber,
		GrantID:                 g.ID,
		GrantName:               g.Name,
		FundingAgency:           g.FundingAgency,
		Currency:                g.Currency,
		Period:                  period,
		TotalSanctioned:         g.TotalSanctionedAmount,
		TotalDisbursedToDate:    disbursedToDate,
		DisbursedDuringPeriod:   disbursedDuring,
		OpeningBalance:          releasedBefore - spentBefore,
		UtilizationDuringPeriod: spentDuring,
		CumulativeUtilization:   spentToDate,
		ClosingBalance:          disbursedToDate - spentToDate,
		ExpenseBreakdown:        expenseBreakdown(byCategory),
		ComplianceSummary:       summarizeCompliance(g.Compliance, now),
		GeneratedAt:             now,
	}, nil
}

// BuildComplianceReport is the pure eligibility review over one grant.
func BuildComplianceReport(g model.GrantRecord, period Period, ineligibleKeywords []string, now time.Time) (ComplianceReport, error) {
	if err := period.validate(); err != nil {
		return ComplianceReport{}, err
	}

	var total, ineligible float64
	findings := []DocumentationFinding{}
	for _, e := range g.Expenditures {
		if e.SpentAt == nil || !period.contains(*e.SpentAt) {
			continue
		}
		total += e.Amount
		if hasIneligibleTag(e.ComplianceTags, ineligibleKeywords) {
			ineligible += e.Amount
		}
		if len(e.SupportingDocs) == 0 {
			findings = append(findings, DocumentationFinding{
				ExpenditureID: e.ID,
				Category:      e.Category,
				Amount:        e.Amount,
				Finding:       "no supporting documents attached",
			})
		}
	}

	ratio := 0.0
	if g.TotalSanctionedAmount > 0 {
		ratio = round2(total / g.TotalSanctionedAmount)
	}

	var overdue, open int
	actions := []OutstandingAction{}
	for _, c := range g.Compliance {
		if !complianceInPeriod(c, period) {
			continue
		}
		status := c.EffectiveStatus(now)
		switch status {
		case model.ComplianceOverdue:
			overdue++
		case model.CompliancePending, model.ComplianceInProgress:
			open++
		}
		if status != model.ComplianceCompleted {
			actions = append(actions, OutstandingAction{
				ID:      c.ID,
				Title:   c.Title,
				Status:  status,
				DueDate: c.DueDate,
			})
		}
	}

	observations, recommendations := complianceNarrative(ratio, overdue, open, len(findings))

	return ComplianceReport{
		GrantID:               g.ID,
		GrantName:             g.Name,
		Currency:              g.Currency,
		Period:                period,
		TotalSanctioned:       g.TotalSanctionedAmount,
		TotalExpenditure:      total,
		EligibleExpenditure:   total - ineligible,
		IneligibleExpenditure: ineligible,
		UtilisationRatio:      ratio,
		DocumentationFindings: findings,
		Observations:          observations,
		Recommendations:       recommendations,
		OutstandingActions:    actions,
		GeneratedAt:           now,
	}, nil
}

// complianceInPeriod: items with no due date are standing obligations and
// always count; dated items count when the due date or completion date falls
// inside the window.
func complianceInPeriod(c model.GrantCompliance, period Period) bool {
	if c.DueDate == nil {
		return true
	}
	if period.contains(*c.DueDate) {
		return true
	}
	return c.CompletedAt != nil && period.contains(*c.CompletedAt)
}

// complianceNarrative turns the threshold signals into observations and one
// fixed recommendation per triggered condition. The conditions fire
// independently; when none fire the grant reads as on track.
func complianceNarrative(ratio float64, overdue, open, docGaps int) (observations, recommendations []string) {
	if ratio < 0.5 {
		observations = append(observations,
			fmt.Sprintf("utilisation at %.0f%% of sanctioned amount is below the 50%% threshold", ratio*100))
		recommendations = append(recommendations,
			"accelerate planned spending or revise the utilisation plan with the funding agency")
	}
	if ratio > 1.0 {
		observations = append(observations,
			fmt.Sprintf("utilisation at %.0f%% exceeds the sanctioned amount", ratio*100))
		recommendations = append(recommendations,
			"reconcile the over-spend with the funding agency before the next tranche request")
	}
	if overdue > 0 {
		observations = append(observations,
			fmt.Sprintf("%d compliance requirement(s) overdue and require escalation", overdue))
		recommendations = append(recommendations,
			"escalate overdue compliance requirements to the incubation manager")
	}
	if open > 0 {
		observations = append(observations,
			fmt.Sprintf("%d compliance requirement(s) pending completion", open))
		recommendations = append(recommendations,
			"assign owners and target dates to pending compliance requirements")
	}
	if docGaps > 0 {
		observations = append(observations,
			fmt.Sprintf("%d expenditure(s) lack supporting documentation", docGaps))
		recommendations = append(recommendations,
			"collect and attach missing supporting documents before the next audit")
	}
	if len(observations) == 0 {
		observations = append(observations, "grant utilisation and compliance are on track for the period")
		recommendations = append(recommendations, "maintain the current reporting and documentation cadence")
	}
	return observations, recommendations
}

func summarizeCompliance(items []model.GrantCompliance, now time.Time) ComplianceSummary {
	summary := ComplianceSummary{Total: len(items)}
	for _, c := range items {
		switch c.EffectiveStatus(now) {
		case model.ComplianceCompleted:
			summary.Completed++
		case model.ComplianceOverdue:
			summary.Overdue++
		default:
			summary.Pending++
		}
	}
	switch {
	case summary.Overdue > 0:
		summary.Remarks = fmt.Sprintf("%d overdue", summary.Overdue)
	case summary.Pending > 0:
		summary.Remarks = fmt.Sprintf("%d pending", summary.Pending)
	default:
		summary.Remarks = "all requirements met"
	}
	return summary
}

// expenseBreakdown converts category totals to percentage shares. The
// denominator is floored at 1 so an all-zero period cannot divide by zero.
func expenseBreakdown(byCategory map[string]float64) []ExpenseBreakdownEntry {
	var sum float64
	for _, amount := range byCategory {
		sum += amount
	}
	denominator := sum
	if denominator < 1 {
		denominator = 1
	}
	entries := make([]ExpenseBreakdownEntry, 0, len(byCategory))
	for category, amount := range byCategory {
		entries = append(entries, ExpenseBreakdownEntry{
			Category:   category,
			Amount:     amount,
			Percentage: round2(amount / denominator * 100),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		return entries[i].Category < entries[j].Category
	})
	return entries
}

func breakdownCategory(category string) string {
	if category == "" {
		return "uncategorized"
	}
	return category
}

func hasIneligibleTag(tags, keywords []string) bool {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
