package model

import "time"

// DefaultCurrency is assumed when a grant record carries no ISO currency code.
const DefaultCurrency = "INR"

type DisbursementStatus string

const (
	DisbursementDraft    DisbursementStatus = "draft"
	DisbursementPending  DisbursementStatus = "pending"
	DisbursementApproved DisbursementStatus = "approved"
	DisbursementRejected DisbursementStatus = "rejected"
	DisbursementReleased DisbursementStatus = "released"
)

// ValidDisbursementStatus reports whether s is one of the five workflow states.
func ValidDisbursementStatus(s DisbursementStatus) bool {
	switch s {
	case DisbursementDraft, DisbursementPending, DisbursementApproved,
		DisbursementRejected, DisbursementReleased:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
// Released funds are money out the door; the record is frozen.
func (s DisbursementStatus) Terminal() bool {
	return s == DisbursementReleased
}

type ComplianceStatus string

const (
	CompliancePending    ComplianceStatus = "pending"
	ComplianceInProgress ComplianceStatus = "in_progress"
	ComplianceCompleted  ComplianceStatus = "completed"
	ComplianceOverdue    ComplianceStatus = "overdue"
)

// GrantCatalog is the per-startup document: every grant a startup holds,
// persisted and rewritten as a single versioned blob.
type GrantCatalog struct {
	Version   int           `json:"version"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
	Grants    []GrantRecord `json:"grants"`
}

// GrantRecord is one sanctioned grant with its owned collections.
type GrantRecord struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name,omitempty"`
	FundingAgency         string     `json:"fundingAgency,omitempty"`
	Program               string     `json:"program,omitempty"`
	SanctionNumber        string     `json:"sanctionNumber,omitempty"`
	SanctionDate          *time.Time `json:"sanctionDate,omitempty"`
	TotalSanctionedAmount float64    `json:"totalSanctionedAmount"`
	Currency              string     `json:"currency"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`

	Disbursements []GrantDisbursement `json:"disbursements"`
	Expenditures  []GrantExpenditure  `json:"expenditures"`
	Compliance    []GrantCompliance   `json:"compliance"`
}

// GrantDisbursement is a tranche moving through the approval workflow.
type GrantDisbursement struct {
	ID                string                      `json:"id"`
	Amount            float64                     `json:"amount"`
	Status            DisbursementStatus          `json:"status"`
	Approvals         []GrantDisbursementApproval `json:"approvals"`
	MilestoneID       string                      `json:"milestoneId,omitempty"`
	RequestedBy       string                      `json:"requestedBy,omitempty"`
	RequestedAt       *time.Time                  `json:"requestedAt,omitempty"`
	TargetReleaseDate *time.Time                  `json:"targetReleaseDate,omitempty"`
	ReleasedAt        *time.Time                  `json:"releasedAt,omitempty"`
	Reference         string                      `json:"reference,omitempty"`
	Tranche           string                      `json:"tranche,omitempty"`
}

// EffectiveDate is the date a released tranche counts against: the release
// date when set, otherwise the nominal request date.
func (d GrantDisbursement) EffectiveDate() *time.Time {
	if d.ReleasedAt != nil {
		return d.ReleasedAt
	}
	return d.RequestedAt
}

// GrantDisbursementApproval is one immutable entry in the audit trail.
// Appended on every workflow decision, never edited or removed.
type GrantDisbursementApproval struct {
	Status    DisbursementStatus `json:"status"`
	Actor     string             `json:"actor,omitempty"`
	Note      string             `json:"note,omitempty"`
	DecidedAt *time.Time         `json:"decidedAt,omitempty"`
}

// GrantExpenditure is a spend event against released funds. Immutable once
// recorded; there is no update or delete path.
type GrantExpenditure struct {
	ID             string     `json:"id"`
	Amount         float64    `json:"amount"`
	Category       string     `json:"category,omitempty"`
	Vendor         string     `json:"vendor,omitempty"`
	InvoiceNumber  string     `json:"invoiceNumber,omitempty"`
	SupportingDocs []string   `json:"supportingDocs,omitempty"`
	ComplianceTags []string   `json:"complianceTags,omitempty"`
	CapitalExpense bool       `json:"capitalExpense"`
	SpentAt        *time.Time `json:"spentAt,omitempty"`
}

// GrantCompliance is a tracked obligation tied to a grant.
type GrantCompliance struct {
	ID          string           `json:"id"`
	Title       string           `json:"title,omitempty"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Status      ComplianceStatus `json:"status,omitempty"`
}

// EffectiveStatus resolves the compliance state at a point in time.
// An explicitly stored status wins; otherwise completed beats overdue
// beats pending.
func (c GrantCompliance) EffectiveStatus(now time.Time) ComplianceStatus {
	if c.Status != "" {
		return c.Status
	}
	if c.CompletedAt != nil {
		return ComplianceCompleted
	}
	if c.DueDate != nil && c.DueDate.Before(now) {
		return ComplianceOverdue
	}
	return CompliancePending
}

// FindGrant returns a pointer into the catalog's grant list, or nil.
func (c *GrantCatalog) FindGrant(grantID string) *GrantRecord {
	for i := range c.Grants {
		if c.Grants[i].ID == grantID {
			return &c.Grants[i]
		}
	}
	return nil
}

// FindDisbursement returns a pointer into the grant's disbursement list, or nil.
func (g *GrantRecord) FindDisbursement(disbursementID string) *GrantDisbursement {
	for i := range g.Disbursements {
		if g.Disbursements[i].ID == disbursementID {
			return &g.Disbursements[i]
		}
	}
	return nil
}
