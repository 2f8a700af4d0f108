package model

import (
	"strconv"
	"strings"
	"time"
)

// Normalization turns a loosely-typed stored or submitted JSON tree into the
// typed grant domain. Numbers arrive as floats, ints or strings; dates arrive
// in several layouts or not at all. Coercion never fails: bad numbers fall
// back to a caller-supplied default and bad dates become nil. Normalizing an
// already-normalized tree yields the same tree, and CatalogPayload is the
// exact inverse projection.

// NormalizeCatalog coerces a decoded-JSON document into a GrantCatalog.
func NormalizeCatalog(raw map[string]any) GrantCatalog {
	cat := GrantCatalog{
		Version:   int(CoerceNumber(raw["version"], 1)),
		UpdatedAt: CoerceTime(raw["updatedAt"]),
		Grants:    []GrantRecord{},
	}
	for _, item := range coerceList(raw["grants"]) {
		if m := coerceMap(item); m != nil {
			cat.Grants = append(cat.Grants, NormalizeGrant(m))
		}
	}
	return cat
}

// NormalizeGrant coerces one grant record and all of its owned collections.
func NormalizeGrant(raw map[string]any) GrantRecord {
	g := GrantRecord{
		ID:                    coerceString(raw["id"]),
		Name:                  coerceString(raw["name"]),
		FundingAgency:         coerceString(raw["fundingAgency"]),
		Program:               coerceString(raw["program"]),
		SanctionNumber:        coerceString(raw["sanctionNumber"]),
		SanctionDate:          CoerceTime(raw["sanctionDate"]),
		TotalSanctionedAmount: CoerceNumber(raw["totalSanctionedAmount"], 0),
		Currency:              coerceCurrency(raw["currency"]),
		StartDate:             CoerceTime(raw["startDate"]),
		EndDate:               CoerceTime(raw["endDate"]),
		Disbursements:         []GrantDisbursement{},
		Expenditures:          []GrantExpenditure{},
		Compliance:            []GrantCompliance{},
	}
	// sanctioned amount is non-negative by invariant
	if g.TotalSanctionedAmount < 0 {
		g.TotalSanctionedAmount = 0
	}
	for _, item := range coerceList(raw["disbursements"]) {
		if m := coerceMap(item); m != nil {
			g.Disbursements = append(g.Disbursements, NormalizeDisbursement(m))
		}
	}
	for _, item := range coerceList(raw["expenditures"]) {
		if m := coerceMap(item); m != nil {
			g.Expenditures = append(g.Expenditures, NormalizeExpenditure(m))
		}
	}
	for _, item := range coerceList(raw["compliance"]) {
		if m := coerceMap(item); m != nil {
			g.Compliance = append(g.Compliance, NormalizeCompliance(m))
		}
	}
	return g
}

func NormalizeDisbursement(raw map[string]any) GrantDisbursement {
	d := GrantDisbursement{
		ID:                coerceString(raw["id"]),
		Amount:            CoerceNumber(raw["amount"], 0),
		Status:            normalizeDisbursementStatus(raw["status"]),
		Approvals:         []GrantDisbursementApproval{},
		MilestoneID:       coerceString(raw["milestoneId"]),
		RequestedBy:       coerceString(raw["requestedBy"]),
		RequestedAt:       CoerceTime(raw["requestedAt"]),
		TargetReleaseDate: CoerceTime(raw["targetReleaseDate"]),
		ReleasedAt:        CoerceTime(raw["releasedAt"]),
		Reference:         coerceString(raw["reference"]),
		Tranche:           coerceString(raw["tranche"]),
	}
	for _, item := range coerceList(raw["approvals"]) {
		if m := coerceMap(item); m != nil {
			d.Approvals = append(d.Approvals, NormalizeApproval(m))
		}
	}
	return d
}

func NormalizeApproval(raw map[string]any) GrantDisbursementApproval {
	return GrantDisbursementApproval{
		Status:    normalizeDisbursementStatus(raw["status"]),
		Actor:     coerceString(raw["actor"]),
		Note:      coerceString(raw["note"]),
		DecidedAt: CoerceTime(raw["decidedAt"]),
	}
}

func NormalizeExpenditure(raw map[string]any) GrantExpenditure {
	return GrantExpenditure{
		ID:             coerceString(raw["id"]),
		Amount:         CoerceNumber(raw["amount"], 0),
		Category:       coerceString(raw["category"]),
		Vendor:         coerceString(raw["vendor"]),
		InvoiceNumber:  coerceString(raw["invoiceNumber"]),
		SupportingDocs: coerceStringList(raw["supportingDocs"]),
		ComplianceTags: coerceStringList(raw["complianceTags"]),
		CapitalExpense: coerceBool(raw["capitalExpense"]),
		SpentAt:        CoerceTime(raw["spentAt"]),
	}
}

func NormalizeCompliance(raw map[string]any) GrantCompliance {
	return GrantCompliance{
		ID:          coerceString(raw["id"]),
		Title:       coerceString(raw["title"]),
		DueDate:     CoerceTime(raw["dueDate"]),
		CompletedAt: CoerceTime(raw["completedAt"]),
		Status:      normalizeComplianceStatus(raw["status"]),
	}
}

// CatalogPayload projects a catalog back to its storage/payload shape.
// Round-trips every field the normalizer accepts.
func CatalogPayload(c GrantCatalog) map[string]any {
	grants := make([]any, 0, len(c.Grants))
	for _, g := range c.Grants {
		grants = append(grants, GrantPayload(g))
	}
	p := map[string]any{
		"version": float64(c.Version),
		"grants":  grants,
	}
	putTime(p, "updatedAt", c.UpdatedAt)
	return p
}

func GrantPayload(g GrantRecord) map[string]any {
	disbursements := make([]any, 0, len(g.Disbursements))
	for _, d := range g.Disbursements {
		disbursements = append(disbursements, DisbursementPayload(d))
	}
	expenditures := make([]any, 0, len(g.Expenditures))
	for _, e := range g.Expenditures {
		expenditures = append(expenditures, ExpenditurePayload(e))
	}
	compliance := make([]any, 0, len(g.Compliance))
	for _, c := range g.Compliance {
		compliance = append(compliance, CompliancePayload(c))
	}
	p := map[string]any{
		"id":                    g.ID,
		"totalSanctionedAmount": g.TotalSanctionedAmount,
		"currency":              g.Currency,
		"disbursements":         disbursements,
		"expenditures":          expenditures,
		"compliance":            compliance,
	}
	putString(p, "name", g.Name)
	putString(p, "fundingAgency", g.FundingAgency)
	putString(p, "program", g.Program)
	putString(p, "sanctionNumber", g.SanctionNumber)
	putTime(p, "sanctionDate", g.SanctionDate)
	putTime(p, "startDate", g.StartDate)
	putTime(p, "endDate", g.EndDate)
	return p
}

func DisbursementPayload(d GrantDisbursement) map[string]any {
	approvals := make([]any, 0, len(d.Approvals))
	for _, a := range d.Approvals {
		ap := map[string]any{
			"status": string(a.Status),
		}
		putString(ap, "actor", a.Actor)
		putString(ap, "note", a.Note)
		putTime(ap, "decidedAt", a.DecidedAt)
		approvals = append(approvals, ap)
	}
	p := map[string]any{
		"id":        d.ID,
		"amount":    d.Amount,
		"status":    string(d.Status),
		"approvals": approvals,
	}
	putString(p, "milestoneId", d.MilestoneID)
	putString(p, "requestedBy", d.RequestedBy)
	putString(p, "reference", d.Reference)
	putString(p, "tranche", d.Tranche)
	putTime(p, "requestedAt", d.RequestedAt)
	putTime(p, "targetReleaseDate", d.TargetReleaseDate)
	putTime(p, "releasedAt", d.ReleasedAt)
	return p
}

func ExpenditurePayload(e GrantExpenditure) map[string]any {
	p := map[string]any{
		"id":             e.ID,
		"amount":         e.Amount,
		"capitalExpense": e.CapitalExpense,
	}
	putString(p, "category", e.Category)
	putString(p, "vendor", e.Vendor)
	putString(p, "invoiceNumber", e.InvoiceNumber)
	putTime(p, "spentAt", e.SpentAt)
	if len(e.SupportingDocs) > 0 {
		p["supportingDocs"] = toAnyList(e.SupportingDocs)
	}
	if len(e.ComplianceTags) > 0 {
		p["complianceTags"] = toAnyList(e.ComplianceTags)
	}
	return p
}

func CompliancePayload(c GrantCompliance) map[string]any {
	p := map[string]any{
		"id": c.ID,
	}
	putString(p, "title", c.Title)
	putString(p, "status", string(c.Status))
	putTime(p, "dueDate", c.DueDate)
	putTime(p, "completedAt", c.CompletedAt)
	return p
}

// --- coercion helpers ---

func coerceMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func coerceList(v any) []any {
	l, _ := v.([]any)
	return l
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// CoerceNumber parses JSON numbers and numeric strings; anything else yields
// the fallback.
func CoerceNumber(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return fallback
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// CoerceTime parses a handful of date layouts; unparsable or empty input is
// nil, never an error.
func CoerceTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case *time.Time:
		if t == nil {
			return nil
		}
		u := t.UTC()
		return &u
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				u := parsed.UTC()
				return &u
			}
		}
	}
	return nil
}

func coerceStringList(v any) []string {
	list := coerceList(v)
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func coerceCurrency(v any) string {
	c := strings.ToUpper(coerceString(v))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// normalizeDisbursementStatus lowercases and validates; anything unknown is
// treated as draft so it stays out of every financial bucket.
func normalizeDisbursementStatus(v any) DisbursementStatus {
	s := DisbursementStatus(strings.ToLower(coerceString(v)))
	if ValidDisbursementStatus(s) {
		return s
	}
	return DisbursementDraft
}

// normalizeComplianceStatus keeps only explicitly valid values; empty means
// the status is derived on demand from dueDate/completedAt.
func normalizeComplianceStatus(v any) ComplianceStatus {
	switch s := ComplianceStatus(strings.ToLower(coerceString(v))); s {
	case CompliancePending, ComplianceInProgress, ComplianceCompleted, ComplianceOverdue:
		return s
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func putTime(p map[string]any, key string, t *time.Time) {
	if t != nil {
		p[key] = formatTime(t)
	}
}

func putString(p map[string]any, key, s string) {
	if s != "" {
		p[key] = s
	}
}

func toAnyList(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
