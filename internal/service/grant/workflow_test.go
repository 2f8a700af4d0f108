package grant

import (
	"context"
	"errors"
	"testing"
	"time"

	"incubatorhub/internal/model"
)

func baseGrant() model.GrantRecord {
	return model.GrantRecord{
		ID:                    "g-1",
		Name:                  "Seed Grant",
		TotalSanctionedAmount: 100000,
		Currency:              "INR",
		Disbursements:         []model.GrantDisbursement{},
		Expenditures:          []model.GrantExpenditure{},
		Compliance:            []model.GrantCompliance{},
	}
}

func TestRequestDisbursementRejectsNonPositiveAmount(t *testing.T) {
	store := newMemStore()
	seedGrant(store, "s-1", baseGrant())
	svc := newTestService(store, nil, nil)

	for _, amount := range []float64{0, -500} {
		_, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{Amount: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if store.puts != 0 {
		t.Fatalf("expected no writes on rejected request, got %d", store.puts)
	}
	if got := len(store.catalog("s-1").Grants[0].Disbursements); got != 0 {
		t.Fatalf("expected catalog untouched, found %d disbursements", got)
	}
}

func TestRequestDisbursementUnknownGrant(t *testing.T) {
	store := newMemStore()
	seedGrant(store, "s-1", baseGrant())
	svc := newTestService(store, nil, nil)

	_, err := svc.RequestDisbursement(context.Background(), "s-1", "missing", DisbursementRequest{Amount: 10})
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}

	_, err = svc.RequestDisbursement(context.Background(), "no-such-startup", "g-1", DisbursementRequest{Amount: 10})
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound for missing catalog, got %v", err)
	}
}

func TestRequestDisbursementMilestoneMustExist(t *testing.T) {
	store := newMemStore()
	seedGrant(store, "s-1", baseGrant())
	milestones := &memMilestones{existing: map[string]bool{"s-1/m-1": true}}
	svc := newTestService(store, milestones, nil)

	_, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{
		Amount:      5000,
		MilestoneID: "m-404",
	})
	if !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
	}
	if store.puts != 0 {
		t.Fatal("expected no write after milestone rejection")
	}

	result, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{
		Amount:      5000,
		MilestoneID: "m-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Disbursement.MilestoneID != "m-1" {
		t.Fatalf("expected milestone link kept, got %q", result.Disbursement.MilestoneID)
	}
}

func TestRequestDisbursementCreatesPendingWithAuditTrail(t *testing.T) {
	store := newMemStore()
	seedGrant(store, "s-1", baseGrant())
	publisher := &memPublisher{}
	svc := newTestService(store, nil, publisher)

	result, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{
		Amount:      25000,
		RequestedBy: "founder@acme",
		Note:        "first tranche",
		Tranche:     "T1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := result.Disbursement
	if d.ID == "" {
		t.Fatal("expected generated disbursement id")
	}
	if d.Status != model.DisbursementPending {
		t.Fatalf("expected pending, got %q", d.Status)
	}
	if d.RequestedAt == nil {
		t.Fatal("expected requestedAt to be stamped")
	}
	if len(d.Approvals) != 1 {
		t.Fatalf("expected exactly one initial approval, got %d", len(d.Approvals))
	}
	if a := d.Approvals[0]; a.Actor != "founder@acme" || a.Note != "first tranche" || a.Status != model.DisbursementPending {
		t.Fatalf("unexpected initial approval %+v", a)
	}
	if result.StartupID != "s-1" || result.GrantID != "g-1" || result.Currency != "INR" {
		t.Fatalf("expected parent attachment, got %+v", result)
	}

	stored := store.catalog("s-1")
	if stored.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", stored.Version)
	}
	if stored.UpdatedAt == nil {
		t.Fatal("expected catalog updatedAt to be stamped")
	}
	if len(stored.Grants[0].Disbursements) != 1 {
		t.Fatalf("expected one stored disbursement, got %d", len(stored.Grants[0].Disbursements))
	}

	keys := publisher.keys()
	if len(keys) != 1 || keys[0] != "grant.disbursement.requested" {
		t.Fatalf("expected requested event, got %v", keys)
	}
}

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{{ID: "d-1", Amount: 100, Status: model.DisbursementPending}}
	seedGrant(store, "s-1", g)
	svc := newTestService(store, nil, nil)

	_, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "d-1", DisbursementStatusUpdate{Status: "shipped"})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if store.puts != 0 {
		t.Fatal("expected no write on invalid status")
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{{ID: "d-1", Amount: 100, Status: model.DisbursementPending}}
	seedGrant(store, "s-1", g)
	svc := newTestService(store, nil, nil)

	_, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "missing", "d-1", DisbursementStatusUpdate{Status: "approved"})
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
	_, err = svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "missing", DisbursementStatusUpdate{Status: "approved"})
	if !errors.Is(err, ErrDisbursementNotFound) {
		t.Fatalf("expected ErrDisbursementNotFound, got %v", err)
	}
}

func TestReleasedIsTerminal(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{{ID: "d-1", Amount: 100, Status: model.DisbursementPending}}
	seedGrant(store, "s-1", g)
	svc := newTestService(store, nil, nil)

	if _, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "d-1", DisbursementStatusUpdate{Status: "released", Actor: "manager"}); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	before := store.catalog("s-1")

	for _, target := range []string{"draft", "pending", "approved", "rejected", "released"} {
		_, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "d-1", DisbursementStatusUpdate{Status: target})
		if !errors.Is(err, ErrReleasedImmutable) {
			t.Fatalf("target %q: expected ErrReleasedImmutable, got %v", target, err)
		}
	}

	after := store.catalog("s-1")
	if after.Version != before.Version {
		t.Fatalf("expected stored catalog unchanged, version went %d -> %d", before.Version, after.Version)
	}
	if len(after.Grants[0].Disbursements[0].Approvals) != len(before.Grants[0].Disbursements[0].Approvals) {
		t.Fatal("expected approval trail unchanged after rejected transitions")
	}
}

func TestReleaseSetsReleasedAtAndReference(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{{ID: "d-1", Amount: 100, Status: model.DisbursementApproved}}
	seedGrant(store, "s-1", g)
	publisher := &memPublisher{}
	svc := newTestService(store, nil, publisher)

	releaseDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "d-1", DisbursementStatusUpdate{
		Status:      "released",
		Actor:       "manager",
		ReleaseDate: &releaseDate,
		Reference:   "UTR-778",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := result.Disbursement
	if d.ReleasedAt == nil || !d.ReleasedAt.Equal(releaseDate) {
		t.Fatalf("expected releasedAt %v, got %v", releaseDate, d.ReleasedAt)
	}
	if d.Reference != "UTR-778" {
		t.Fatalf("expected reference overwrite, got %q", d.Reference)
	}
	if last := d.Approvals[len(d.Approvals)-1]; last.DecidedAt == nil || !last.DecidedAt.Equal(releaseDate) {
		t.Fatalf("expected approval decidedAt to prefer the release date, got %+v", last)
	}
	keys := publisher.keys()
	if len(keys) != 1 || keys[0] != "grant.disbursement.released" {
		t.Fatalf("expected released event, got %v", keys)
	}
}

func TestRejectionClearsReleasedAt(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	releasedAt := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	g.Disbursements = []model.GrantDisbursement{{
		ID:         "d-1",
		Amount:     100,
		Status:     model.DisbursementApproved,
		ReleasedAt: &releasedAt,
	}}
	seedGrant(store, "s-1", g)
	svc := newTestService(store, nil, nil)

	result, err := svc.UpdateDisbursementStatus(context.Background(), "s-1", "g-1", "d-1", DisbursementStatusUpdate{Status: "rejected", Actor: "manager"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Disbursement.ReleasedAt != nil {
		t.Fatalf("expected releasedAt cleared on rejection, got %v", result.Disbursement.ReleasedAt)
	}
}

func TestStrictSanctionCapPolicy(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{
		{ID: "d-1", Amount: 60000, Status: model.DisbursementReleased},
		{ID: "d-2", Amount: 30000, Status: model.DisbursementPending},
	}
	seedGrant(store, "s-1", g)
	svc := NewService(store, &memMilestones{}, &memPublisher{}, nil, Policy{StrictSanctionCap: true}, nil)

	_, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{Amount: 20000})
	if !errors.Is(err, ErrSanctionExceeded) {
		t.Fatalf("expected ErrSanctionExceeded, got %v", err)
	}

	if _, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{Amount: 10000}); err != nil {
		t.Fatalf("request within the cap should pass, got %v", err)
	}
}

func TestDefaultPolicyAllowsOverCommitment(t *testing.T) {
	store := newMemStore()
	g := baseGrant()
	g.Disbursements = []model.GrantDisbursement{
		{ID: "d-1", Amount: 90000, Status: model.DisbursementReleased},
	}
	seedGrant(store, "s-1", g)
	svc := newTestService(store, nil, nil)

	if _, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{Amount: 50000}); err != nil {
		t.Fatalf("default policy should allow over-commitment, got %v", err)
	}
}

func TestVersionConflictSurfaces(t *testing.T) {
	store := newMemStore()
	seedGrant(store, "s-1", baseGrant())
	store.putErr = ErrVersionConflict
	svc := newTestService(store, nil, nil)

	_, err := svc.RequestDisbursement(context.Background(), "s-1", "g-1", DisbursementRequest{Amount: 100})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}
