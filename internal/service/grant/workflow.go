package grant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"incubatorhub/internal/model"
	"incubatorhub/internal/mq"
	"incubatorhub/pkg/metrics"
)

// DisbursementRequest creates a new tranche in the approval workflow.
type DisbursementRequest struct {
	Amount            float64    `json:"amount"`
	MilestoneID       string     `json:"milestoneId"`
	RequestedBy       string     `json:"requestedBy"`
	Note              string     `json:"note"`
	TargetReleaseDate *time.Time `json:"targetReleaseDate"`
	Reference         string     `json:"reference"`
	Tranche           string     `json:"tranche"`
}

// DisbursementStatusUpdate moves an existing tranche through the workflow.
type DisbursementStatusUpdate struct {
	Status      string     `json:"status"`
	Actor       string     `json:"actor"`
	Note        string     `json:"note"`
	ReleaseDate *time.Time `json:"releaseDate"`
	Reference   string     `json:"reference"`
}

// WorkflowResult is the mutated disbursement attached to its parent grant
// and startup, already normalized, so callers can render without re-fetching.
type WorkflowResult struct {
	StartupID    string                  `json:"startupId"`
	GrantID      string                  `json:"grantId"`
	GrantName    string                  `json:"grantName,omitempty"`
	Currency     string                  `json:"currency"`
	Disbursement model.GrantDisbursement `json:"disbursement"`
}

// RequestDisbursement validates and appends a new pending disbursement with
// its initial audit-trail entry. All validation runs before the write; a
// rejected request leaves the stored catalog untouched.
func (s *Service) RequestDisbursement(ctx context.Context, startupID, grantID string, req DisbursementRequest) (*WorkflowResult, error) {
	if req.Amount <= 0 {
		metrics.IncrementDisbursementWorkflow("request", "rejected")
		return nil, ErrInvalidAmount
	}

	stored, err := s.store.Get(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrGrantNotFound
	}
	cat := stored.Catalog
	g := cat.FindGrant(grantID)
	if g == nil {
		return nil, ErrGrantNotFound
	}

	if s.policy.StrictSanctionCap {
		summary := Summarize(*g)
		if summary.TotalReleased+summary.TotalPendingAmount+req.Amount > g.TotalSanctionedAmount {
			metrics.IncrementDisbursementWorkflow("request", "rejected")
			return nil, ErrSanctionExceeded
		}
	}

	if req.MilestoneID != "" {
		exists, err := s.milestones.Exists(ctx, startupID, req.MilestoneID)
		if err != nil {
			return nil, err
		}
		if !exists {
			metrics.IncrementDisbursementWorkflow("request", "rejected")
			return nil, ErrMilestoneNotFound
		}
	}

	now := s.now().UTC()
	d := model.GrantDisbursement{
		ID:                uuid.NewString(),
		Amount:            req.Amount,
		Status:            model.DisbursementPending,
		MilestoneID:       req.MilestoneID,
		RequestedBy:       req.RequestedBy,
		RequestedAt:       &now,
		TargetReleaseDate: utcPtr(req.TargetReleaseDate),
		Reference:         req.Reference,
		Tranche:           req.Tranche,
		Approvals: []model.GrantDisbursementApproval{{
			Status:    model.DisbursementPending,
			Actor:     req.RequestedBy,
			Note:      req.Note,
			DecidedAt: &now,
		}},
	}
	g.Disbursements = append(g.Disbursements, d)

	if err := s.saveCatalog(ctx, startupID, &cat, stored.Catalog.Version); err != nil {
		return nil, err
	}

	metrics.IncrementDisbursementWorkflow("request", "ok")
	s.publish(mq.RoutingKeyDisbursementRequested, mq.DisbursementEventPayload{
		StartupID:      startupID,
		GrantID:        g.ID,
		DisbursementID: d.ID,
		Status:         string(d.Status),
		Amount:         d.Amount,
		Currency:       g.Currency,
		OccurredAt:     now,
	})
	s.logger.Info("disbursement requested",
		zap.String("startup_id", startupID),
		zap.String("grant_id", g.ID),
		zap.String("disbursement_id", d.ID),
		zap.Float64("amount", d.Amount),
	)

	return &WorkflowResult{
		StartupID:    startupID,
		GrantID:      g.ID,
		GrantName:    g.Name,
		Currency:     g.Currency,
		Disbursement: d,
	}, nil
}

// UpdateDisbursementStatus applies one workflow transition and appends the
// decision to the append-only approval trail. Released is absorbing: any
// transition out of it fails with ErrReleasedImmutable and writes nothing.
func (s *Service) UpdateDisbursementStatus(ctx context.Context, startupID, grantID, disbursementID string, upd DisbursementStatusUpdate) (*WorkflowResult, error) {
	target := model.DisbursementStatus(strings.ToLower(strings.TrimSpace(upd.Status)))
	if !model.ValidDisbursementStatus(target) {
		metrics.IncrementDisbursementWorkflow("status_update", "rejected")
		return nil, ErrInvalidStatus
	}

	stored, err := s.store.Get(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrGrantNotFound
	}
	cat := stored.Catalog
	g := cat.FindGrant(grantID)
	if g == nil {
		return nil, ErrGrantNotFound
	}
	d := g.FindDisbursement(disbursementID)
	if d == nil {
		return nil, ErrDisbursementNotFound
	}
	if d.Status.Terminal() {
		metrics.IncrementDisbursementWorkflow("status_update", "rejected")
		return nil, ErrReleasedImmutable
	}

	decidedAt := s.now().UTC()
	if upd.ReleaseDate != nil {
		decidedAt = upd.ReleaseDate.UTC()
	}

	d.Status = target
	d.Approvals = append(d.Approvals, model.GrantDisbursementApproval{
		Status:    target,
		Actor:     upd.Actor,
		Note:      upd.Note,
		DecidedAt: &decidedAt,
	})

	switch target {
	case model.DisbursementReleased:
		releasedAt := decidedAt
		d.ReleasedAt = &releasedAt
		if upd.Reference != "" {
			d.Reference = upd.Reference
		}
	case model.DisbursementRejected:
		d.ReleasedAt = nil
	}

	if err := s.saveCatalog(ctx, startupID, &cat, stored.Catalog.Version); err != nil {
		return nil, err
	}

	metrics.IncrementDisbursementWorkflow("status_update", "ok")
	s.publish(mq.RoutingKeyDisbursementStatus(string(target)), mq.DisbursementEventPayload{
		StartupID:      startupID,
		GrantID:        g.ID,
		DisbursementID: d.ID,
		Status:         string(d.Status),
		Amount:         d.Amount,
		Currency:       g.Currency,
		OccurredAt:     decidedAt,
	})
	s.logger.Info("disbursement status updated",
		zap.String("startup_id", startupID),
		zap.String("grant_id", g.ID),
		zap.String("disbursement_id", d.ID),
		zap.String("status", string(target)),
	)

	return &WorkflowResult{
		StartupID:    startupID,
		GrantID:      g.ID,
		GrantName:    g.Name,
		Currency:     g.Currency,
		Disbursement: *d,
	}, nil
}

// saveCatalog bumps the version, stamps updatedAt and writes the whole
// document back under the optimistic concurrency check.
func (s *Service) saveCatalog(ctx context.Context, startupID string, cat *model.GrantCatalog, expectedVersion int) error {
	now := s.now().UTC()
	cat.Version = expectedVersion + 1
	cat.UpdatedAt = &now
	if err := s.store.Put(ctx, startupID, *cat, expectedVersion); err != nil {
		return err
	}
	s.invalidateOverview(ctx)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
