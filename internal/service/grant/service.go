package grant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"incubatorhub/internal/model"
)

// CatalogStore is the keyed persistence collaborator: one whole-document
// catalog per startup, read-modify-written as a unit.
type CatalogStore interface {
	// Get returns the stored catalog, or nil when the startup has none yet.
	Get(ctx context.Context, startupID string) (*StoredCatalog, error)
	// Put writes the whole catalog. expectedVersion is the version the caller
	// read (0 for a first write); a mismatch fails with ErrVersionConflict.
	Put(ctx context.Context, startupID string, catalog model.GrantCatalog, expectedVersion int) error
	// List returns every stored catalog across all startups.
	List(ctx context.Context) ([]StoredCatalog, error)
}

// StoredCatalog pairs a catalog with its storage metadata.
type StoredCatalog struct {
	StartupID string
	Catalog   model.GrantCatalog
	StoredAt  time.Time
}

// MilestoneChecker is the collaborator interface into the milestone-plan
// subsystem; the engine only ever asks whether a milestone exists.
type MilestoneChecker interface {
	Exists(ctx context.Context, startupID, milestoneID string) (bool, error)
}

// EventPublisher publishes workflow events for downstream subsystems.
// Publish failures are logged and never fail the mutation.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// OverviewCache caches the cross-startup portfolio overview.
type OverviewCache interface {
	GetOverview(ctx context.Context) (*PortfolioOverview, bool)
	SetOverview(ctx context.Context, overview *PortfolioOverview)
	InvalidateOverview(ctx context.Context)
}

// Policy carries the configurable behaviors the engine deliberately does not
// hard-code: whether cumulative requests may exceed the sanction, and which
// compliance tags mark an expenditure ineligible.
type Policy struct {
	StrictSanctionCap     bool
	IneligibleTagKeywords []string
}

// DefaultIneligibleKeywords flag expenditures whose compliance tags indicate
// eligibility risk. Matched case-insensitively as substrings.
var DefaultIneligibleKeywords = []string{
	"ineligible", "non-compliant", "non_compliant", "noncompliant", "disallowed",
}

// Service is the grant financial ledger and reporting engine.
type Service struct {
	store      CatalogStore
	milestones MilestoneChecker
	publisher  EventPublisher
	cache      OverviewCache
	policy     Policy
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(
	store CatalogStore,
	milestones MilestoneChecker,
	publisher EventPublisher,
	cache OverviewCache,
	policy Policy,
	logger *zap.Logger,
) *Service {
	if len(policy.IneligibleTagKeywords) == 0 {
		policy.IneligibleTagKeywords = DefaultIneligibleKeywords
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		milestones: milestones,
		publisher:  publisher,
		cache:      cache,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// Catalog returns the startup's normalized catalog. A startup with no stored
// catalog reads as an empty one; creation happens on first write.
func (s *Service) Catalog(ctx context.Context, startupID string) (model.GrantCatalog, error) {
	stored, err := s.store.Get(ctx, startupID)
	if err != nil {
		return model.GrantCatalog{}, err
	}
	if stored == nil {
		return model.GrantCatalog{Grants: []model.GrantRecord{}}, nil
	}
	return stored.Catalog, nil
}

// DisbursementListing is one disbursement flattened out of its catalog with
// enough parent identity for a caller to render a cross-grant table.
type DisbursementListing struct {
	StartupID    string                  `json:"startupId"`
	GrantID      string                  `json:"grantId"`
	GrantName    string                  `json:"grantName,omitempty"`
	Currency     string                  `json:"currency"`
	Disbursement model.GrantDisbursement `json:"disbursement"`
}

// ListDisbursements flattens every disbursement across the startup's grants.
func (s *Service) ListDisbursements(ctx context.Context, startupID string) ([]DisbursementListing, error) {
	cat, err := s.Catalog(ctx, startupID)
	if err != nil {
		return nil, err
	}
	listings := []DisbursementListing{}
	for _, g := range cat.Grants {
		for _, d := range g.Disbursements {
			listings = append(listings, DisbursementListing{
				StartupID:    startupID,
				GrantID:      g.ID,
				GrantName:    g.Name,
				Currency:     g.Currency,
				Disbursement: d,
			})
		}
	}
	return listings, nil
}

// Snapshot summarizes one grant, or the startup's first grant when grantID
// is empty.
func (s *Service) Snapshot(ctx context.Context, startupID, grantID string) (GrantFinancialSummary, error) {
	cat, err := s.Catalog(ctx, startupID)
	if err != nil {
		return GrantFinancialSummary{}, err
	}
	g, err := pickGrant(&cat, grantID)
	if err != nil {
		return GrantFinancialSummary{}, err
	}
	return Summarize(*g), nil
}

func pickGrant(cat *model.GrantCatalog, grantID string) (*model.GrantRecord, error) {
	if grantID == "" {
		if len(cat.Grants) == 0 {
			return nil, ErrGrantNotFound
		}
		return &cat.Grants[0], nil
	}
	g := cat.FindGrant(grantID)
	if g == nil {
		return nil, ErrGrantNotFound
	}
	return g, nil
}

func (s *Service) invalidateOverview(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateOverview(ctx)
	}
}

func (s *Service) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
