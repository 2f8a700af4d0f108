package grant

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"incubatorhub/pkg/metrics"
)

// CurrencyTotals is the incubator-wide rollup for one currency. Grants are
// never mixed across currencies.
type CurrencyTotals struct {
	Currency                 string  `json:"currency"`
	TotalSanctioned          float64 `json:"totalSanctioned"`
	TotalReleased            float64 `json:"totalReleased"`
	TotalPendingAmount       float64 `json:"totalPendingAmount"`
	TotalRejectedAmount      float64 `json:"totalRejectedAmount"`
	TotalUtilised            float64 `json:"totalUtilised"`
	AvailableToUtilise       float64 `json:"availableToUtilise"`
	RemainingSanctionBalance float64 `json:"remainingSanctionBalance"`
}

// PortfolioGrant is one grant's summary with its owning startup.
type PortfolioGrant struct {
	StartupID string                `json:"startupId"`
	Summary   GrantFinancialSummary `json:"summary"`
}

// PortfolioOverview is the cross-startup financial view.
type PortfolioOverview struct {
	Grants        []PortfolioGrant `json:"grants"`
	Totals        []CurrencyTotals `json:"totals"`
	LastUpdatedAt *time.Time       `json:"lastUpdatedAt,omitempty"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// Overview fans out over every stored catalog, summarizes each grant and
// accumulates per-currency totals. Read-only; the result is cached until the
// next catalog write.
func (s *Service) Overview(ctx context.Context) (PortfolioOverview, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetOverview(ctx); ok {
			metrics.IncrementPortfolioCache("hit")
			return *cached, nil
		}
		metrics.IncrementPortfolioCache("miss")
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		return PortfolioOverview{}, err
	}

	overview := PortfolioOverview{
		Grants:      []PortfolioGrant{},
		GeneratedAt: s.now().UTC(),
	}
	byCurrency := map[string]*CurrencyTotals{}

	for _, sc := range stored {
		overview.bumpLastUpdated(sc.StoredAt)
		if sc.Catalog.UpdatedAt != nil {
			overview.bumpLastUpdated(*sc.Catalog.UpdatedAt)
		}
		for _, g := range sc.Catalog.Grants {
			summary := Summarize(g)
			overview.Grants = append(overview.Grants, PortfolioGrant{
				StartupID: sc.StartupID,
				Summary:   summary,
			})
			totals := byCurrency[summary.Currency]
			if totals == nil {
				totals = &CurrencyTotals{Currency: summary.Currency}
				byCurrency[summary.Currency] = totals
			}
			totals.TotalSanctioned += summary.TotalSanctioned
			totals.TotalReleased += summary.TotalReleased
			totals.TotalPendingAmount += summary.TotalPendingAmount
			totals.TotalRejectedAmount += summary.TotalRejectedAmount
			totals.TotalUtilised += summary.TotalUtilised
			totals.AvailableToUtilise += summary.AvailableToUtilise
			totals.RemainingSanctionBalance += summary.RemainingSanctionBalance
		}
	}

	overview.Totals = make([]CurrencyTotals, 0, len(byCurrency))
	for _, totals := range byCurrency {
		overview.Totals = append(overview.Totals, *totals)
	}
	sort.Slice(overview.Totals, func(i, j int) bool {
		return overview.Totals[i].Currency < overview.Totals[j].Currency
	})

	if s.cache != nil {
		s.cache.SetOverview(ctx, &overview)
	}
	s.logger.Debug("portfolio overview computed",
		zap.Int("catalogs", len(stored)),
		zap.Int("grants", len(overview.Grants)),
	)
	return overview, nil
}

func (o *PortfolioOverview) bumpLastUpdated(t time.Time) {
	if t.IsZero() {
		return
	}
	u := t.UTC()
	if o.LastUpdatedAt == nil || u.After(*o.LastUpdatedAt) {
		o.LastUpdatedAt = &u
	}
}
