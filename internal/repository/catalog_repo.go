package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"incubatorhub/internal/model"
	"incubatorhub/internal/service/grant"
	"incubatorhub/pkg/metrics"
)

// CatalogRepository stores one grant catalog per startup as a single
// versioned JSONB document. Writes carry the version the caller read;
// a stale version fails instead of silently overwriting.
type CatalogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCatalogRepository(db *pgxpool.Pool, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the stored catalog for a startup, or nil when none exists.
func (r *CatalogRepository) Get(ctx context.Context, startupID string) (*grant.StoredCatalog, error) {
	started := time.Now()
	query := `
        SELECT version, document, updated_at
        FROM grant_catalogs
        WHERE startup_id = $1
    `
	var (
		version   int
		document  []byte
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, query, startupID).Scan(&version, &document, &updatedAt)
	metrics.RecordDBQueryDuration("get", "grant_catalogs", time.Since(started))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to load grant catalog", zap.String("startup_id", startupID), zap.Error(err))
		return nil, fmt.Errorf("failed to load grant catalog: %w", err)
	}

	catalog, err := decodeCatalog(document)
	if err != nil {
		return nil, err
	}
	// the version column is authoritative for the concurrency check
	catalog.Version = version

	return &grant.StoredCatalog{
		StartupID: startupID,
		Catalog:   catalog,
		StoredAt:  updatedAt,
	}, nil
}

// Put writes the whole catalog back. expectedVersion 0 inserts a new row;
// otherwise the update only applies when the stored version still matches.
func (r *CatalogRepository) Put(ctx context.Context, startupID string, catalog model.GrantCatalog, expectedVersion int) error {
	started := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("put", "grant_catalogs", time.Since(started))
	}()

	document, err := json.Marshal(model.CatalogPayload(catalog))
	if err != nil {
		return fmt.Errorf("failed to encode grant catalog: %w", err)
	}

	if expectedVersion == 0 {
		query := `
            INSERT INTO grant_catalogs (startup_id, version, document, updated_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT (startup_id) DO NOTHING
        `
		tag, err := r.db.Exec(ctx, query, startupID, catalog.Version, document)
		if err != nil {
			r.logger.Error("Failed to insert grant catalog", zap.String("startup_id", startupID), zap.Error(err))
			return fmt.Errorf("failed to insert grant catalog: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return grant.ErrVersionConflict
		}
		return nil
	}

	query := `
        UPDATE grant_catalogs
        SET version = $1, document = $2, updated_at = NOW()
        WHERE startup_id = $3 AND version = $4
    `
	tag, err := r.db.Exec(ctx, query, catalog.Version, document, startupID, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update grant catalog", zap.String("startup_id", startupID), zap.Error(err))
		return fmt.Errorf("failed to update grant catalog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Grant catalog version conflict",
			zap.String("startup_id", startupID),
			zap.Int("expected_version", expectedVersion),
		)
		return grant.ErrVersionConflict
	}
	return nil
}

// List returns every stored catalog across all startups.
func (r *CatalogRepository) List(ctx context.Context) ([]grant.StoredCatalog, error) {
	started := time.Now()
	query := `
        SELECT startup_id, version, document, updated_at
        FROM grant_catalogs
        ORDER BY startup_id ASC
    `
	rows, err := r.db.Query(ctx, query)
	metrics.RecordDBQueryDuration("list", "grant_catalogs", time.Since(started))
	if err != nil {
		r.logger.Error("Failed to list grant catalogs", zap.Error(err))
		return nil, fmt.Errorf("failed to list grant catalogs: %w", err)
	}
	defer rows.Close()

	catalogs := []grant.StoredCatalog{}
	for rows.Next() {
		var (
			startupID string
			version   int
			document  []byte
			updatedAt time.Time
		)
		if err := rows.Scan(&startupID, &version, &document, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant catalog: %w", err)
		}
		catalog, err := decodeCatalog(document)
		if err != nil {
			return nil, err
		}
		catalog.Version = version
		catalogs = append(catalogs, grant.StoredCatalog{
			StartupID: startupID,
			Catalog:   catalog,
			StoredAt:  updatedAt,
		})
	}
	return catalogs, rows.Err()
}

// decodeCatalog runs the stored document through the normalizer so callers
// always see a fully-typed tree, whatever shape was written historically.
func decodeCatalog(document []byte) (model.GrantCatalog, error) {
	var raw map[string]any
	if err := json.Unmarshal(document, &raw); err != nil {
		return model.GrantCatalog{}, fmt.Errorf("failed to decode grant catalog: %w", err)
	}
	return model.NormalizeCatalog(raw), nil
}
