package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"incubatorhub/internal/model"
	"incubatorhub/pkg/metrics"
)

type AuditLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditLogRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{db: db, logger: logger}
}

func (r *AuditLogRepository) Insert(ctx context.Context, entry *model.DisbursementAuditEntry) error {
	start := time.Now()
	query := `
		INSERT INTO audit_log (startup_id, grant_id, disbursement_id, status, amount, currency, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		entry.StartupID,
		entry.GrantID,
		entry.DisbursementID,
		entry.Status,
		entry.Amount,
		entry.Currency,
		entry.OccurredAt,
	)
	metrics.RecordDBQueryDuration("insert", "audit_log", time.Since(start))
	if err != nil {
		r.logger.Error("failed to insert audit log entry",
			zap.String("disbursement_id", entry.DisbursementID),
			zap.String("status", entry.Status),
			zap.Error(err),
		)
		return err
	}
	return nil
}
