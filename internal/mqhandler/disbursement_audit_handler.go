package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"incubatorhub/internal/model"
	"incubatorhub/internal/mq"
	"incubatorhub/internal/repository"
	"incubatorhub/internal/util"
)

// DisbursementAuditHandler appends every disbursement workflow event to the
// audit log. Redeliveries are deduped on disbursement id + status.
type DisbursementAuditHandler struct {
	repo    *repository.AuditLogRepository
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewDisbursementAuditHandler(repo *repository.AuditLogRepository, deduper *util.Deduper, logger *zap.Logger) *DisbursementAuditHandler {
	return &DisbursementAuditHandler{
		repo:    repo,
		deduper: deduper,
		logger:  logger,
	}
}

func (h *DisbursementAuditHandler) HandleDisbursementEvent(ctx context.Context, raw json.RawMessage) error {
	var p mq.DisbursementEventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("failed to unmarshal disbursement event", zap.Error(err))
		return err
	}

	eventKey := p.DisbursementID + ":" + p.Status
	if !h.deduper.AcquireOnce(ctx, "audit", eventKey) {
		h.logger.Info("duplicate disbursement event skipped",
			zap.String("disbursement_id", p.DisbursementID),
			zap.String("status", p.Status),
		)
		return nil
	}

	entry := &model.DisbursementAuditEntry{
		StartupID:      p.StartupID,
		GrantID:        p.GrantID,
		DisbursementID: p.DisbursementID,
		Status:         p.Status,
		Amount:         p.Amount,
		Currency:       p.Currency,
		OccurredAt:     p.OccurredAt,
	}
	if err := h.repo.Insert(ctx, entry); err != nil {
		return err
	}

	h.logger.Info("audit log entry recorded",
		zap.String("startup_id", p.StartupID),
		zap.String("grant_id", p.GrantID),
		zap.String("disbursement_id", p.DisbursementID),
		zap.String("status", p.Status),
	)
	return nil
}
