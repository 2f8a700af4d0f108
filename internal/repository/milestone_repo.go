package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// MilestoneRepository is the read-only view into the milestone-plan
// subsystem. The grant engine only ever checks existence; scheduling and
// reminders stay on the milestone side.
type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MilestoneRepository) Exists(ctx context.Context, startupID, milestoneID string) (bool, error) {
	query := `
        SELECT EXISTS(
            SELECT 1 FROM milestones
            WHERE startup_id = $1 AND id = $2
        )
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, startupID, milestoneID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check milestone existence",
			zap.String("startup_id", startupID),
			zap.String("milestone_id", milestoneID),
			zap.Error(err),
		)
		return false, err
	}
	return exists, nil
}
