package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
)

// GormExecutionRepository archives terminal execution records
type GormExecutionRepository struct {
	db *gorm.DB
}

// NewGormExecutionRepository creates a new GORM execution repository
func NewGormExecutionRepository(db *gorm.DB) *GormExecutionRepository {
	return &GormExecutionRepository{db: db}
}

// Archive upserts one execution record by execution id
func (r *GormExecutionRepository) Archive(ctx context.Context, rec execution.Record) error {
	model := &ExecutionRecordModel{
		ExecutionID: rec.ExecutionID,
		Mode:        rec.Mode,
		Reason:      rec.Reason,
		Stage:       rec.Stage,
		Status:      string(rec.Status),
		Result:      rec.Result,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "execution_id"}},
			UpdateAll: true,
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to archive execution record: %w", result.Error)
	}
	return nil
}

// FindRecent returns up to limit archived records, newest first
func (r *GormExecutionRepository) FindRecent(ctx context.Context, limit int) ([]execution.Record, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ExecutionRecordModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find execution records: %w", result.Error)
	}

	records := make([]execution.Record, len(models))
	for i, model := range models {
		records[i] = execution.Record{
			ExecutionID: model.ExecutionID,
			Mode:        model.Mode,
			Reason:      model.Reason,
			Stage:       model.Stage,
			Status:      execution.Status(model.Status),
			Result:      model.Result,
			Error:       model.Error,
			CreatedAt:   model.CreatedAt,
			UpdatedAt:   model.UpdatedAt,
		}
	}
	return records, nil
}
