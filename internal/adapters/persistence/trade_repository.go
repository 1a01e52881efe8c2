package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
)

// GormTradeRepository implements ports.TradeLedger using GORM
type GormTradeRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormTradeRepository creates a new GORM trade repository.
// If clock is nil, uses RealClock.
func NewGormTradeRepository(db *gorm.DB, clock shared.Clock) *GormTradeRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormTradeRepository{db: db, clock: clock}
}

// RecordTrade persists one executed trade
func (r *GormTradeRepository) RecordTrade(ctx context.Context, trade ports.Trade) error {
	model := &TradeModel{
		System:      trade.System,
		PositionID:  trade.PositionID,
		TokenSymbol: trade.TokenSymbol,
		TriggerType: trade.TriggerType,
		Mode:        trade.Mode,
		EntryPrice:  trade.EntryPrice,
		ExitPrice:   trade.ExitPrice,
		PctChange:   trade.PctChange,
		TxHash:      trade.TxHash,
		Success:     trade.Success,
		ExecutedAt:  r.clock.Now(),
	}

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to record trade: %w", result.Error)
	}
	return nil
}

// FindRecent returns up to limit trades for a system, newest first
func (r *GormTradeRepository) FindRecent(ctx context.Context, system string, limit int) ([]ports.Trade, error) {
	query := r.db.WithContext(ctx).
		Where("system = ?", system).
		Order("executed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []TradeModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find trades: %w", result.Error)
	}

	trades := make([]ports.Trade, len(models))
	for i, model := range models {
		trades[i] = r.modelToTrade(&model)
	}
	return trades, nil
}

// CountSince counts trades for a system executed at or after the given time
func (r *GormTradeRepository) CountSince(ctx context.Context, system string, since time.Time) (int, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&TradeModel{}).
		Where("system = ? AND executed_at >= ?", system, since).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count trades: %w", result.Error)
	}
	return int(count), nil
}

func (r *GormTradeRepository) modelToTrade(model *TradeModel) ports.Trade {
	return ports.Trade{
		System:      model.System,
		PositionID:  model.PositionID,
		TokenSymbol: model.TokenSymbol,
		TriggerType: model.TriggerType,
		Mode:        model.Mode,
		EntryPrice:  model.EntryPrice,
		ExitPrice:   model.ExitPrice,
		PctChange:   model.PctChange,
		TxHash:      model.TxHash,
		Success:     model.Success,
	}
}
