package persistence

import (
	"time"
)

// TradeModel represents the trades table
type TradeModel struct {
	ID          int       `gorm:"column:id;primaryKey;autoIncrement"`
	System      string    `gorm:"column:system;not null;index"`
	PositionID  string    `gorm:"column:position_id;not null;index"`
	TokenSymbol string    `gorm:"column:token_symbol"`
	TriggerType string    `gorm:"column:trigger_type;not null"`
	Mode        string    `gorm:"column:mode"`
	EntryPrice  float64   `gorm:"column:entry_price"`
	ExitPrice   float64   `gorm:"column:exit_price"`
	PctChange   float64   `gorm:"column:pct_change"`
	TxHash      string    `gorm:"column:tx_hash"`
	Success     bool      `gorm:"column:success;not null;default:false"`
	ExecutedAt  time.Time `gorm:"column:executed_at;not null;index"`
}

func (TradeModel) TableName() string {
	return "trades"
}

// ExecutionRecordModel represents the execution_records table. Terminal
// tracker records are archived here so run history survives a restart.
type ExecutionRecordModel struct {
	ExecutionID string    `gorm:"column:execution_id;primaryKey"`
	Mode        string    `gorm:"column:mode;not null;index"`
	Reason      string    `gorm:"column:reason"`
	Stage       string    `gorm:"column:stage"`
	Status      string    `gorm:"column:status;not null"`
	Result      string    `gorm:"column:result;type:text"` // summarized JSON
	Error       string    `gorm:"column:error;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (ExecutionRecordModel) TableName() string {
	return "execution_records"
}
