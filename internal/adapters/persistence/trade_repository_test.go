package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/persistence"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/test/helpers"
)

func TestTradeRepository_RecordAndFindRecent(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	repo := persistence.NewGormTradeRepository(db, clock)

	trade := ports.Trade{
		System:      "uviswap_trader",
		PositionID:  "pos-1",
		TokenSymbol: "WETH",
		TriggerType: "take_profit",
		Mode:        "fast_decision",
		EntryPrice:  1800,
		ExitPrice:   1998,
		PctChange:   0.11,
		TxHash:      "0xabc",
		Success:     true,
	}

	// Act
	err := repo.RecordTrade(context.Background(), trade)

	// Assert
	require.NoError(t, err)
	found, err := repo.FindRecent(context.Background(), "uviswap_trader", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, trade, found[0])
}

func TestTradeRepository_FindRecentFiltersBySystem(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormTradeRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.RecordTrade(ctx, ports.Trade{System: "uviswap_trader", PositionID: "a"}))
	require.NoError(t, repo.RecordTrade(ctx, ports.Trade{System: "polymarket_trader", PositionID: "b"}))

	// Act
	found, err := repo.FindRecent(ctx, "polymarket_trader", 0)

	// Assert
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].PositionID)
}

func TestTradeRepository_CountSince(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 1, 15, 0, 30, 0, 0, time.UTC))
	repo := persistence.NewGormTradeRepository(db, clock)
	ctx := context.Background()

	require.NoError(t, repo.RecordTrade(ctx, ports.Trade{System: "uviswap_trader"}))
	clock.Advance(2 * time.Hour)
	require.NoError(t, repo.RecordTrade(ctx, ports.Trade{System: "uviswap_trader"}))

	// Act - count only trades from the second hour onward
	count, err := repo.CountSince(ctx, "uviswap_trader", time.Date(2026, 1, 15, 1, 0, 0, 0, time.UTC))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
