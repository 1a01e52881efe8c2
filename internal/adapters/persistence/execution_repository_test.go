package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/persistence"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
	"github.com/guidryheal-create/trader.exe-sub001/test/helpers"
)

func TestExecutionRepository_ArchiveAndFindRecent(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormExecutionRepository(db)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	rec := execution.Record{
		ExecutionID: "exec-1",
		Mode:        "long_study",
		Reason:      "scheduled_cycle",
		Stage:       "result_received",
		Status:      execution.StatusCompleted,
		Result:      `{"decision":"hold"}`,
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Minute),
	}

	// Act
	err := repo.Archive(context.Background(), rec)

	// Assert
	require.NoError(t, err)
	found, err := repo.FindRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, rec, found[0])
}

func TestExecutionRepository_ArchiveUpsertsByExecutionID(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormExecutionRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	rec := execution.Record{
		ExecutionID: "exec-1",
		Mode:        "manual",
		Status:      execution.StatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Archive(ctx, rec))

	// Act - re-archive the same execution in its terminal state
	rec.Status = execution.StatusFailed
	rec.Error = "workforce offline"
	rec.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Archive(ctx, rec))

	// Assert
	found, err := repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, execution.StatusFailed, found[0].Status)
	assert.Equal(t, "workforce offline", found[0].Error)
}
