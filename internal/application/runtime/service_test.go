package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/runtime"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/execution"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/test/helpers"
)

type recordingArchiver struct {
	mu   sync.Mutex
	recs []execution.Record
}

func (a *recordingArchiver) Archive(ctx context.Context, rec execution.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return nil
}

func (a *recordingArchiver) Records() []execution.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]execution.Record, len(a.recs))
	copy(out, a.recs)
	return out
}

type serviceFixture struct {
	service  *runtime.Service
	clock    *shared.MockClock
	kv       *store.MemoryStore
	files    *store.FileStore
	archiver *recordingArchiver
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		clock:    shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		kv:       store.NewMemoryStore(),
		files:    store.NewFileStore(t.TempDir()),
		archiver: &recordingArchiver{},
	}
	svc, err := runtime.NewService(runtime.Options{
		Clock:            f.clock,
		KV:               f.kv,
		Files:            f.files,
		Feed:             helpers.NewMockMarketFeed(),
		WorkforceFactory: func() interface{} { return helpers.NewMockWorkforce() },
		Archiver:         f.archiver,
		Quiet:            true,
	})
	require.NoError(t, err)
	f.service = svc
	return f
}

func TestService_DefaultsComeFromSettingsRegistry(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	dexCfg, err := f.service.GetConfig("dex")
	require.NoError(t, err)
	polyCfg, err := f.service.GetConfig("polymarket")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, float64(4), dexCfg.Process["cycle_hours"])
	assert.Equal(t, float64(1800), polyCfg.Process["scan_interval_seconds"])
}

func TestService_GetTriggerSettings(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	got, err := f.service.GetTriggerSettings("dex.cycle_interval")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, float64(4), got["cycle_hours"])

	_, err = f.service.GetTriggerSettings("dex.nonexistent")
	assert.Error(t, err)
}

func TestService_UpdateTriggerSettingsPersistsAcrossRestart(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	normalized, err := f.service.UpdateTriggerSettings(context.Background(), "dex.cycle_interval", map[string]interface{}{
		"cycle_hours": 8,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(8), normalized["cycle_hours"])

	// a fresh service over the same stores sees the persisted value
	restarted, err := runtime.NewService(runtime.Options{
		Clock: f.clock,
		KV:    f.kv,
		Files: f.files,
		Quiet: true,
	})
	require.NoError(t, err)

	// Assert
	got, err := restarted.GetTriggerSettings("dex.cycle_interval")
	require.NoError(t, err)
	assert.Equal(t, float64(8), got["cycle_hours"])
}

func TestService_UpdateTriggerSettingsRejectsInvalidPayload(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	_, err := f.service.UpdateTriggerSettings(context.Background(), "dex.cycle_interval", map[string]interface{}{
		"cycle_hours": 500,
	})

	// Assert - the config is untouched
	require.Error(t, err)
	got, extractErr := f.service.GetTriggerSettings("dex.cycle_interval")
	require.NoError(t, extractErr)
	assert.Equal(t, float64(4), got["cycle_hours"])
}

func TestService_UpdateConfigMergesRuntimeToggles(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	cfg, err := f.service.UpdateConfig(context.Background(), "dex", nil, map[string]interface{}{
		"cycle_enabled": false,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, false, cfg.Runtime["cycle_enabled"])
	assert.Equal(t, float64(4), cfg.Process["cycle_hours"])
}

func TestService_LaunchAndGetExecution(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	accepted, err := f.service.LaunchExecution("dex", "manual", "api_request")
	require.NoError(t, err)
	id, _ := accepted["execution_id"].(string)
	require.NotEmpty(t, id)

	// Assert
	require.Eventually(t, func() bool {
		doc, err := f.service.GetExecution("dex", id)
		if err != nil {
			return false
		}
		return doc["status"] == string(execution.StatusCompleted)
	}, 2*time.Second, 5*time.Millisecond)

	listed, err := f.service.ListExecutions("dex", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0]["execution_id"])
}

func TestService_GetExecutionUnknownID(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	doc, err := f.service.GetExecution("dex", "nope")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "not_found", doc["status"])

	_, err = f.service.LaunchExecution("equities", "manual", "api_request")
	assert.Error(t, err)
}

func TestService_StopArchivesTerminalExecutions(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)
	accepted, err := f.service.LaunchExecution("dex", "manual", "api_request")
	require.NoError(t, err)
	id, _ := accepted["execution_id"].(string)
	require.Eventually(t, func() bool {
		doc, err := f.service.GetExecution("dex", id)
		return err == nil && doc["status"] == string(execution.StatusCompleted)
	}, 2*time.Second, 5*time.Millisecond)

	// Act
	f.service.Stop(context.Background())

	// Assert
	recs := f.archiver.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ExecutionID)
	assert.Equal(t, execution.StatusCompleted, recs[0].Status)
}

func TestService_MediatorDispatchesCommands(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)
	ctx := context.Background()

	// Act / Assert - queries round-trip through the command bus
	specs, err := f.service.Mediator().Send(ctx, runtime.ListTriggerSpecsQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, specs)

	got, err := f.service.Mediator().Send(ctx, runtime.GetTriggerSettingsQuery{Key: "polymarket.interval"})
	require.NoError(t, err)
	settings, ok := got.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1800), settings["scan_interval_seconds"])

	_, err = f.service.Mediator().Send(ctx, struct{ Unregistered bool }{})
	assert.Error(t, err)
}

func TestService_UpdateTaskFlowsThroughMediator(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)

	// Act
	resp, err := f.service.Mediator().Send(context.Background(), runtime.UpdateTaskFlowsCommand{
		Pipeline: "dex",
		Flags:    map[string]bool{"cycle_pipeline": false},
	})

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, resp)
	rows, err := f.service.ListTaskFlows("dex")
	require.NoError(t, err)
	var found bool
	for _, row := range rows {
		if row.TaskID == "cycle_pipeline" {
			found = true
			assert.False(t, row.Enabled)
		}
	}
	assert.True(t, found)
}

func TestService_EventsRecordSettingsUpdates(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)
	_, err := f.service.UpdateTriggerSettings(context.Background(), "polymarket.interval", map[string]interface{}{
		"scan_interval_seconds": 900,
	})
	require.NoError(t, err)

	// Act
	events := f.service.Events(0)

	// Assert
	require.NotEmpty(t, events)
	var found bool
	for _, event := range events {
		if event.Level == "INFO" && event.Message == "Trigger settings polymarket.interval updated" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestService_TriggerHistoryAfterExecution(t *testing.T) {
	// Arrange
	f := newServiceFixture(t)
	accepted, err := f.service.LaunchExecution("dex", "manual", "api_request")
	require.NoError(t, err)
	id, _ := accepted["execution_id"].(string)
	require.Eventually(t, func() bool {
		doc, err := f.service.GetExecution("dex", id)
		return err == nil && doc["status"] == string(execution.StatusCompleted)
	}, 2*time.Second, 5*time.Millisecond)

	// Act
	history, err := f.service.TriggerHistory("dex", 10)

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "cycle", history[0].TriggerID)
}
