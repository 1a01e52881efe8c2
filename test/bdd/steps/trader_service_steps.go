package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/runtime"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/shared"
	"github.com/guidryheal-create/trader.exe-sub001/test/helpers"
)

// traderServiceContext drives the runtime service through its command bus
type traderServiceContext struct {
	service   *runtime.Service
	kv        *store.MemoryStore
	pipeline  string
	launched  map[string]interface{}
	launchErr error
	updateErr error
}

func (tc *traderServiceContext) reset() {
	tc.service = nil
	tc.kv = nil
	tc.pipeline = ""
	tc.launched = nil
	tc.launchErr = nil
	tc.updateErr = nil
}

func (tc *traderServiceContext) aTraderServiceWithMockedCollaborators() error {
	tc.kv = store.NewMemoryStore()
	svc, err := runtime.NewService(runtime.Options{
		Clock:            shared.NewMockClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		KV:               tc.kv,
		Feed:             helpers.NewMockMarketFeed(),
		WorkforceFactory: func() interface{} { return helpers.NewMockWorkforce() },
		Quiet:            true,
	})
	if err != nil {
		return fmt.Errorf("build trader service: %w", err)
	}
	tc.service = svc
	return nil
}

func (tc *traderServiceContext) theServiceIsStarted() error {
	if tc.service == nil {
		return fmt.Errorf("no trader service available")
	}
	if _, err := tc.service.Mediator().Send(context.Background(), runtime.StartCommand{}); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	return nil
}

func (tc *traderServiceContext) theServiceIsStoppedAndStartedAgain() error {
	if tc.service == nil {
		return fmt.Errorf("no trader service available")
	}
	if _, err := tc.service.Mediator().Send(context.Background(), runtime.StopCommand{}); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	if _, err := tc.service.Mediator().Send(context.Background(), runtime.StartCommand{}); err != nil {
		return fmt.Errorf("restart service: %w", err)
	}
	return nil
}

func (tc *traderServiceContext) iLaunchAManualExecutionOnThePipeline(pipelineName string) error {
	if tc.service == nil {
		return fmt.Errorf("no trader service available")
	}
	resp, err := tc.service.Mediator().Send(context.Background(), runtime.LaunchExecutionCommand{
		Pipeline: pipelineName,
		Mode:     "long_study",
		Reason:   "manual_trigger",
	})
	tc.pipeline = pipelineName
	tc.launchErr = err
	if doc, ok := resp.(map[string]interface{}); ok {
		tc.launched = doc
	}
	return nil
}

func (tc *traderServiceContext) theLaunchIsAcceptedWithAnExecutionID() error {
	if tc.launchErr != nil {
		return fmt.Errorf("launch failed: %w", tc.launchErr)
	}
	if status, _ := tc.launched["status"].(string); status != "accepted" {
		return fmt.Errorf("expected launch status accepted, got %s", status)
	}
	if id, _ := tc.launched["execution_id"].(string); id == "" {
		return fmt.Errorf("no execution id returned")
	}
	return nil
}

func (tc *traderServiceContext) theExecutionReachesStatus(want string) error {
	id, _ := tc.launched["execution_id"].(string)
	if id == "" {
		return fmt.Errorf("no execution id available")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := tc.service.Mediator().Send(context.Background(), runtime.GetExecutionQuery{
			Pipeline:    tc.pipeline,
			ExecutionID: id,
		})
		if err != nil {
			return fmt.Errorf("get execution: %w", err)
		}
		doc, _ := resp.(map[string]interface{})
		status, _ := doc["status"].(string)
		if status == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected execution status %s, got %s", want, status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (tc *traderServiceContext) iUpdateTheSettingsWithCycleHours(key string, hours int) error {
	if tc.service == nil {
		return fmt.Errorf("no trader service available")
	}
	_, err := tc.service.Mediator().Send(context.Background(), runtime.UpdateTriggerSettingsCommand{
		Key:     key,
		Payload: map[string]interface{}{"cycle_hours": hours},
	})
	tc.updateErr = err
	return nil
}

func (tc *traderServiceContext) theSettingsReportCycleHours(key string, hours int) error {
	resp, err := tc.service.Mediator().Send(context.Background(), runtime.GetTriggerSettingsQuery{Key: key})
	if err != nil {
		return fmt.Errorf("get trigger settings: %w", err)
	}
	doc, _ := resp.(map[string]interface{})
	if got := doc["cycle_hours"]; got != float64(hours) {
		return fmt.Errorf("expected cycle_hours %d, got %v", hours, got)
	}
	return nil
}

func (tc *traderServiceContext) theSettingsUpdateIsRejected() error {
	if tc.updateErr == nil {
		return fmt.Errorf("expected the settings update to be rejected")
	}
	return nil
}

// InitializeTraderServiceScenario registers the command bus steps
func InitializeTraderServiceScenario(ctx *godog.ScenarioContext) {
	tc := &traderServiceContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a trader service with mocked collaborators$`, tc.aTraderServiceWithMockedCollaborators)
	ctx.Step(`^the service is started$`, tc.theServiceIsStarted)

	// When steps
	ctx.Step(`^the service is stopped and started again$`, tc.theServiceIsStoppedAndStartedAgain)
	ctx.Step(`^I launch a manual execution on the "([^"]*)" pipeline$`, tc.iLaunchAManualExecutionOnThePipeline)
	ctx.Step(`^I update the "([^"]*)" settings with cycle hours (\d+)$`, tc.iUpdateTheSettingsWithCycleHours)

	// Then steps
	ctx.Step(`^the launch is accepted with an execution id$`, tc.theLaunchIsAcceptedWithAnExecutionID)
	ctx.Step(`^the execution reaches the "([^"]*)" status$`, tc.theExecutionReachesStatus)
	ctx.Step(`^the "([^"]*)" settings report cycle hours (\d+)$`, tc.theSettingsReportCycleHours)
	ctx.Step(`^the settings update is rejected$`, tc.theSettingsUpdateIsRejected)
}
