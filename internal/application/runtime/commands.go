package runtime

import (
	"context"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

// StartCommand boots both managers according to their runtime toggles
type StartCommand struct{}

// StopCommand stops both managers and cancels in-flight executions
type StopCommand struct{}

// LaunchExecutionCommand starts a tracked run on one pipeline
type LaunchExecutionCommand struct {
	Pipeline string
	Mode     string
	Reason   string
}

// GetExecutionQuery fetches one tracked execution by id
type GetExecutionQuery struct {
	Pipeline    string
	ExecutionID string
}

// ListExecutionsQuery lists tracked executions, newest first
type ListExecutionsQuery struct {
	Pipeline string
	Limit    int
}

// ListTriggerSpecsQuery lists the registered settings surfaces
type ListTriggerSpecsQuery struct{}

// GetTriggerSettingsQuery extracts current settings for a pipeline.trigger key
type GetTriggerSettingsQuery struct {
	Key string
}

// UpdateTriggerSettingsCommand validates and applies a settings payload
type UpdateTriggerSettingsCommand struct {
	Key     string
	Payload map[string]interface{}
}

// GetConfigQuery returns a copy of one manager's config document
type GetConfigQuery struct {
	Pipeline string
}

// UpdateConfigCommand merges raw process/runtime updates into one config
type UpdateConfigCommand struct {
	Pipeline string
	Process  map[string]interface{}
	Runtime  map[string]interface{}
}

// ListTaskFlowsQuery lists the registered task flows for one pipeline
type ListTaskFlowsQuery struct {
	Pipeline string
}

// UpdateTaskFlowsCommand merges enable/disable overrides for one pipeline
type UpdateTaskFlowsCommand struct {
	Pipeline string
	Flags    map[string]bool
}

// TriggerHistoryQuery lists recent trigger invocations for one pipeline
type TriggerHistoryQuery struct {
	Pipeline string
	Limit    int
}

// ListEventsQuery lists recent audit events, newest first
type ListEventsQuery struct {
	Limit int
}

func (s *Service) registerHandlers() error {
	registrations := []struct {
		register func() error
	}{
		{func() error {
			return common.RegisterHandler[StartCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, _ common.Request) (common.Response, error) {
					return nil, s.Start(ctx)
				}))
		}},
		{func() error {
			return common.RegisterHandler[StopCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, _ common.Request) (common.Response, error) {
					s.Stop(ctx)
					return nil, nil
				}))
		}},
		{func() error {
			return common.RegisterHandler[LaunchExecutionCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					cmd := request.(LaunchExecutionCommand)
					return s.LaunchExecution(cmd.Pipeline, cmd.Mode, cmd.Reason)
				}))
		}},
		{func() error {
			return common.RegisterHandler[GetExecutionQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(GetExecutionQuery)
					return s.GetExecution(q.Pipeline, q.ExecutionID)
				}))
		}},
		{func() error {
			return common.RegisterHandler[ListExecutionsQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(ListExecutionsQuery)
					return s.ListExecutions(q.Pipeline, q.Limit)
				}))
		}},
		{func() error {
			return common.RegisterHandler[ListTriggerSpecsQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, _ common.Request) (common.Response, error) {
					return s.ListTriggerSpecs(), nil
				}))
		}},
		{func() error {
			return common.RegisterHandler[GetTriggerSettingsQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(GetTriggerSettingsQuery)
					return s.GetTriggerSettings(q.Key)
				}))
		}},
		{func() error {
			return common.RegisterHandler[UpdateTriggerSettingsCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					cmd := request.(UpdateTriggerSettingsCommand)
					return s.UpdateTriggerSettings(ctx, cmd.Key, cmd.Payload)
				}))
		}},
		{func() error {
			return common.RegisterHandler[GetConfigQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(GetConfigQuery)
					return s.GetConfig(q.Pipeline)
				}))
		}},
		{func() error {
			return common.RegisterHandler[UpdateConfigCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					cmd := request.(UpdateConfigCommand)
					return s.UpdateConfig(ctx, cmd.Pipeline, cmd.Process, cmd.Runtime)
				}))
		}},
		{func() error {
			return common.RegisterHandler[ListTaskFlowsQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(ListTaskFlowsQuery)
					return s.ListTaskFlows(q.Pipeline)
				}))
		}},
		{func() error {
			return common.RegisterHandler[UpdateTaskFlowsCommand](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					cmd := request.(UpdateTaskFlowsCommand)
					return s.UpdateTaskFlows(cmd.Pipeline, cmd.Flags)
				}))
		}},
		{func() error {
			return common.RegisterHandler[TriggerHistoryQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(TriggerHistoryQuery)
					return s.TriggerHistory(q.Pipeline, q.Limit)
				}))
		}},
		{func() error {
			return common.RegisterHandler[ListEventsQuery](s.mediator, common.HandlerFunc(
				func(ctx context.Context, request common.Request) (common.Response, error) {
					q := request.(ListEventsQuery)
					return s.Events(q.Limit), nil
				}))
		}},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return err
		}
	}
	return nil
}
