package polymarket

import (
	"context"
	"fmt"

	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/pipeline"
	"github.com/guidryheal-create/trader.exe-sub001/internal/domain/ports"
	"github.com/guidryheal-create/trader.exe-sub001/pkg/utils"
)

// TaskSummaryBudget is the byte budget for workforce results embedded in
// task documents.
const TaskSummaryBudget = 1500

func (m *Manager) taskSpecs() []*pipeline.TaskSpec {
	return []*pipeline.TaskSpec{
		{
			TaskID:        "batch_orchestration",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			TriggerTypes:  []string{"market_batch"},
			SchedulerType: pipeline.SchedulerInterval,
			Description:   "Market-fetch, analysis and decision tree over candidate markets",
			Executor:      m.runBatchOrchestration,
		},
	}
}

// runBatchOrchestration builds the market-fetch → analysis → decision tree
// and submits it to the workforce. When the daily trade limit is exhausted
// the decision subtree runs with execution disabled but the task still
// completes.
func (m *Manager) runBatchOrchestration(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
	mode := common.StringValue(input, "mode", "interval")
	reason := common.StringValue(input, "reason", "")
	executionID := common.StringValue(input, "execution_id", "")
	executionEnabled := common.BoolValue(input, "execution_enabled", true)
	candidates, _ := input["candidates"].([]map[string]interface{})

	if executionID != "" {
		m.tracker.SetStage(executionID, "building_tree")
	}

	tree := buildBatchTree(mode, reason, candidates, executionEnabled)

	if executionID != "" {
		m.tracker.SetStage(executionID, "workforce_submitted")
	}

	result, ok, err := ports.SubmitToWorkforce(ctx, m.ensureWorkforce(), tree)
	if err != nil {
		return nil, fmt.Errorf("workforce submission: %w", err)
	}
	if !ok {
		return pipeline.Document{
			"status": pipeline.StatusSkipped,
			"reason": "workforce_no_method",
		}, nil
	}

	doc := pipeline.Document{
		"status":            pipeline.StatusCompleted,
		"mode":              mode,
		"reason":            reason,
		"candidates":        len(candidates),
		"execution_enabled": executionEnabled,
		"summary":           utils.SummarizeDocument(result, TaskSummaryBudget),
	}
	if m.store != nil {
		if err := m.store.PushTaskHistory(ctx, doc); err != nil {
			m.emit("WARN", fmt.Sprintf("Task history persistence failed: %v", err), nil)
		}
	}
	return doc, nil
}

// buildBatchTree chains market_fetch → analysis → decision. The decision
// node type encodes whether trade execution is allowed for this batch.
func buildBatchTree(mode, reason string, candidates []map[string]interface{}, executionEnabled bool) *ports.TaskTree {
	runID := utils.GenerateRunID("batch")

	decisionType := "decision_execution_enabled"
	if !executionEnabled {
		decisionType = "decision_execution_disabled"
	}

	fetchID := runID + ":market_fetch"
	analysisID := runID + ":analysis"
	decisionID := runID + ":decision"

	nodes := []ports.TaskNode{
		{
			ID:      runID,
			Content: fmt.Sprintf("Run one %s prediction-market batch (%s)", mode, reason),
			Type:    "batch_root",
			AdditionalInfo: map[string]interface{}{
				"mode":              mode,
				"reason":            reason,
				"execution_enabled": executionEnabled,
			},
		},
		{
			ID:      fetchID,
			Content: "Summarize the candidate market set",
			Type:    "market_fetch",
			AdditionalInfo: map[string]interface{}{
				"candidates": candidates,
			},
		},
		{
			ID:        analysisID,
			Content:   "Analyze candidate markets for tradable signals",
			Type:      "analysis",
			DependsOn: []string{fetchID},
		},
		{
			ID:        decisionID,
			Content:   "Decide which markets, if any, to trade",
			Type:      decisionType,
			DependsOn: []string{analysisID},
		},
	}

	return &ports.TaskTree{
		Root:  runID,
		Nodes: nodes,
		Layout: []ports.TreeEdge{
			{Parent: runID, Child: fetchID},
			{Parent: runID, Child: analysisID},
			{Parent: runID, Child: decisionID},
		},
	}
}
