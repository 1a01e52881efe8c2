package dex

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

// cycleStages are the sub-stages of one full trader cycle, in dependency
// order. strategy_hint is appended only when the hint interval has elapsed.
var cycleStages = []string{
	"wallet_review",
	"token_exploration",
	"news_sentiment",
	"trend_analysis",
	"decision_gateway",
	"position_update_review",
	"auto_enhancement",
}

func (m *Manager) taskSpecs() []*pipeline.TaskSpec {
	return []*pipeline.TaskSpec{
		{
			TaskID:        "cycle_pipeline",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			TriggerTypes:  []string{"cycle", "watchlist_global_roi_trigger"},
			SchedulerType: pipeline.SchedulerInterval,
			Description:   "Full trader cycle: staged analysis tree submitted to the workforce",
			Executor:      m.runCyclePipeline,
		},
		{
			TaskID:        "watchlist_review_pipeline",
			Pipeline:      PipelineName,
			SystemName:    SystemName,
			TriggerTypes:  []string{"watchlist_review"},
			SchedulerType: pipeline.SchedulerEvent,
			Dependencies:  nil,
			Description:   "Wallet and position review without trade execution",
			Executor:      m.runWatchlistReviewPipeline,
		},
	}
}

// runCyclePipeline builds the staged analysis tree and submits it to the
// workforce. An execution_id in the input threads stage markers through the
// tracker.
func (m *Manager) runCyclePipeline(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
	mode := common.StringValue(input, "mode", "long_study")
	reason := common.StringValue(input, "reason", "")
	executionID := common.StringValue(input, "execution_id", "")

	if executionID != "" {
		m.tracker.SetStage(executionID, "building_tree")
	}

	review := m.walletReview(ctx, m.walletAddress)
	tree := m.buildCycleTree(mode, reason, review)

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

	if executionID != "" {
		m.tracker.SetStage(executionID, "result_received")
	}

	doc := pipeline.Document{
		"status":  pipeline.StatusCompleted,
		"mode":    mode,
		"reason":  reason,
		"stages":  len(tree.Nodes),
		"summary": utils.SummarizeDocument(result, TaskSummaryBudget),
	}
	if m.store != nil {
		if err := m.store.PushTaskHistory(ctx, doc); err != nil {
			m.emit("WARN", fmt.Sprintf("Task history persistence failed: %v", err), nil)
		}
	}
	return doc, nil
}

// buildCycleTree chains the cycle stages into a flat task tree referenced
// by id. Wallet feedback rides along as additional info on the root.
func (m *Manager) buildCycleTree(mode, reason string, walletReview map[string]interface{}) *ports.TaskTree {
	runID := utils.GenerateRunID("cycle")
	stages := cycleStages
	if m.strategyHintDue() {
		stages = append(append([]string{}, cycleStages...), "strategy_hint")
	}

	root := ports.TaskNode{
		ID:      runID,
		Content: fmt.Sprintf("Run one %s trader cycle (%s)", mode, reason),
		Type:    "cycle_root",
		AdditionalInfo: map[string]interface{}{
			"mode":           mode,
			"reason":         reason,
			"wallet_address": m.walletAddress,
			"wallet_review":  walletReview,
		},
	}

	nodes := []ports.TaskNode{root}
	layout := make([]ports.TreeEdge, 0, len(stages))
	prev := ""
	for _, stage := range stages {
		node := ports.TaskNode{
			ID:      runID + ":" + stage,
			Content: fmt.Sprintf("Cycle stage %s", stage),
			Type:    stage,
		}
		if prev != "" {
			node.DependsOn = []string{prev}
		}
		nodes = append(nodes, node)
		layout = append(layout, ports.TreeEdge{Parent: runID, Child: node.ID})
		prev = node.ID
	}

	return &ports.TaskTree{
		Root:   runID,
		Nodes:  nodes,
		Layout: layout,
	}
}

// runWatchlistReviewPipeline runs wallet and position review and submits a
// single workforce task, without trade execution.
func (m *Manager) runWatchlistReviewPipeline(ctx context.Context, input pipeline.Document) (pipeline.Document, error) {
	mode := common.StringValue(input, "mode", "fast_decision")
	reason := common.StringValue(input, "reason", "")

	var positions []map[string]interface{}
	if m.watchlist != nil {
		var err error
		positions, err = m.watchlist.ListPositions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list watchlist positions: %w", err)
		}
	}
	review := m.walletReview(ctx, m.walletAddress)

	runID := utils.GenerateRunID("watchlist-review")
	tree := &ports.TaskTree{
		Root: runID,
		Nodes: []ports.TaskNode{{
			ID:      runID,
			Content: fmt.Sprintf("Review watchlist positions in %s mode (%s)", mode, reason),
			Type:    "watchlist_review",
			AdditionalInfo: map[string]interface{}{
				"mode":          mode,
				"reason":        reason,
				"positions":     positions,
				"wallet_review": review,
			},
		}},
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

	return pipeline.Document{
		"status":    pipeline.StatusCompleted,
		"mode":      mode,
		"reason":    reason,
		"positions": len(positions),
		"summary":   utils.SummarizeDocument(result, TaskSummaryBudget),
	}, nil
}
