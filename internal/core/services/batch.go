package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/core/ports/driving"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Verify interface compliance.
var _ driving.BatchService = (*BatchRunner)(nil)

// BatchRunner runs independent workflows over a question set with a bounded
// worker pool and records one formatted result per question.
type BatchRunner struct {
	workflow    driving.WorkflowService
	formatter   *ResultFormatter
	sink        driven.ResultSink
	concurrency int
}

// NewBatchRunner creates a batch runner. Zero concurrency uses domain.DefaultBatchConcurrency.
func NewBatchRunner(
	workflow driving.WorkflowService, formatter *ResultFormatter, sink driven.ResultSink, concurrency int,
) *BatchRunner {
	if concurrency <= 0 {
		concurrency = domain.DefaultBatchConcurrency
	}
	return &BatchRunner{
		workflow:    workflow,
		formatter:   formatter,
		sink:        sink,
		concurrency: concurrency,
	}
}

// Run processes every question. A question whose run fails non-fatally is
// recorded as NoResult; a connectivity failure or cancellation aborts the batch.
func (b *BatchRunner) Run(ctx context.Context, questions []domain.Question) (driving.BatchSummary, error) {
	if b.workflow == nil {
		return driving.BatchSummary{}, errors.New("workflow service is required")
	}
	if b.sink == nil {
		return driving.BatchSummary{}, errors.New("result sink is required")
	}

	var (
		mu      sync.Mutex
		summary = driving.BatchSummary{Total: len(questions)}
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)

	for _, q := range questions {
		group.Go(func() error {
			outcome, formatted, err := b.runOne(groupCtx, q)
			if err != nil {
				return err
			}
			if err := b.sink.Append(groupCtx, q.ID, formatted); err != nil {
				return fmt.Errorf("record result %d: %w", q.ID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeAnswered:
				summary.Answered++
			case outcomeLowConfidence:
				summary.Answered++
				summary.LowConfidence++
			case outcomeFailed:
				summary.Failed++
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, err
	}
	logger.Info("Batch finished: %d answered (%d low confidence), %d failed of %d",
		summary.Answered, summary.LowConfidence, summary.Failed, summary.Total)
	return summary, nil
}

type batchOutcome int

const (
	outcomeAnswered batchOutcome = iota
	outcomeLowConfidence
	outcomeFailed
)

func (b *BatchRunner) runOne(ctx context.Context, q domain.Question) (batchOutcome, string, error) {
	result, err := b.workflow.RunWorkflow(ctx, q.Text, q.ID)
	if err != nil {
		if domain.IsFatal(err) || errors.Is(err, context.DeadlineExceeded) {
			return outcomeFailed, "", fmt.Errorf("question %d: %w", q.ID, err)
		}
		logger.Warn("Question %d failed, recording %s: %v", q.ID, NoResult, err)
		return outcomeFailed, NoResult, nil
	}

	formatted := b.formatter.Format(result.Results)
	logger.Debug("Question %d -> %s", q.ID, formatted)
	if result.LowConfidence {
		return outcomeLowConfidence, formatted, nil
	}
	return outcomeAnswered, formatted, nil
}
