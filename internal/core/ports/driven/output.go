package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// DishCatalog maps dish names to dataset identifiers.
type DishCatalog interface {
	// Lookup returns the id for a dish name, matched case-insensitively.
	Lookup(name string) (int, bool)
}

// ResultSink collects formatted batch results.
type ResultSink interface {
	// Append records the result for one question.
	Append(ctx context.Context, questionID int, result string) error

	// Close flushes and releases resources.
	Close() error
}

// WorkflowObserver receives workflow telemetry. This is an optional service.
type WorkflowObserver interface {
	// ObserveStage records one executed stage.
	ObserveStage(stage domain.Stage, elapsed time.Duration)

	// ObserveJudgment records one structured call and its failure, if any.
	ObserveJudgment(prompt string, err error)

	// ObserveRun records a finished run.
	ObserveRun(result domain.WorkflowResult, elapsed time.Duration, err error)
}
