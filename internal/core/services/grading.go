package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// GradingStage judges document relevance and answer grounding.
type GradingStage struct {
	judge       *StructuredJudge
	concurrency int
}

// NewGradingStage creates a grading stage. concurrency bounds parallel
// relevance calls; zero uses domain.DefaultGradingConcurrency.
func NewGradingStage(judge *StructuredJudge, concurrency int) *GradingStage {
	if concurrency <= 0 {
		concurrency = domain.DefaultGradingConcurrency
	}
	return &GradingStage{
		judge:       judge,
		concurrency: concurrency,
	}
}

// GradeDocuments keeps the documents judged relevant, in input order.
// rejected reports whether any document was dropped. A document whose
// judgment fails without a connectivity error counts as not relevant.
func (g *GradingStage) GradeDocuments(
	ctx context.Context, question string, docs []domain.Document,
) (kept []domain.Document, rejected bool, err error) {
	relevant := make([]bool, len(docs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for i := range docs {
		group.Go(func() error {
			ok, err := g.judge.Score(groupCtx, driven.PromptRelevanceGrader, map[string]string{
				"question": question,
				"document": docs[i].Format(),
			})
			if err != nil {
				if domain.IsFatal(err) {
					return err
				}
				logger.FromContext(ctx).Warn("Relevance grading failed for document %d, treating as not relevant: %v", i, err)
				return nil
			}
			relevant[i] = ok
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, false, err
	}

	kept = make([]domain.Document, 0, len(docs))
	for i, doc := range docs {
		if relevant[i] {
			kept = append(kept, doc)
		}
	}
	logger.FromContext(ctx).Info("Relevance grading kept %d of %d documents", len(kept), len(docs))
	return kept, len(kept) < len(docs), nil
}

// GradeGeneration checks grounding first and usefulness second.
// A failed grounding judgment counts as a hallucination and a failed
// usefulness judgment as not useful.
func (g *GradingStage) GradeGeneration(
	ctx context.Context, question string, docs []domain.Document, generation string,
) (domain.GenerationGrade, error) {
	grounded, err := g.judge.Score(ctx, driven.PromptHallucinationGrader, map[string]string{
		"documents":  domain.FormatDocuments(docs),
		"generation": generation,
	})
	if err != nil {
		if domain.IsFatal(err) {
			return domain.GradeNone, err
		}
		logger.FromContext(ctx).Warn("Grounding check failed, treating as hallucination: %v", err)
		return domain.GradeHallucination, nil
	}
	if !grounded {
		logger.FromContext(ctx).Info("Generation is not grounded in documents")
		return domain.GradeHallucination, nil
	}

	useful, err := g.judge.Score(ctx, driven.PromptAnswerGrader, map[string]string{
		"question":   question,
		"generation": generation,
	})
	if err != nil {
		if domain.IsFatal(err) {
			return domain.GradeNone, err
		}
		logger.FromContext(ctx).Warn("Usefulness check failed, treating as not useful: %v", err)
		return domain.GradeNotUseful, nil
	}
	if !useful {
		logger.FromContext(ctx).Info("Generation does not address the question")
		return domain.GradeNotUseful, nil
	}
	return domain.GradeUseful, nil
}
