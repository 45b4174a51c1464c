package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/naka-gawa/repolens/internal/config"
	"github.com/naka-gawa/repolens/internal/domain"
)

// BatchResult is the outcome of analyzing one batch target.
type BatchResult struct {
	Target config.Target          `json:"target"`
	Result *domain.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// AnalyzerFactory builds the analyzer used for one kind of analysis.
type AnalyzerFactory func(kind domain.Kind) *Analyzer

// BatchRunner analyzes several repositories one after another.
type BatchRunner struct {
	newAnalyzer AnalyzerFactory
	defaultKind domain.Kind
	logger      *log.Logger
}

// NewBatchRunner creates a new BatchRunner. Targets without a kind use defaultKind.
func NewBatchRunner(factory AnalyzerFactory, defaultKind domain.Kind, logger *log.Logger) *BatchRunner {
	return &BatchRunner{
		newAnalyzer: factory,
		defaultKind: defaultKind,
		logger:      logger,
	}
}

// Run analyzes every target in order. A failing target is recorded and the
// run continues; only a cancelled context stops it early.
func (b *BatchRunner) Run(ctx context.Context, targets []config.Target) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		b.logger.Printf("Batch: [%d/%d] %s/%s\n", i+1, len(targets), t.Owner, t.Repo)

		br := BatchResult{Target: t}
		kind := b.defaultKind
		if t.Kind != "" {
			k, ok := domain.ParseKind(t.Kind)
			if !ok {
				br.Error = fmt.Sprintf("unknown analysis kind %q", t.Kind)
				results = append(results, br)
				continue
			}
			kind = k
		}

		result, err := b.newAnalyzer(kind).AnalyzeRepository(ctx, t.Owner, t.Repo, t.Branch)
		if err != nil {
			b.logger.Printf("  Failed to analyze %s/%s: %v\n", t.Owner, t.Repo, err)
			br.Error = err.Error()
		} else {
			br.Result = result
		}
		results = append(results, br)
	}
	return results, nil
}

// Failed counts the targets that produced no result.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Result == nil {
			n++
		}
	}
	return n
}
