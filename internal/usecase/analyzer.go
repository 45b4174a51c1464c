package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repolens/internal/crawler"
	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/gateway"
	"github.com/naka-gawa/repolens/internal/scanner"
)

// DefaultMaxFiles bounds how many files one analysis fetches.
const DefaultMaxFiles = 100

// Analyzer is the use case for analyzing one repository.
// It orchestrates crawling, scanning and aggregation.
type Analyzer struct {
	fetcher     gateway.Fetcher
	crawler     *crawler.Crawler
	scanner     *scanner.Scanner
	logger      *log.Logger
	kind        domain.Kind
	maxFiles    int
	concurrency int
	ciChecks    bool
	now         func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithKind selects the rule tables. The default is domain.KindAll.
func WithKind(kind domain.Kind) Option {
	return func(a *Analyzer) { a.kind = kind }
}

// WithScanner replaces the scanner built from the kind, e.g. one with rule overrides applied.
func WithScanner(s *scanner.Scanner) Option {
	return func(a *Analyzer) { a.scanner = s }
}

// WithMaxFiles bounds the number of crawled files that get fetched. Zero means no bound.
func WithMaxFiles(n int) Option {
	return func(a *Analyzer) { a.maxFiles = n }
}

// WithConcurrency sets how many files are fetched at once. 1 is strictly sequential.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n < 1 {
			n = 1
		}
		a.concurrency = n
	}
}

// WithCIChecks merges type errors reported by CI check-run annotations into type analyses.
func WithCIChecks(enabled bool) Option {
	return func(a *Analyzer) { a.ciChecks = enabled }
}

// WithCrawlerOptions configures the repository crawler.
func WithCrawlerOptions(opts ...crawler.Option) Option {
	return func(a *Analyzer) {
		a.crawler = crawler.New(a.fetcher, a.logger, opts...)
	}
}

// WithClock replaces the time source used for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher gateway.Fetcher, logger *log.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:     fetcher,
		logger:      logger,
		kind:        domain.KindAll,
		maxFiles:    DefaultMaxFiles,
		concurrency: 1,
		now:         time.Now,
	}
	a.crawler = crawler.New(fetcher, logger)
	for _, opt := range opts {
		opt(a)
	}
	if a.scanner == nil {
		a.scanner = scanner.ForKind(a.kind)
	}
	return a
}

// AnalyzeRepository performs the main business logic: resolve the branch,
// detect the language, crawl, scan every file, and aggregate.
func (a *Analyzer) AnalyzeRepository(ctx context.Context, owner, repo, branch string) (*domain.AnalysisResult, error) {
	a.logger.Printf("Usecase: Starting %s analysis of %s/%s...\n", a.kind, owner, repo)

	if branch == "" {
		a.logger.Println("[1/5] Resolving default branch...")
		info, err := a.fetcher.FetchRepository(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default branch: %w", err)
		}
		branch = info.DefaultBranch
	}

	a.logger.Println("[2/5] Detecting language...")
	root, err := a.fetcher.ListDirectory(ctx, owner, repo, branch, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list repository root: %w", err)
	}
	lang := DetectLanguage(root)
	a.logger.Printf("  Detected language: %s\n", lang.Name)

	a.logger.Println("[3/5] Crawling repository tree...")
	files := a.crawler.ListFilesFrom(ctx, owner, repo, branch, root, crawlExtensions(a.kind, lang))
	truncated := false
	if a.maxFiles > 0 && len(files) > a.maxFiles {
		a.logger.Printf("  Found %d files, limiting to %d.\n", len(files), a.maxFiles)
		files = files[:a.maxFiles]
		truncated = true
	}

	a.logger.Printf("[4/5] Scanning %d files...\n", len(files))
	issues, failed := a.scanFiles(ctx, owner, repo, branch, files)

	if a.ciChecks && a.kind == domain.KindTypes {
		issues = append(issues, a.ciIssues(ctx, owner, repo, branch, files)...)
	}

	a.logger.Println("[5/5] Aggregating results...")
	result := &domain.AnalysisResult{
		Owner:        owner,
		Repo:         repo,
		Branch:       branch,
		Language:     lang.Name,
		Kind:         a.kind,
		Files:        files,
		FilesScanned: len(files) - failed,
		FilesFailed:  failed,
		Truncated:    truncated,
		Issues:       issues,
		Summary:      Aggregate(issues),
		AnalyzedAt:   a.now(),
	}
	if result.Issues == nil {
		result.Issues = []domain.Issue{}
	}
	a.logger.Println("Usecase: Analysis complete.")
	return result, nil
}

// scanFiles returns the issues of every file in traversal order. A file that
// cannot be fetched contributes no issues and is counted as failed.
func (a *Analyzer) scanFiles(ctx context.Context, owner, repo, ref string, files []string) ([]domain.Issue, int) {
	perFile := make([][]domain.Issue, len(files))
	ok := make([]bool, len(files))

	if a.concurrency <= 1 {
		for i, path := range files {
			perFile[i], ok[i] = a.scanFile(ctx, owner, repo, ref, path)
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(a.concurrency)
		for i, path := range files {
			i, path := i, path
			eg.Go(func() error {
				perFile[i], ok[i] = a.scanFile(ctx, owner, repo, ref, path)
				return nil
			})
		}
		_ = eg.Wait()
	}

	var issues []domain.Issue
	failed := 0
	for i := range files {
		if !ok[i] {
			failed++
		}
		issues = append(issues, perFile[i]...)
	}
	return issues, failed
}

func (a *Analyzer) scanFile(ctx context.Context, owner, repo, ref, path string) ([]domain.Issue, bool) {
	content, err := a.fetcher.FetchFileContent(ctx, owner, repo, ref, path)
	if err != nil {
		a.logger.Printf("  Failed to scan %s: %v\n", path, err)
		return nil, false
	}
	return a.scanner.Scan(path, content), true
}

func (a *Analyzer) ciIssues(ctx context.Context, owner, repo, ref string, files []string) []domain.Issue {
	annotations, err := a.fetcher.FetchCheckAnnotations(ctx, owner, repo, ref)
	if err != nil {
		a.logger.Printf("  Skipping CI annotations: %v\n", err)
		return nil
	}
	crawled := make(map[string]bool, len(files))
	for _, f := range files {
		crawled[f] = true
	}
	issues, dropped := annotationIssues(annotations, crawled)
	if dropped > 0 {
		a.logger.Printf("  Ignored %d CI type errors on files outside this analysis.\n", dropped)
	}
	return issues
}
