// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/ratelimit"
)

// DefaultMaxRateLimitWait bounds how long a rate-limited request waits before its single retry.
const DefaultMaxRateLimitWait = 5 * time.Minute

// ErrRateLimited is returned without sending a request when the rate-limit
// budget frees up later than the configured maximum wait.
var ErrRateLimited = errors.New("rate limit budget exhausted")

// Fetcher defines the behavior of a gateway for fetching repository data from GitHub.
type Fetcher interface {
	ListDirectory(ctx context.Context, owner, repo, ref, path string) ([]domain.Entry, error)
	FetchFileContent(ctx context.Context, owner, repo, ref, path string) (string, error)
	FetchRepository(ctx context.Context, owner, repo string) (*domain.RepoInfo, error)
	FetchCheckAnnotations(ctx context.Context, owner, repo, ref string) ([]domain.Annotation, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	limiter       *ratelimit.Limiter
	maxWait       time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *log.Logger
}

// Options tunes a GitHubGateway.
type Options struct {
	// Limiter is shared by every REST call of the gateway. Nil uses ratelimit.DefaultConfig.
	Limiter *ratelimit.Limiter
	// MaxRateLimitWait bounds the wait before retrying a rate-limited call. Zero uses DefaultMaxRateLimitWait.
	MaxRateLimitWait time.Duration
}

// repositoryQuery resolves the default branch and language of a repository.
type repositoryQuery struct {
	Repository struct {
		NameWithOwner    string
		DefaultBranchRef struct {
			Name string
		}
		PrimaryLanguage struct {
			Name string
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger, opts Options) (*GitHubGateway, error) {
	maxWait := opts.MaxRateLimitWait
	if maxWait <= 0 {
		maxWait = DefaultMaxRateLimitWait
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(maxWait, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return newGateway(github.NewClient(httpClient), githubv4.NewClient(httpClient), logger, opts), nil
}

func newGateway(restClient *github.Client, graphqlClient *githubv4.Client, logger *log.Logger, opts Options) *GitHubGateway {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	maxWait := opts.MaxRateLimitWait
	if maxWait <= 0 {
		maxWait = DefaultMaxRateLimitWait
	}
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		limiter:       limiter,
		maxWait:       maxWait,
		sleep:         ratelimit.Sleep,
		logger:        logger,
	}
}

// ListDirectory lists one directory of the repository at ref.
func (g *GitHubGateway) ListDirectory(ctx context.Context, owner, repo, ref, path string) ([]domain.Entry, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	var dir []*github.RepositoryContent
	err := g.do(ctx, func(ctx context.Context) (*github.Response, error) {
		file, d, resp, err := g.restClient.Repositories.GetContents(ctx, owner, repo, path, opts)
		if err == nil && file != nil {
			return resp, fmt.Errorf("path %q is a file, not a directory", path)
		}
		dir = d
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %q: %w", path, err)
	}

	entries := make([]domain.Entry, 0, len(dir))
	for _, c := range dir {
		entries = append(entries, domain.Entry{
			Name: c.GetName(),
			Path: c.GetPath(),
			Type: c.GetType(),
			Size: c.GetSize(),
		})
	}
	return entries, nil
}

// FetchFileContent returns the decoded content of a single file at ref.
func (g *GitHubGateway) FetchFileContent(ctx context.Context, owner, repo, ref, path string) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	var file *github.RepositoryContent
	err := g.do(ctx, func(ctx context.Context) (*github.Response, error) {
		f, _, resp, err := g.restClient.Repositories.GetContents(ctx, owner, repo, path, opts)
		if err == nil && f == nil {
			return resp, fmt.Errorf("path %q is a directory, not a file", path)
		}
		file = f
		return resp, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch file %q: %w", path, err)
	}

	// Files over 1 MB come back without content.
	if file.GetEncoding() == "none" {
		return g.downloadFile(ctx, owner, repo, ref, path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode file %q: %w", path, err)
	}
	return content, nil
}

func (g *GitHubGateway) downloadFile(ctx context.Context, owner, repo, ref, path string) (string, error) {
	g.logger.Printf("  Downloading large file %s...\n", path)
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	var body io.ReadCloser
	err := g.do(ctx, func(ctx context.Context) (*github.Response, error) {
		rc, resp, err := g.restClient.Repositories.DownloadContents(ctx, owner, repo, path, opts)
		body = rc
		return resp, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to download file %q: %w", path, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return string(data), nil
}

// FetchRepository resolves repository metadata using the GraphQL API.
func (g *GitHubGateway) FetchRepository(ctx context.Context, owner, repo string) (*domain.RepoInfo, error) {
	g.logger.Printf("Resolving repository metadata for %s/%s...\n", owner, repo)
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(repo),
	}
	if err := g.reserve(ctx); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repository: %w", err)
	}

	var q repositoryQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repository: %w", err)
	}
	return &domain.RepoInfo{
		NameWithOwner:   q.Repository.NameWithOwner,
		DefaultBranch:   q.Repository.DefaultBranchRef.Name,
		PrimaryLanguage: q.Repository.PrimaryLanguage.Name,
	}, nil
}

// FetchCheckAnnotations collects the annotations of every check run on ref.
func (g *GitHubGateway) FetchCheckAnnotations(ctx context.Context, owner, repo, ref string) ([]domain.Annotation, error) {
	g.logger.Printf("Fetching check runs for %s/%s@%s...\n", owner, repo, ref)
	opts := &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var runs []*github.CheckRun
	for {
		var result *github.ListCheckRunsResults
		var nextPage int
		err := g.do(ctx, func(ctx context.Context) (*github.Response, error) {
			r, resp, err := g.restClient.Checks.ListCheckRunsForRef(ctx, owner, repo, ref, opts)
			result = r
			if resp != nil {
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs: %w", err)
		}
		if result != nil {
			runs = append(runs, result.CheckRuns...)
		}
		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
		g.logger.Println("  Fetching next page of check runs...")
	}

	var annotations []domain.Annotation
	for _, run := range runs {
		if run.GetOutput().GetAnnotationsCount() == 0 {
			continue
		}
		listOpts := &github.ListOptions{PerPage: 100}
		for {
			var page []*github.CheckRunAnnotation
			var nextPage int
			err := g.do(ctx, func(ctx context.Context) (*github.Response, error) {
				a, resp, err := g.restClient.Checks.ListCheckRunAnnotations(ctx, owner, repo, run.GetID(), listOpts)
				page = a
				if resp != nil {
					nextPage = resp.NextPage
				}
				return resp, err
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list annotations for check run %d: %w", run.GetID(), err)
			}
			for _, a := range page {
				annotations = append(annotations, domain.Annotation{
					CheckName: run.GetName(),
					Path:      a.GetPath(),
					StartLine: a.GetStartLine(),
					Column:    a.GetStartColumn(),
					Level:     a.GetAnnotationLevel(),
					Title:     a.GetTitle(),
					Message:   a.GetMessage(),
				})
			}
			if nextPage == 0 {
				break
			}
			listOpts.Page = nextPage
		}
	}
	g.logger.Printf("Completed fetching %d check annotations.\n", len(annotations))
	return annotations, nil
}

// do runs one REST call under the limiter. A primary rate-limit rejection is
// retried exactly once, after waiting for the reported reset.
func (g *GitHubGateway) do(ctx context.Context, call func(ctx context.Context) (*github.Response, error)) error {
	err := g.attempt(ctx, call)

	var rateErr *github.RateLimitError
	if !errors.As(err, &rateErr) {
		return err
	}
	wait := time.Until(rateErr.Rate.Reset.Time)
	if wait > g.maxWait {
		return fmt.Errorf("rate limit resets in %s, longer than the %s limit: %w", wait.Round(time.Second), g.maxWait, err)
	}
	if wait > 0 {
		g.logger.Printf("  Rate limited, retrying in %s...\n", wait.Round(time.Second))
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return g.attempt(ctx, call)
}

func (g *GitHubGateway) attempt(ctx context.Context, call func(ctx context.Context) (*github.Response, error)) error {
	if err := g.reserve(ctx); err != nil {
		return err
	}
	resp, err := call(ctx)
	if resp != nil {
		g.limiter.ApplyServerFeedback(resp.Rate.Limit, resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
	return err
}

// reserve waits for a limiter slot and consumes it. A slot further away than
// maxWait fails immediately with ErrRateLimited.
func (g *GitHubGateway) reserve(ctx context.Context) error {
	if wait := g.limiter.TimeUntilNextSlot(); wait > g.maxWait {
		return fmt.Errorf("rate limit resets in %s, longer than the %s limit: %w", wait.Round(time.Second), g.maxWait, ErrRateLimited)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	g.limiter.RecordRequest()
	return nil
}
