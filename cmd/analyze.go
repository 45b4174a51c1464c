package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repolens/internal/config"
	"github.com/naka-gawa/repolens/internal/crawler"
	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/gateway"
	"github.com/naka-gawa/repolens/internal/ratelimit"
	"github.com/naka-gawa/repolens/internal/report"
	"github.com/naka-gawa/repolens/internal/scanner"
	"github.com/naka-gawa/repolens/internal/usecase"
)

// errCriticalIssues makes the security command exit non-zero after printing its report.
var errCriticalIssues = errors.New("critical security issues found")

var (
	lintCmd = newAnalyzeCmd(domain.KindLint,
		"lint",
		"Runs style checks over a repository",
		`Crawls the repository and reports console/print statements, debugger
statements, trailing whitespace and var declarations.`)
	securityCmd = newAnalyzeCmd(domain.KindSecurity,
		"security",
		"Scans a repository for security issues",
		`Crawls the repository, including .env, YAML and key files, and reports
injection patterns, hardcoded secrets, weak randomness, eval and plain HTTP
URLs. Exits with status 1 when a critical issue is found.`)
	typesCmd = newAnalyzeCmd(domain.KindTypes,
		"types",
		"Checks TypeScript files for type-safety issues",
		`Crawls .ts and .tsx files and reports explicit any, untyped parameters and
non-null assertions. With --ci-checks, type errors reported by the CI
check runs of the branch are merged in.`)
	analyzeCmd = newAnalyzeCmd(domain.KindAll,
		"analyze",
		"Runs every rule table over a repository",
		`Runs the lint, security and type rules in one pass and prints a combined
summary per file, rule and severity.`)
)

func newAnalyzeCmd(kind domain.Kind, use, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, kind)
		},
	}
	cmd.Flags().StringP("owner", "o", "", "Repository owner (required)")
	cmd.Flags().StringP("repo", "r", "", "Repository name (required)")
	cmd.Flags().StringP("branch", "b", "", "Branch, tag or commit to analyze (default is the default branch)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	addCommonFlags(cmd)
	if kind == domain.KindTypes {
		cmd.Flags().Bool("ci-checks", false, "Merge type errors from CI check-run annotations")
	}
	return cmd
}

// addCommonFlags registers the flags shared by every analysis command.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("token", "", "GitHub token (default is $GITHUB_TOKEN)")
	cmd.Flags().Int("max-files", usecase.DefaultMaxFiles, "Maximum number of files to scan, 0 for no limit")
	cmd.Flags().Int("concurrency", 1, "Number of files fetched at once")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
}

func init() {
	rootCmd.AddCommand(lintCmd, securityCmd, typesCmd, analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, kind domain.Kind) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	factory, err := newAnalyzerFactory(cmd, cfg, logger)
	if err != nil {
		return err
	}

	owner, _ := cmd.Flags().GetString("owner")
	repo, _ := cmd.Flags().GetString("repo")
	branch, _ := cmd.Flags().GetString("branch")

	result, err := factory(kind).AnalyzeRepository(ctx, owner, repo, branch)
	if err != nil {
		return fmt.Errorf("failed to analyze %s/%s: %w", owner, repo, err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		err = report.JSON(cmd.OutOrStdout(), result)
	} else {
		err = report.Console(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return err
	}

	if kind == domain.KindSecurity && result.HasCritical() {
		return errCriticalIssues
	}
	return nil
}

// loadConfig binds the flags of the running command to Viper and checks the
// settings needed before any network call.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	for key, flag := range map[string]string{
		"github.token":         "token",
		"analysis.max_files":   "max-files",
		"analysis.concurrency": "concurrency",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAnalyzerFactory wires the gateway, rate limiter and scanner settings
// shared by every analysis of one command invocation.
func newAnalyzerFactory(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) (usecase.AnalyzerFactory, error) {
	overrides, err := config.LoadRuleOverrides(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
		MinInterval: cfg.RateLimit.MinInterval,
	})
	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub.Token, logger, gateway.Options{
		Limiter:          limiter,
		MaxRateLimitWait: cfg.RateLimit.MaxWait,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	// Missing flag means the command has no CI integration.
	ciChecks, _ := cmd.Flags().GetBool("ci-checks")

	for _, w := range scanner.ForKind(domain.KindAll).ApplyOverrides(overrides) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}

	return func(kind domain.Kind) *usecase.Analyzer {
		s := scanner.ForKind(kind)
		s.ApplyOverrides(overrides)

		return usecase.NewAnalyzer(githubGateway, logger,
			usecase.WithKind(kind),
			usecase.WithScanner(s),
			usecase.WithMaxFiles(cfg.Analysis.MaxFiles),
			usecase.WithConcurrency(cfg.Analysis.Concurrency),
			usecase.WithCIChecks(ciChecks),
			usecase.WithCrawlerOptions(crawler.WithSkipDirs(cfg.Analysis.SkipDirs...)),
		)
	}, nil
}
