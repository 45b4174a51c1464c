package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repolens/internal/config"
	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/usecase"
)

func sampleResult() *domain.AnalysisResult {
	issues := []domain.Issue{
		{File: "a.js", Line: 2, Column: 1, Severity: domain.SeverityWarning, Message: "Unexpected console statement", RuleID: "no-console", Category: domain.CategoryLint, Source: "console.log(x);"},
		{File: "lib/b.js", Line: 1, Column: 7, Severity: domain.SeverityCritical, Message: "Hardcoded secret", RuleID: "hardcoded-secret", Category: domain.CategorySecurity, Source: domain.RedactedSource},
	}
	return &domain.AnalysisResult{
		Owner:        "octo",
		Repo:         "app",
		Branch:       "main",
		Language:     "javascript",
		Kind:         domain.KindAll,
		Files:        []string{"a.js", "lib/b.js", "c.js"},
		FilesScanned: 3,
		Issues:       issues,
		Summary:      usecase.Aggregate(issues),
		AnalyzedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Console(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "All Analysis")
	assert.Contains(t, out, "Repository: octo/app")
	assert.Contains(t, out, "Issues:     2 (1 errors, 1 warnings)")
	assert.Contains(t, out, "By Severity")
	assert.Contains(t, out, "Top Files")
	assert.Contains(t, out, "Top Rules")
	assert.Contains(t, out, "a.js:2:1")
	assert.Contains(t, out, "hardcoded-secret")

	severities := out[strings.Index(out, "By Severity"):]
	assert.Less(t, strings.Index(severities, "critical"), strings.Index(severities, "warning"))
}

func TestConsole_NoIssues(t *testing.T) {
	r := sampleResult()
	r.Issues = []domain.Issue{}
	r.Summary = usecase.Aggregate(nil)
	r.Truncated = true
	r.FilesFailed = 1

	var buf bytes.Buffer
	require.NoError(t, Console(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "3 scanned, 1 failed (limited)")
	assert.Contains(t, out, "No issues found.")
	assert.NotContains(t, out, "Top Files")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestConsole_WriteError(t *testing.T) {
	assert.EqualError(t, Console(failingWriter{}, sampleResult()), "disk full")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "octo", decoded["owner"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["analyzed_at"])

	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, map[string]any{"a.js": 1.0, "lib/b.js": 1.0}, summary["by_file"])

	issues := decoded["issues"].([]any)
	assert.Equal(t, "[REDACTED]", issues[1].(map[string]any)["source"])
}

func TestBatchConsole(t *testing.T) {
	results := []usecase.BatchResult{
		{Target: config.Target{Owner: "octo", Repo: "app"}, Result: sampleResult()},
		{Target: config.Target{Owner: "octo", Repo: "gone", Kind: "lint"}, Error: "failed to list repository root: 404 Not Found"},
	}

	var buf bytes.Buffer
	require.NoError(t, BatchConsole(&buf, results))

	out := buf.String()
	assert.Contains(t, out, "Batch Results")
	assert.Contains(t, out, "octo/app")
	assert.Contains(t, out, "failed: failed to list repository root: 404 Not Found")
	assert.Contains(t, out, "2 repositories, 1 failed, 2 issues")
}
