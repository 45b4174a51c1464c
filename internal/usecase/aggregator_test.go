package usecase

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/naka-gawa/repolens/internal/domain"
)

func issue(file, rule string, sev domain.Severity) domain.Issue {
	return domain.Issue{File: file, Line: 1, Column: 1, RuleID: rule, Severity: sev, Category: domain.CategoryLint}
}

// TestAggregate uses a table-driven approach to test the aggregation.
func TestAggregate(t *testing.T) {
	testCases := []struct {
		name     string
		issues   []domain.Issue
		expected domain.Summary
	}{
		{
			name:   "empty input",
			issues: nil,
			expected: domain.Summary{
				ByFile:     map[string]int{},
				ByRule:     map[string]int{},
				BySeverity: map[domain.Severity]int{},
				ByCategory: map[domain.Category]int{},
				TopFiles:   []domain.Count{},
				TopRules:   []domain.Count{},
			},
		},
		{
			name: "counts by file, rule, severity and category",
			issues: []domain.Issue{
				issue("a.js", "no-console", domain.SeverityWarning),
				issue("b.js", "no-debugger", domain.SeverityError),
				issue("b.js", "no-console", domain.SeverityWarning),
				issue("b.js", "no-console", domain.SeverityWarning),
			},
			expected: domain.Summary{
				TotalIssues:   4,
				TotalErrors:   1,
				TotalWarnings: 3,
				ByFile:        map[string]int{"a.js": 1, "b.js": 3},
				ByRule:        map[string]int{"no-console": 3, "no-debugger": 1},
				BySeverity:    map[domain.Severity]int{domain.SeverityWarning: 3, domain.SeverityError: 1},
				ByCategory:    map[domain.Category]int{domain.CategoryLint: 4},
				TopFiles:      []domain.Count{{Key: "b.js", Count: 3}, {Key: "a.js", Count: 1}},
				TopRules:      []domain.Count{{Key: "no-console", Count: 3}, {Key: "no-debugger", Count: 1}},
				Distribution:  domain.Distribution{Mean: 2, Median: 2, P90: 2, Max: 3},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Aggregate(tc.issues)

			// The percentile interpolation is a library detail; only bound it.
			if tc.expected.TotalIssues > 0 {
				assert.LessOrEqual(t, summary.Distribution.P90, summary.Distribution.Max)
				assert.GreaterOrEqual(t, summary.Distribution.P90, 1.0)
				summary.Distribution.P90 = tc.expected.Distribution.P90
			}
			assert.Equal(t, tc.expected, summary)
		})
	}
}

func TestAggregate_SecurityTotals(t *testing.T) {
	summary := Aggregate([]domain.Issue{
		issue("a.js", "hardcoded-secret", domain.SeverityCritical),
		issue("a.js", "eval", domain.SeverityHigh),
		issue("a.js", "weak-random", domain.SeverityMedium),
		issue("a.js", "insecure-http", domain.SeverityLow),
	})

	assert.Equal(t, 2, summary.TotalErrors)
	assert.Equal(t, 1, summary.TotalWarnings)
	assert.Equal(t, 4, summary.TotalIssues)
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	issues := []domain.Issue{
		issue("z.js", "r1", domain.SeverityInfo),
		issue("m.js", "r2", domain.SeverityInfo),
		issue("a.js", "r3", domain.SeverityInfo),
		issue("m.js", "r2", domain.SeverityInfo),
	}

	for i := 0; i < 20; i++ {
		summary := Aggregate(issues)
		assert.Equal(t, []domain.Count{{Key: "m.js", Count: 2}, {Key: "z.js", Count: 1}, {Key: "a.js", Count: 1}}, summary.TopFiles)
		assert.Equal(t, []domain.Count{{Key: "r2", Count: 2}, {Key: "r1", Count: 1}, {Key: "r3", Count: 1}}, summary.TopRules)
	}
}

func TestTop(t *testing.T) {
	ranking := []domain.Count{{Key: "a", Count: 3}, {Key: "b", Count: 2}, {Key: "c", Count: 1}}

	assert.Equal(t, ranking[:2], Top(ranking, 2))
	assert.Equal(t, ranking, Top(ranking, 10))
	assert.Equal(t, ranking, Top(ranking, 0))
}

// genIssue builds issues from a small alphabet so that keys collide often.
func genIssue() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("a.js", "b.ts", "c.py", "d.go"),
		gen.OneConstOf("no-console", "eval", "no-var"),
		gen.OneConstOf(
			domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow,
			domain.SeverityError, domain.SeverityWarning, domain.SeverityInfo,
		),
	).Map(func(values []interface{}) domain.Issue {
		return issue(values[0].(string), values[1].(string), values[2].(domain.Severity))
	})
}

// TestAggregateProperties tests invariant properties of the aggregation.
func TestAggregateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("severity totals sum to the number of issues", prop.ForAll(
		func(issues []domain.Issue) bool {
			summary := Aggregate(issues)
			total := 0
			for _, c := range summary.BySeverity {
				total += c
			}
			return total == len(issues) && summary.TotalIssues == len(issues)
		},
		gen.SliceOf(genIssue()),
	))

	properties.Property("file and rule counts sum to the number of issues", prop.ForAll(
		func(issues []domain.Issue) bool {
			summary := Aggregate(issues)
			files, rules := 0, 0
			for _, c := range summary.ByFile {
				files += c
			}
			for _, c := range summary.ByRule {
				rules += c
			}
			return files == len(issues) && rules == len(issues)
		},
		gen.SliceOf(genIssue()),
	))

	properties.Property("rankings are sorted by descending count", prop.ForAll(
		func(issues []domain.Issue) bool {
			summary := Aggregate(issues)
			for _, ranking := range [][]domain.Count{summary.TopFiles, summary.TopRules} {
				for i := 1; i < len(ranking); i++ {
					if ranking[i-1].Count < ranking[i].Count {
						return false
					}
				}
			}
			return len(summary.TopFiles) == len(summary.ByFile)
		},
		gen.SliceOf(genIssue()),
	))

	properties.Property("counts are order independent", prop.ForAll(
		func(issues []domain.Issue) bool {
			reversed := make([]domain.Issue, len(issues))
			for i, is := range issues {
				reversed[len(issues)-1-i] = is
			}
			a, b := Aggregate(issues), Aggregate(reversed)
			return assert.ObjectsAreEqual(a.ByFile, b.ByFile) &&
				assert.ObjectsAreEqual(a.ByRule, b.ByRule) &&
				assert.ObjectsAreEqual(a.BySeverity, b.BySeverity) &&
				a.TotalErrors == b.TotalErrors
		},
		gen.SliceOf(genIssue()),
	))

	properties.TestingRun(t)
}
