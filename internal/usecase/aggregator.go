// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repolens/internal/domain"
)

// Aggregate folds issue records into a Summary. It is pure: the result
// depends only on the multiset of issues, except that rankings break ties by
// the order in which keys were first seen.
func Aggregate(issues []domain.Issue) domain.Summary {
	summary := domain.Summary{
		TotalIssues: len(issues),
		ByFile:      make(map[string]int),
		ByRule:      make(map[string]int),
		BySeverity:  make(map[domain.Severity]int),
		ByCategory:  make(map[domain.Category]int),
	}

	var fileOrder, ruleOrder []string
	for _, issue := range issues {
		if _, ok := summary.ByFile[issue.File]; !ok {
			fileOrder = append(fileOrder, issue.File)
		}
		summary.ByFile[issue.File]++

		if _, ok := summary.ByRule[issue.RuleID]; !ok {
			ruleOrder = append(ruleOrder, issue.RuleID)
		}
		summary.ByRule[issue.RuleID]++

		summary.BySeverity[issue.Severity]++
		summary.ByCategory[issue.Category]++

		switch {
		case issue.Severity.IsBlocking():
			summary.TotalErrors++
		case issue.Severity == domain.SeverityWarning || issue.Severity == domain.SeverityMedium:
			summary.TotalWarnings++
		}
	}

	summary.TopFiles = rank(summary.ByFile, fileOrder)
	summary.TopRules = rank(summary.ByRule, ruleOrder)
	summary.Distribution = distribution(summary.ByFile)
	return summary
}

// rank sorts keys by descending count. Equal counts keep first-seen order.
func rank(counts map[string]int, order []string) []domain.Count {
	ranked := make([]domain.Count, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, domain.Count{Key: key, Count: counts[key]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

func distribution(byFile map[string]int) domain.Distribution {
	if len(byFile) == 0 {
		return domain.Distribution{}
	}
	data := make(stats.Float64Data, 0, len(byFile))
	for _, c := range byFile {
		data = append(data, float64(c))
	}
	// The inputs are non-empty, so these only fail on NaN which counts cannot produce.
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	p90, _ := stats.Percentile(data, 90)
	maxCount, _ := stats.Max(data)
	return domain.Distribution{
		Mean:   mean,
		Median: median,
		P90:    p90,
		Max:    maxCount,
	}
}

// Top returns at most n entries of a ranking.
func Top(ranking []domain.Count, n int) []domain.Count {
	if n <= 0 || n >= len(ranking) {
		return ranking
	}
	return ranking[:n]
}
