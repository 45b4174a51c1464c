// Package domain contains the core data structures and domain logic for the application.
package domain

// Count is one row of a ranking, e.g. a file and its number of issues.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Distribution describes how issues spread over the affected files.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// Summary folds a list of issues into counts.
// It is the core aggregate entity of this application.
type Summary struct {
	TotalIssues   int              `json:"total_issues"`
	TotalErrors   int              `json:"total_errors"`
	TotalWarnings int              `json:"total_warnings"`
	ByFile        map[string]int   `json:"by_file"`
	ByRule        map[string]int   `json:"by_rule"`
	BySeverity    map[Severity]int `json:"by_severity"`
	ByCategory    map[Category]int `json:"by_category"`
	TopFiles      []Count          `json:"top_files"`
	TopRules      []Count          `json:"top_rules"`
	Distribution  Distribution     `json:"distribution"`
}
