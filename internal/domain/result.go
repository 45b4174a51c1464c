package domain

import "time"

// Kind selects which rule tables an analysis runs.
type Kind string

const (
	KindLint     Kind = "lint"
	KindSecurity Kind = "security"
	KindTypes    Kind = "types"
	KindAll      Kind = "all"
)

// ParseKind converts a user supplied string into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindLint, KindSecurity, KindTypes, KindAll:
		return k, true
	}
	return "", false
}

// AnalysisResult is what one analyzeRepository call returns.
type AnalysisResult struct {
	Owner        string    `json:"owner"`
	Repo         string    `json:"repo"`
	Branch       string    `json:"branch"`
	Language     string    `json:"language"`
	Kind         Kind      `json:"kind"`
	Files        []string  `json:"files"`
	FilesScanned int       `json:"files_scanned"`
	FilesFailed  int       `json:"files_failed"`
	Truncated    bool      `json:"truncated"`
	Issues       []Issue   `json:"issues"`
	Summary      Summary   `json:"summary"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// HasCritical reports whether any issue is critical.
func (r *AnalysisResult) HasCritical() bool {
	return r.Summary.BySeverity[SeverityCritical] > 0
}
