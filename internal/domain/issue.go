package domain

// Severity is the level attached to an issue record.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Severities lists every known severity from most to least severe.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityError,
	SeverityMedium,
	SeverityWarning,
	SeverityLow,
	SeverityInfo,
}

// Rank orders severities for display. Higher is more severe; unknown values rank 0.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return len(Severities) - i
		}
	}
	return 0
}

// IsBlocking reports whether the severity counts as an error in totals.
func (s Severity) IsBlocking() bool {
	return s == SeverityCritical || s == SeverityHigh || s == SeverityError
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Category groups issues by the scanner that produced them.
type Category string

const (
	CategoryLint     Category = "lint"
	CategorySecurity Category = "security"
	CategoryType     Category = "type"
	CategoryCI       Category = "ci"
)

// RedactedSource replaces the source snippet of secret-sensitive findings.
const RedactedSource = "[REDACTED]"

// Issue is one flagged location in a repository file.
// Line and Column are 1-based.
type Issue struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Source   string   `json:"source"`
}
