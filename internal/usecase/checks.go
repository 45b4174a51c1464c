package usecase

import (
	"regexp"

	"github.com/naka-gawa/repolens/internal/domain"
)

// CITypeErrorRule is the rule ID of issues derived from CI annotations.
const CITypeErrorRule = "ci-type-error"

// typeErrorPhrases recognise compiler type errors in free-text annotation
// messages. Matching is best effort: other tools may use similar wording.
var typeErrorPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btype error\b`),
	regexp.MustCompile(`\bTS\d{4}\b`),
	regexp.MustCompile(`(?i)is not assignable to (?:type|parameter)`),
	regexp.MustCompile(`(?i)property '[^']+' does not exist on type`),
	regexp.MustCompile(`(?i)cannot find name '`),
	regexp.MustCompile(`(?i)implicitly has an? '?any'? type`),
	regexp.MustCompile(`(?i)argument of type '[^']+' is not assignable`),
	regexp.MustCompile(`(?i)object is possibly '(?:null|undefined)'`),
	regexp.MustCompile(`(?i)\bmypy\b.*\berror\b|\bincompatible types?\b`),
}

// IsTypeErrorMessage reports whether an annotation text looks like a type error.
func IsTypeErrorMessage(text string) bool {
	for _, re := range typeErrorPhrases {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// annotationIssues converts type-error annotations on crawled files into issues.
func annotationIssues(annotations []domain.Annotation, crawled map[string]bool) (issues []domain.Issue, dropped int) {
	for _, a := range annotations {
		if !IsTypeErrorMessage(a.Title + " " + a.Message) {
			continue
		}
		if !crawled[a.Path] {
			dropped++
			continue
		}
		issues = append(issues, domain.Issue{
			File:     a.Path,
			Line:     max(a.StartLine, 1),
			Column:   max(a.Column, 1),
			Severity: annotationSeverity(a.Level),
			Message:  a.Message,
			RuleID:   CITypeErrorRule,
			Category: domain.CategoryCI,
			Source:   a.CheckName,
		})
	}
	return issues, dropped
}

func annotationSeverity(level string) domain.Severity {
	switch level {
	case "failure":
		return domain.SeverityError
	case "warning":
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}
