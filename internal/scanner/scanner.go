// Package scanner checks file contents line by line against fixed rule tables.
package scanner

import (
	"path"
	"regexp"
	"strings"

	"github.com/naka-gawa/repolens/internal/domain"
)

// Rule is one line-level predicate.
type Rule struct {
	ID       string
	Category domain.Category
	Severity domain.Severity
	Message  string
	Pattern  *regexp.Regexp
	// Exclude, when set, drops matches whose text it matches.
	Exclude *regexp.Regexp
	// Extensions limits the rule to files with these suffixes. Empty means every file.
	Extensions []string
	// Redact replaces the source snippet with domain.RedactedSource.
	Redact   bool
	Disabled bool
}

// AppliesTo reports whether the rule runs on a file at path p.
func (r Rule) AppliesTo(p string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path.Base(p))
	for _, ext := range r.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// match returns the start index of the first accepted match on line, or -1.
func (r Rule) match(line string) int {
	for _, loc := range r.Pattern.FindAllStringIndex(line, -1) {
		if r.Exclude != nil && r.Exclude.MatchString(line[loc[0]:loc[1]]) {
			continue
		}
		return loc[0]
	}
	return -1
}

// Override adjusts one built-in rule. An empty Severity keeps the default.
type Override struct {
	Disabled bool   `yaml:"disabled"`
	Severity string `yaml:"severity"`
}

// Scanner evaluates an ordered set of rules.
type Scanner struct {
	rules []Rule
}

// New creates a Scanner over the given rule tables, evaluated in order.
func New(tables ...[]Rule) *Scanner {
	s := &Scanner{}
	for _, t := range tables {
		s.rules = append(s.rules, t...)
	}
	return s
}

// ForKind returns a Scanner with the rule tables of an analysis kind.
func ForKind(kind domain.Kind) *Scanner {
	switch kind {
	case domain.KindLint:
		return New(LintRules())
	case domain.KindSecurity:
		return New(SecurityRules())
	case domain.KindTypes:
		return New(TypeRules())
	default:
		return New(LintRules(), SecurityRules(), TypeRules())
	}
}

// Rules returns a copy of the enabled rules.
func (s *Scanner) Rules() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if !r.Disabled {
			out = append(out, r)
		}
	}
	return out
}

// ApplyOverrides disables rules or replaces their severity. Unknown rule IDs
// and invalid severities are ignored and returned as warnings.
func (s *Scanner) ApplyOverrides(overrides map[string]Override) []string {
	var warnings []string
	known := make(map[string]bool, len(s.rules))
	for i := range s.rules {
		r := &s.rules[i]
		known[r.ID] = true
		o, ok := overrides[r.ID]
		if !ok {
			continue
		}
		if o.Disabled {
			r.Disabled = true
		}
		if o.Severity != "" {
			sev := domain.Severity(strings.ToLower(o.Severity))
			if !sev.Valid() {
				warnings = append(warnings, "rule "+r.ID+": unknown severity "+o.Severity)
				continue
			}
			r.Severity = sev
		}
	}
	for id := range overrides {
		if !known[id] {
			warnings = append(warnings, "unknown rule "+id)
		}
	}
	return warnings
}

// Scan returns the issues found in content, in line order and, within a line,
// in rule order. Each rule reports at most once per line.
func (s *Scanner) Scan(p, content string) []domain.Issue {
	var active []Rule
	for _, r := range s.rules {
		if !r.Disabled && r.AppliesTo(p) {
			active = append(active, r)
		}
	}
	if len(active) == 0 || content == "" {
		return nil
	}

	var issues []domain.Issue
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		for _, r := range active {
			idx := r.match(line)
			if idx < 0 {
				continue
			}
			source := strings.TrimSpace(line)
			if r.Redact {
				source = domain.RedactedSource
			}
			issues = append(issues, domain.Issue{
				File:     p,
				Line:     i + 1,
				Column:   idx + 1,
				Severity: r.Severity,
				Message:  r.Message,
				RuleID:   r.ID,
				Category: r.Category,
				Source:   source,
			})
		}
	}
	return issues
}
