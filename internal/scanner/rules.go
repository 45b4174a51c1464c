package scanner

import (
	"regexp"

	"github.com/naka-gawa/repolens/internal/domain"
)

var (
	scriptExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}
	typedExtensions  = []string{".ts", ".tsx"}
	pythonExtensions = []string{".py"}
)

var (
	consolePattern       = regexp.MustCompile(`\bconsole\.(?:log|debug|info|warn|error|trace|dir|table)\s*\(`)
	printPattern         = regexp.MustCompile(`\bprint\s*\(`)
	debuggerPattern      = regexp.MustCompile(`\bdebugger\b`)
	trailingSpacePattern = regexp.MustCompile(`[ \t]+$`)
	varPattern           = regexp.MustCompile(`\bvar\s+[A-Za-z_$]`)

	sqlInjectionPattern = regexp.MustCompile(`(?i)\b(?:query|execute|exec|raw)\s*\(\s*f?["'\x60].*\b(?:select|insert|update|delete)\b.*(?:["'\x60]\s*\+|\$\{|%s|\{[a-z_]\w*\})`)
	xssPattern          = regexp.MustCompile(`\.(?:inner|outer)HTML\s*=(?:[^=]|$)|\bdangerouslySetInnerHTML\b|\bdocument\.write(?:ln)?\s*\(`)
	commandPattern      = regexp.MustCompile(`\b(?:child_process|execSync|execFileSync|spawnSync|os\.system|os\.popen|subprocess\.(?:call|run|Popen|check_output)|exec\.Command|shell_exec)\b|\bspawn\s*\(`)
	secretPattern       = regexp.MustCompile(`(?i)(?:password|passwd|pwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token|private[_-]?key)\w*["']?\s*(?::=|=|:)\s*["'][^"'\s]{4,}["']`)
	awsKeyPattern       = regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)
	privateKeyPattern   = regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY`)
	weakRandomPattern   = regexp.MustCompile(`\bMath\.random\s*\(|\brandom\.(?:random|randint|choice)\s*\(|"math/rand"`)
	evalPattern         = regexp.MustCompile(`\beval\s*\(|\bnew\s+Function\s*\(`)
	httpPattern         = regexp.MustCompile(`http://[^\s"'<>()\x60]+`)
	localHTTPPattern    = regexp.MustCompile(`^http://(?:localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\])(?:[:/]|$)`)

	explicitAnyPattern = regexp.MustCompile(`:\s*any\b|\bas\s+any\b|<any>`)
	implicitAnyPattern = regexp.MustCompile(`\bfunction\b\s*\*?\s*[\w$]*\s*\(\s*[A-Za-z_$][\w$]*\s*[,)]|\(\s*[A-Za-z_$][\w$]*\s*\)\s*=>`)
	nonNullPattern     = regexp.MustCompile(`[\w\])]!(?:\.|\[|;|,|\))`)
)

// LintRules returns the style rule table.
func LintRules() []Rule {
	return []Rule{
		{
			ID:         "no-console",
			Category:   domain.CategoryLint,
			Severity:   domain.SeverityWarning,
			Message:    "Unexpected console statement",
			Pattern:    consolePattern,
			Extensions: scriptExtensions,
		},
		{
			ID:         "no-print",
			Category:   domain.CategoryLint,
			Severity:   domain.SeverityWarning,
			Message:    "Unexpected print statement",
			Pattern:    printPattern,
			Extensions: pythonExtensions,
		},
		{
			ID:         "no-debugger",
			Category:   domain.CategoryLint,
			Severity:   domain.SeverityError,
			Message:    "Unexpected 'debugger' statement",
			Pattern:    debuggerPattern,
			Extensions: scriptExtensions,
		},
		{
			ID:       "no-trailing-spaces",
			Category: domain.CategoryLint,
			Severity: domain.SeverityWarning,
			Message:  "Trailing whitespace not allowed",
			Pattern:  trailingSpacePattern,
		},
		{
			ID:         "no-var",
			Category:   domain.CategoryLint,
			Severity:   domain.SeverityWarning,
			Message:    "Unexpected var, use let or const instead",
			Pattern:    varPattern,
			Extensions: scriptExtensions,
		},
	}
}

// SecurityRules returns the security rule table.
func SecurityRules() []Rule {
	return []Rule{
		{
			ID:       "sql-injection",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityHigh,
			Message:  "Possible SQL injection: query built from string concatenation or interpolation",
			Pattern:  sqlInjectionPattern,
		},
		{
			ID:       "xss",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityHigh,
			Message:  "Possible XSS: unescaped HTML assignment",
			Pattern:  xssPattern,
		},
		{
			ID:       "command-injection",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityHigh,
			Message:  "Shell or process invocation, validate every argument",
			Pattern:  commandPattern,
		},
		{
			ID:       "hardcoded-secret",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityCritical,
			Message:  "Hardcoded credential",
			Pattern:  secretPattern,
			Redact:   true,
		},
		{
			ID:       "aws-access-key",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityCritical,
			Message:  "AWS access key ID",
			Pattern:  awsKeyPattern,
			Redact:   true,
		},
		{
			ID:       "private-key",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityCritical,
			Message:  "Private key material",
			Pattern:  privateKeyPattern,
			Redact:   true,
		},
		{
			ID:       "weak-random",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityMedium,
			Message:  "Weak pseudo-random generator, not suitable for security purposes",
			Pattern:  weakRandomPattern,
		},
		{
			ID:       "eval",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityHigh,
			Message:  "Dynamic code evaluation",
			Pattern:  evalPattern,
		},
		{
			ID:       "insecure-http",
			Category: domain.CategorySecurity,
			Severity: domain.SeverityLow,
			Message:  "Plaintext HTTP URL, use HTTPS",
			Pattern:  httpPattern,
			Exclude:  localHTTPPattern,
		},
	}
}

// TypeRules returns the TypeScript type-safety rule table.
func TypeRules() []Rule {
	return []Rule{
		{
			ID:         "no-explicit-any",
			Category:   domain.CategoryType,
			Severity:   domain.SeverityWarning,
			Message:    "Unexpected any. Specify a different type",
			Pattern:    explicitAnyPattern,
			Extensions: typedExtensions,
		},
		{
			ID:         "implicit-any-param",
			Category:   domain.CategoryType,
			Severity:   domain.SeverityError,
			Message:    "Parameter implicitly has an 'any' type",
			Pattern:    implicitAnyPattern,
			Extensions: typedExtensions,
		},
		{
			ID:         "no-non-null-assertion",
			Category:   domain.CategoryType,
			Severity:   domain.SeverityWarning,
			Message:    "Forbidden non-null assertion",
			Pattern:    nonNullPattern,
			Extensions: typedExtensions,
		},
	}
}
