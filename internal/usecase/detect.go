package usecase

import (
	"github.com/naka-gawa/repolens/internal/domain"
)

// Language is a detected project type and the source files it scans.
type Language struct {
	Name       string
	Extensions []string
}

// LanguageUnknown is used when no marker file is found.
var LanguageUnknown = Language{
	Name:       "unknown",
	Extensions: []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".py", ".go", ".rb", ".java", ".php"},
}

// marker maps a root file name to the language it implies.
type marker struct {
	File     string
	Language Language
}

// languageMarkers are checked in order; the first present file wins.
var languageMarkers = []marker{
	{File: "tsconfig.json", Language: Language{Name: "typescript", Extensions: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}}},
	{File: "package.json", Language: Language{Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}}},
	{File: "go.mod", Language: Language{Name: "go", Extensions: []string{".go"}}},
	{File: "pyproject.toml", Language: Language{Name: "python", Extensions: []string{".py"}}},
	{File: "requirements.txt", Language: Language{Name: "python", Extensions: []string{".py"}}},
	{File: "setup.py", Language: Language{Name: "python", Extensions: []string{".py"}}},
	{File: "Cargo.toml", Language: Language{Name: "rust", Extensions: []string{".rs"}}},
	{File: "pom.xml", Language: Language{Name: "java", Extensions: []string{".java"}}},
	{File: "build.gradle", Language: Language{Name: "java", Extensions: []string{".java", ".kt"}}},
}

// DetectLanguage checks the root listing for marker files in a fixed priority order.
func DetectLanguage(root []domain.Entry) Language {
	present := make(map[string]bool, len(root))
	for _, e := range root {
		if e.IsFile() {
			present[e.Name] = true
		}
	}
	for _, m := range languageMarkers {
		if present[m.File] {
			return m.Language
		}
	}
	return LanguageUnknown
}

// crawlExtensions picks the file suffixes an analysis of kind crawls for lang.
func crawlExtensions(kind domain.Kind, lang Language) []string {
	switch kind {
	case domain.KindTypes:
		return []string{".ts", ".tsx"}
	case domain.KindSecurity:
		exts := append([]string{}, lang.Extensions...)
		return append(exts, ".env", ".yml", ".yaml", ".pem", ".key")
	default:
		return lang.Extensions
	}
}
