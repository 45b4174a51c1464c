// Package report renders analysis results for the terminal or as JSON.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/naka-gawa/repolens/internal/domain"
	"github.com/naka-gawa/repolens/internal/usecase"
)

// TopN is how many files and rules the console report ranks.
const TopN = 10

// Console writes a human readable report of one analysis.
func Console(w io.Writer, r *domain.AnalysisResult) error {
	p := &printer{w: w}

	p.heading(string(r.Kind) + " analysis")
	p.printf("Repository: %s/%s\n", r.Owner, r.Repo)
	p.printf("Branch:     %s\n", r.Branch)
	p.printf("Language:   %s\n", r.Language)
	p.printf("Files:      %d scanned", r.FilesScanned)
	if r.FilesFailed > 0 {
		p.printf(", %d failed", r.FilesFailed)
	}
	if r.Truncated {
		p.printf(" (limited)")
	}
	p.printf("\n")
	p.printf("Issues:     %d (%d errors, %d warnings)\n", r.Summary.TotalIssues, r.Summary.TotalErrors, r.Summary.TotalWarnings)

	if r.Summary.TotalIssues == 0 {
		p.printf("\nNo issues found.\n")
		return p.err
	}

	p.heading("by severity")
	tw := tabwriter.NewWriter(p, 0, 4, 2, ' ', 0)
	for _, sev := range domain.Severities {
		if n := r.Summary.BySeverity[sev]; n > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", sev, n)
		}
	}
	tw.Flush()

	p.ranking("top files", usecase.Top(r.Summary.TopFiles, TopN))
	p.ranking("top rules", usecase.Top(r.Summary.TopRules, TopN))

	d := r.Summary.Distribution
	p.printf("\nIssues per file: mean %.2f, median %.1f, p90 %.1f, max %.0f\n", d.Mean, d.Median, d.P90, d.Max)

	p.heading("issues")
	tw = tabwriter.NewWriter(p, 0, 4, 2, ' ', 0)
	for _, is := range r.Issues {
		fmt.Fprintf(tw, "%s:%d:%d\t%s\t%s\t%s\n", is.File, is.Line, is.Column, is.Severity, is.RuleID, is.Message)
	}
	tw.Flush()
	return p.err
}

// BatchConsole writes one line per batch target followed by the totals.
func BatchConsole(w io.Writer, results []usecase.BatchResult) error {
	p := &printer{w: w}
	p.heading("batch results")

	tw := tabwriter.NewWriter(p, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPOSITORY\tKIND\tFILES\tISSUES\tERRORS\tSTATUS")
	issues := 0
	for _, br := range results {
		name := br.Target.Owner + "/" + br.Target.Repo
		if br.Result == nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\tfailed: %s\n", name, br.Target.Kind, br.Error)
			continue
		}
		r := br.Result
		issues += r.Summary.TotalIssues
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\tok\n", name, r.Kind, r.FilesScanned, r.Summary.TotalIssues, r.Summary.TotalErrors)
	}
	tw.Flush()
	p.printf("\n%d repositories, %d failed, %d issues\n", len(results), usecase.Failed(results), issues)
	return p.err
}

// printer remembers the first write error so it is checked once at the end.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n, err := p.w.Write(b)
	p.err = err
	return n, err
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p, format, args...)
}

func (p *printer) heading(text string) {
	t := cases.Title(language.English).String(text)
	p.printf("\n%s\n%s\n", t, strings.Repeat("=", len(t)))
}

func (p *printer) ranking(name string, counts []domain.Count) {
	if len(counts) == 0 {
		return
	}
	p.heading(name)
	tw := tabwriter.NewWriter(p, 0, 4, 2, ' ', 0)
	for i, c := range counts {
		fmt.Fprintf(tw, "%2d.\t%s\t%d\n", i+1, c.Key, c.Count)
	}
	tw.Flush()
}
