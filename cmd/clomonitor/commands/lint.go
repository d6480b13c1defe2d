package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/model"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

// LintCmd implements the 'lint' command: evaluate one local checkout
// without touching the database. The GitHub token is read from the
// GITHUB_TOKEN environment variable so it never shows up in process lists.
type LintCmd struct {
	Path      string   `help:"Local checkout of the repository to lint" required:"" type:"existingdir"`
	URL       string   `help:"Remote URL of the repository" required:""`
	CheckSet  []string `name:"check-set" help:"Check sets to apply" default:"code,community"`
	PassScore float64  `name:"pass-score" help:"Minimum global score for a passing exit status" default:"75"`
	Format    string   `short:"f" default:"table" help:"Output format (table or json)" enum:"table,json"`
}

func (l *LintCmd) Run(_ *Global) error {
	sets := make([]model.CheckSet, 0, len(l.CheckSet))
	for _, raw := range l.CheckSet {
		cs, err := model.ParseCheckSet(raw)
		if err != nil {
			return err
		}
		sets = append(sets, cs)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	target := &linter.Target{
		Name:      filepath.Base(l.Path),
		URL:       l.URL,
		CheckSets: sets,
		Path:      l.Path,
	}
	report, err := linter.New(linter.Options{}).Lint(ctx, target, os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("linting repository: %w", err)
	}
	sc := score.Calculate(report)

	switch l.Format {
	case "json":
		if err := renderJSON(os.Stdout, sc, report); err != nil {
			return err
		}
	default:
		renderTable(os.Stdout, sc, report)
	}

	if sc.Global < l.PassScore {
		return fmt.Errorf("global score %.0f below required %.0f", sc.Global, l.PassScore)
	}
	return nil
}

// renderTable prints the report grouped per section, a score row closing
// each section and the global score in the footer.
func renderTable(w io.Writer, sc *score.Score, report *linter.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	// Ratings are lowercase letters; keep the footer as written.
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Section", "Check", "Result"})

	rendered := 0
	for _, section := range linter.Sections() {
		checks := report.SectionChecks(section)
		if len(checks) == 0 {
			continue
		}
		if rendered > 0 {
			tw.AppendSeparator()
		}
		rendered++
		for _, spec := range linter.Checks() {
			if spec.Section != section {
				continue
			}
			out, ok := checks[spec.ID]
			if !ok {
				continue
			}
			tw.AppendRow(table.Row{section, spec.ID, resultCell(out)})
		}
		if value := sc.Section(section); value != nil {
			tw.AppendRow(table.Row{section, "score", fmt.Sprintf("%.0f", *value)})
		}
	}

	tw.AppendFooter(table.Row{"global score", "", fmt.Sprintf("%.0f (%s)", sc.Global, sc.Rating())})
	tw.Render()
}

func resultCell(out *linter.CheckOutput) string {
	switch {
	case out.Passed:
		return "pass"
	case out.Exempt:
		return "exempt"
	case out.Failed:
		return "failed"
	default:
		return "not passed"
	}
}

// renderJSON prints the wire-format score document plus the full report.
func renderJSON(w io.Writer, sc *score.Score, report *linter.Report) error {
	doc := struct {
		Score  *score.Score   `json:"score"`
		Rating string         `json:"rating"`
		Report *linter.Report `json:"report"`
	}{sc, sc.Rating(), report}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
