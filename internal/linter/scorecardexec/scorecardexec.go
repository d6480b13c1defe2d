// Package scorecardexec invokes the OpenSSF scorecard binary and parses
// its JSON output. The binary is spawned once per repository with the
// fixed list of sub-checks the catalogue delegates to.
package scorecardexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultBin is the binary name looked up on PATH when none is configured.
const DefaultBin = "scorecard"

// Subchecks lists the scorecard checks the catalogue consumes. Passing the
// list to the binary avoids paying for sub-checks nothing reads.
var Subchecks = []string{
	"Binary-Artifacts",
	"Code-Review",
	"Dangerous-Workflow",
	"Dependency-Update-Tool",
	"Maintained",
	"Signed-Releases",
	"Token-Permissions",
}

// Result is the parsed scorecard output for one repository.
type Result struct {
	Score  float64    `json:"score"`
	Checks []Subcheck `json:"checks"`
}

// Subcheck is one scorecard check result.
type Subcheck struct {
	Name          string        `json:"name"`
	Score         float64       `json:"score"`
	Reason        string        `json:"reason"`
	Details       []string      `json:"details"`
	Documentation Documentation `json:"documentation"`
}

// Documentation points at the upstream description of a sub-check.
type Documentation struct {
	URL   string `json:"url"`
	Short string `json:"short"`
}

// Subcheck returns the named sub-check result, nil when scorecard did not
// report it.
func (r *Result) Subcheck(name string) *Subcheck {
	if r == nil {
		return nil
	}
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			return &r.Checks[i]
		}
	}
	return nil
}

// Markdown renders the canonical details block shown for delegated checks.
func (c *Subcheck) Markdown(passThreshold float64) string {
	var b strings.Builder
	b.WriteString("# OpenSSF Scorecard: ")
	b.WriteString(c.Name)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**Score**: %.1f (check passes with a score >= %.1f)\n\n", c.Score, passThreshold)
	if c.Reason != "" {
		fmt.Fprintf(&b, "**Reason**: %s\n\n", c.Reason)
	}
	if len(c.Details) > 0 {
		b.WriteString("**Details**:\n\n")
		for _, d := range c.Details {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}
	if c.Documentation.URL != "" {
		fmt.Fprintf(&b, "Please see the [check documentation](%s) for more details.\n", c.Documentation.URL)
	}
	return b.String()
}

// Runner runs scorecard against a repository.
type Runner interface {
	Run(ctx context.Context, repoURL, token string) (*Result, error)
}

// BinaryRunner spawns the scorecard binary found on PATH.
type BinaryRunner struct {
	Bin string // binary name or path; DefaultBin when empty
}

// Run invokes scorecard for the given repository. The GitHub credential is
// handed over via the environment, never the command line.
func (b *BinaryRunner) Run(ctx context.Context, repoURL, token string) (*Result, error) {
	bin := b.Bin
	if bin == "" {
		bin = DefaultBin
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("scorecard binary not found: %w", err)
	}

	args := []string{
		"--repo=" + repoURL,
		"--format=json",
		"--show-details",
		"--checks=" + strings.Join(Subchecks, ","),
	}

	// #nosec G204 -- path is from exec.LookPath, args are fixed flags
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), "GITHUB_TOKEN="+token, "GITHUB_AUTH_TOKEN="+token)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("running scorecard: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("running scorecard: %w", err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("parsing scorecard output: %w", err)
	}
	return &result, nil
}
