package linter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
	"git.home.luguber.info/inful/clomonitor/internal/linter/githubmd"
	"git.home.luguber.info/inful/clomonitor/internal/linter/insights"
	"git.home.luguber.info/inful/clomonitor/internal/linter/landscape"
	"git.home.luguber.info/inful/clomonitor/internal/linter/licensecheck"
	"git.home.luguber.info/inful/clomonitor/internal/linter/metadata"
	"git.home.luguber.info/inful/clomonitor/internal/linter/scorecardexec"
	"git.home.luguber.info/inful/clomonitor/internal/logfields"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// checkConcurrency bounds how many checks run at once per repository.
const checkConcurrency = 10

// Options configures a Linter. The zero value uses the shared retrying
// HTTP client, the scorecard binary from PATH and the real GitHub API.
type Options struct {
	HTTPClient   *http.Client
	ScorecardBin string

	// Scorecard and NewProvider are seams for tests.
	Scorecard   scorecardexec.Runner
	NewProvider func(ctx context.Context, token string) githubmd.Provider
}

// Linter evaluates the check catalogue against repositories.
type Linter struct {
	http        *http.Client
	landscape   *landscape.Client
	scorecard   scorecardexec.Runner
	newProvider func(ctx context.Context, token string) githubmd.Provider
}

// New creates a Linter. The landscape cache is shared across every Lint
// call made through the same instance.
func New(opts Options) *Linter {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New()
	}
	runner := opts.Scorecard
	if runner == nil {
		runner = &scorecardexec.BinaryRunner{Bin: opts.ScorecardBin}
	}
	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = func(ctx context.Context, token string) githubmd.Provider {
			return githubmd.NewClient(ctx, token)
		}
	}
	return &Linter{
		http:        httpClient,
		landscape:   landscape.NewClient(httpClient),
		scorecard:   runner,
		newProvider: newProvider,
	}
}

// Lint runs every applicable check against the target and returns the
// report. A returned error means no report could be produced at all:
// an unparseable repository URL, an unreadable metadata file or a failed
// host metadata fetch.
//
// The scorecard invocation and the host metadata fetch share rate-limited
// credentials, so they run sequentially before the checks fan out.
func (l *Linter) Lint(ctx context.Context, target *Target, token string) (*Report, error) {
	owner, repo, err := githubmd.ParseURL(target.URL)
	if err != nil {
		return nil, err
	}

	md, err := metadata.FromPath(target.Path)
	if err != nil {
		return nil, fmt.Errorf("reading repository metadata: %w", err)
	}

	gh, err := l.newProvider(ctx, token).Metadata(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching host metadata: %w", err)
	}

	input := &CheckInput{
		Target:    target,
		Owner:     owner,
		Repo:      repo,
		Metadata:  md,
		GitHub:    gh,
		Landscape: l.landscape,
		HTTP:      l.http,
	}

	if scorecardApplies(target.CheckSets) {
		input.Scorecard, input.ScorecardErr = l.scorecard.Run(ctx, target.URL, token)
		if input.ScorecardErr != nil {
			slog.Warn("Scorecard run failed",
				logfields.Repository(target.Name),
				logfields.Error(input.ScorecardErr))
		}
	}

	input.Insights, input.InsightsErr = insights.FromPath(target.Path)
	if input.Readme, err = LoadReadme(target.Path); err != nil {
		return nil, err
	}
	l.detectLicense(input)

	report := NewReport()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	for _, spec := range Checks() {
		if !spec.Applies(target.CheckSets) {
			continue
		}
		g.Go(func() error {
			out := runCheck(gctx, spec, input)
			mu.Lock()
			report.set(spec.Section, spec.ID, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	applyCrossExemptions(report)
	return report, nil
}

// scorecardApplies reports whether any delegating check would run for the
// given sets, so the scanner is only spawned when its output is consumed.
func scorecardApplies(sets []model.CheckSet) bool {
	for _, spec := range Checks() {
		if spec.Scorecard != "" && spec.Applies(sets) {
			return true
		}
	}
	return false
}

// detectLicense resolves the repository license once so both license
// checks read a stable result. Local detection wins; the host-reported id
// is the fallback unless it is NOASSERTION.
func (l *Linter) detectLicense(in *CheckInput) {
	if !CheckByID(CheckLicenseSPDXID).Applies(in.Target.CheckSets) {
		return
	}
	rel, err := Find(in.Target.Path, licenseFilePatterns)
	if err == nil && rel != "" {
		id, derr := licensecheck.DetectFile(filepath.Join(in.Target.Path, filepath.FromSlash(rel)))
		if derr == nil && id != "" {
			in.SPDXID = id
			in.LicenseFile = rel
			return
		}
		if derr != nil {
			slog.Debug("Local license detection failed",
				logfields.Repository(in.Target.Name),
				logfields.Error(derr))
		}
	}
	if id := in.github().LicenseSPDXID; id != "" && id != "NOASSERTION" {
		in.SPDXID = id
	}
}

// runCheck applies the uniform check pipeline: declared exemptions first,
// then the implementation, with errors becoming failed outputs.
func runCheck(ctx context.Context, spec *CheckSpec, input *CheckInput) *CheckOutput {
	if ex := input.Metadata.ExemptionFor(string(spec.ID)); ex != nil {
		return ExemptFor(ex.Reason)
	}
	out, err := spec.Run(ctx, input)
	if err != nil {
		return FailedFor(err)
	}
	if out == nil {
		out = NotPassed()
	}
	return out
}

// applyCrossExemptions marks a check exempt when its counterpart already
// satisfies the same requirement. Only checks that actually ran are
// touched, and concluded outcomes are never overridden.
func applyCrossExemptions(r *Report) {
	crossExempt(r, CheckCLA, CheckDCO, "CLA check passed")
	crossExempt(r, CheckDCO, CheckCLA, "DCO check passed")
	crossExempt(r, CheckSlackPresence, CheckGitHubDiscussions, "Slack presence check passed")
	crossExempt(r, CheckGitHubDiscussions, CheckSlackPresence, "GitHub discussions check passed")
}

func crossExempt(r *Report, source, target CheckID, reason string) {
	src := r.Get(SectionBestPractices, source)
	dst := r.Get(SectionBestPractices, target)
	if src.Concluded() && dst != nil && !dst.Concluded() {
		r.set(SectionBestPractices, target, ExemptFor(reason))
	}
}
