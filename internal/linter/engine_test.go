package linter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/linter/githubmd"
	"git.home.luguber.info/inful/clomonitor/internal/linter/scorecardexec"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

type fakeProvider struct {
	info *githubmd.RepoInfo
	err  error
}

func (f *fakeProvider) Metadata(_ context.Context, _, _ string) (*githubmd.RepoInfo, error) {
	return f.info, f.err
}

type fakeRunner struct {
	result *scorecardexec.Result
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, _, _ string) (*scorecardexec.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestLinter(provider githubmd.Provider, runner scorecardexec.Runner) *Linter {
	return New(Options{
		HTTPClient: stubHTTP(nil),
		Scorecard:  runner,
		NewProvider: func(_ context.Context, _ string) githubmd.Provider {
			return provider
		},
	})
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Test\n\n## Community meeting\n\nJoin us on Slack!\n")
	writeFile(t, root, "SECURITY.md", "policy")
	writeFile(t, root, ".clomonitor.yml", "exemptions:\n  - check: artifacthub_badge\n    reason: Not published to Artifact Hub\n")

	recent := time.Now().Add(-24 * time.Hour)
	provider := &fakeProvider{info: &githubmd.RepoInfo{
		Owner:              "test",
		Name:               "repo",
		DefaultBranch:      "main",
		LicenseSPDXID:      "Apache-2.0",
		CheckContexts:      []string{"DCO"},
		LatestDiscussionAt: &recent,
	}}
	runner := &fakeRunner{result: &scorecardexec.Result{Checks: []scorecardexec.Subcheck{
		{Name: "Binary-Artifacts", Score: 10, Reason: "no binaries"},
		{Name: "Signed-Releases", Score: 0.5, Reason: "none signed"},
	}}}

	l := newTestLinter(provider, runner)
	target := &Target{
		Name:      "repo",
		URL:       "https://github.com/test/repo",
		CheckSets: []model.CheckSet{model.CheckSetCode, model.CheckSetCommunity},
		Path:      root,
		Project:   "repo",
		Maturity:  model.MaturityGraduated,
	}

	report, err := l.Lint(context.Background(), target, "token")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)

	// File and README based checks.
	assert.True(t, report.Get(SectionDocumentation, CheckReadme).Passed)
	assert.True(t, report.Get(SectionSecurity, CheckSecurityPolicy).Passed)
	assert.False(t, report.Get(SectionDocumentation, CheckGovernance).Passed)

	// Declared exemption.
	ah := report.Get(SectionBestPractices, CheckArtifactHubBadge)
	require.NotNil(t, ah)
	assert.True(t, ah.Exempt)
	assert.Equal(t, "Not published to Artifact Hub", ah.ExemptionReason)

	// License fallback to the host-reported id.
	spdx := report.Get(SectionLicense, CheckLicenseSPDXID)
	require.NotNil(t, spdx)
	assert.True(t, spdx.Passed)
	assert.Equal(t, "Apache-2.0", spdx.Value)
	assert.True(t, report.Get(SectionLicense, CheckLicenseApproved).Passed)

	// Scorecard delegation.
	assert.True(t, report.Get(SectionSecurity, CheckBinaryArtifacts).Passed)
	assert.False(t, report.Get(SectionSecurity, CheckSignedReleases).Passed)
	assert.False(t, report.Get(SectionSecurity, CheckMaintained).Passed)

	// Cross-check exemptions: DCO passed via status context, CLA did not.
	// Discussions are active, Slack README reference also matched.
	cla := report.Get(SectionBestPractices, CheckCLA)
	require.NotNil(t, cla)
	assert.True(t, cla.Exempt)
	assert.Equal(t, "DCO check passed", cla.ExemptionReason)
	assert.True(t, report.Get(SectionBestPractices, CheckDCO).Passed)
	assert.True(t, report.Get(SectionBestPractices, CheckSlackPresence).Passed)
	assert.True(t, report.Get(SectionBestPractices, CheckGitHubDiscussions).Passed)

	// Community-only checks ran, docs-only sections did too.
	assert.NotNil(t, report.Get(SectionDocumentation, CheckWebsite))
	assert.NotNil(t, report.Get(SectionLegal, CheckTrademarkDisclaimer))
}

func TestLintSkipsUnselectedChecks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Test\n")

	provider := &fakeProvider{info: &githubmd.RepoInfo{DefaultBranch: "main"}}
	runner := &fakeRunner{}
	l := newTestLinter(provider, runner)

	target := &Target{
		Name:      "repo-docs",
		URL:       "https://github.com/test/repo-docs",
		CheckSets: []model.CheckSet{model.CheckSetDocs},
		Path:      root,
	}
	report, err := l.Lint(context.Background(), target, "token")
	require.NoError(t, err)

	// Docs repositories only get readme and the license checks.
	assert.NotNil(t, report.Get(SectionDocumentation, CheckReadme))
	assert.Nil(t, report.Get(SectionDocumentation, CheckGovernance))
	assert.NotNil(t, report.Get(SectionLicense, CheckLicenseSPDXID))
	assert.Nil(t, report.Get(SectionLicense, CheckLicenseScanning))
	assert.Nil(t, report.Get(SectionSecurity, CheckBinaryArtifacts))
	assert.Nil(t, report.Get(SectionLegal, CheckTrademarkDisclaimer))

	// No delegating check was selected, so the scanner never ran.
	assert.Equal(t, 0, runner.calls)
}

func TestLintScorecardFailure(t *testing.T) {
	root := t.TempDir()
	provider := &fakeProvider{info: &githubmd.RepoInfo{DefaultBranch: "main"}}
	runner := &fakeRunner{err: errors.New("binary not found")}
	l := newTestLinter(provider, runner)

	target := &Target{
		Name:      "repo",
		URL:       "https://github.com/test/repo",
		CheckSets: []model.CheckSet{model.CheckSetCode},
		Path:      root,
	}
	report, err := l.Lint(context.Background(), target, "token")
	require.NoError(t, err)

	out := report.Get(SectionSecurity, CheckBinaryArtifacts)
	require.NotNil(t, out)
	assert.True(t, out.Failed)
	assert.Contains(t, out.FailReason, "binary not found")
}

func TestLintFatalErrors(t *testing.T) {
	provider := &fakeProvider{info: &githubmd.RepoInfo{DefaultBranch: "main"}}
	l := newTestLinter(provider, &fakeRunner{})

	target := &Target{Name: "repo", URL: "not-a-url", Path: t.TempDir()}
	if _, err := l.Lint(context.Background(), target, "token"); err == nil {
		t.Error("invalid url should be fatal")
	}

	root := t.TempDir()
	writeFile(t, root, ".clomonitor.yml", "exemptions: [")
	target = &Target{Name: "repo", URL: "https://github.com/test/repo", Path: root}
	if _, err := l.Lint(context.Background(), target, "token"); err == nil {
		t.Error("unreadable metadata should be fatal")
	}

	failing := newTestLinter(&fakeProvider{err: errors.New("boom")}, &fakeRunner{})
	target = &Target{Name: "repo", URL: "https://github.com/test/repo", Path: t.TempDir()}
	if _, err := failing.Lint(context.Background(), target, "token"); err == nil {
		t.Error("host metadata failure should be fatal")
	}
}

func TestCrossExemptionsDoNotOverrideConcluded(t *testing.T) {
	r := NewReport()
	r.set(SectionBestPractices, CheckCLA, Pass())
	r.set(SectionBestPractices, CheckDCO, ExemptFor("declared"))
	applyCrossExemptions(r)

	dco := r.Get(SectionBestPractices, CheckDCO)
	assert.Equal(t, "declared", dco.ExemptionReason)

	// A skipped counterpart stays absent.
	r = NewReport()
	r.set(SectionBestPractices, CheckSlackPresence, Pass())
	applyCrossExemptions(r)
	assert.Nil(t, r.Get(SectionBestPractices, CheckGitHubDiscussions))
}
