package integration

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/linter/githubmd"
	"git.home.luguber.info/inful/clomonitor/internal/linter/scorecardexec"
	"git.home.luguber.info/inful/clomonitor/internal/model"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

type fakeHost struct {
	info *githubmd.RepoInfo
}

func (f *fakeHost) Metadata(_ context.Context, _, _ string) (*githubmd.RepoInfo, error) {
	return f.info, nil
}

type fakeScanner struct {
	result *scorecardexec.Result
	calls  int
}

func (f *fakeScanner) Run(_ context.Context, _, _ string) (*scorecardexec.Result, error) {
	f.calls++
	return f.result, nil
}

func newPipelineLinter(httpClient *http.Client, host githubmd.Provider, scanner scorecardexec.Runner) *linter.Linter {
	return linter.New(linter.Options{
		HTTPClient: httpClient,
		Scorecard:  scanner,
		NewProvider: func(_ context.Context, _ string) githubmd.Provider {
			return host
		},
	})
}

// fixtureSite serves the project homepage and the foundation landscape so
// the checks that fetch them stay off the network.
func fixtureSite() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/landscape.yml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(landscapeYAML))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(homepageHTML))
	})
	return mux
}

func TestLintPipelineHealthyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	repoDir := setupTestRepo(t, "../testdata/repos/fleetbeacon",
		"Add fleet manifest reconciler\n\nSigned-off-by: Maria Duval <maria@fleetbeacon.dev>\n")

	site := httptest.NewServer(fixtureSite())
	defer site.Close()

	lastDiscussion := time.Now().Add(-20 * 24 * time.Hour)
	host := &fakeHost{info: &githubmd.RepoInfo{
		Owner:         "fleetbeacon",
		Name:          "fleetbeacon",
		DefaultBranch: "main",
		Homepage:      site.URL,
		LicenseSPDXID: "MIT",
		LatestRelease: &githubmd.Release{
			Name:      "v1.8.0",
			URL:       "https://github.com/fleetbeacon/fleetbeacon/releases/tag/v1.8.0",
			CreatedAt: time.Now().Add(-45 * 24 * time.Hour),
			Assets:    []string{"fleetbeacon_1.8.0_sbom.spdx.json", "fleetbeacon_1.8.0_checksums.txt"},
		},
		CheckContexts:      []string{"ci/prow/build", "DCO"},
		LatestDiscussionAt: &lastDiscussion,
	}}
	scanner := &fakeScanner{result: &scorecardexec.Result{
		Score: 7.8,
		Checks: []scorecardexec.Subcheck{
			{Name: "Binary-Artifacts", Score: 10, Reason: "no binaries found in the repo"},
			{Name: "Code-Review", Score: 3, Reason: "found 12 unreviewed changesets out of 30"},
			{Name: "Dangerous-Workflow", Score: 10, Reason: "no dangerous workflow patterns detected"},
			{Name: "Dependency-Update-Tool", Score: 7.5, Reason: "update tool detected"},
			{Name: "Maintained", Score: 9, Reason: "30 commit(s) and 8 issue activity found in the last 90 days"},
			{Name: "Token-Permissions", Score: 6, Reason: "detected GitHub workflow tokens with excessive permissions"},
		},
	}}

	target := &linter.Target{
		Name:         "fleetbeacon",
		URL:          "https://github.com/fleetbeacon/fleetbeacon",
		CheckSets:    []model.CheckSet{model.CheckSetCode, model.CheckSetCommunity},
		Path:         repoDir,
		Project:      "fleetbeacon",
		Maturity:     model.MaturityIncubating,
		Foundation:   "cncf",
		LandscapeURL: site.URL + "/landscape.yml",
	}

	l := newPipelineLinter(site.Client(), host, scanner)
	report, err := l.Lint(context.Background(), target, "test-token")
	require.NoError(t, err)
	assert.Equal(t, 1, scanner.calls)

	// The declared exemption wins over the check implementation.
	badge := report.Get(linter.SectionBestPractices, linter.CheckArtifactHubBadge)
	require.NotNil(t, badge)
	assert.True(t, badge.Exempt)
	assert.Equal(t, "FleetBeacon is not distributed through Artifact Hub", badge.ExemptionReason)

	// A passing DCO check exempts its CLA counterpart.
	cla := report.Get(linter.SectionBestPractices, linter.CheckCLA)
	require.NotNil(t, cla)
	assert.True(t, cla.Exempt)
	assert.Equal(t, "DCO check passed", cla.ExemptionReason)

	sc := score.Calculate(report)
	verifyLintReport(t, report, sc, "../testdata/golden/fleetbeacon.golden.json", *updateGolden)
}

func TestLintPipelineBareRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	repoDir := setupTestRepo(t, "../testdata/repos/bare", "Initial import")

	host := &fakeHost{info: &githubmd.RepoInfo{
		Owner:         "acme",
		Name:          "bare",
		DefaultBranch: "master",
	}}
	scanner := &fakeScanner{}

	target := &linter.Target{
		Name:      "bare",
		URL:       "https://github.com/acme/bare",
		CheckSets: []model.CheckSet{model.CheckSetCodeLite},
		Path:      repoDir,
	}

	l := newPipelineLinter(nil, host, scanner)
	report, err := l.Lint(context.Background(), target, "")
	require.NoError(t, err)
	assert.Zero(t, scanner.calls, "no delegating check is selected by code-lite")

	sc := score.Calculate(report)
	assert.Equal(t, "d", sc.Rating())
	verifyLintReport(t, report, sc, "../testdata/golden/bare.golden.json", *updateGolden)
}

const homepageHTML = `<!DOCTYPE html>
<html>
<head>
<title>FleetBeacon</title>
<script async src="https://www.googletagmanager.com/gtag/js?id=G-TJ4NX81V6K"></script>
</head>
<body>
<h1>FleetBeacon</h1>
<p>Fleet-wide service health reporting for cloud native platforms.</p>
<footer>
<a href="https://www.linuxfoundation.org/legal/trademark-usage">Trademark Usage</a>
</footer>
</body>
</html>
`

const landscapeYAML = `landscape:
  - category:
    name: Observability
    subcategories:
      - subcategory:
        name: Monitoring
        items:
          - item:
            name: FleetBeacon
            homepage_url: https://fleetbeacon.dev
            extra:
              clomonitor_name: fleetbeacon
              summary_use_case: Fleet-wide service health reporting
              summary_tags: observability,monitoring
`
