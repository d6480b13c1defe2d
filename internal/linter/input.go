package linter

import (
	"context"
	"net/http"
	"sync"

	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
	"git.home.luguber.info/inful/clomonitor/internal/linter/githubmd"
	"git.home.luguber.info/inful/clomonitor/internal/linter/insights"
	"git.home.luguber.info/inful/clomonitor/internal/linter/landscape"
	"git.home.luguber.info/inful/clomonitor/internal/linter/metadata"
	"git.home.luguber.info/inful/clomonitor/internal/linter/scorecardexec"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// Target identifies the repository being linted and the project context it
// belongs to.
type Target struct {
	Name      string
	URL       string
	CheckSets []model.CheckSet
	Path      string // local working tree

	Project      string // catalogue project name
	Maturity     string
	Foundation   string
	LandscapeURL string // empty when the foundation publishes no landscape
}

// CheckInput carries everything a check implementation may inspect. The
// engine prepares one input per repository and shares it across checks.
type CheckInput struct {
	Target *Target
	Owner  string
	Repo   string

	// Metadata is the parsed .clomonitor.yml, nil when the repository has
	// none.
	Metadata *metadata.Metadata

	// GitHub is the host metadata. Always set on a successful prepare.
	GitHub *githubmd.RepoInfo

	// Readme is the repository README, nil when there is none.
	Readme *Readme

	// Scorecard output, or the error that prevented it from running.
	// Delegating checks fail with ScorecardErr when it is set.
	Scorecard    *scorecardexec.Result
	ScorecardErr error

	// Insights is the parsed SECURITY-INSIGHTS manifest; InsightsErr is set
	// when the file exists but cannot be parsed.
	Insights    *insights.Document
	InsightsErr error

	// SPDXID is the detected repository license, empty when unknown.
	// LicenseFile is the repo-relative path detection was based on, empty
	// when the id came from the host fallback.
	SPDXID      string
	LicenseFile string

	Landscape *landscape.Client
	HTTP      *http.Client

	homepageOnce sync.Once
	homepageBody string
	homepageErr  error
}

// github returns the host metadata, or an empty value so checks can read
// fields without nil guards.
func (in *CheckInput) github() *githubmd.RepoInfo {
	if in.GitHub == nil {
		return &githubmd.RepoInfo{}
	}
	return in.GitHub
}

// RepoFileURL builds the canonical URL of a working tree file using the
// repository's default branch.
func (in *CheckInput) RepoFileURL(relPath string) string {
	branch := ""
	if in.GitHub != nil {
		branch = in.GitHub.DefaultBranch
	}
	return RepoFileURL(in.Target.URL, branch, relPath)
}

// HomepageContent fetches the project homepage once and caches the body
// for every check that inspects it.
func (in *CheckInput) HomepageContent(ctx context.Context) (string, error) {
	in.homepageOnce.Do(func() {
		homepage := ""
		if in.GitHub != nil {
			homepage = in.GitHub.Homepage
		}
		if homepage == "" {
			return
		}
		body, err := httpclient.GetBody(ctx, in.HTTP, homepage)
		if err != nil {
			in.homepageErr = err
			return
		}
		in.homepageBody = string(body)
	})
	return in.homepageBody, in.homepageErr
}

// LandscapeEntry looks up the project in the foundation landscape; (nil,
// nil) when the foundation has no landscape or the project is not listed.
func (in *CheckInput) LandscapeEntry(ctx context.Context) (*landscape.Entry, error) {
	if in.Landscape == nil || in.Target.LandscapeURL == "" || in.Target.Project == "" {
		return nil, nil
	}
	return in.Landscape.Project(ctx, in.Target.LandscapeURL, in.Target.Project)
}
