package linter

import (
	"context"
	"regexp"

	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// docReference bundles where a document may live in the working tree and
// how a README reference to it looks: a heading naming it, or a link whose
// text names it.
type docReference struct {
	file    FilePattern
	heading *regexp.Regexp
	link    *regexp.Regexp
}

func newDocReference(term string, patterns ...string) docReference {
	return docReference{
		file:    FilePattern{Patterns: patterns},
		heading: regexp.MustCompile(`(?i)\b` + term + `\b`),
		link:    regexp.MustCompile(`(?i)\[[^\]]*` + term + `[^\]]*\]\(`),
	}
}

// resolve finds the document in the working tree or referenced from the
// README. nil when there is no evidence either way.
func (d docReference) resolve(in *CheckInput) (*CheckOutput, error) {
	rel, err := Find(in.Target.Path, d.file)
	if err != nil {
		return nil, err
	}
	if rel != "" {
		return PassURL(in.RepoFileURL(rel)), nil
	}
	if in.Readme.MatchHeading(d.heading) || in.Readme.Match(d.link) {
		return Pass(), nil
	}
	return nil, nil
}

// docEvidence resolves the reference and falls back to the first non-empty
// host-provided URL before giving up.
func docEvidence(in *CheckInput, ref docReference, fallbackURLs ...string) (*CheckOutput, error) {
	out, err := ref.resolve(in)
	if err != nil || out != nil {
		return out, err
	}
	for _, u := range fallbackURLs {
		if u != "" {
			return PassURL(u), nil
		}
	}
	return NotPassed(), nil
}

// communityHealthFile probes the owner-level .github repository for a
// community health file, nil when it is not there.
func communityHealthFile(ctx context.Context, in *CheckInput, file string) *CheckOutput {
	rawURL, htmlURL := communityRepoFileURLs(in.Owner, file)
	if ok, err := httpclient.Exists(ctx, in.HTTP, rawURL); err == nil && ok {
		return PassURL(htmlURL)
	}
	return nil
}

var (
	adoptersRef      = newDocReference("adopters", "ADOPTERS*", "USERS*")
	changelogRef     = newDocReference("changelog", "CHANGELOG*")
	codeOfConductRef = newDocReference("code of conduct", "CODE_OF_CONDUCT*", ".github/CODE_OF_CONDUCT*", "docs/CODE_OF_CONDUCT*")
	contributingRef  = newDocReference("contributing", "CONTRIBUTING*", ".github/CONTRIBUTING*", "docs/CONTRIBUTING*")
	governanceRef    = newDocReference("governance", "GOVERNANCE*", "docs/GOVERNANCE*")
	maintainersRef   = newDocReference("maintainers", "MAINTAINERS*", "CODEOWNERS*", "OWNERS*", ".github/CODEOWNERS*", "docs/CODEOWNERS*", "docs/MAINTAINERS*")
	roadmapRef       = newDocReference("roadmap", "ROADMAP*", "docs/ROADMAP*")
)

func checkAdopters(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	return docEvidence(in, adoptersRef)
}

func checkChangelog(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	out, err := changelogRef.resolve(in)
	if err != nil || out != nil {
		return out, err
	}
	if rel := in.github().LatestRelease; rel != nil && changelogRef.heading.MatchString(rel.Description) {
		return PassURL(rel.URL), nil
	}
	return NotPassed(), nil
}

func checkCodeOfConduct(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	out, err := docEvidence(in, codeOfConductRef, in.github().CodeOfConductURL)
	if err != nil || out.Concluded() {
		return out, err
	}
	if probe := communityHealthFile(ctx, in, "CODE_OF_CONDUCT.md"); probe != nil {
		return probe, nil
	}
	return out, nil
}

func checkContributing(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	out, err := docEvidence(in, contributingRef, in.github().ContributingURL)
	if err != nil || out.Concluded() {
		return out, err
	}
	if probe := communityHealthFile(ctx, in, "CONTRIBUTING.md"); probe != nil {
		return probe, nil
	}
	return out, nil
}

func checkGovernance(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	return docEvidence(in, governanceRef)
}

func checkMaintainers(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	return docEvidence(in, maintainersRef)
}

func checkReadme(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.Readme != nil {
		return PassURL(in.RepoFileURL(in.Readme.Path)), nil
	}
	return NotPassed(), nil
}

func checkRoadmap(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	return docEvidence(in, roadmapRef)
}

func checkSummaryTable(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	entry, err := in.LandscapeEntry(ctx)
	if err != nil {
		return nil, err
	}
	if entry.HasSummaryInfo() {
		return Pass(), nil
	}
	return NotPassed(), nil
}

func checkAnnualReview(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.Target.Maturity != model.MaturitySandbox {
		return ExemptFor("Only sandbox projects are required to file an annual review"), nil
	}
	entry, err := in.LandscapeEntry(ctx)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if date, url, ok := entry.AnnualReview(); ok {
			out := PassURL(url)
			out.Value = date
			return out, nil
		}
	}
	return NotPassed(), nil
}

func checkWebsite(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if url := in.github().Homepage; url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}
