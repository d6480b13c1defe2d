package linter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/clomonitor/internal/gitutil"
	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
)

// recentWindow bounds how old a release or discussion may be and still
// count as recent activity.
const recentWindow = 365 * 24 * time.Hour

// dcoCommitWindow is how many commits on HEAD the sign-off walk inspects.
const dcoCommitWindow = 20

var analyticsProviders = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Google Analytics 4", regexp.MustCompile(`\bG-[0-9A-Z]{4,}\b`)},
	{"Google Tag Manager", regexp.MustCompile(`\bGTM-[0-9A-Z]{4,}\b`)},
	{"HubSpot", regexp.MustCompile(`js\.hs-scripts\.com`)},
	{"Plausible", regexp.MustCompile(`plausible\.io/js/`)},
}

var (
	artifactHubBadgeRE = regexp.MustCompile(`(?i)\[!\[artifact ?hub[^\]]*\]\([^)]*\)\]\((https://artifacthub\.io/packages/[^)"]+)\)`)

	claContextRE = regexp.MustCompile(`(?i)(license/cla|easycla)`)
	dcoContextRE = regexp.MustCompile(`(?i)\bdco\b`)

	communityMeetingRE = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(community|developer|development) \[?(call|meeting|session)`),
		regexp.MustCompile(`(?i)(zoom\.us|meet\.google\.com|meetings\.hubspot\.com|teams\.microsoft\.com)/`),
	}
	communityMeetingHeadingRE = regexp.MustCompile(`(?i)\bmeeting\b`)

	openSSFBadgeRE      = regexp.MustCompile(`(https://(?:www\.)?bestpractices\.(?:coreinfrastructure\.org|dev)/projects/\d+)`)
	openSSFBadgeLevelRE = regexp.MustCompile(`"badge_level"\s*:\s*"([a-z_]+)"`)

	scorecardBadgeRE = regexp.MustCompile(`(https://api\.securityscorecards\.dev/projects/github\.com/[^)"\s]+)`)

	slackPresenceRE = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://[^\s)]*slack\.(?:com|cncf\.io)`),
		regexp.MustCompile(`(?i)\bjoin (?:us )?on slack\b`),
	}
	slackHeadingRE = regexp.MustCompile(`(?i)\bslack\b`)

	signedOffRE = regexp.MustCompile(`(?mi)^Signed-off-by:`)
)

func checkAnalytics(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	body, err := in.HomepageContent(ctx)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return NotPassed(), nil
	}
	for _, p := range analyticsProviders {
		if p.re.MatchString(body) {
			out := Pass()
			out.Value = p.name
			return out, nil
		}
	}
	return NotPassed(), nil
}

func checkArtifactHubBadge(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if url := in.Readme.Capture(artifactHubBadgeRE); url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}

func checkCLA(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if matchesAnyContext(in.github().CheckContexts, claContextRE) {
		return Pass(), nil
	}
	return NotPassed(), nil
}

func checkCommunityMeeting(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.Readme.MatchHeading(communityMeetingHeadingRE) {
		return Pass(), nil
	}
	for _, re := range communityMeetingRE {
		if in.Readme.Match(re) {
			return Pass(), nil
		}
	}
	return NotPassed(), nil
}

// checkDCO passes when every non-merge commit in the recent history window
// carries a sign-off trailer, or when a DCO status context gates merges.
func checkDCO(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	commits, err := gitutil.HeadCommits(in.Target.Path, dcoCommitWindow)
	if err == nil && commitsSignedOff(commits) {
		return Pass(), nil
	}
	if matchesAnyContext(in.github().CheckContexts, dcoContextRE) {
		return Pass(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("inspecting commit history: %w", err)
	}
	return NotPassed(), nil
}

// commitsSignedOff reports whether every non-merge commit carries a
// Signed-off-by trailer. Merge commits are recognized by subject prefix.
func commitsSignedOff(commits []gitutil.Commit) bool {
	for _, c := range commits {
		if strings.HasPrefix(c.Subject, "Merge") {
			continue
		}
		if !signedOffRE.MatchString(c.Message) {
			return false
		}
	}
	return true
}

func checkGitHubDiscussions(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	latest := in.github().LatestDiscussionAt
	if latest != nil && time.Since(*latest) < recentWindow {
		return PassURL(fmt.Sprintf("https://github.com/%s/%s/discussions", in.Owner, in.Repo)), nil
	}
	return NotPassed(), nil
}

// checkOpenSSFBadge looks for a best practices badge in the README and,
// when found, asks the badge backend for the achieved level.
func checkOpenSSFBadge(ctx context.Context, in *CheckInput) (*CheckOutput, error) {
	url := in.Readme.Capture(openSSFBadgeRE)
	if url == "" {
		return NotPassed(), nil
	}
	out := PassURL(url)
	if body, err := httpclient.GetBody(ctx, in.HTTP, url+".json"); err == nil {
		if m := openSSFBadgeLevelRE.FindSubmatch(body); m != nil {
			level := string(m[1])
			out.Value = level
			out.Details = "Badge level: " + level
		}
	}
	return out, nil
}

func checkOpenSSFScorecardBadge(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if url := in.Readme.Capture(scorecardBadgeRE); url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}

func checkRecentRelease(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	rel := in.github().LatestRelease
	if rel != nil && time.Since(rel.CreatedAt) < recentWindow {
		return PassURL(rel.URL), nil
	}
	return NotPassed(), nil
}

func checkSlackPresence(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.Readme.MatchHeading(slackHeadingRE) {
		return Pass(), nil
	}
	for _, re := range slackPresenceRE {
		if in.Readme.Match(re) {
			return Pass(), nil
		}
	}
	return NotPassed(), nil
}

// matchesAnyContext reports whether any check-suite, check-run or status
// context name matches the regexp.
func matchesAnyContext(contexts []string, re *regexp.Regexp) bool {
	for _, c := range contexts {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}
