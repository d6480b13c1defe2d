package linter

import (
	"context"
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/clomonitor/internal/linter/insights"
)

// Scorecard sub-checks pass at 5.0 out of 10; Signed-Releases is the
// documented exception and passes as soon as any release is signed.
const (
	passThreshold           = 5.0
	signedReleasesThreshold = 1.0
)

var (
	// "SECURITY.*" deliberately requires the dot so the insights manifest
	// (SECURITY-INSIGHTS.yml) does not count as a policy.
	securityPolicyFile = FilePattern{Patterns: []string{
		"SECURITY.*", "SECURITY",
		".github/SECURITY.*", ".github/SECURITY",
		"docs/SECURITY.*", "docs/SECURITY",
	}}
	securityHeadingRE = regexp.MustCompile(`(?i)\bsecurity\b`)

	insightsFile = FilePattern{Patterns: insights.FileNames, CaseSensitive: true}

	sbomAssetRE   = regexp.MustCompile(`(?i)sbom`)
	sbomHeadingRE = regexp.MustCompile(`(?i)\bsbom\b`)
)

// scorecardCheck builds a check that delegates to the named sub-check of
// the external scanner output.
func scorecardCheck(name string, threshold float64) CheckFn {
	return func(_ context.Context, in *CheckInput) (*CheckOutput, error) {
		if in.ScorecardErr != nil {
			return nil, fmt.Errorf("scorecard did not run: %w", in.ScorecardErr)
		}
		sub := in.Scorecard.Subcheck(name)
		if sub == nil {
			return NotPassed(), nil
		}
		out := &CheckOutput{
			Passed:  sub.Score >= threshold,
			Details: sub.Markdown(threshold),
			Value:   sub.Score,
		}
		if sub.Documentation.URL != "" {
			out.URL = sub.Documentation.URL
		}
		return out, nil
	}
}

func checkDependenciesPolicy(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.InsightsErr != nil {
		return nil, in.InsightsErr
	}
	if url := in.Insights.DependenciesPolicyURL(); url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}

func checkSBOM(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if rel := in.github().LatestRelease; rel != nil {
		for _, asset := range rel.Assets {
			if sbomAssetRE.MatchString(asset) {
				out := PassURL(rel.URL)
				out.Value = asset
				return out, nil
			}
		}
	}
	if in.Readme.MatchHeading(sbomHeadingRE) {
		return Pass(), nil
	}
	return NotPassed(), nil
}

func checkSecurityInsights(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.InsightsErr != nil {
		return nil, in.InsightsErr
	}
	rel, err := Find(in.Target.Path, insightsFile)
	if err != nil {
		return nil, err
	}
	if rel != "" {
		return PassURL(in.RepoFileURL(rel)), nil
	}
	return NotPassed(), nil
}

func checkSecurityPolicy(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	rel, err := Find(in.Target.Path, securityPolicyFile)
	if err != nil {
		return nil, err
	}
	if rel != "" {
		return PassURL(in.RepoFileURL(rel)), nil
	}
	if in.Readme.MatchHeading(securityHeadingRE) {
		return Pass(), nil
	}
	if url := in.github().SecurityPolicyURL; url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}

func checkSelfAssessment(_ context.Context, in *CheckInput) (*CheckOutput, error) {
	if in.InsightsErr != nil {
		return nil, in.InsightsErr
	}
	if url := in.Insights.SelfAssessmentURL(); url != "" {
		return PassURL(url), nil
	}
	return NotPassed(), nil
}
