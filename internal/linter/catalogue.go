package linter

import (
	"context"

	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// CheckFn implements a single check. A non-nil error marks the check as
// failed; it never aborts the surrounding lint.
type CheckFn func(ctx context.Context, input *CheckInput) (*CheckOutput, error)

// CheckSpec describes one catalogue entry: where it scores, how much it
// weighs and which check sets select it.
type CheckSpec struct {
	ID      CheckID
	Section Section
	Weight  int
	Sets    []model.CheckSet
	Run     CheckFn

	// Scorecard names the OpenSSF Scorecard sub-check this entry delegates
	// to, empty for native checks.
	Scorecard string
}

// Applies reports whether the check is selected by any of the given sets.
func (s *CheckSpec) Applies(sets []model.CheckSet) bool {
	return model.CheckSetsIntersect(s.Sets, sets)
}

// DocsURL points at the public documentation for the check.
func (s *CheckSpec) DocsURL() string {
	return "https://clomonitor.io/docs/topics/checks/#" + string(s.ID)
}

var (
	setsCode          = []model.CheckSet{model.CheckSetCode}
	setsCodeLite      = []model.CheckSet{model.CheckSetCode, model.CheckSetCodeLite}
	setsCommunity     = []model.CheckSet{model.CheckSetCommunity}
	setsCodeCommunity = []model.CheckSet{model.CheckSetCode, model.CheckSetCommunity}
	setsLicense       = []model.CheckSet{model.CheckSetCode, model.CheckSetCodeLite, model.CheckSetDocs}
	setsPolicy        = []model.CheckSet{model.CheckSetCode, model.CheckSetCodeLite, model.CheckSetCommunity}
	setsAll           = []model.CheckSet{model.CheckSetCode, model.CheckSetCodeLite, model.CheckSetCommunity, model.CheckSetDocs}
)

// catalogue is the full set of checks in report order.
var catalogue = []*CheckSpec{
	// Documentation.
	{ID: CheckAdopters, Section: SectionDocumentation, Weight: 1, Sets: setsCommunity, Run: checkAdopters},
	{ID: CheckChangelog, Section: SectionDocumentation, Weight: 1, Sets: setsCode, Run: checkChangelog},
	{ID: CheckCodeOfConduct, Section: SectionDocumentation, Weight: 2, Sets: setsCodeCommunity, Run: checkCodeOfConduct},
	{ID: CheckContributing, Section: SectionDocumentation, Weight: 4, Sets: setsCodeCommunity, Run: checkContributing},
	{ID: CheckGovernance, Section: SectionDocumentation, Weight: 3, Sets: setsCommunity, Run: checkGovernance},
	{ID: CheckMaintainers, Section: SectionDocumentation, Weight: 3, Sets: setsCodeCommunity, Run: checkMaintainers},
	{ID: CheckReadme, Section: SectionDocumentation, Weight: 10, Sets: setsAll, Run: checkReadme},
	{ID: CheckRoadmap, Section: SectionDocumentation, Weight: 1, Sets: setsCommunity, Run: checkRoadmap},
	{ID: CheckSummaryTable, Section: SectionDocumentation, Weight: 0, Sets: setsCommunity, Run: checkSummaryTable},
	{ID: CheckAnnualReview, Section: SectionDocumentation, Weight: 0, Sets: setsCommunity, Run: checkAnnualReview},
	{ID: CheckWebsite, Section: SectionDocumentation, Weight: 4, Sets: setsCommunity, Run: checkWebsite},

	// License.
	{ID: CheckLicenseSPDXID, Section: SectionLicense, Weight: 2, Sets: setsLicense, Run: checkLicenseSPDXID},
	{ID: CheckLicenseApproved, Section: SectionLicense, Weight: 3, Sets: setsLicense, Run: checkLicenseApproved},
	{ID: CheckLicenseScanning, Section: SectionLicense, Weight: 8, Sets: setsCode, Run: checkLicenseScanning},

	// Best practices.
	{ID: CheckAnalytics, Section: SectionBestPractices, Weight: 0, Sets: setsCommunity, Run: checkAnalytics},
	{ID: CheckArtifactHubBadge, Section: SectionBestPractices, Weight: 1, Sets: setsCode, Run: checkArtifactHubBadge},
	{ID: CheckCLA, Section: SectionBestPractices, Weight: 1, Sets: setsCodeLite, Run: checkCLA},
	{ID: CheckCommunityMeeting, Section: SectionBestPractices, Weight: 3, Sets: setsCommunity, Run: checkCommunityMeeting},
	{ID: CheckDCO, Section: SectionBestPractices, Weight: 1, Sets: setsCodeLite, Run: checkDCO},
	{ID: CheckGitHubDiscussions, Section: SectionBestPractices, Weight: 0, Sets: setsCommunity, Run: checkGitHubDiscussions},
	{ID: CheckOpenSSFBadge, Section: SectionBestPractices, Weight: 5, Sets: setsCode, Run: checkOpenSSFBadge},
	{ID: CheckOpenSSFScorecardBadge, Section: SectionBestPractices, Weight: 0, Sets: setsCode, Run: checkOpenSSFScorecardBadge},
	{ID: CheckRecentRelease, Section: SectionBestPractices, Weight: 3, Sets: setsCodeLite, Run: checkRecentRelease},
	{ID: CheckSlackPresence, Section: SectionBestPractices, Weight: 0, Sets: setsCommunity, Run: checkSlackPresence},

	// Security.
	{ID: CheckBinaryArtifacts, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Binary-Artifacts", Run: scorecardCheck("Binary-Artifacts", passThreshold)},
	{ID: CheckCodeReview, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Code-Review", Run: scorecardCheck("Code-Review", passThreshold)},
	{ID: CheckDangerousWorkflow, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Dangerous-Workflow", Run: scorecardCheck("Dangerous-Workflow", passThreshold)},
	{ID: CheckDependenciesPolicy, Section: SectionSecurity, Weight: 1, Sets: setsCode, Run: checkDependenciesPolicy},
	{ID: CheckDependencyUpdateTool, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Dependency-Update-Tool", Run: scorecardCheck("Dependency-Update-Tool", passThreshold)},
	{ID: CheckMaintained, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Maintained", Run: scorecardCheck("Maintained", passThreshold)},
	{ID: CheckSBOM, Section: SectionSecurity, Weight: 1, Sets: setsCode, Run: checkSBOM},
	{ID: CheckSecurityInsights, Section: SectionSecurity, Weight: 1, Sets: setsCode, Run: checkSecurityInsights},
	{ID: CheckSecurityPolicy, Section: SectionSecurity, Weight: 2, Sets: setsPolicy, Run: checkSecurityPolicy},
	{ID: CheckSelfAssessment, Section: SectionSecurity, Weight: 1, Sets: setsCode, Run: checkSelfAssessment},
	{ID: CheckSignedReleases, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Signed-Releases", Run: scorecardCheck("Signed-Releases", signedReleasesThreshold)},
	{ID: CheckTokenPermissions, Section: SectionSecurity, Weight: 1, Sets: setsCode, Scorecard: "Token-Permissions", Run: scorecardCheck("Token-Permissions", passThreshold)},

	// Legal.
	{ID: CheckTrademarkDisclaimer, Section: SectionLegal, Weight: 10, Sets: setsCommunity, Run: checkTrademarkDisclaimer},
}

var catalogueIndex = func() map[CheckID]*CheckSpec {
	idx := make(map[CheckID]*CheckSpec, len(catalogue))
	for _, spec := range catalogue {
		idx[spec.ID] = spec
	}
	return idx
}()

// Checks returns the full catalogue in report order.
func Checks() []*CheckSpec {
	return catalogue
}

// CheckByID returns the spec for the given id, nil when unknown.
func CheckByID(id CheckID) *CheckSpec {
	return catalogueIndex[id]
}

// SectionWeights returns the per-check weights of every catalogue entry in
// the given section. Scoring uses it to weigh outcomes.
func SectionWeights(section Section) map[CheckID]int {
	weights := map[CheckID]int{}
	for _, spec := range catalogue {
		if spec.Section == section {
			weights[spec.ID] = spec.Weight
		}
	}
	return weights
}
