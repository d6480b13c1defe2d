// Package linter runs the check catalogue against a repository: local file
// inspection on a fresh clone combined with host metadata, landscape data
// and the output of an external security scanner. Results are grouped into
// a Report, one section per concern.
package linter

import "encoding/json"

// Section identifies one of the five report sections.
type Section string

const (
	SectionDocumentation Section = "documentation"
	SectionLicense       Section = "license"
	SectionBestPractices Section = "best_practices"
	SectionSecurity      Section = "security"
	SectionLegal         Section = "legal"
)

// Sections lists all report sections in presentation order.
func Sections() []Section {
	return []Section{
		SectionDocumentation,
		SectionLicense,
		SectionBestPractices,
		SectionSecurity,
		SectionLegal,
	}
}

// CheckID identifies one check in the catalogue.
type CheckID string

const (
	CheckAdopters              CheckID = "adopters"
	CheckChangelog             CheckID = "changelog"
	CheckCodeOfConduct         CheckID = "code_of_conduct"
	CheckContributing          CheckID = "contributing"
	CheckGovernance            CheckID = "governance"
	CheckMaintainers           CheckID = "maintainers"
	CheckReadme                CheckID = "readme"
	CheckRoadmap               CheckID = "roadmap"
	CheckSummaryTable          CheckID = "summary_table"
	CheckAnnualReview          CheckID = "annual_review"
	CheckWebsite               CheckID = "website"
	CheckLicenseSPDXID         CheckID = "license_spdx_id"
	CheckLicenseApproved       CheckID = "license_approved"
	CheckLicenseScanning       CheckID = "license_scanning"
	CheckAnalytics             CheckID = "analytics"
	CheckArtifactHubBadge      CheckID = "artifacthub_badge"
	CheckCLA                   CheckID = "cla"
	CheckCommunityMeeting      CheckID = "community_meeting"
	CheckDCO                   CheckID = "dco"
	CheckGitHubDiscussions     CheckID = "github_discussions"
	CheckOpenSSFBadge          CheckID = "openssf_badge"
	CheckOpenSSFScorecardBadge CheckID = "openssf_scorecard_badge"
	CheckRecentRelease         CheckID = "recent_release"
	CheckSlackPresence         CheckID = "slack_presence"
	CheckBinaryArtifacts       CheckID = "binary_artifacts"
	CheckCodeReview            CheckID = "code_review"
	CheckDangerousWorkflow     CheckID = "dangerous_workflow"
	CheckDependenciesPolicy    CheckID = "dependencies_policy"
	CheckDependencyUpdateTool  CheckID = "dependency_update_tool"
	CheckMaintained            CheckID = "maintained"
	CheckSBOM                  CheckID = "sbom"
	CheckSecurityInsights      CheckID = "security_insights"
	CheckSecurityPolicy        CheckID = "security_policy"
	CheckSelfAssessment        CheckID = "self_assessment"
	CheckSignedReleases        CheckID = "signed_releases"
	CheckTokenPermissions      CheckID = "token_permissions"
	CheckTrademarkDisclaimer   CheckID = "trademark_disclaimer"
)

// CheckOutput is the result of a single check. At most one of Passed,
// Exempt and Failed is set; all three unset means "not passed".
type CheckOutput struct {
	Passed          bool   `json:"passed"`
	Exempt          bool   `json:"exempt"`
	Failed          bool   `json:"failed"`
	URL             string `json:"url,omitempty"`
	Details         string `json:"details,omitempty"`
	Value           any    `json:"value,omitempty"`
	ExemptionReason string `json:"exemption_reason,omitempty"`
	FailReason      string `json:"fail_reason,omitempty"`
}

// Pass returns a passing output.
func Pass() *CheckOutput {
	return &CheckOutput{Passed: true}
}

// PassURL returns a passing output pointing at the evidence found.
func PassURL(url string) *CheckOutput {
	return &CheckOutput{Passed: true, URL: url}
}

// NotPassed returns a non-passing output without failure semantics.
func NotPassed() *CheckOutput {
	return &CheckOutput{}
}

// ExemptFor returns an exempt output with the given reason.
func ExemptFor(reason string) *CheckOutput {
	return &CheckOutput{Exempt: true, ExemptionReason: reason}
}

// FailedFor converts a check error into a failed output.
func FailedFor(err error) *CheckOutput {
	return &CheckOutput{Failed: true, FailReason: err.Error()}
}

// Concluded reports whether the output already carries an outcome a
// cross-check exemption must not override.
func (o *CheckOutput) Concluded() bool {
	return o != nil && (o.Passed || o.Exempt)
}

// ChecksMap holds the outputs of one report section keyed by check id.
// Skipped checks have no entry at all.
type ChecksMap map[CheckID]*CheckOutput

// Report groups check outputs by section for one repository.
type Report struct {
	Documentation ChecksMap `json:"documentation"`
	License       ChecksMap `json:"license"`
	BestPractices ChecksMap `json:"best_practices"`
	Security      ChecksMap `json:"security"`
	Legal         ChecksMap `json:"legal"`
}

// NewReport returns a report with all sections initialized.
func NewReport() *Report {
	return &Report{
		Documentation: ChecksMap{},
		License:       ChecksMap{},
		BestPractices: ChecksMap{},
		Security:      ChecksMap{},
		Legal:         ChecksMap{},
	}
}

// SectionChecks returns the map backing the given section.
func (r *Report) SectionChecks(s Section) ChecksMap {
	switch s {
	case SectionDocumentation:
		return r.Documentation
	case SectionLicense:
		return r.License
	case SectionBestPractices:
		return r.BestPractices
	case SectionSecurity:
		return r.Security
	case SectionLegal:
		return r.Legal
	}
	return nil
}

// Get returns the output stored for the given check, nil when the check
// was skipped.
func (r *Report) Get(s Section, id CheckID) *CheckOutput {
	m := r.SectionChecks(s)
	if m == nil {
		return nil
	}
	return m[id]
}

func (r *Report) set(s Section, id CheckID, o *CheckOutput) {
	if m := r.SectionChecks(s); m != nil {
		m[id] = o
	}
}

// PassedCheckIDs returns the ids of all checks that passed, in no
// particular order. Exempt checks do not count as passed here.
func (r *Report) PassedCheckIDs() []CheckID {
	var ids []CheckID
	for _, s := range Sections() {
		for id, o := range r.SectionChecks(s) {
			if o != nil && o.Passed {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// MarshalData serializes the report for storage.
func (r *Report) MarshalData() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalData restores a report serialized with MarshalData.
func UnmarshalData(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
