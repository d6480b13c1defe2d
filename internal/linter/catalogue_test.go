package linter

import (
	"testing"

	"git.home.luguber.info/inful/clomonitor/internal/model"
)

func TestCatalogueConsistency(t *testing.T) {
	seen := map[CheckID]bool{}
	for _, spec := range Checks() {
		if seen[spec.ID] {
			t.Errorf("duplicate check id %q", spec.ID)
		}
		seen[spec.ID] = true

		if spec.Run == nil {
			t.Errorf("check %q has no implementation", spec.ID)
		}
		if spec.Weight < 0 {
			t.Errorf("check %q has negative weight", spec.ID)
		}
		if len(spec.Sets) == 0 {
			t.Errorf("check %q belongs to no check set and would never run", spec.ID)
		}
		if got := CheckByID(spec.ID); got != spec {
			t.Errorf("CheckByID(%q) mismatch", spec.ID)
		}
	}
	if len(seen) != 37 {
		t.Errorf("catalogue has %d checks, want 37", len(seen))
	}
}

func TestCatalogueSections(t *testing.T) {
	counts := map[Section]int{}
	for _, spec := range Checks() {
		counts[spec.Section]++
	}
	want := map[Section]int{
		SectionDocumentation: 11,
		SectionLicense:       3,
		SectionBestPractices: 10,
		SectionSecurity:      12,
		SectionLegal:         1,
	}
	for section, n := range want {
		if counts[section] != n {
			t.Errorf("section %s has %d checks, want %d", section, counts[section], n)
		}
	}
}

func TestCatalogueScorecardDelegates(t *testing.T) {
	delegates := 0
	for _, spec := range Checks() {
		if spec.Scorecard != "" {
			delegates++
			if !spec.Applies([]model.CheckSet{model.CheckSetCode}) {
				t.Errorf("delegate %q must belong to the code set", spec.ID)
			}
		}
	}
	if delegates != 7 {
		t.Errorf("found %d scorecard delegates, want 7", delegates)
	}
}

func TestSectionWeights(t *testing.T) {
	weights := SectionWeights(SectionLicense)
	if len(weights) != 3 {
		t.Fatalf("license section has %d checks, want 3", len(weights))
	}
	if weights[CheckLicenseScanning] != 8 {
		t.Errorf("license_scanning weight = %d, want 8", weights[CheckLicenseScanning])
	}
}

func TestDocsURL(t *testing.T) {
	spec := CheckByID(CheckReadme)
	want := "https://clomonitor.io/docs/topics/checks/#readme"
	if got := spec.DocsURL(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
