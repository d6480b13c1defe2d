// Package score turns check reports into section and global scores, a
// rating letter and project-level aggregates. Scoring is pure arithmetic
// over the report and the static check weights.
package score

import (
	"math"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
)

// Weights of each section in the global score.
const (
	WeightDocumentation = 30
	WeightLicense       = 20
	WeightBestPractices = 20
	WeightSecurity      = 15
	WeightLegal         = 5
)

var sectionTable = []struct {
	id     linter.Section
	weight int
}{
	{linter.SectionDocumentation, WeightDocumentation},
	{linter.SectionLicense, WeightLicense},
	{linter.SectionBestPractices, WeightBestPractices},
	{linter.SectionSecurity, WeightSecurity},
	{linter.SectionLegal, WeightLegal},
}

// Score holds the section and global scores of one repository or project.
// Sections that were never evaluated are null on the wire, and their weight
// is null with them.
type Score struct {
	Global       float64 `json:"global"`
	GlobalWeight int     `json:"global_weight"`

	Documentation       *float64 `json:"documentation"`
	DocumentationWeight *int     `json:"documentation_weight"`
	License             *float64 `json:"license"`
	LicenseWeight       *int     `json:"license_weight"`
	BestPractices       *float64 `json:"best_practices"`
	BestPracticesWeight *int     `json:"best_practices_weight"`
	Security            *float64 `json:"security"`
	SecurityWeight      *int     `json:"security_weight"`
	Legal               *float64 `json:"legal"`
	LegalWeight         *int     `json:"legal_weight"`
}

// Section returns the score of one section, nil when it was never evaluated.
func (s *Score) Section(id linter.Section) *float64 {
	return s.section(id)
}

func (s *Score) section(id linter.Section) *float64 {
	switch id {
	case linter.SectionDocumentation:
		return s.Documentation
	case linter.SectionLicense:
		return s.License
	case linter.SectionBestPractices:
		return s.BestPractices
	case linter.SectionSecurity:
		return s.Security
	case linter.SectionLegal:
		return s.Legal
	}
	return nil
}

func (s *Score) setSection(id linter.Section, value float64, weight int) {
	switch id {
	case linter.SectionDocumentation:
		s.Documentation, s.DocumentationWeight = &value, &weight
	case linter.SectionLicense:
		s.License, s.LicenseWeight = &value, &weight
	case linter.SectionBestPractices:
		s.BestPractices, s.BestPracticesWeight = &value, &weight
	case linter.SectionSecurity:
		s.Security, s.SecurityWeight = &value, &weight
	case linter.SectionLegal:
		s.Legal, s.LegalWeight = &value, &weight
	}
}

// Rating returns the rating letter for the global score.
func (s *Score) Rating() string {
	return Rating(s.Global)
}

// Calculate scores a report. A check counts as 1 when passed or exempt and
// 0 when failed or not passed; skipped checks count in neither numerator
// nor denominator. Scores are rounded to whole points.
func Calculate(report *linter.Report) *Score {
	s := &Score{}
	num := 0.0
	den := 0
	for _, sec := range sectionTable {
		value, evaluated := sectionScore(report.SectionChecks(sec.id))
		if !evaluated {
			continue
		}
		s.setSection(sec.id, value, sec.weight)
		num += value * float64(sec.weight)
		den += sec.weight
	}
	if den > 0 {
		s.Global = math.Round(num / float64(den))
	}
	s.GlobalWeight = den
	return s
}

// sectionScore computes one section. A section where only weightless
// checks ran counts as not evaluated.
func sectionScore(checks linter.ChecksMap) (float64, bool) {
	num := 0
	den := 0
	for id, out := range checks {
		spec := linter.CheckByID(id)
		if spec == nil || out == nil {
			continue
		}
		den += spec.Weight
		if out.Passed || out.Exempt {
			num += spec.Weight
		}
	}
	if den == 0 {
		return 0, false
	}
	return math.Round(float64(num) / float64(den) * 100), true
}

// Rating maps a global score to its letter: a for 75 and above, b for 50,
// c for 25, d below that.
func Rating(global float64) string {
	switch {
	case global >= 75:
		return "a"
	case global >= 50:
		return "b"
	case global >= 25:
		return "c"
	default:
		return "d"
	}
}

// Merge combines repository scores into a project score. Every repository
// weighs the same; sections missing from a repository are skipped, and the
// global score is recomputed from the merged sections.
func Merge(scores []*Score) *Score {
	merged := &Score{}
	gnum := 0.0
	gden := 0
	for _, sec := range sectionTable {
		sum := 0.0
		n := 0
		for _, s := range scores {
			if s == nil {
				continue
			}
			if v := s.section(sec.id); v != nil {
				sum += *v
				n++
			}
		}
		if n == 0 {
			continue
		}
		value := math.Round(sum / float64(n))
		merged.setSection(sec.id, value, sec.weight)
		gnum += value * float64(sec.weight)
		gden += sec.weight
	}
	if gden > 0 {
		merged.Global = math.Round(gnum / float64(gden))
	}
	merged.GlobalWeight = gden
	return merged
}
