package model

import (
	"testing"
)

func TestParseCheckSet(t *testing.T) {
	valid := map[string]CheckSet{
		"code":      CheckSetCode,
		"CODE-LITE": CheckSetCodeLite,
		"community": CheckSetCommunity,
		"Docs":      CheckSetDocs,
	}
	for in, want := range valid {
		got, err := ParseCheckSet(in)
		if err != nil {
			t.Fatalf("ParseCheckSet(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseCheckSet(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseCheckSet("codelite"); err == nil {
		t.Error("expected error for unknown check set")
	}
	if _, err := ParseCheckSet(""); err == nil {
		t.Error("expected error for empty check set")
	}
}

func TestCheckSetsIntersect(t *testing.T) {
	cases := []struct {
		name string
		a, b []CheckSet
		want bool
	}{
		{"both empty", nil, nil, false},
		{"one empty", []CheckSet{CheckSetCode}, nil, false},
		{"disjoint", []CheckSet{CheckSetCode}, []CheckSet{CheckSetDocs}, false},
		{"shared", []CheckSet{CheckSetCode, CheckSetCommunity}, []CheckSet{CheckSetCommunity}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckSetsIntersect(tc.a, tc.b); got != tc.want {
				t.Errorf("CheckSetsIntersect(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestRepositoryExcluded(t *testing.T) {
	r := Repository{Name: "spec", URL: "https://github.com/acme/spec", Exclude: []string{ServiceName}}
	if !r.Excluded(ServiceName) {
		t.Error("repository should be excluded")
	}
	if r.Excluded("other-service") {
		t.Error("repository should not be excluded for other services")
	}
}

func TestProjectValidate(t *testing.T) {
	valid := Project{
		Name:     "artifact-hub",
		Maturity: MaturityGraduated,
		Repositories: []Repository{
			{Name: "artifact-hub", URL: "https://github.com/artifacthub/hub", CheckSets: []CheckSet{CheckSetCode, CheckSetCommunity}},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(p *Project)
	}{
		{"missing name", func(p *Project) { p.Name = "" }},
		{"no repositories", func(p *Project) { p.Repositories = nil }},
		{"missing repo name", func(p *Project) { p.Repositories[0].Name = "" }},
		{"missing repo url", func(p *Project) { p.Repositories[0].URL = "" }},
		{"bad check set", func(p *Project) { p.Repositories[0].CheckSets = []CheckSet{"codez"} }},
		{"duplicated repo name", func(p *Project) {
			p.Repositories = append(p.Repositories, p.Repositories[0])
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			p.Repositories = append([]Repository(nil), valid.Repositories...)
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProjectDigest(t *testing.T) {
	p := Project{
		Name:     "fluentd",
		Maturity: MaturityGraduated,
		Repositories: []Repository{
			{Name: "fluentd", URL: "https://github.com/fluent/fluentd", CheckSets: []CheckSet{CheckSetCode}},
		},
	}

	d1, err := p.Digest()
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	d2, err := p.Digest()
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	if d1 != d2 {
		t.Errorf("digest not stable: %s vs %s", d1, d2)
	}
	if len(d1) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(d1))
	}

	p.Description = "Unified logging layer"
	d3, err := p.Digest()
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	if d3 == d1 {
		t.Error("digest did not change after content change")
	}
}
