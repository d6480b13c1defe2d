// Package insights parses the optional SECURITY-INSIGHTS.yml manifest
// (OpenSSF security insights spec). Only the fields consumed by checks are
// modeled.
package insights

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileNames lists the accepted manifest file names, in lookup order.
var FileNames = []string{"SECURITY-INSIGHTS.yml", "SECURITY-INSIGHTS.yaml"}

// Document is the parsed manifest.
type Document struct {
	Dependencies      *Dependencies      `yaml:"dependencies"`
	SecurityArtifacts *SecurityArtifacts `yaml:"security-artifacts"`
}

type Dependencies struct {
	EnvDependenciesPolicy *EnvDependenciesPolicy `yaml:"env-dependencies-policy"`
}

type EnvDependenciesPolicy struct {
	PolicyURL string `yaml:"policy-url"`
}

type SecurityArtifacts struct {
	SelfAssessment *SelfAssessment `yaml:"self-assessment"`
}

type SelfAssessment struct {
	Comment     string   `yaml:"comment"`
	EvidenceURL []string `yaml:"evidence-url"`
}

// FromPath loads the manifest from the repository root. A missing file
// yields (nil, nil).
func FromPath(root string) (*Document, error) {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		return &doc, nil
	}
	return nil, nil
}

// DependenciesPolicyURL returns the environment dependencies policy URL,
// empty when not declared.
func (d *Document) DependenciesPolicyURL() string {
	if d == nil || d.Dependencies == nil || d.Dependencies.EnvDependenciesPolicy == nil {
		return ""
	}
	return d.Dependencies.EnvDependenciesPolicy.PolicyURL
}

// SelfAssessmentURL returns the first self assessment evidence URL, empty
// when not declared.
func (d *Document) SelfAssessmentURL() string {
	if d == nil || d.SecurityArtifacts == nil || d.SecurityArtifacts.SelfAssessment == nil {
		return ""
	}
	if urls := d.SecurityArtifacts.SelfAssessment.EvidenceURL; len(urls) > 0 {
		return urls[0]
	}
	return ""
}
