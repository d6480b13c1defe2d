// Package metadata parses the optional .clomonitor.yml file a repository
// can place at its root to declare check exemptions and extra hints.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileNames lists the accepted metadata file names, in lookup order.
var FileNames = []string{".clomonitor.yml", ".clomonitor.yaml"}

// Exemption declares that a check does not apply to this repository.
// The reason must be non-empty for the exemption to take effect.
type Exemption struct {
	Check  string `yaml:"check"`
	Reason string `yaml:"reason"`
}

// LicenseScanning points at the repository's license scanning results.
type LicenseScanning struct {
	URL string `yaml:"url"`
}

// Metadata is the parsed repository metadata file. Keys are camelCase in
// the file.
type Metadata struct {
	LicenseScanning *LicenseScanning `yaml:"licenseScanning"`
	Exemptions      []Exemption      `yaml:"exemptions"`
}

// FromPath loads the metadata file from the repository root. A missing
// file yields (nil, nil); a file that cannot be parsed yields an error,
// which callers must treat as fatal for the repository since exemption
// semantics cannot be trusted.
func FromPath(root string) (*Metadata, error) {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		var md Metadata
		if err := yaml.Unmarshal(data, &md); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		return &md, nil
	}
	return nil, nil
}

// ExemptionFor returns the declared exemption for the given check id, nil
// when there is none or its reason is empty.
func (m *Metadata) ExemptionFor(check string) *Exemption {
	if m == nil {
		return nil
	}
	for i := range m.Exemptions {
		e := &m.Exemptions[i]
		if e.Check == check && strings.TrimSpace(e.Reason) != "" {
			return e
		}
	}
	return nil
}
