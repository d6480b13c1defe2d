package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Date is a calendar day as written in catalogue files (YYYY-MM-DD).
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}
	d.Time = t
	return nil
}

// Project is one catalogue entry after normalization. The registrar
// compares its Digest against the stored one to decide whether a
// database write is needed.
type Project struct {
	Name         string       `json:"name" yaml:"name"`
	DisplayName  string       `json:"display_name,omitempty" yaml:"display_name"`
	Description  string       `json:"description,omitempty" yaml:"description"`
	Category     string       `json:"category,omitempty" yaml:"category"`
	HomeURL      string       `json:"home_url,omitempty" yaml:"home_url"`
	LogoURL      string       `json:"logo_url,omitempty" yaml:"logo_url"`
	LogoDarkURL  string       `json:"logo_dark_url,omitempty" yaml:"logo_dark_url"`
	DevStatsURL  string       `json:"devstats_url,omitempty" yaml:"devstats_url"`
	AcceptedAt   Date         `json:"accepted_at,omitempty" yaml:"accepted_at"`
	Maturity     string       `json:"maturity,omitempty" yaml:"maturity"`
	Repositories []Repository `json:"repositories" yaml:"repositories"`
}

// Repository is one repository entry within a catalogue project.
type Repository struct {
	Name      string     `json:"name" yaml:"name"`
	URL       string     `json:"url" yaml:"url"`
	CheckSets []CheckSet `json:"check_sets,omitempty" yaml:"check_sets"`
	Exclude   []string   `json:"exclude,omitempty" yaml:"exclude"`
}

// Excluded reports whether this repository opted out of the given service.
func (r *Repository) Excluded(service string) bool {
	for _, s := range r.Exclude {
		if s == service {
			return true
		}
	}
	return false
}

// Validate checks the fields the registrar requires before persisting.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name not provided")
	}
	if len(p.Repositories) == 0 {
		return fmt.Errorf("project %s: no repositories", p.Name)
	}
	seen := make(map[string]struct{}, len(p.Repositories))
	for i := range p.Repositories {
		r := &p.Repositories[i]
		if r.Name == "" {
			return fmt.Errorf("project %s: repository name not provided", p.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("project %s: duplicated repository name %s", p.Name, r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.URL == "" {
			return fmt.Errorf("project %s: repository %s: url not provided", p.Name, r.Name)
		}
		for _, cs := range r.CheckSets {
			if _, err := ParseCheckSet(string(cs)); err != nil {
				return fmt.Errorf("project %s: repository %s: %w", p.Name, r.Name, err)
			}
		}
	}
	return nil
}

// Digest returns a stable content hash of the project entry. Two catalogue
// reads that describe the same project produce the same digest, so the
// registrar can skip unchanged entries cheaply.
func (p *Project) Digest() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling project %s: %w", p.Name, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
