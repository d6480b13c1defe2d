package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseCatalogue decodes a foundation catalogue file into its project
// entries. Entries come back in file order and unfiltered; callers apply
// exclusion rules themselves.
func ParseCatalogue(data []byte) ([]Project, error) {
	var projects []Project
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	return projects, nil
}

// FilterExcluded removes repositories that opted out of the given service
// and drops projects left without any repository. The input slice is not
// modified.
func FilterExcluded(projects []Project, service string) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		repos := make([]Repository, 0, len(p.Repositories))
		for _, r := range p.Repositories {
			if r.Excluded(service) {
				continue
			}
			repos = append(repos, r)
		}
		if len(repos) == 0 {
			continue
		}
		p.Repositories = repos
		out = append(out, p)
	}
	return out
}
