// Package model defines the domain entities shared across the registrar,
// tracker, linter and storage layers: foundations, projects, repositories
// and the check sets a repository participates in.
package model

import (
	"fmt"
	"strings"
)

// ServiceName identifies this service in catalogue `exclude` lists.
const ServiceName = "clomonitor"

// CheckSet classifies which group of checks applies to a repository.
type CheckSet string

const (
	CheckSetCode      CheckSet = "code"
	CheckSetCodeLite  CheckSet = "code-lite"
	CheckSetCommunity CheckSet = "community"
	CheckSetDocs      CheckSet = "docs"
)

// ParseCheckSet validates a check set tag as found in catalogues and CLI flags.
func ParseCheckSet(s string) (CheckSet, error) {
	switch CheckSet(strings.ToLower(s)) {
	case CheckSetCode:
		return CheckSetCode, nil
	case CheckSetCodeLite:
		return CheckSetCodeLite, nil
	case CheckSetCommunity:
		return CheckSetCommunity, nil
	case CheckSetDocs:
		return CheckSetDocs, nil
	}
	return "", fmt.Errorf("invalid check set: %q", s)
}

// CheckSetsIntersect reports whether the two sets share at least one tag.
func CheckSetsIntersect(a, b []CheckSet) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Maturity levels a foundation assigns to its projects.
const (
	MaturitySandbox    = "sandbox"
	MaturityIncubating = "incubating"
	MaturityGraduated  = "graduated"
)

// Foundation is the operator-managed owner of a project catalogue.
type Foundation struct {
	ID           string
	DataURL      string
	LandscapeURL string
}
