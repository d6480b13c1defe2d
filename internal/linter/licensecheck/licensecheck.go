// Package licensecheck detects the license of a repository from its
// license file and validates SPDX ids against the approved list.
package licensecheck

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	classifier "github.com/google/licenseclassifier/v2"
	"github.com/google/licenseclassifier/v2/assets"
)

// Licenses an SPDX id must match to count as approved.
var approved = map[string]struct{}{
	"Apache-2.0":           {},
	"BSD-2-Clause":         {},
	"BSD-2-Clause-FreeBSD": {},
	"BSD-3-Clause":         {},
	"CC-BY-4.0":            {},
	"ISC":                  {},
	"MIT":                  {},
	"PostgreSQL":           {},
	"Python-2.0":           {},
	"X11":                  {},
	"Zlib":                 {},
}

// minConfidence is the classifier score a match must exceed to be trusted.
const minConfidence = 0.9

var (
	classifierOnce sync.Once
	classifierInst *classifier.Classifier
	classifierErr  error
)

func defaultClassifier() (*classifier.Classifier, error) {
	classifierOnce.Do(func() {
		classifierInst, classifierErr = assets.DefaultClassifier()
	})
	return classifierInst, classifierErr
}

// IsApproved reports whether the SPDX id belongs to an approved license.
func IsApproved(spdxID string) bool {
	_, ok := approved[spdxID]
	return ok
}

// DetectFile classifies the license file at path and returns its SPDX id.
// An empty id means nothing matched with enough confidence.
func DetectFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading license file: %w", err)
	}
	return Detect(data)
}

// Detect classifies license text and returns its SPDX id. An empty id
// means nothing matched with enough confidence.
func Detect(data []byte) (string, error) {
	c, err := defaultClassifier()
	if err != nil {
		return "", fmt.Errorf("loading license classifier: %w", err)
	}

	results, err := c.MatchFrom(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("classifying license: %w", err)
	}

	best := ""
	bestConfidence := minConfidence
	for _, m := range results.Matches {
		if m.MatchType != "License" {
			continue
		}
		if m.Confidence > bestConfidence {
			best = m.Name
			bestConfidence = m.Confidence
		}
	}
	return best, nil
}
