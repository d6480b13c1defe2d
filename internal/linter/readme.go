package linter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// readmePatterns locates the repository README. Matching is case-sensitive
// on purpose: a lowercase readme is not the canonical one.
var readmePatterns = FilePattern{
	Patterns:      []string{"README*", ".github/README*", "docs/README*"},
	CaseSensitive: true,
}

// Readme gives checks access to the repository README file, its raw
// content and its markdown headings.
type Readme struct {
	Path    string // repo-relative
	Content string

	headings []string
}

// LoadReadme reads the repository README, (nil, nil) when there is none.
func LoadReadme(root string) (*Readme, error) {
	rel, err := Find(root, readmePatterns)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("reading readme: %w", err)
	}

	r := &Readme{Path: rel, Content: string(data)}
	r.headings = extractHeadings(data)
	return r, nil
}

// extractHeadings parses markdown and collects the plain text of every
// heading.
func extractHeadings(source []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Heading); ok {
			if txt := nodeText(n, source); txt != "" {
				headings = append(headings, txt)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return headings
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// Headings returns the plain text of all markdown headings.
func (r *Readme) Headings() []string {
	if r == nil {
		return nil
	}
	return r.headings
}

// Match reports whether the README content matches the regexp.
func (r *Readme) Match(re *regexp.Regexp) bool {
	return r != nil && re.MatchString(r.Content)
}

// MatchHeading reports whether any markdown heading matches the regexp.
func (r *Readme) MatchHeading(re *regexp.Regexp) bool {
	if r == nil {
		return false
	}
	for _, h := range r.headings {
		if re.MatchString(h) {
			return true
		}
	}
	return false
}

// Capture returns the first capture group of the first content match,
// empty when there is none.
func (r *Readme) Capture(re *regexp.Regexp) string {
	if r == nil {
		return ""
	}
	if m := re.FindStringSubmatch(r.Content); len(m) > 1 {
		return m[1]
	}
	return ""
}
