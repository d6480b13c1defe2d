package linter

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// FilePattern describes a file lookup in the working tree. Patterns are
// path.Match globs relative to the repository root, tried in order.
type FilePattern struct {
	Patterns      []string
	CaseSensitive bool
}

// Find returns the repo-relative path of the first file matching the
// pattern set, empty when nothing matches. Matching is restricted to the
// directories the patterns name; the tree is never walked fully.
func Find(root string, fp FilePattern) (string, error) {
	for _, pattern := range fp.Patterns {
		dir, base := path.Split(pattern)
		dir = strings.TrimSuffix(dir, "/")

		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(dir)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("reading directory %q: %w", dir, err)
		}

		match := base
		if !fp.CaseSensitive {
			match = strings.ToLower(base)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !fp.CaseSensitive {
				name = strings.ToLower(name)
			}
			ok, err := path.Match(match, name)
			if err != nil {
				return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if ok {
				return path.Join(dir, entry.Name()), nil
			}
		}
	}
	return "", nil
}

// RepoFileURL builds the canonical host URL of a file in the repository.
// Falls back to HEAD when the default branch is unknown.
func RepoFileURL(repoURL, branch, relPath string) string {
	if branch == "" {
		branch = "HEAD"
	}
	return fmt.Sprintf("%s/blob/%s/%s", strings.TrimSuffix(repoURL, "/"), branch, relPath)
}

// communityRepoFileURLs returns the probe URL and the display URL of a
// file in the owner-level .github repository.
func communityRepoFileURLs(owner, file string) (rawURL, htmlURL string) {
	rawURL = fmt.Sprintf("https://raw.githubusercontent.com/%s/.github/HEAD/%s", owner, file)
	htmlURL = fmt.Sprintf("https://github.com/%s/.github/blob/HEAD/%s", owner, file)
	return rawURL, htmlURL
}

// matchesAny reports whether any of the regexps matches s.
func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
