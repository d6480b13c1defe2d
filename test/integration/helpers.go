// Package integration exercises the lint pipeline end to end: a working
// tree on disk with real git history, host metadata and scanner output
// flowing through the full check catalogue into a scored report.
package integration

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

// setupTestRepo copies a fixture tree into a temporary directory and turns
// it into a git repository with a single commit. Checks that walk commit
// history see exactly one commit carrying the given message.
func setupTestRepo(t *testing.T, fixtureDir, commitMessage string) string {
	t.Helper()

	tmpDir := t.TempDir()

	err := copyDir(fixtureDir, tmpDir)
	require.NoError(t, err, "failed to copy fixture files")

	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to stage fixture files")

	_, err = w.Commit(commitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	return tmpDir
}

// copyDir recursively copies a directory tree, skipping any .git entries.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if strings.Contains(relPath, ".git") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// lintGolden is the serialized shape of a lint pipeline golden file.
type lintGolden struct {
	Rating string                       `json:"rating"`
	Score  *score.Score                 `json:"score"`
	Checks map[string]map[string]string `json:"checks"`
}

// reportStatuses flattens a report into per-section check outcomes.
// Evidence URLs, details and values depend on temporary paths and fixture
// timestamps, so goldens capture outcomes only.
func reportStatuses(r *linter.Report) map[string]map[string]string {
	statuses := map[string]map[string]string{}
	for _, section := range linter.Sections() {
		checks := map[string]string{}
		for id, out := range r.SectionChecks(section) {
			checks[string(id)] = checkStatus(out)
		}
		statuses[string(section)] = checks
	}
	return statuses
}

func checkStatus(o *linter.CheckOutput) string {
	switch {
	case o.Passed:
		return "passed"
	case o.Exempt:
		return "exempt"
	case o.Failed:
		return "failed"
	default:
		return "not_passed"
	}
}

// verifyLintReport compares the report outcomes and score against a golden
// file, rewriting the golden when update is set.
func verifyLintReport(t *testing.T, report *linter.Report, sc *score.Score, goldenPath string, update bool) {
	t.Helper()

	actual := lintGolden{
		Rating: sc.Rating(),
		Score:  sc,
		Checks: reportStatuses(report),
	}

	actualJSON, err := json.MarshalIndent(actual, "", "  ")
	require.NoError(t, err, "failed to marshal lint result")

	if update {
		err = os.MkdirAll(filepath.Dir(goldenPath), 0o750)
		require.NoError(t, err, "failed to create golden directory")

		err = os.WriteFile(goldenPath, append(actualJSON, '\n'), 0o600)
		require.NoError(t, err, "failed to write golden file")

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden file from testdata
	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	require.JSONEq(t, string(goldenData), string(actualJSON), "lint result mismatch")
}
