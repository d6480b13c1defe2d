package gitutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newLocalRepo creates a repository with the given commit messages, oldest
// first, and returns its path.
func newLocalRepo(t *testing.T, messages ...string) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	for i, msg := range messages {
		name := fmt.Sprintf("file%d.txt", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(msg), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatal(err)
		}
		_, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test Author",
				Email: "author@example.org",
				When:  time.Now(),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRemoteDigest(t *testing.T) {
	dir := newLocalRepo(t, "initial commit")

	digest, err := RemoteDigest(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(digest) != 40 {
		t.Errorf("digest = %q, want 40-char commit id", digest)
	}

	// The digest must follow HEAD.
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if digest != head.Hash().String() {
		t.Errorf("digest = %s, head = %s", digest, head.Hash())
	}
}

func TestRemoteDigestBadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RemoteDigest(ctx, filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestHeadCommits(t *testing.T) {
	dir := newLocalRepo(t,
		"first commit\n\nSigned-off-by: Test Author <author@example.org>",
		"second commit",
		"Merge branch 'feature'",
	)

	commits, err := HeadCommits(dir, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("got %d commits, want 3", len(commits))
	}

	// Newest first.
	if commits[0].Subject != "Merge branch 'feature'" {
		t.Errorf("subject[0] = %q", commits[0].Subject)
	}
	if commits[2].Subject != "first commit" {
		t.Errorf("subject[2] = %q", commits[2].Subject)
	}
}

func TestHeadCommitsHonorsLimit(t *testing.T) {
	dir := newLocalRepo(t, "one", "two", "three", "four")

	commits, err := HeadCommits(dir, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 2 {
		t.Errorf("got %d commits, want 2", len(commits))
	}
}

func TestHeadCommitsNotARepo(t *testing.T) {
	if _, err := HeadCommits(t.TempDir(), 20); err == nil {
		t.Fatal("expected error for non-repository directory")
	}
}

func TestCloneBadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Clone(ctx, filepath.Join(t.TempDir(), "missing"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestFirstLine(t *testing.T) {
	cases := map[string]string{
		"single":                   "single",
		"subject\n\nbody text":     "subject",
		"  padded subject  \nbody": "padded subject",
		"":                         "",
	}
	for in, want := range cases {
		if got := firstLine(in); got != want {
			t.Errorf("firstLine(%q) = %q, want %q", in, got, want)
		}
	}
}
