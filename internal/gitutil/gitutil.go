// Package gitutil wraps the git operations the tracker and checks rely on:
// resolving the remote HEAD commit, shallow-cloning into a scratch
// directory, and walking recent history of a clone.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// CloneDepth bounds how much history a tracking clone fetches. Deep enough
// for the history checks, shallow enough to keep large repositories cheap.
const CloneDepth = 10

// RemoteDigest resolves the commit id the remote HEAD points at, the
// equivalent of the first token of `git ls-remote <url> HEAD`.
func RemoteDigest(ctx context.Context, repoURL string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing remote references for %s: %w", repoURL, err)
	}

	for _, ref := range refs {
		if ref.Name() != plumbing.HEAD {
			continue
		}
		if ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
		// Symbolic HEAD: resolve the branch it points at.
		target := ref.Target()
		for _, r := range refs {
			if r.Name() == target {
				return r.Hash().String(), nil
			}
		}
	}
	return "", fmt.Errorf("remote HEAD not found for %s", repoURL)
}

// Clone makes a shallow single-branch clone of the repository's default
// branch into dir.
func Clone(ctx context.Context, repoURL, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        CloneDepth,
		SingleBranch: true,
	})
	if err != nil {
		return classifyCloneError(repoURL, err)
	}
	return nil
}

// classifyCloneError wraps common go-git failures with clearer messages.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "invalid username or password"):
		return fmt.Errorf("authentication required cloning %s: %w", url, err)
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return fmt.Errorf("repository not found at %s: %w", url, err)
	default:
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
}

// Commit is one entry from a history walk, newest first.
type Commit struct {
	Subject string
	Message string
}

// HeadCommits returns up to max commits reachable from HEAD of the clone
// at dir. Shallow clones run out of history early; the walk stops quietly
// at the boundary.
func HeadCommits(dir string, max int) ([]Commit, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD at %s: %w", dir, err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walking history at %s: %w", dir, err)
	}
	defer iter.Close()

	var commits []Commit
	for len(commits) < max {
		c, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Parents past the shallow boundary are not present locally.
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				break
			}
			return nil, fmt.Errorf("walking history at %s: %w", dir, err)
		}
		commits = append(commits, Commit{
			Subject: firstLine(c.Message),
			Message: c.Message,
		})
	}
	return commits, nil
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return strings.TrimSpace(msg)
}
