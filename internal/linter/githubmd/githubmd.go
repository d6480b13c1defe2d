// Package githubmd fetches the host-side metadata checks consume: repository
// settings, community health files, the latest release, and a few details
// only available through the GraphQL API (commit check contexts, discussions,
// security policy).
package githubmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// RepoInfo is the host metadata for one repository.
type RepoInfo struct {
	Owner         string
	Name          string
	DefaultBranch string
	Homepage      string
	LicenseSPDXID string

	// Community profile file locations, empty when GitHub reports none.
	CodeOfConductURL string
	ContributingURL  string

	// LatestRelease is the latest non-pre-release, nil when the repository
	// has none.
	LatestRelease *Release

	// CheckContexts flattens the check-suite app names, check-run names and
	// commit status contexts found on the head commit of the most recently
	// merged pull request.
	CheckContexts []string

	// LatestDiscussionAt is the creation time of the newest discussion, nil
	// when discussions are unused.
	LatestDiscussionAt *time.Time

	SecurityPolicyURL string
}

// Release is the subset of release metadata checks look at.
type Release struct {
	Name        string
	Description string
	URL         string
	CreatedAt   time.Time
	Assets      []string
}

var githubURLRE = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/?$`)

// ParseURL extracts owner and repository name from a GitHub HTTPS URL.
func ParseURL(repoURL string) (owner, name string, err error) {
	m := githubURLRE.FindStringSubmatch(strings.TrimSuffix(repoURL, ".git"))
	if m == nil {
		return "", "", fmt.Errorf("invalid GitHub repository url: %s", repoURL)
	}
	return m[1], m[2], nil
}

// Provider fetches host metadata for a repository.
type Provider interface {
	Metadata(ctx context.Context, owner, name string) (*RepoInfo, error)
}

// Narrow service interfaces so tests can inject deterministic fakes
// instead of the full SDK surface.
type repositoriesService interface {
	Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
	GetCommunityHealthMetrics(ctx context.Context, owner, repo string) (*github.CommunityHealthMetrics, *github.Response, error)
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

type graphQLService interface {
	Query(ctx context.Context, q any, variables map[string]any) error
}

// Client implements Provider on top of the GitHub REST and GraphQL APIs.
type Client struct {
	repos repositoriesService
	gql   graphQLService
}

// NewClient creates a metadata client authenticated with the given token.
func NewClient(ctx context.Context, token string) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))
	return &Client{
		repos: github.NewClient(httpClient).Repositories,
		gql:   githubv4.NewClient(httpClient),
	}
}

// Metadata fetches everything in one pass. A failure to read the repository
// itself is fatal; missing optional resources (no releases, no community
// profile) are tolerated.
func (c *Client) Metadata(ctx context.Context, owner, name string) (*RepoInfo, error) {
	repo, _, err := c.repos.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", owner, name, err)
	}

	info := &RepoInfo{
		Owner:         owner,
		Name:          name,
		DefaultBranch: repo.GetDefaultBranch(),
		Homepage:      repo.GetHomepage(),
		LicenseSPDXID: repo.GetLicense().GetSPDXID(),
	}

	profile, _, err := c.repos.GetCommunityHealthMetrics(ctx, owner, name)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("getting community profile for %s/%s: %w", owner, name, err)
	}
	if files := profile.GetFiles(); files != nil {
		info.CodeOfConductURL = files.GetCodeOfConduct().GetHTMLURL()
		info.ContributingURL = files.GetContributing().GetHTMLURL()
	}

	release, _, err := c.repos.GetLatestRelease(ctx, owner, name)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("getting latest release for %s/%s: %w", owner, name, err)
	}
	if release != nil {
		r := &Release{
			Name:        release.GetName(),
			Description: release.GetBody(),
			URL:         release.GetHTMLURL(),
			CreatedAt:   release.GetCreatedAt().Time,
		}
		for _, a := range release.Assets {
			r.Assets = append(r.Assets, a.GetName())
		}
		info.LatestRelease = r
	}

	if err := c.queryGraphQL(ctx, info); err != nil {
		return nil, err
	}

	return info, nil
}

func (c *Client) queryGraphQL(ctx context.Context, info *RepoInfo) error {
	var q struct {
		Repository struct {
			SecurityPolicyURL githubv4.String `graphql:"securityPolicyUrl"`
			PullRequests      struct {
				Nodes []struct {
					Commits struct {
						Nodes []struct {
							Commit struct {
								CheckSuites struct {
									Nodes []struct {
										App struct {
											Name githubv4.String
										}
										CheckRuns struct {
											Nodes []struct {
												Name githubv4.String
											}
										} `graphql:"checkRuns(first: 50)"`
									}
								} `graphql:"checkSuites(first: 20)"`
								Status struct {
									Contexts []struct {
										Context githubv4.String
									}
								}
							}
						}
					} `graphql:"commits(last: 1)"`
				}
			} `graphql:"pullRequests(states: MERGED, last: 1)"`
			Discussions struct {
				Nodes []struct {
					CreatedAt githubv4.DateTime
				}
			} `graphql:"discussions(first: 1, orderBy: {field: CREATED_AT, direction: DESC})"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]any{
		"owner": githubv4.String(info.Owner),
		"name":  githubv4.String(info.Name),
	}
	if err := c.gql.Query(ctx, &q, variables); err != nil {
		return fmt.Errorf("querying GraphQL metadata for %s/%s: %w", info.Owner, info.Name, err)
	}

	info.SecurityPolicyURL = string(q.Repository.SecurityPolicyURL)

	for _, pr := range q.Repository.PullRequests.Nodes {
		for _, cn := range pr.Commits.Nodes {
			for _, cs := range cn.Commit.CheckSuites.Nodes {
				if name := string(cs.App.Name); name != "" {
					info.CheckContexts = append(info.CheckContexts, name)
				}
				for _, run := range cs.CheckRuns.Nodes {
					if name := string(run.Name); name != "" {
						info.CheckContexts = append(info.CheckContexts, name)
					}
				}
			}
			for _, sc := range cn.Commit.Status.Contexts {
				if name := string(sc.Context); name != "" {
					info.CheckContexts = append(info.CheckContexts, name)
				}
			}
		}
	}

	if nodes := q.Repository.Discussions.Nodes; len(nodes) > 0 {
		t := nodes[0].CreatedAt.Time
		info.LatestDiscussionAt = &t
	}

	return nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
