// Package landscape fetches foundation landscape files and extracts the
// per-project extra information some community checks consume. Files are
// cached for 30 minutes and fetched single-flight, so concurrent lints of
// projects in the same foundation share one download.
package landscape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/clomonitor/internal/httpclient"
)

const (
	cacheTTL        = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Entry is the extra block of one landscape item.
type Entry struct {
	ClomonitorName         string `yaml:"clomonitor_name"`
	AnnualReviewDate       string `yaml:"annual_review_date"`
	AnnualReviewURL        string `yaml:"annual_review_url"`
	SummaryBusinessUseCase string `yaml:"summary_business_use_case"`
	SummaryIntegrations    string `yaml:"summary_integrations"`
	SummaryIntroURL        string `yaml:"summary_intro_url"`
	SummaryPersonas        string `yaml:"summary_personas"`
	SummaryReleaseRate     string `yaml:"summary_release_rate"`
	SummaryTags            string `yaml:"summary_tags"`
	SummaryUseCase         string `yaml:"summary_use_case"`
}

// HasSummaryInfo reports whether any summary table field is filled in.
func (e *Entry) HasSummaryInfo() bool {
	if e == nil {
		return false
	}
	return e.SummaryBusinessUseCase != "" ||
		e.SummaryIntegrations != "" ||
		e.SummaryIntroURL != "" ||
		e.SummaryPersonas != "" ||
		e.SummaryReleaseRate != "" ||
		e.SummaryTags != "" ||
		e.SummaryUseCase != ""
}

// SummaryTable returns the filled-in summary fields keyed the way the
// rendered report expects them. The release rate intentionally surfaces
// under "release_date".
func (e *Entry) SummaryTable() map[string]string {
	if e == nil {
		return nil
	}
	table := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			table[key] = value
		}
	}
	set("business_use_case", e.SummaryBusinessUseCase)
	set("integrations", e.SummaryIntegrations)
	set("intro_url", e.SummaryIntroURL)
	set("personas", e.SummaryPersonas)
	set("release_date", e.SummaryReleaseRate)
	set("tags", e.SummaryTags)
	set("use_case", e.SummaryUseCase)
	return table
}

// AnnualReview returns the annual review date and URL when both are
// declared.
func (e *Entry) AnnualReview() (date, url string, ok bool) {
	if e == nil || e.AnnualReviewDate == "" || e.AnnualReviewURL == "" {
		return "", "", false
	}
	return e.AnnualReviewDate, e.AnnualReviewURL, true
}

type landscapeFile struct {
	Landscape []category `yaml:"landscape"`
}

type category struct {
	Subcategories []subcategory `yaml:"subcategories"`
}

type subcategory struct {
	Items []item `yaml:"items"`
}

type item struct {
	Name  string `yaml:"name"`
	Extra *Entry `yaml:"extra"`
}

func (f *landscapeFile) project(name string) *Entry {
	for _, c := range f.Landscape {
		for _, sc := range c.Subcategories {
			for _, it := range sc.Items {
				if it.Extra != nil && it.Extra.ClomonitorName == name {
					return it.Extra
				}
			}
		}
	}
	return nil
}

// Client looks up landscape entries by project name.
type Client struct {
	http  *http.Client
	cache *gocache.Cache
	group singleflight.Group
}

// NewClient creates a landscape client on top of the shared HTTP client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		http:  httpClient,
		cache: gocache.New(cacheTTL, cleanupInterval),
	}
}

// Project returns the landscape entry whose clomonitor_name matches the
// given project name, nil when the landscape has no such entry.
func (c *Client) Project(ctx context.Context, landscapeURL, name string) (*Entry, error) {
	file, err := c.landscape(ctx, landscapeURL)
	if err != nil {
		return nil, err
	}
	return file.project(name), nil
}

func (c *Client) landscape(ctx context.Context, url string) (*landscapeFile, error) {
	if cached, ok := c.cache.Get(url); ok {
		return cached.(*landscapeFile), nil
	}

	result, err, _ := c.group.Do(url, func() (any, error) {
		// A concurrent flight may have populated the cache already.
		if cached, ok := c.cache.Get(url); ok {
			return cached, nil
		}

		data, err := httpclient.GetBody(ctx, c.http, url)
		if err != nil {
			return nil, fmt.Errorf("fetching landscape %s: %w", url, err)
		}

		var file landscapeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing landscape %s: %w", url, err)
		}

		c.cache.Set(url, &file, gocache.DefaultExpiration)
		return &file, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*landscapeFile), nil
}
