package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

func scored(global float64, doc, sec *float64) *score.Score {
	return &score.Score{Global: global, Documentation: doc, Security: sec}
}

func f(v float64) *float64 { return &v }

func TestBuildStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	projects := []statsProject{
		{rating: "a", maturity: "graduated", score: scored(90, f(100), f(80))},
		{rating: "b", maturity: "incubating", score: scored(60, f(50), nil)},
		{rating: "a", maturity: "graduated", score: nil},
	}

	passing := linter.NewReport()
	passing.Documentation[linter.CheckReadme] = linter.Pass()
	passing.Documentation[linter.CheckAdopters] = linter.ExemptFor("n/a")
	failing := linter.NewReport()
	failing.Documentation[linter.CheckReadme] = linter.NotPassed()

	stats := buildStats(now, projects, 5, []*linter.Report{passing, failing}, 42)

	assert.Equal(t, now, stats.GeneratedAt)
	assert.Equal(t, 3, stats.Projects.Total)
	assert.Equal(t, 42, stats.Projects.ViewsTotal)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, stats.Projects.RatingDistribution)
	assert.Equal(t, map[string]int{"graduated": 2, "incubating": 1}, stats.Projects.MaturityDistribution)

	assert.Equal(t, 75.0, stats.Projects.SectionsAverage["global"])
	assert.Equal(t, 75.0, stats.Projects.SectionsAverage["documentation"])
	assert.Equal(t, 80.0, stats.Projects.SectionsAverage["security"])
	assert.NotContains(t, stats.Projects.SectionsAverage, "license")

	assert.Equal(t, 5, stats.Repositories.Total)
	docs := stats.Repositories.PassingCheck["documentation"]
	require.NotNil(t, docs)
	assert.Equal(t, 50.0, docs["readme"])
	assert.Equal(t, 100.0, docs["adopters"])
	assert.NotContains(t, stats.Repositories.PassingCheck, "security")
}

func TestBuildStatsEmpty(t *testing.T) {
	stats := buildStats(time.Now(), nil, 0, nil, 0)

	assert.Zero(t, stats.Projects.Total)
	assert.Empty(t, stats.Projects.RatingDistribution)
	assert.Empty(t, stats.Projects.SectionsAverage)
	assert.Empty(t, stats.Repositories.PassingCheck)
}
