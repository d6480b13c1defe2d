package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

// Stats is the aggregate document for one foundation, or for every
// foundation when built with an empty foundation id. It is served by the
// API and frozen into stats snapshots.
type Stats struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Projects     ProjectStats    `json:"projects"`
	Repositories RepositoryStats `json:"repositories"`
}

// ProjectStats aggregates over projects.
type ProjectStats struct {
	Total                int                `json:"total"`
	RatingDistribution   map[string]int     `json:"rating_distribution"`
	MaturityDistribution map[string]int     `json:"maturity_distribution"`
	SectionsAverage      map[string]float64 `json:"sections_average"`
	ViewsTotal           int                `json:"views_total"`
}

// RepositoryStats aggregates over repositories and their latest reports.
// PassingCheck maps section and check id to the percentage of evaluating
// repositories that pass the check.
type RepositoryStats struct {
	Total        int                           `json:"total"`
	PassingCheck map[string]map[string]float64 `json:"passing_check"`
}

// statsProject is the per-project slice of state the aggregation reads.
type statsProject struct {
	rating   string
	maturity string
	score    *score.Score
}

// Stats renders the current aggregate document. An empty foundation id
// aggregates across all foundations.
func (s *Store) Stats(ctx context.Context, foundationID string) (*Stats, error) {
	projects, err := s.statsProjects(ctx, foundationID)
	if err != nil {
		return nil, err
	}
	repoTotal, reports, err := s.statsReports(ctx, foundationID)
	if err != nil {
		return nil, err
	}

	var views int
	err = s.pool.QueryRow(ctx, `
		select coalesce(sum(v.total), 0)
		from project_views v
		join project p using (project_id)
		where $1 = '' or p.foundation_id = $1`, foundationID).Scan(&views)
	if err != nil {
		return nil, fmt.Errorf("summing views: %w", err)
	}

	return buildStats(time.Now().UTC(), projects, repoTotal, reports, views), nil
}

func (s *Store) statsProjects(ctx context.Context, foundationID string) ([]statsProject, error) {
	rows, err := s.pool.Query(ctx, `
		select coalesce(rating, ''), coalesce(maturity, ''), score
		from project
		where $1 = '' or foundation_id = $1`, foundationID)
	if err != nil {
		return nil, fmt.Errorf("loading project stats rows: %w", err)
	}
	defer rows.Close()

	var projects []statsProject
	for rows.Next() {
		var (
			p         statsProject
			scoreJSON []byte
		)
		if err := rows.Scan(&p.rating, &p.maturity, &scoreJSON); err != nil {
			return nil, fmt.Errorf("scanning project stats row: %w", err)
		}
		if p.score, err = unmarshalScore(scoreJSON); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) statsReports(ctx context.Context, foundationID string) (int, []*linter.Report, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		select count(*)
		from repository r
		join project p using (project_id)
		where $1 = '' or p.foundation_id = $1`, foundationID).Scan(&total)
	if err != nil {
		return 0, nil, fmt.Errorf("counting repositories: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		select rep.data
		from report rep
		join repository r using (repository_id)
		join project p using (project_id)
		where rep.data is not null and ($1 = '' or p.foundation_id = $1)`, foundationID)
	if err != nil {
		return 0, nil, fmt.Errorf("loading reports: %w", err)
	}
	defer rows.Close()

	var reports []*linter.Report
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return 0, nil, fmt.Errorf("scanning report: %w", err)
		}
		rep, err := linter.UnmarshalData(data)
		if err != nil {
			return 0, nil, fmt.Errorf("unmarshaling report: %w", err)
		}
		reports = append(reports, rep)
	}
	return total, reports, rows.Err()
}

// buildStats is the pure aggregation over already-loaded state.
func buildStats(now time.Time, projects []statsProject, repoTotal int, reports []*linter.Report, views int) *Stats {
	stats := &Stats{
		GeneratedAt: now,
		Projects: ProjectStats{
			Total:                len(projects),
			RatingDistribution:   map[string]int{},
			MaturityDistribution: map[string]int{},
			SectionsAverage:      map[string]float64{},
			ViewsTotal:           views,
		},
		Repositories: RepositoryStats{
			Total:        repoTotal,
			PassingCheck: map[string]map[string]float64{},
		},
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, p := range projects {
		if p.rating != "" {
			stats.Projects.RatingDistribution[p.rating]++
		}
		if p.maturity != "" {
			stats.Projects.MaturityDistribution[p.maturity]++
		}
		if p.score == nil {
			continue
		}
		sums["global"] += p.score.Global
		counts["global"]++
		for section, value := range sectionValues(p.score) {
			sums[section] += value
			counts[section]++
		}
	}
	for key, n := range counts {
		stats.Projects.SectionsAverage[key] = math.Round(sums[key] / float64(n))
	}

	passed := map[linter.Section]map[linter.CheckID]int{}
	evaluated := map[linter.Section]map[linter.CheckID]int{}
	for _, rep := range reports {
		for _, section := range linter.Sections() {
			for id, out := range rep.SectionChecks(section) {
				if out == nil {
					continue
				}
				if evaluated[section] == nil {
					evaluated[section] = map[linter.CheckID]int{}
					passed[section] = map[linter.CheckID]int{}
				}
				evaluated[section][id]++
				if out.Passed || out.Exempt {
					passed[section][id]++
				}
			}
		}
	}
	for section, checks := range evaluated {
		pcts := map[string]float64{}
		for id, n := range checks {
			pcts[string(id)] = math.Round(float64(passed[section][id]) / float64(n) * 100)
		}
		stats.Repositories.PassingCheck[string(section)] = pcts
	}

	return stats
}

// sectionValues lists the evaluated section scores keyed by section name.
func sectionValues(s *score.Score) map[string]float64 {
	values := map[string]float64{}
	add := func(key string, v *float64) {
		if v != nil {
			values[key] = *v
		}
	}
	add(string(linter.SectionDocumentation), s.Documentation)
	add(string(linter.SectionLicense), s.License)
	add(string(linter.SectionBestPractices), s.BestPractices)
	add(string(linter.SectionSecurity), s.Security)
	add(string(linter.SectionLegal), s.Legal)
	return values
}
