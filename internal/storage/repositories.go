package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/clomonitor/internal/model"
)

// TrackedRepository is a repository joined with its owning project and
// foundation: everything one tracker pass needs.
type TrackedRepository struct {
	ID        uuid.UUID
	Name      string
	URL       string
	CheckSets []model.CheckSet
	Digest    string
	UpdatedAt time.Time // zero when never tracked

	Project      string
	Maturity     string
	Foundation   string
	LandscapeURL string
}

// Repositories lists every repository with its project context, ordered
// stably so runs process them in a predictable order.
func (s *Store) Repositories(ctx context.Context) ([]TrackedRepository, error) {
	rows, err := s.pool.Query(ctx, `
		select r.repository_id, r.name, r.url, r.check_sets,
			coalesce(r.digest, ''), r.updated_at,
			p.name, coalesce(p.maturity, ''),
			f.foundation_id, coalesce(f.landscape_url, '')
		from repository r
		join project p using (project_id)
		join foundation f using (foundation_id)
		order by f.foundation_id, p.name, r.name`)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var repos []TrackedRepository
	for rows.Next() {
		var (
			r         TrackedRepository
			sets      []string
			updatedAt *time.Time
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.URL, &sets, &r.Digest, &updatedAt,
			&r.Project, &r.Maturity, &r.Foundation, &r.LandscapeURL); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		for _, cs := range sets {
			r.CheckSets = append(r.CheckSets, model.CheckSet(cs))
		}
		if updatedAt != nil {
			r.UpdatedAt = *updatedAt
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}
