package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"git.home.luguber.info/inful/clomonitor/internal/model"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

// Foundations lists all registered foundations. Rows are operator-managed;
// the service only ever reads them.
func (s *Store) Foundations(ctx context.Context) ([]model.Foundation, error) {
	rows, err := s.pool.Query(ctx, `
		select foundation_id, data_url, coalesce(landscape_url, '')
		from foundation
		order by foundation_id`)
	if err != nil {
		return nil, fmt.Errorf("listing foundations: %w", err)
	}
	defer rows.Close()

	var foundations []model.Foundation
	for rows.Next() {
		var f model.Foundation
		if err := rows.Scan(&f.ID, &f.DataURL, &f.LandscapeURL); err != nil {
			return nil, fmt.Errorf("scanning foundation: %w", err)
		}
		foundations = append(foundations, f)
	}
	return foundations, rows.Err()
}

// ProjectsOf returns the names and digests of every stored project of the
// foundation. The digest is empty when the project has never been digested.
func (s *Store) ProjectsOf(ctx context.Context, foundationID string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `
		select name, coalesce(digest, '')
		from project
		where foundation_id = $1`, foundationID)
	if err != nil {
		return nil, fmt.Errorf("listing projects of %s: %w", foundationID, err)
	}
	defer rows.Close()

	projects := map[string]string{}
	for rows.Next() {
		var name, digest string
		if err := rows.Scan(&name, &digest); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects[name] = digest
	}
	return projects, rows.Err()
}

// UpsertProject writes one catalogue project and reconciles its repository
// rows in the same transaction: incoming repositories are upserted by name,
// repositories no longer listed are removed.
func (s *Store) UpsertProject(ctx context.Context, foundationID string, p *model.Project) error {
	digest, err := p.Digest()
	if err != nil {
		return fmt.Errorf("digesting project %s: %w", p.Name, err)
	}

	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var projectID uuid.UUID
		err := tx.QueryRow(ctx, `
			insert into project (
				project_id, name, display_name, description, category,
				home_url, logo_url, logo_dark_url, devstats_url,
				accepted_at, maturity, digest, updated_at, foundation_id
			) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, current_timestamp, $13)
			on conflict (foundation_id, name) do update set
				display_name = excluded.display_name,
				description = excluded.description,
				category = excluded.category,
				home_url = excluded.home_url,
				logo_url = excluded.logo_url,
				logo_dark_url = excluded.logo_dark_url,
				devstats_url = excluded.devstats_url,
				accepted_at = excluded.accepted_at,
				maturity = excluded.maturity,
				digest = excluded.digest,
				updated_at = current_timestamp
			returning project_id`,
			uuid.New(), p.Name, nullable(p.DisplayName), nullable(p.Description),
			nullable(p.Category), nullable(p.HomeURL), nullable(p.LogoURL),
			nullable(p.LogoDarkURL), nullable(p.DevStatsURL), nullableDate(p.AcceptedAt),
			nullable(p.Maturity), digest, foundationID,
		).Scan(&projectID)
		if err != nil {
			return fmt.Errorf("upserting project %s: %w", p.Name, err)
		}

		names := make([]string, 0, len(p.Repositories))
		for i := range p.Repositories {
			r := &p.Repositories[i]
			names = append(names, r.Name)
			_, err := tx.Exec(ctx, `
				insert into repository (repository_id, name, url, check_sets, project_id)
				values ($1, $2, $3, $4, $5)
				on conflict (project_id, name) do update set
					url = excluded.url,
					check_sets = excluded.check_sets`,
				uuid.New(), r.Name, r.URL, checkSetStrings(r.CheckSets), projectID)
			if err != nil {
				return fmt.Errorf("upserting repository %s: %w", r.Name, err)
			}
		}
		_, err = tx.Exec(ctx, `
			delete from repository
			where project_id = $1 and name != all($2::text[])`, projectID, names)
		if err != nil {
			return fmt.Errorf("pruning repositories of %s: %w", p.Name, err)
		}
		return nil
	})
	return err
}

// DeleteProject removes a project; repositories and reports cascade.
func (s *Store) DeleteProject(ctx context.Context, foundationID, name string) error {
	_, err := s.pool.Exec(ctx, `
		delete from project
		where foundation_id = $1 and name = $2`, foundationID, name)
	if err != nil {
		return fmt.Errorf("deleting project %s/%s: %w", foundationID, name, err)
	}
	return nil
}

// ProjectID resolves a project by foundation and name.
func (s *Store) ProjectID(ctx context.Context, foundationID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		select project_id from project
		where foundation_id = $1 and name = $2`, foundationID, name).Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving project %s/%s: %w", foundationID, name, err)
	}
	return id, nil
}

// ProjectIDs lists the project ids of one foundation, or of every
// foundation when foundationID is empty.
func (s *Store) ProjectIDs(ctx context.Context, foundationID string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		select project_id from project
		where $1 = '' or foundation_id = $1
		order by foundation_id, name`, foundationID)
	if err != nil {
		return nil, fmt.Errorf("listing project ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProjectDetail is the rendered project document served by the API and
// frozen into snapshots.
type ProjectDetail struct {
	Foundation   string             `json:"foundation"`
	Name         string             `json:"name"`
	DisplayName  string             `json:"display_name,omitempty"`
	Description  string             `json:"description,omitempty"`
	Category     string             `json:"category,omitempty"`
	HomeURL      string             `json:"home_url,omitempty"`
	LogoURL      string             `json:"logo_url,omitempty"`
	LogoDarkURL  string             `json:"logo_dark_url,omitempty"`
	DevStatsURL  string             `json:"devstats_url,omitempty"`
	AcceptedAt   string             `json:"accepted_at,omitempty"`
	Maturity     string             `json:"maturity,omitempty"`
	Score        *score.Score       `json:"score,omitempty"`
	Rating       string             `json:"rating,omitempty"`
	PassedChecks []string           `json:"passed_checks,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Repositories []RepositoryDetail `json:"repositories"`
}

// RepositoryDetail is one repository within a project document.
type RepositoryDetail struct {
	Name      string          `json:"name"`
	URL       string          `json:"url"`
	CheckSets []string        `json:"check_sets,omitempty"`
	Digest    string          `json:"digest,omitempty"`
	Score     *score.Score    `json:"score,omitempty"`
	Report    json.RawMessage `json:"report,omitempty"`
	Errors    string          `json:"report_errors,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// ProjectDetailByID renders the current project document.
func (s *Store) ProjectDetailByID(ctx context.Context, projectID uuid.UUID) (*ProjectDetail, error) {
	d := &ProjectDetail{}
	var (
		acceptedAt *time.Time
		scoreJSON  []byte
		passed     []byte
	)
	err := s.pool.QueryRow(ctx, `
		select foundation_id, name, coalesce(display_name, ''), coalesce(description, ''),
			coalesce(category, ''), coalesce(home_url, ''), coalesce(logo_url, ''),
			coalesce(logo_dark_url, ''), coalesce(devstats_url, ''), accepted_at,
			coalesce(maturity, ''), score, coalesce(rating, ''), passed_checks, updated_at
		from project
		where project_id = $1`, projectID).Scan(
		&d.Foundation, &d.Name, &d.DisplayName, &d.Description,
		&d.Category, &d.HomeURL, &d.LogoURL,
		&d.LogoDarkURL, &d.DevStatsURL, &acceptedAt,
		&d.Maturity, &scoreJSON, &d.Rating, &passed, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	if acceptedAt != nil {
		d.AcceptedAt = acceptedAt.Format("2006-01-02")
	}
	if d.Score, err = unmarshalScore(scoreJSON); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if passed != nil {
		if err := json.Unmarshal(passed, &d.PassedChecks); err != nil {
			return nil, fmt.Errorf("project %s passed checks: %w", projectID, err)
		}
	}

	rows, err := s.pool.Query(ctx, `
		select r.name, r.url, r.check_sets, coalesce(r.digest, ''), r.score, r.updated_at,
			rep.data, coalesce(rep.errors, '')
		from repository r
		left join report rep using (repository_id)
		where r.project_id = $1
		order by r.name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading repositories of %s: %w", projectID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         RepositoryDetail
			scoreJSON []byte
			report    []byte
		)
		if err := rows.Scan(&r.Name, &r.URL, &r.CheckSets, &r.Digest, &scoreJSON,
			&r.UpdatedAt, &report, &r.Errors); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		if r.Score, err = unmarshalScore(scoreJSON); err != nil {
			return nil, fmt.Errorf("repository %s: %w", r.Name, err)
		}
		r.Report = json.RawMessage(report)
		d.Repositories = append(d.Repositories, r)
	}
	return d, rows.Err()
}

// ProjectDetail renders the current document of a project addressed by
// foundation and name.
func (s *Store) ProjectDetail(ctx context.Context, foundationID, name string) (*ProjectDetail, error) {
	id, err := s.ProjectID(ctx, foundationID, name)
	if err != nil {
		return nil, err
	}
	return s.ProjectDetailByID(ctx, id)
}

func unmarshalScore(data []byte) (*score.Score, error) {
	if data == nil {
		return nil, nil
	}
	var sc score.Score
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("unmarshaling score: %w", err)
	}
	return &sc, nil
}

// nullable maps empty strings to SQL null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

func checkSetStrings(sets []model.CheckSet) []string {
	out := make([]string, len(sets))
	for i, cs := range sets {
		out[i] = string(cs)
	}
	return out
}
