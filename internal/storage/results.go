package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"git.home.luguber.info/inful/clomonitor/internal/linter"
	"git.home.luguber.info/inful/clomonitor/internal/score"
)

// RatingChange describes how storing results moved the owning project's
// rating letter.
type RatingChange struct {
	ProjectID  uuid.UUID
	Project    string
	Foundation string
	Before     string
	After      string
}

// Changed reports whether the project now carries a different rating.
func (c RatingChange) Changed() bool {
	return c.Before != c.After && c.After != ""
}

// StoreResults records the outcome of one tracking pass in a single
// transaction: the report row is upserted, the repository's score and
// digest updated, and the owning project's aggregated score, rating and
// passed-checks set recomputed from all of its repositories. A nil report
// records the lint error narrative instead; the digest is still updated so
// a broken repository is not re-linted before the staleness window expires.
func (s *Store) StoreResults(ctx context.Context, repositoryID uuid.UUID, report *linter.Report, lintErrs, newDigest string) (RatingChange, error) {
	var change RatingChange
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		// Lock the owning project row so concurrent updates from sibling
		// repositories serialize their aggregate recompute.
		err := tx.QueryRow(ctx, `
			select p.project_id, p.name, p.foundation_id, coalesce(p.rating, '')
			from project p
			join repository r using (project_id)
			where r.repository_id = $1
			for update of p`, repositoryID).Scan(
			&change.ProjectID, &change.Project, &change.Foundation, &change.Before)
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("locking project of repository %s: %w", repositoryID, err)
		}

		if report != nil {
			data, err := report.MarshalData()
			if err != nil {
				return fmt.Errorf("marshaling report: %w", err)
			}
			_, err = tx.Exec(ctx, `
				insert into report (report_id, data, errors, updated_at, repository_id)
				values ($1, $2, null, current_timestamp, $3)
				on conflict (repository_id) do update set
					data = excluded.data,
					errors = null,
					updated_at = current_timestamp`,
				uuid.New(), data, repositoryID)
			if err != nil {
				return fmt.Errorf("upserting report: %w", err)
			}

			scoreJSON, err := json.Marshal(score.Calculate(report))
			if err != nil {
				return fmt.Errorf("marshaling score: %w", err)
			}
			_, err = tx.Exec(ctx, `
				update repository
				set score = $1, digest = nullif($2, ''), updated_at = current_timestamp
				where repository_id = $3`, scoreJSON, newDigest, repositoryID)
			if err != nil {
				return fmt.Errorf("updating repository: %w", err)
			}
		} else {
			_, err = tx.Exec(ctx, `
				insert into report (report_id, data, errors, updated_at, repository_id)
				values ($1, null, nullif($2, ''), current_timestamp, $3)
				on conflict (repository_id) do update set
					data = null,
					errors = excluded.errors,
					updated_at = current_timestamp`,
				uuid.New(), lintErrs, repositoryID)
			if err != nil {
				return fmt.Errorf("recording lint errors: %w", err)
			}
			_, err = tx.Exec(ctx, `
				update repository
				set digest = nullif($1, ''), updated_at = current_timestamp
				where repository_id = $2`, newDigest, repositoryID)
			if err != nil {
				return fmt.Errorf("touching repository: %w", err)
			}
		}

		change.After, err = recomputeProject(ctx, tx, change.ProjectID)
		return err
	})
	if err != nil {
		return RatingChange{}, err
	}
	return change, nil
}

// recomputeProject merges the current repository scores into the project
// score, derives the rating and rebuilds the passed-checks union from the
// stored reports. Runs inside the caller's transaction.
func recomputeProject(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (string, error) {
	rows, err := tx.Query(ctx, `
		select r.score, rep.data
		from repository r
		left join report rep using (repository_id)
		where r.project_id = $1`, projectID)
	if err != nil {
		return "", fmt.Errorf("loading repository scores: %w", err)
	}

	var scores []*score.Score
	passed := map[linter.CheckID]struct{}{}
	for rows.Next() {
		var scoreJSON, reportJSON []byte
		if err := rows.Scan(&scoreJSON, &reportJSON); err != nil {
			rows.Close()
			return "", fmt.Errorf("scanning repository score: %w", err)
		}
		if scoreJSON != nil {
			sc, err := unmarshalScore(scoreJSON)
			if err != nil {
				rows.Close()
				return "", err
			}
			scores = append(scores, sc)
		}
		if reportJSON != nil {
			rep, err := linter.UnmarshalData(reportJSON)
			if err != nil {
				rows.Close()
				return "", fmt.Errorf("unmarshaling report: %w", err)
			}
			for _, id := range rep.PassedCheckIDs() {
				passed[id] = struct{}{}
			}
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return "", err
	}

	if len(scores) == 0 {
		// Nothing scored yet; leave the project untouched.
		return "", nil
	}

	merged := score.Merge(scores)
	rating := merged.Rating()
	scoreJSON, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("marshaling project score: %w", err)
	}
	list := make([]string, 0, len(passed))
	for id := range passed {
		list = append(list, string(id))
	}
	sort.Strings(list)
	passedJSON, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshaling passed checks: %w", err)
	}

	_, err = tx.Exec(ctx, `
		update project
		set score = $1, rating = $2, passed_checks = $3, updated_at = current_timestamp
		where project_id = $4`, scoreJSON, rating, passedJSON, projectID)
	if err != nil {
		return "", fmt.Errorf("updating project aggregate: %w", err)
	}
	return rating, nil
}
