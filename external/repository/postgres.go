package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (remote_id, url, target_languages, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id::text, remote_id, url, target_languages, started_at, ended_at, status::text, stop_reason, section_count`,
		input.RemoteID, input.URL, input.TargetLanguages, input.StartedAt)
	var s repository.Session
	var endedAt *time.Time
	var status string
	err := row.Scan(&s.ID, &s.RemoteID, &s.URL, &s.TargetLanguages, &s.StartedAt, &endedAt, &status, &s.StopReason, &s.SectionCount)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	s.Status = repository.SessionStatus(status)
	return &s, nil
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET status = 'completed', ended_at = $2, stop_reason = $3, section_count = $4 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.StopReason, input.SectionCount)
	return err
}

func (r *PostgresRepository) GetSettings(ctx context.Context) (*repository.LanguageSettings, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT languages, max_words_before_reset, updated_at FROM language_settings WHERE id = 1`)
	var s repository.LanguageSettings
	if err := row.Scan(&s.Languages, &s.MaxWordsBeforeReset, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) SaveSettings(ctx context.Context, settings repository.LanguageSettings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO language_settings (id, languages, max_words_before_reset, updated_at)
		 VALUES (1, $1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET languages = EXCLUDED.languages, max_words_before_reset = EXCLUDED.max_words_before_reset, updated_at = EXCLUDED.updated_at`,
		settings.Languages, settings.MaxWordsBeforeReset)
	return err
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}
