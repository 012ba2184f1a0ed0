package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"livequiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionSetStore persists named question sets as JSONB rows.
type QuestionSetStore struct {
	pool *pgxpool.Pool
}

func NewQuestionSetStore(pool *pgxpool.Pool) *QuestionSetStore {
	return &QuestionSetStore{pool: pool}
}

func (s *QuestionSetStore) Save(ctx context.Context, name string, questions []domain.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_sets (name, data) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		name, data)
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

func (s *QuestionSetStore) Load(ctx context.Context, name string) ([]domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE name=$1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set %q: %w", name, err)
	}
	return questions, nil
}

func (s *QuestionSetStore) List(ctx context.Context) ([]domain.SetInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, jsonb_array_length(data) FROM question_sets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list question sets: %w", err)
	}
	defer rows.Close()

	var out []domain.SetInfo
	for rows.Next() {
		var info domain.SetInfo
		if err := rows.Scan(&info.Name, &info.Count); err != nil {
			return nil, fmt.Errorf("scan question set row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *QuestionSetStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM question_sets WHERE name=$1`, name)
	if err != nil {
		return fmt.Errorf("delete question set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}
