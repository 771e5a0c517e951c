package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS active_trends (
	rank             INTEGER PRIMARY KEY,
	keyword          TEXT NOT NULL,
	avg_score        DOUBLE PRECISION NOT NULL,
	related_insight  TEXT NOT NULL DEFAULT 'AI Detection',
	status           TEXT NOT NULL,
	category         TEXT NOT NULL,
	source           TEXT NOT NULL DEFAULT 'System',
	link             TEXT NOT NULL DEFAULT '#',
	signal_breakdown JSONB NOT NULL DEFAULT '{}',
	members          JSONB NOT NULL DEFAULT '[]',
	run_id           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trend_history (
	id               BIGSERIAL PRIMARY KEY,
	rank             INTEGER NOT NULL,
	keyword          TEXT NOT NULL,
	avg_score        DOUBLE PRECISION NOT NULL,
	related_insight  TEXT NOT NULL,
	status           TEXT NOT NULL,
	category         TEXT NOT NULL,
	source           TEXT NOT NULL,
	link             TEXT NOT NULL,
	signal_breakdown JSONB NOT NULL,
	members          JSONB NOT NULL,
	run_id           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trend_history_keyword ON trend_history (keyword, created_at DESC);
`

const trendColumns = `rank, keyword, avg_score, related_insight, status, category, source, link,
	signal_breakdown, members, run_id, created_at`

// PostgresStore keeps active trends in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// ReplaceActiveTrends deletes and re-inserts the active table in one
// transaction and appends the rows to the history table.
func (s *PostgresStore) ReplaceActiveTrends(ctx context.Context, trends []models.ActiveTrend) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM active_trends`); err != nil {
		return fmt.Errorf("clear active trends: %w", err)
	}

	for _, t := range trends {
		breakdown, members, err := encodeTrendJSON(t)
		if err != nil {
			return err
		}
		args := []any{
			t.Rank, t.Keyword, t.AvgScore, t.RelatedInsight, string(t.Status), string(t.Category),
			t.Source, t.Link, breakdown, members, t.RunID, t.CreatedAt,
		}

		if _, err := tx.Exec(ctx, `INSERT INTO active_trends (`+trendColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, args...); err != nil {
			return fmt.Errorf("insert active trend rank %d: %w", t.Rank, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO trend_history (`+trendColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, args...); err != nil {
			return fmt.Errorf("insert trend history rank %d: %w", t.Rank, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	log.Info().Int("count", len(trends)).Msg("Active trends replaced")
	return nil
}

// ActiveTrends returns the active table ordered by rank.
func (s *PostgresStore) ActiveTrends(ctx context.Context) ([]models.ActiveTrend, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+trendColumns+` FROM active_trends ORDER BY rank ASC`)
	if err != nil {
		return nil, fmt.Errorf("query active trends: %w", err)
	}
	return collectTrends(rows)
}

// TrendByRank returns one active row.
func (s *PostgresStore) TrendByRank(ctx context.Context, rank int) (*models.ActiveTrend, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+trendColumns+` FROM active_trends WHERE rank = $1`, rank)
	t, err := scanTrend(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trend rank %d: %w", rank, err)
	}
	return t, nil
}

// KeywordHistory returns the most recent persisted rows for a keyword.
func (s *PostgresStore) KeywordHistory(ctx context.Context, keyword string, limit int) ([]models.ActiveTrend, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+trendColumns+` FROM trend_history
		WHERE keyword = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("query keyword history: %w", err)
	}
	return collectTrends(rows)
}

func encodeTrendJSON(t models.ActiveTrend) ([]byte, []byte, error) {
	breakdown := t.SignalBreakdown
	if breakdown == nil {
		breakdown = map[string]float64{}
	}
	members := t.Members
	if members == nil {
		members = []string{}
	}

	b, err := json.Marshal(breakdown)
	if err != nil {
		return nil, nil, fmt.Errorf("encode signal breakdown: %w", err)
	}
	m, err := json.Marshal(members)
	if err != nil {
		return nil, nil, fmt.Errorf("encode members: %w", err)
	}
	return b, m, nil
}

func scanTrend(row pgx.Row) (*models.ActiveTrend, error) {
	var (
		t                  models.ActiveTrend
		status, category   string
		breakdown, members []byte
	)
	if err := row.Scan(
		&t.Rank, &t.Keyword, &t.AvgScore, &t.RelatedInsight, &status, &category, &t.Source, &t.Link,
		&breakdown, &members, &t.RunID, &t.CreatedAt,
	); err != nil {
		return nil, err
	}

	t.Status = models.ParseType(status)
	t.Category = models.ParseCategory(category)
	if err := json.Unmarshal(breakdown, &t.SignalBreakdown); err != nil {
		return nil, fmt.Errorf("decode signal breakdown: %w", err)
	}
	if err := json.Unmarshal(members, &t.Members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	if len(t.Members) == 0 {
		t.Members = nil
	}
	return &t, nil
}

func collectTrends(rows pgx.Rows) ([]models.ActiveTrend, error) {
	defer rows.Close()

	trends := []models.ActiveTrend{}
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		trends = append(trends, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return trends, nil
}
