package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rbtx/arena/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func (s *PostgresStore) FetchStandings(competition string) ([]store.StandingRow, error) {
	query := `
        WITH finalized AS (
            SELECT team_id, total_points, phase, status, timestamp
            FROM scores
            WHERE competition = $1
            AND status != 'pending'
        ),
        best AS (
            SELECT
                team_id,
                MAX(total_points) AS best_points,
                COUNT(*) AS submissions
            FROM finalized
            GROUP BY team_id
        ),
        latest AS (
            SELECT DISTINCT ON (team_id)
                team_id,
                phase AS last_phase,
                status AS last_status
            FROM finalized
            ORDER BY team_id, timestamp DESC
        )
        SELECT
            b.team_id,
            COALESCE(t.name, '') AS team_name,
            COALESCE(t.club, '') AS club,
            $2::text AS competition,
            b.best_points,
            l.last_phase,
            l.last_status,
            b.submissions
        FROM best b
        JOIN latest l ON l.team_id = b.team_id
        LEFT JOIN teams t ON t.id = b.team_id
        ORDER BY b.best_points DESC, b.team_id
    `

	var rows []store.StandingRow
	err := s.DB.Select(&rows, query, competition, competition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}

	return rows, nil
}
