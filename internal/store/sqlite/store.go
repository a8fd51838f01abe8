package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rbtx/arena/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := map[string]string{
		"BIGSERIAL PRIMARY KEY": "INTEGER PRIMARY KEY AUTOINCREMENT",
		"BIGINT":                "INTEGER",
		"JSONB":                 "TEXT",
		"BOOLEAN":               "INTEGER",
		"TRUE":                  "1",
		"FALSE":                 "0",
		"now()":                 "CURRENT_TIMESTAMP",
		"VARCHAR(16)":           "TEXT",
		"VARCHAR(32)":           "TEXT",
		"VARCHAR(64)":           "TEXT",
		"VARCHAR(128)":          "TEXT",
		"::text":                "",
	}
	result := sql
	for from, to := range replacements {
		result = strings.ReplaceAll(result, from, to)
	}
	return result
}

func (s *SQLiteStore) FetchStandings(competition string) ([]store.StandingRow, error) {
	query := `
		WITH finalized AS (
			SELECT team_id, total_points, phase, status, timestamp
			FROM scores
			WHERE competition = ?
			AND status != 'pending'
		),
		best AS (
			SELECT
				team_id,
				MAX(total_points) AS best_points,
				COUNT(*) AS submissions
			FROM finalized
			GROUP BY team_id
		)
		SELECT
			b.team_id,
			COALESCE(t.name, '') AS team_name,
			COALESCE(t.club, '') AS club,
			? AS competition,
			b.best_points,
			(SELECT phase FROM finalized f WHERE f.team_id = b.team_id ORDER BY f.timestamp DESC LIMIT 1) AS last_phase,
			(SELECT status FROM finalized f WHERE f.team_id = b.team_id ORDER BY f.timestamp DESC LIMIT 1) AS last_status,
			b.submissions
		FROM best b
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
