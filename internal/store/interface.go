package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rbtx/arena/internal/models"
)

// Store is the client side of the external transactional store. All writes
// are synchronous request/response: a caller must not update local state
// until the write confirms.
type Store interface {
	Close() error
	ApplyMigrations(dir string) error

	ListCompetitions() ([]models.Competition, error)
	GetCompetition(slug string) (*models.Competition, error)
	SetCompetitionPhase(slug, phase string) error

	ListTeams(competition string) ([]models.Team, error)
	GetTeam(id string) (*models.Team, error)
	UpsertTeam(team *models.Team) error

	CreateDraw(groups []models.MatchGroup, pending []models.ScoreRecord) error
	ListMatchGroups(competition, phase string) ([]models.MatchGroup, error)
	DeleteDraw(competition, phase string) error
	HasFinalizedScores(competition, phase string) (bool, error)

	GetScore(competition, phase, teamID string) (*models.ScoreRecord, error)
	GetFinalizedScore(competition, phase, teamID string) (*models.ScoreRecord, error)
	SaveScore(rec *models.ScoreRecord) error
	FinalizeScore(rec *models.ScoreRecord) (bool, error)
	DeleteScore(competition, phase, teamID string) error
	ListScores(competition string) ([]models.ScoreRecord, error)
	ListTeamScores(teamID string) ([]models.ScoreRecord, error)
	FetchStandings(competition string) ([]StandingRow, error)

	GetLiveSession(competition string) (*models.LiveSession, error)
	ListLiveSessions() ([]models.LiveSession, error)
	StartLiveSession(session *models.LiveSession) error
	EndLiveSession(competition string) error

	ListAnnouncements(limit int) ([]models.Announcement, error)
	CreateAnnouncement(a *models.Announcement) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) ListCompetitions() ([]models.Competition, error) {
	var comps []models.Competition
	err := s.DB.Select(&comps, `
		SELECT slug, name, kind, phase, legacy_id, uuid
		FROM competitions
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return comps, nil
}

func (s *BaseStore) GetCompetition(slug string) (*models.Competition, error) {
	var comp models.Competition
	query := s.Converter(`
		SELECT slug, name, kind, phase, legacy_id, uuid
		FROM competitions
		WHERE slug = ?
	`)

	err := s.DB.Get(&comp, query, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	return &comp, nil
}

func (s *BaseStore) SetCompetitionPhase(slug, phase string) error {
	query := s.Converter(`UPDATE competitions SET phase = ? WHERE slug = ?`)
	if _, err := s.DB.Exec(query, phase, slug); err != nil {
		return fmt.Errorf("failed to set competition phase: %w", err)
	}
	return nil
}

func (s *BaseStore) ListTeams(competition string) ([]models.Team, error) {
	var teams []models.Team
	var err error
	if competition == "" {
		err = s.DB.Select(&teams, `
			SELECT id, name, club, university, competition, members, display_order
			FROM teams
			ORDER BY display_order, id
		`)
	} else {
		query := s.Converter(`
			SELECT id, name, club, university, competition, members, display_order
			FROM teams
			WHERE competition = ?
			ORDER BY display_order, id
		`)
		err = s.DB.Select(&teams, query, competition)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *BaseStore) GetTeam(id string) (*models.Team, error) {
	var team models.Team
	query := s.Converter(`
		SELECT id, name, club, university, competition, members, display_order
		FROM teams
		WHERE id = ?
	`)

	err := s.DB.Get(&team, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (s *BaseStore) UpsertTeam(team *models.Team) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO teams (id, name, club, university, competition, members, display_order)
		VALUES (:id, :name, :club, :university, :competition, :members, :display_order)
		ON CONFLICT(id) DO UPDATE SET
		name = :name,
		club = :club,
		university = :university,
		competition = :competition,
		members = :members,
		display_order = :display_order
	`, team)
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}
	return nil
}

// CreateDraw writes the match groups of a phase and their pending score
// records in a single transaction. A partial draw must never land.
func (s *BaseStore) CreateDraw(groups []models.MatchGroup, pending []models.ScoreRecord) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin draw transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range groups {
		_, err := tx.NamedExec(`
			INSERT INTO match_groups (id, competition, phase, position, team_ids)
			VALUES (:id, :competition, :phase, :position, :team_ids)
		`, &groups[i])
		if err != nil {
			return fmt.Errorf("failed to insert match group: %w", err)
		}
	}

	for i := range pending {
		_, err := tx.NamedExec(`
			INSERT INTO scores (team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at)
			VALUES (:team_id, :competition, :phase, :match_id, :detailed, :total_points, :status, :timestamp, :is_sent_to_team, :edit_reason, :updated_at)
		`, &pending[i])
		if err != nil {
			return fmt.Errorf("failed to insert pending score: %w", err)
		}
	}

	return tx.Commit()
}

func (s *BaseStore) ListMatchGroups(competition, phase string) ([]models.MatchGroup, error) {
	var groups []models.MatchGroup
	query := s.Converter(`
		SELECT id, competition, phase, position, team_ids
		FROM match_groups
		WHERE competition = ? AND phase = ?
		ORDER BY position
	`)

	err := s.DB.Select(&groups, query, competition, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to list match groups: %w", err)
	}
	return groups, nil
}

// DeleteDraw removes the groups and pending records of a phase. Finalized
// records are left untouched; callers check the phase lock first.
func (s *BaseStore) DeleteDraw(competition, phase string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.Converter(`DELETE FROM match_groups WHERE competition = ? AND phase = ?`)
	if _, err := tx.Exec(query, competition, phase); err != nil {
		return fmt.Errorf("failed to delete match groups: %w", err)
	}

	query = s.Converter(`DELETE FROM scores WHERE competition = ? AND phase = ? AND status = 'pending'`)
	if _, err := tx.Exec(query, competition, phase); err != nil {
		return fmt.Errorf("failed to delete pending scores: %w", err)
	}

	return tx.Commit()
}

func (s *BaseStore) HasFinalizedScores(competition, phase string) (bool, error) {
	var count int
	query := s.Converter(`
		SELECT COUNT(*) FROM scores
		WHERE competition = ? AND phase = ? AND status != 'pending'
	`)

	if err := s.DB.Get(&count, query, competition, phase); err != nil {
		return false, fmt.Errorf("failed to count finalized scores: %w", err)
	}
	return count > 0, nil
}

func (s *BaseStore) GetScore(competition, phase, teamID string) (*models.ScoreRecord, error) {
	var rec models.ScoreRecord
	query := s.Converter(`
		SELECT team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at
		FROM scores
		WHERE competition = ? AND phase = ? AND team_id = ?
	`)

	err := s.DB.Get(&rec, query, competition, phase, teamID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return &rec, nil
}

func (s *BaseStore) GetFinalizedScore(competition, phase, teamID string) (*models.ScoreRecord, error) {
	var rec models.ScoreRecord
	query := s.Converter(`
		SELECT team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at
		FROM scores
		WHERE competition = ? AND phase = ? AND team_id = ? AND status != 'pending'
	`)

	err := s.DB.Get(&rec, query, competition, phase, teamID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finalized score: %w", err)
	}
	return &rec, nil
}

// SaveScore upserts on (competition, phase, team_id), so finalizing a slot
// the draw reserved updates the pending row in place.
func (s *BaseStore) SaveScore(rec *models.ScoreRecord) error {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO scores (team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at)
		VALUES (:team_id, :competition, :phase, :match_id, :detailed, :total_points, :status, :timestamp, :is_sent_to_team, :edit_reason, :updated_at)
		ON CONFLICT(competition, phase, team_id) DO UPDATE SET
		match_id = :match_id,
		detailed = :detailed,
		total_points = :total_points,
		status = :status,
		timestamp = :timestamp,
		is_sent_to_team = :is_sent_to_team,
		edit_reason = :edit_reason,
		updated_at = :updated_at
	`, rec)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}

// FinalizeScore writes a finalized record but only claims a slot that is
// still pending (or empty). The WHERE clause on the upsert makes the
// one-finalized-record guard atomic at the database: of two interleaved
// submits for the same tuple, exactly one reports applied. Audited edits go
// through SaveScore, which overwrites unconditionally.
func (s *BaseStore) FinalizeScore(rec *models.ScoreRecord) (bool, error) {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	res, err := s.DB.NamedExec(`
		INSERT INTO scores (team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at)
		VALUES (:team_id, :competition, :phase, :match_id, :detailed, :total_points, :status, :timestamp, :is_sent_to_team, :edit_reason, :updated_at)
		ON CONFLICT(competition, phase, team_id) DO UPDATE SET
		match_id = :match_id,
		detailed = :detailed,
		total_points = :total_points,
		status = :status,
		timestamp = :timestamp,
		is_sent_to_team = :is_sent_to_team,
		edit_reason = :edit_reason,
		updated_at = :updated_at
		WHERE scores.status = 'pending'
	`, rec)
	if err != nil {
		return false, fmt.Errorf("failed to finalize score: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read finalize result: %w", err)
	}
	return rows > 0, nil
}

func (s *BaseStore) DeleteScore(competition, phase, teamID string) error {
	query := s.Converter(`
		DELETE FROM scores
		WHERE competition = ? AND phase = ? AND team_id = ?
	`)
	if _, err := s.DB.Exec(query, competition, phase, teamID); err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}
	return nil
}

func (s *BaseStore) ListScores(competition string) ([]models.ScoreRecord, error) {
	var recs []models.ScoreRecord
	query := s.Converter(`
		SELECT team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at
		FROM scores
		WHERE competition = ?
		ORDER BY team_id, timestamp DESC
	`)

	err := s.DB.Select(&recs, query, competition)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return recs, nil
}

func (s *BaseStore) ListTeamScores(teamID string) ([]models.ScoreRecord, error) {
	var recs []models.ScoreRecord
	query := s.Converter(`
		SELECT team_id, competition, phase, match_id, detailed, total_points, status, timestamp, is_sent_to_team, edit_reason, updated_at
		FROM scores
		WHERE team_id = ?
		ORDER BY timestamp DESC
	`)

	err := s.DB.Select(&recs, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team scores: %w", err)
	}
	return recs, nil
}

func (s *BaseStore) GetLiveSession(competition string) (*models.LiveSession, error) {
	var session models.LiveSession
	query := s.Converter(`
		SELECT competition, team_id, phase, started_at
		FROM live_sessions
		WHERE competition = ?
	`)

	err := s.DB.Get(&session, query, competition)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live session: %w", err)
	}
	return &session, nil
}

func (s *BaseStore) ListLiveSessions() ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	err := s.DB.Select(&sessions, `
		SELECT competition, team_id, phase, started_at
		FROM live_sessions
		ORDER BY competition
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}
	return sessions, nil
}

// StartLiveSession is last-writer-wins: a start while a session is already
// live simply replaces it.
func (s *BaseStore) StartLiveSession(session *models.LiveSession) error {
	if session.StartedAt == 0 {
		session.StartedAt = time.Now().Unix()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO live_sessions (competition, team_id, phase, started_at)
		VALUES (:competition, :team_id, :phase, :started_at)
		ON CONFLICT(competition) DO UPDATE SET
		team_id = :team_id,
		phase = :phase,
		started_at = :started_at
	`, session)
	if err != nil {
		return fmt.Errorf("failed to start live session: %w", err)
	}
	return nil
}

func (s *BaseStore) EndLiveSession(competition string) error {
	query := s.Converter(`DELETE FROM live_sessions WHERE competition = ?`)
	if _, err := s.DB.Exec(query, competition); err != nil {
		return fmt.Errorf("failed to end live session: %w", err)
	}
	return nil
}

func (s *BaseStore) ListAnnouncements(limit int) ([]models.Announcement, error) {
	var items []models.Announcement
	query := s.Converter(`
		SELECT id, title, body, created_at
		FROM announcements
		ORDER BY created_at DESC
		LIMIT ?
	`)

	err := s.DB.Select(&items, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return items, nil
}

func (s *BaseStore) CreateAnnouncement(a *models.Announcement) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO announcements (title, body, created_at)
		VALUES (:title, :body, :created_at)
	`, a)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}
