package scoring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/store"
)

// ErrDuplicatePhaseSubmission is returned when a finalized record already
// exists for the same (team, competition, phase) tuple. The UI is expected
// to have disabled the choice already; the ledger enforces it regardless.
var ErrDuplicatePhaseSubmission = errors.New("team already has a finalized score for this phase")

// Ledger accumulates per-team, per-phase score records against the external
// store and guards the one-finalized-record-per-tuple invariant.
type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Submit finalizes a score record. The duplicate check here gives callers a
// clear early answer, but the real guard is the conditional write: the store
// only lets a finalized record claim a slot that is still pending, so of two
// interleaved submits for the same tuple exactly one lands.
func (l *Ledger) Submit(rec *models.ScoreRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid score record: %w", err)
	}
	if !rec.Finalized() {
		return fmt.Errorf("submit requires a finalized status, got %q", rec.Status)
	}

	existing, err := l.store.GetFinalizedScore(rec.Competition, rec.Phase, rec.TeamID)
	if err != nil {
		return fmt.Errorf("failed to check for existing submission: %w", err)
	}
	if existing != nil {
		return ErrDuplicatePhaseSubmission
	}

	if rec.TotalPoints == 0 && len(rec.Detailed) > 0 {
		rec.TotalPoints = Aggregate(rec.Detailed)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}

	applied, err := l.store.FinalizeScore(rec)
	if err != nil {
		return fmt.Errorf("remote write failed: %w", err)
	}
	if !applied {
		return ErrDuplicatePhaseSubmission
	}
	return nil
}

// Update re-opens and re-finalizes an existing record. This skips the
// duplicate check on purpose: edits are explicit operator actions and carry
// an audit reason. Editing does not reset is_sent_to_team.
func (l *Ledger) Update(rec *models.ScoreRecord, reason string) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid score record: %w", err)
	}

	existing, err := l.store.GetScore(rec.Competition, rec.Phase, rec.TeamID)
	if err != nil {
		return fmt.Errorf("failed to load record for edit: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("no score record for team %s in %s/%s", rec.TeamID, rec.Competition, rec.Phase)
	}

	if rec.TotalPoints == 0 && len(rec.Detailed) > 0 {
		rec.TotalPoints = Aggregate(rec.Detailed)
	}
	rec.EditReason = reason
	now := time.Now().Unix()
	rec.UpdatedAt = &now

	if err := l.store.SaveScore(rec); err != nil {
		return fmt.Errorf("remote write failed: %w", err)
	}
	return nil
}

// Delete removes a record entirely, audit trail permitting.
func (l *Ledger) Delete(competition, phase, teamID string) error {
	return l.store.DeleteScore(competition, phase, teamID)
}

// IsAlreadySubmitted reports whether a finalized record exists for the tuple.
func (l *Ledger) IsAlreadySubmitted(competition, phase, teamID string) (bool, error) {
	existing, err := l.store.GetFinalizedScore(competition, phase, teamID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// TeamHistory is one team's submission history, latest first.
type TeamHistory struct {
	TeamID  string               `json:"team_id"`
	Records []models.ScoreRecord `json:"records"`
}

// GroupByTeam groups records by team identity, independent of phase or
// competition label. Teams keep the order of first appearance; within a
// team, the latest submission comes first so the most recent result is
// authoritative for display.
func GroupByTeam(records []models.ScoreRecord) []TeamHistory {
	order := []string{}
	byTeam := map[string][]models.ScoreRecord{}
	for _, rec := range records {
		if _, ok := byTeam[rec.TeamID]; !ok {
			order = append(order, rec.TeamID)
		}
		byTeam[rec.TeamID] = append(byTeam[rec.TeamID], rec)
	}

	out := make([]TeamHistory, 0, len(order))
	for _, teamID := range order {
		recs := byTeam[teamID]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Timestamp > recs[j].Timestamp
		})
		out = append(out, TeamHistory{TeamID: teamID, Records: recs})
	}
	return out
}
