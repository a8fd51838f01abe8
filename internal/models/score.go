package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	StatusPending    = "pending"
	StatusWinner     = "winner"
	StatusQualified  = "qualified"
	StatusEliminated = "eliminated"
	StatusDraw       = "draw"
	StatusValidated  = "validated"
)

// DetailedScores maps section id to points. Accumulative sections keep their
// positive and negative contributions under separate bucket keys, see the
// scoring package.
type DetailedScores map[string]int

func (d DetailedScores) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(DetailedScores{})
	}
	return json.Marshal(d)
}

func (d *DetailedScores) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DetailedScores", src)
	}
}

type ScoreRecord struct {
	TeamID      string `db:"team_id" json:"team_id" validate:"required"`
	Competition string `db:"competition" json:"competition" validate:"required"`
	Phase       string `db:"phase" json:"phase" validate:"required"`
	// MatchID is set for group-based competitions only; time trials score
	// teams individually.
	MatchID      *string        `db:"match_id" json:"match_id,omitempty"`
	Detailed     DetailedScores `db:"detailed" json:"detailed_scores"`
	TotalPoints  int            `db:"total_points" json:"total_points"`
	Status       string         `db:"status" json:"status" validate:"required,oneof=pending winner qualified eliminated draw validated"`
	Timestamp    int64          `db:"timestamp" json:"timestamp"`
	IsSentToTeam bool           `db:"is_sent_to_team" json:"is_sent_to_team"`
	EditReason   string         `db:"edit_reason" json:"edit_reason,omitempty"`
	UpdatedAt    *int64         `db:"updated_at" json:"updated_at,omitempty"`
}

func (r *ScoreRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Finalized reports whether the record carries a result rather than a slot
// reserved by the draw.
func (r *ScoreRecord) Finalized() bool {
	return r.Status != StatusPending
}

// StringList is stored as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(StringList{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

type MatchGroup struct {
	ID          string     `db:"id" json:"id"`
	Competition string     `db:"competition" json:"competition"`
	Phase       string     `db:"phase" json:"phase"`
	Position    int        `db:"position" json:"position"`
	TeamIDs     StringList `db:"team_ids" json:"team_ids"`
}
