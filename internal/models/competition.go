package models

type CompetitionKind string

const (
	KindMatch     CompetitionKind = "match"
	KindTimeTrial CompetitionKind = "time_trial"
)

// Competition is a row from the competitions table. Slug is the canonical
// identifier; LegacyID and UUID are the alternate schemes still present in
// registration data.
type Competition struct {
	Slug     string          `db:"slug" json:"slug" validate:"required"`
	Name     string          `db:"name" json:"name"`
	Kind     CompetitionKind `db:"kind" json:"kind" validate:"oneof=match time_trial"`
	Phase    string          `db:"phase" json:"phase"`
	LegacyID string          `db:"legacy_id" json:"legacy_id"`
	UUID     string          `db:"uuid" json:"uuid"`
}
