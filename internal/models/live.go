package models

// LiveSession records which team is currently performing in a competition.
// Absence of a row means nobody is on the track.
type LiveSession struct {
	Competition string `db:"competition" json:"competition"`
	TeamID      string `db:"team_id" json:"team_id"`
	Phase       string `db:"phase" json:"phase"`
	StartedAt   int64  `db:"started_at" json:"started_at"`
}

type Announcement struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}
