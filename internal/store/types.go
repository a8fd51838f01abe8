package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// StandingRow is one line of a competition standings view: the best
// finalized result a team has posted so far, with its most recent phase.
type StandingRow struct {
	TeamID      string `db:"team_id"`
	TeamName    string `db:"team_name"`
	Club        string `db:"club"`
	Competition string `db:"competition"`
	BestPoints  int    `db:"best_points"`
	LastPhase   string `db:"last_phase"`
	LastStatus  string `db:"last_status"`
	Submissions int64  `db:"submissions"`
}
