package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rbtx/arena/internal/models"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	postgres, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := postgres.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		postgres.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestScoreLifecycle(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	groups := []models.MatchGroup{
		{ID: "g1", Competition: "soccer", Phase: "qualifications", Position: 1, TeamIDs: models.StringList{"T1", "T2"}},
	}
	pending := []models.ScoreRecord{
		{TeamID: "T1", Competition: "soccer", Phase: "qualifications", Status: models.StatusPending, Timestamp: 1},
		{TeamID: "T2", Competition: "soccer", Phase: "qualifications", Status: models.StatusPending, Timestamp: 1},
	}
	require.NoError(t, s.CreateDraw(groups, pending))

	locked, err := s.HasFinalizedScores("soccer", "qualifications")
	require.NoError(t, err)
	assert.False(t, locked)

	applied, err := s.FinalizeScore(&models.ScoreRecord{
		TeamID:      "T1",
		Competition: "soccer",
		Phase:       "qualifications",
		Detailed:    models.DetailedScores{"goals": 3},
		TotalPoints: 3,
		Status:      models.StatusWinner,
		Timestamp:   2,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.FinalizeScore(&models.ScoreRecord{
		TeamID:      "T1",
		Competition: "soccer",
		Phase:       "qualifications",
		TotalPoints: 9,
		Status:      models.StatusEliminated,
		Timestamp:   3,
	})
	require.NoError(t, err)
	assert.False(t, applied, "a finalized slot must not be reclaimed")

	got, err := s.GetFinalizedScore("soccer", "qualifications", "T1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TotalPoints)
	assert.Equal(t, 3, got.Detailed["goals"])

	locked, err = s.HasFinalizedScores("soccer", "qualifications")
	require.NoError(t, err)
	assert.True(t, locked)

	records, err := s.ListScores("soccer")
	require.NoError(t, err)
	assert.Len(t, records, 2, "finalizing must reuse the pending row")
}

func TestFetchStandings(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.UpsertTeam(&models.Team{ID: "T1", Name: "Alpha", Club: "North", Competition: "robot_sumo"}))
	require.NoError(t, s.UpsertTeam(&models.Team{ID: "T2", Name: "Beta", Club: "South", Competition: "robot_sumo"}))

	records := []models.ScoreRecord{
		{TeamID: "T1", Competition: "robot_sumo", Phase: "qualifications", TotalPoints: 10, Status: models.StatusQualified, Timestamp: 100},
		{TeamID: "T1", Competition: "robot_sumo", Phase: "quarter_final", TotalPoints: 7, Status: models.StatusWinner, Timestamp: 200},
		{TeamID: "T2", Competition: "robot_sumo", Phase: "qualifications", TotalPoints: 12, Status: models.StatusQualified, Timestamp: 150},
	}
	for i := range records {
		require.NoError(t, s.SaveScore(&records[i]))
	}

	rows, err := s.FetchStandings("robot_sumo")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "T2", rows[0].TeamID)
	assert.Equal(t, 12, rows[0].BestPoints)

	assert.Equal(t, "T1", rows[1].TeamID)
	assert.Equal(t, "quarter_final", rows[1].LastPhase)
	assert.Equal(t, int64(2), rows[1].Submissions)
}

func TestLiveSessionReplace(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.StartLiveSession(&models.LiveSession{Competition: "maze_solver", TeamID: "T1", Phase: "essay_1", StartedAt: 100}))
	require.NoError(t, s.StartLiveSession(&models.LiveSession{Competition: "maze_solver", TeamID: "T2", Phase: "essay_1", StartedAt: 200}))

	sessions, err := s.ListLiveSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "T2", sessions[0].TeamID)
}
