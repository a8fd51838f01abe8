// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbtx/arena/internal/models"
)

// setupTestDB creates an in-memory SQLite database with the real migrations
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestSaveScoreUpsert(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	pending := models.ScoreRecord{
		TeamID:      "T1",
		Competition: "robot_sumo",
		Phase:       "qualifications",
		Status:      models.StatusPending,
		Timestamp:   100,
	}
	require.NoError(t, s.SaveScore(&pending))

	t.Run("pending record is not finalized", func(t *testing.T) {
		got, err := s.GetFinalizedScore("robot_sumo", "qualifications", "T1")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = s.GetScore("robot_sumo", "qualifications", "T1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("finalizing updates the pending row in place", func(t *testing.T) {
		final := models.ScoreRecord{
			TeamID:      "T1",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			Detailed:    models.DetailedScores{"pushes": 10},
			TotalPoints: 10,
			Status:      models.StatusWinner,
			Timestamp:   200,
		}
		require.NoError(t, s.SaveScore(&final))

		got, err := s.GetFinalizedScore("robot_sumo", "qualifications", "T1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StatusWinner, got.Status)
		assert.Equal(t, 10, got.TotalPoints)
		assert.Equal(t, 10, got.Detailed["pushes"])

		records, err := s.ListScores("robot_sumo")
		require.NoError(t, err)
		assert.Len(t, records, 1, "upsert must not create a second row")
	})
}

func TestFinalizeScoreGuard(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("claims an empty slot", func(t *testing.T) {
		applied, err := s.FinalizeScore(&models.ScoreRecord{
			TeamID:      "T1",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			TotalPoints: 5,
			Status:      models.StatusWinner,
			Timestamp:   100,
		})
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("refuses to overwrite a finalized record", func(t *testing.T) {
		applied, err := s.FinalizeScore(&models.ScoreRecord{
			TeamID:      "T1",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			TotalPoints: 99,
			Status:      models.StatusEliminated,
			Timestamp:   200,
		})
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := s.GetFinalizedScore("robot_sumo", "qualifications", "T1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StatusWinner, got.Status, "first submit stays authoritative")
		assert.Equal(t, 5, got.TotalPoints)
	})

	t.Run("claims a slot the draw left pending", func(t *testing.T) {
		require.NoError(t, s.SaveScore(&models.ScoreRecord{
			TeamID:      "T2",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			Status:      models.StatusPending,
			Timestamp:   50,
		}))

		applied, err := s.FinalizeScore(&models.ScoreRecord{
			TeamID:      "T2",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			TotalPoints: 7,
			Status:      models.StatusQualified,
			Timestamp:   300,
		})
		require.NoError(t, err)
		assert.True(t, applied)

		records, err := s.ListScores("robot_sumo")
		require.NoError(t, err)
		assert.Len(t, records, 2, "finalize must reuse the pending row")
	})
}

func TestCreateAndDeleteDraw(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	groups := []models.MatchGroup{
		{ID: "g1", Competition: "mini_sumo", Phase: "qualifications", Position: 1, TeamIDs: models.StringList{"T1", "T2"}},
		{ID: "g2", Competition: "mini_sumo", Phase: "qualifications", Position: 2, TeamIDs: models.StringList{"T3"}},
	}
	pending := []models.ScoreRecord{
		{TeamID: "T1", Competition: "mini_sumo", Phase: "qualifications", Status: models.StatusPending, Timestamp: 1},
		{TeamID: "T2", Competition: "mini_sumo", Phase: "qualifications", Status: models.StatusPending, Timestamp: 1},
		{TeamID: "T3", Competition: "mini_sumo", Phase: "qualifications", Status: models.StatusPending, Timestamp: 1},
	}
	require.NoError(t, s.CreateDraw(groups, pending))

	t.Run("groups come back in position order", func(t *testing.T) {
		got, err := s.ListMatchGroups("mini_sumo", "qualifications")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "g1", got[0].ID)
		assert.Equal(t, models.StringList{"T1", "T2"}, got[0].TeamIDs)
		assert.Equal(t, "g2", got[1].ID)
	})

	t.Run("phase unlocks only while every record is pending", func(t *testing.T) {
		locked, err := s.HasFinalizedScores("mini_sumo", "qualifications")
		require.NoError(t, err)
		assert.False(t, locked)

		require.NoError(t, s.SaveScore(&models.ScoreRecord{
			TeamID:      "T1",
			Competition: "mini_sumo",
			Phase:       "qualifications",
			TotalPoints: 5,
			Status:      models.StatusWinner,
			Timestamp:   2,
		}))

		locked, err = s.HasFinalizedScores("mini_sumo", "qualifications")
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("delete drops groups and pending but keeps finalized", func(t *testing.T) {
		require.NoError(t, s.DeleteDraw("mini_sumo", "qualifications"))

		got, err := s.ListMatchGroups("mini_sumo", "qualifications")
		require.NoError(t, err)
		assert.Empty(t, got)

		records, err := s.ListScores("mini_sumo")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "T1", records[0].TeamID)
		assert.Equal(t, models.StatusWinner, records[0].Status)
	})
}

func TestTeamRoundtrip(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	team := models.Team{
		ID:          "T42",
		Name:        "Short Circuit",
		Club:        "Voltage Club",
		Competition: "line_follower",
		Members: models.Members{
			{Name: "Ada", Leader: true},
			{Name: "Grace"},
		},
	}
	require.NoError(t, s.UpsertTeam(&team))

	got, err := s.GetTeam("T42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Short Circuit", got.Name)
	require.Len(t, got.Members, 2)
	assert.True(t, got.Members[0].Leader)

	team.Club = "Voltage Club B"
	require.NoError(t, s.UpsertTeam(&team))

	teams, err := s.ListTeams("line_follower")
	require.NoError(t, err)
	require.Len(t, teams, 1, "upsert must not duplicate the team")
	assert.Equal(t, "Voltage Club B", teams[0].Club)
}

func TestLiveSessions(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.StartLiveSession(&models.LiveSession{
		Competition: "drag_race",
		TeamID:      "T1",
		Phase:       "essay_1",
		StartedAt:   100,
	}))

	t.Run("a new start replaces the running session", func(t *testing.T) {
		require.NoError(t, s.StartLiveSession(&models.LiveSession{
			Competition: "drag_race",
			TeamID:      "T2",
			Phase:       "essay_1",
			StartedAt:   200,
		}))

		got, err := s.GetLiveSession("drag_race")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "T2", got.TeamID)

		sessions, err := s.ListLiveSessions()
		require.NoError(t, err)
		assert.Len(t, sessions, 1)
	})

	t.Run("ending removes the session", func(t *testing.T) {
		require.NoError(t, s.EndLiveSession("drag_race"))

		got, err := s.GetLiveSession("drag_race")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
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
		// pending rows never count towards standings
		{TeamID: "T2", Competition: "robot_sumo", Phase: "quarter_final", Status: models.StatusPending, Timestamp: 300},
	}
	for i := range records {
		require.NoError(t, s.SaveScore(&records[i]))
	}

	rows, err := s.FetchStandings("robot_sumo")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "T2", rows[0].TeamID)
	assert.Equal(t, "Beta", rows[0].TeamName)
	assert.Equal(t, 12, rows[0].BestPoints)
	assert.Equal(t, int64(1), rows[0].Submissions)

	assert.Equal(t, "T1", rows[1].TeamID)
	assert.Equal(t, 10, rows[1].BestPoints)
	assert.Equal(t, "quarter_final", rows[1].LastPhase, "latest finalized phase wins")
	assert.Equal(t, models.StatusWinner, rows[1].LastStatus)
	assert.Equal(t, int64(2), rows[1].Submissions)
}

func TestCompetitionPhase(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := s.DB.Exec(`
		INSERT INTO competitions (slug, name, kind, phase, legacy_id, uuid) VALUES
		('robot_sumo', 'Robot Sumo', 'match', 'qualifications', '1', '')`)
	require.NoError(t, err, "Failed to insert test data")

	t.Run("unknown competition yields nil", func(t *testing.T) {
		got, err := s.GetCompetition("ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("phase advances in place", func(t *testing.T) {
		require.NoError(t, s.SetCompetitionPhase("robot_sumo", "quarter_final"))

		got, err := s.GetCompetition("robot_sumo")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "quarter_final", got.Phase)
		assert.Equal(t, "1", got.LegacyID)
	})
}

func TestListTeamScores(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	records := []models.ScoreRecord{
		{TeamID: "T1", Competition: "robot_sumo", Phase: "qualifications", TotalPoints: 10, Status: models.StatusQualified, Timestamp: 100},
		{TeamID: "T1", Competition: "line_follower", Phase: "essay_1", TotalPoints: 83450, Status: models.StatusValidated, Timestamp: 300},
		{TeamID: "T2", Competition: "robot_sumo", Phase: "qualifications", TotalPoints: 4, Status: models.StatusEliminated, Timestamp: 200},
	}
	for i := range records {
		require.NoError(t, s.SaveScore(&records[i]))
	}

	got, err := s.ListTeamScores("T1")
	require.NoError(t, err)
	require.Len(t, got, 2, "only the team's own records, across competitions")
	assert.Equal(t, "line_follower", got[0].Competition, "newest first")
	assert.Equal(t, "robot_sumo", got[1].Competition)
}

func TestAnnouncements(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.CreateAnnouncement(&models.Announcement{Title: "first", CreatedAt: 100}))
	require.NoError(t, s.CreateAnnouncement(&models.Announcement{Title: "second", CreatedAt: 200}))
	require.NoError(t, s.CreateAnnouncement(&models.Announcement{Title: "third", CreatedAt: 300}))

	items, err := s.ListAnnouncements(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
}
