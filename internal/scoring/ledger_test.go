package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) ApplyMigrations(dir string) error {
	return nil
}

func (m *MockStore) ListCompetitions() ([]models.Competition, error) {
	return nil, nil
}

func (m *MockStore) GetCompetition(slug string) (*models.Competition, error) {
	return nil, nil
}

func (m *MockStore) SetCompetitionPhase(slug, phase string) error {
	return nil
}

func (m *MockStore) ListTeams(competition string) ([]models.Team, error) {
	return nil, nil
}

func (m *MockStore) GetTeam(id string) (*models.Team, error) {
	return nil, nil
}

func (m *MockStore) UpsertTeam(team *models.Team) error {
	return nil
}

func (m *MockStore) CreateDraw(groups []models.MatchGroup, pending []models.ScoreRecord) error {
	args := m.Called(groups, pending)
	return args.Error(0)
}

func (m *MockStore) ListMatchGroups(competition, phase string) ([]models.MatchGroup, error) {
	return nil, nil
}

func (m *MockStore) DeleteDraw(competition, phase string) error {
	return nil
}

func (m *MockStore) HasFinalizedScores(competition, phase string) (bool, error) {
	args := m.Called(competition, phase)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetScore(competition, phase, teamID string) (*models.ScoreRecord, error) {
	args := m.Called(competition, phase, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreRecord), args.Error(1)
}

func (m *MockStore) GetFinalizedScore(competition, phase, teamID string) (*models.ScoreRecord, error) {
	args := m.Called(competition, phase, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreRecord), args.Error(1)
}

func (m *MockStore) SaveScore(rec *models.ScoreRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

func (m *MockStore) FinalizeScore(rec *models.ScoreRecord) (bool, error) {
	args := m.Called(rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) DeleteScore(competition, phase, teamID string) error {
	args := m.Called(competition, phase, teamID)
	return args.Error(0)
}

func (m *MockStore) ListScores(competition string) ([]models.ScoreRecord, error) {
	return nil, nil
}

func (m *MockStore) ListTeamScores(teamID string) ([]models.ScoreRecord, error) {
	return nil, nil
}

func (m *MockStore) FetchStandings(competition string) ([]store.StandingRow, error) {
	return nil, nil
}

func (m *MockStore) GetLiveSession(competition string) (*models.LiveSession, error) {
	return nil, nil
}

func (m *MockStore) ListLiveSessions() ([]models.LiveSession, error) {
	return nil, nil
}

func (m *MockStore) StartLiveSession(session *models.LiveSession) error {
	return nil
}

func (m *MockStore) EndLiveSession(competition string) error {
	return nil
}

func (m *MockStore) ListAnnouncements(limit int) ([]models.Announcement, error) {
	return nil, nil
}

func (m *MockStore) CreateAnnouncement(a *models.Announcement) error {
	return nil
}

func TestLedger_Submit(t *testing.T) {
	rec := func() *models.ScoreRecord {
		return &models.ScoreRecord{
			TeamID:      "T1",
			Competition: "robot_sumo",
			Phase:       "qualifications",
			Detailed:    models.DetailedScores{"win": 3},
			Status:      models.StatusWinner,
		}
	}

	t.Run("first submission succeeds", func(t *testing.T) {
		s := new(MockStore)
		s.On("GetFinalizedScore", "robot_sumo", "qualifications", "T1").Return(nil, nil)
		s.On("FinalizeScore", mock.Anything).Return(true, nil)

		r := rec()
		err := NewLedger(s).Submit(r)
		require.NoError(t, err)
		assert.Equal(t, 3, r.TotalPoints, "total derived from detailed scores")
		assert.NotZero(t, r.Timestamp)
		s.AssertExpectations(t)
	})

	t.Run("second submission for same tuple is rejected", func(t *testing.T) {
		s := new(MockStore)
		s.On("GetFinalizedScore", "robot_sumo", "qualifications", "T1").
			Return(&models.ScoreRecord{TeamID: "T1", Status: models.StatusWinner}, nil)

		err := NewLedger(s).Submit(rec())
		assert.ErrorIs(t, err, ErrDuplicatePhaseSubmission)
		s.AssertNotCalled(t, "FinalizeScore", mock.Anything)
	})

	t.Run("interleaved submit loses at the store, not silently", func(t *testing.T) {
		// the read sees no finalized record, but another submit lands
		// between the check and the write; the conditional upsert must
		// refuse to overwrite it
		s := new(MockStore)
		s.On("GetFinalizedScore", "robot_sumo", "qualifications", "T1").Return(nil, nil)
		s.On("FinalizeScore", mock.Anything).Return(false, nil)

		err := NewLedger(s).Submit(rec())
		assert.ErrorIs(t, err, ErrDuplicatePhaseSubmission)
		s.AssertExpectations(t)
	})

	t.Run("different phase succeeds", func(t *testing.T) {
		s := new(MockStore)
		s.On("GetFinalizedScore", "robot_sumo", "quarter_final", "T1").Return(nil, nil)
		s.On("FinalizeScore", mock.Anything).Return(true, nil)

		r := rec()
		r.Phase = "quarter_final"
		assert.NoError(t, NewLedger(s).Submit(r))
	})

	t.Run("pending status is not submittable", func(t *testing.T) {
		s := new(MockStore)
		r := rec()
		r.Status = models.StatusPending
		err := NewLedger(s).Submit(r)
		assert.Error(t, err)
		s.AssertNotCalled(t, "GetFinalizedScore", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLedger_Update(t *testing.T) {
	s := new(MockStore)
	existing := &models.ScoreRecord{
		TeamID:       "T1",
		Competition:  "line_follower",
		Phase:        "essay_1",
		Status:       models.StatusValidated,
		TotalPoints:  83450,
		IsSentToTeam: true,
	}
	s.On("GetScore", "line_follower", "essay_1", "T1").Return(existing, nil)
	s.On("SaveScore", mock.Anything).Return(nil)

	edited := *existing
	edited.TotalPoints = 82000
	edited.IsSentToTeam = existing.IsSentToTeam

	err := NewLedger(s).Update(&edited, "timing dispute resolved")
	require.NoError(t, err)
	assert.Equal(t, "timing dispute resolved", edited.EditReason)
	assert.NotNil(t, edited.UpdatedAt)
	assert.True(t, edited.IsSentToTeam, "editing does not reset is_sent_to_team")
}

func TestLedger_UpdateMissingRecord(t *testing.T) {
	s := new(MockStore)
	s.On("GetScore", "line_follower", "essay_1", "ghost").Return(nil, nil)

	err := NewLedger(s).Update(&models.ScoreRecord{
		TeamID:      "ghost",
		Competition: "line_follower",
		Phase:       "essay_1",
		Status:      models.StatusValidated,
	}, "")
	assert.Error(t, err)
}

func TestGroupByTeam(t *testing.T) {
	records := []models.ScoreRecord{
		{TeamID: "A", Competition: "robot_sumo", Phase: "qualifications", Timestamp: 100},
		{TeamID: "B", Competition: "robot_sumo", Phase: "qualifications", Timestamp: 150},
		{TeamID: "A", Competition: "line_follower", Phase: "essay_1", Timestamp: 300},
		{TeamID: "A", Competition: "robot_sumo", Phase: "quarter_final", Timestamp: 200},
	}

	history := GroupByTeam(records)
	require.Len(t, history, 2)

	assert.Equal(t, "A", history[0].TeamID, "teams keep first-appearance order")
	assert.Equal(t, "B", history[1].TeamID)

	require.Len(t, history[0].Records, 3)
	assert.Equal(t, int64(300), history[0].Records[0].Timestamp, "latest first")
	assert.Equal(t, int64(200), history[0].Records[1].Timestamp)
	assert.Equal(t, int64(100), history[0].Records[2].Timestamp)
}
