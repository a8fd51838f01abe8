package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/store"
)

type fakeStore struct {
	store.Store
	teams        []models.Team
	competitions []models.Competition
}

func (f *fakeStore) ListTeams(competition string) ([]models.Team, error) {
	return f.teams, nil
}

func (f *fakeStore) ListCompetitions() ([]models.Competition, error) {
	return f.competitions, nil
}

func TestEligibleTeams_CanonicalizesStoredReferences(t *testing.T) {
	// registration captures whatever identifier form it had at the time:
	// canonical slug, legacy numeric id, UUID in any casing, or a remote
	// record's slug
	f := &fakeStore{
		teams: []models.Team{
			{ID: "T1", Name: "Slug", Competition: "line_follower"},
			{ID: "T2", Name: "Legacy", Competition: "3"},
			{ID: "T3", Name: "Uuid", Competition: "CCF1D967-9D23-4C8A-B42E-7BE4D1F772A4"},
			{ID: "T4", Name: "Elsewhere", Competition: "robot_sumo"},
			{ID: "T5", Name: "Remote", Competition: "lf2026"},
		},
		competitions: []models.Competition{
			{Slug: "line_follower", LegacyID: "lf2026"},
		},
	}
	s := &Service{Store: f}

	eligible, err := s.EligibleTeams("line_follower")
	require.NoError(t, err)

	ids := make([]string, 0, len(eligible))
	for _, team := range eligible {
		ids = append(ids, team.ID)
	}
	assert.ElementsMatch(t, []string{"T1", "T2", "T3", "T5"}, ids)
}

func TestEligibleTeams_EmptyForUnknownCompetition(t *testing.T) {
	f := &fakeStore{teams: []models.Team{
		{ID: "T1", Competition: "robot_sumo"},
	}}
	s := &Service{Store: f}

	eligible, err := s.EligibleTeams("mini_sumo")
	require.NoError(t, err)
	assert.Empty(t, eligible)
}
