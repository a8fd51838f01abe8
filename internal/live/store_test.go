package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbtx/arena/internal/models"
)

func TestStore_SetAllGetClear(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("line_follower")
	assert.False(t, ok, "store starts empty")

	s.SetAll(map[string]models.LiveSession{
		"line_follower": {Competition: "line_follower", TeamID: "T1", Phase: "essay_1", StartedAt: 100},
	})

	session, ok := s.Get("line_follower")
	require.True(t, ok)
	assert.Equal(t, "T1", session.TeamID)
	assert.Equal(t, "essay_1", session.Phase)

	s.Clear("line_follower")
	_, ok = s.Get("line_follower")
	assert.False(t, ok)
}

func TestStore_SetOverwrites(t *testing.T) {
	s := NewStore()

	s.Set(models.LiveSession{Competition: "robot_sumo", TeamID: "T1", Phase: "qualifications"})
	s.Set(models.LiveSession{Competition: "robot_sumo", TeamID: "T2", Phase: "qualifications"})

	session, ok := s.Get("robot_sumo")
	require.True(t, ok)
	assert.Equal(t, "T2", session.TeamID, "start while live is last-writer-wins")
}

func TestStore_NotifiesOnEveryMutation(t *testing.T) {
	s := NewStore()
	changes := s.Changes()

	drain := func() bool {
		select {
		case <-changes:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}

	s.Set(models.LiveSession{Competition: "soccer", TeamID: "T1"})
	assert.True(t, drain(), "Set broadcasts")

	s.SetAll(nil)
	assert.True(t, drain(), "SetAll broadcasts")

	s.Clear("soccer")
	assert.True(t, drain(), "Clear broadcasts")
}

func TestNotifier_CoalescesBursts(t *testing.T) {
	s := NewStore()
	changes := s.Changes()

	for i := 0; i < 10; i++ {
		s.Set(models.LiveSession{Competition: "maze_solver", TeamID: "T1"})
	}

	// a lagging observer sees at most one pending tick
	<-changes
	select {
	case <-changes:
		t.Fatal("expected burst to coalesce into a single tick")
	default:
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Set(models.LiveSession{Competition: "drag_race", TeamID: "T1"})

	snap := s.Snapshot()
	delete(snap, "drag_race")

	_, ok := s.Get("drag_race")
	assert.True(t, ok, "mutating a snapshot must not touch the store")
}
