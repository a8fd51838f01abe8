// Package draw turns a competition's team roster into match groups for a
// phase. Collision avoidance is a deterministic interleave heuristic, not an
// optimal solver: teams from one club are spread as far apart as the club
// size distribution allows, and collisions are accepted when a club is
// larger than the number of groups.
package draw

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/store"
)

var (
	// ErrInsufficientEntrants means a draw was attempted with fewer than
	// two eligible teams. Nothing is written.
	ErrInsufficientEntrants = errors.New("draw requires at least 2 eligible teams")

	// ErrPhaseLocked means a member of this phase already has a finalized
	// score, so the draw must not be regenerated.
	ErrPhaseLocked = errors.New("phase already has finalized scores, draw is locked")

	// ErrDrawExists means the phase already has match groups. Regenerate
	// drops them first; a plain generate must not double-draw.
	ErrDrawExists = errors.New("draw already exists for this phase")
)

type Generator struct {
	store store.Store
	rng   *rand.Rand
}

// NewGenerator builds a generator with its own PRNG. Pass a fixed-seed rand
// via NewGeneratorWithRand in tests.
func NewGenerator(s store.Store) *Generator {
	return NewGeneratorWithRand(s, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewGeneratorWithRand(s store.Store, rng *rand.Rand) *Generator {
	return &Generator{store: s, rng: rng}
}

// Generate produces the match groups for a phase and reserves one pending
// score record per (team, group) pair, all in a single remote write. A
// failed write leaves the "draw not yet generated" state untouched.
func (g *Generator) Generate(competition, phase string, teams []models.Team, matchSize int) ([]models.MatchGroup, error) {
	if len(teams) < 2 {
		return nil, ErrInsufficientEntrants
	}
	if matchSize < 2 {
		return nil, fmt.Errorf("match size must be at least 2, got %d", matchSize)
	}

	locked, err := g.store.HasFinalizedScores(competition, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to check phase lock: %w", err)
	}
	if locked {
		return nil, ErrPhaseLocked
	}

	existing, err := g.store.ListMatchGroups(competition, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing draw: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrDrawExists
	}

	sequence := Interleave(teams, g.rng)
	groups := chunk(sequence, competition, phase, matchSize)

	now := time.Now().Unix()
	var pending []models.ScoreRecord
	for _, group := range groups {
		matchID := group.ID
		for _, teamID := range group.TeamIDs {
			pending = append(pending, models.ScoreRecord{
				TeamID:       teamID,
				Competition:  competition,
				Phase:        phase,
				MatchID:      &matchID,
				Detailed:     models.DetailedScores{},
				TotalPoints:  0,
				Status:       models.StatusPending,
				Timestamp:    now,
				IsSentToTeam: false,
			})
		}
	}

	if err := g.store.CreateDraw(groups, pending); err != nil {
		return nil, fmt.Errorf("remote write failed, draw not generated: %w", err)
	}

	logger.Info.Printf("generated draw for %s/%s: %d teams into %d groups", competition, phase, len(teams), len(groups))
	return groups, nil
}

// Regenerate drops an unlocked draw and generates a fresh one. Refused once
// any member has a non-pending record for the phase.
func (g *Generator) Regenerate(competition, phase string, teams []models.Team, matchSize int) ([]models.MatchGroup, error) {
	locked, err := g.store.HasFinalizedScores(competition, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to check phase lock: %w", err)
	}
	if locked {
		return nil, ErrPhaseLocked
	}

	if err := g.store.DeleteDraw(competition, phase); err != nil {
		return nil, fmt.Errorf("failed to drop previous draw: %w", err)
	}
	return g.Generate(competition, phase, teams, matchSize)
}

// Interleave orders teams so that clubmates end up as far apart as
// possible: partition by club, shuffle inside each partition, shuffle the
// partition order, then round-robin one team from each partition until all
// are consumed. A team without a club forms a singleton partition keyed to
// itself, so it never counts as sharing a club with anyone.
func Interleave(teams []models.Team, rng *rand.Rand) []models.Team {
	keys := []string{}
	partitions := map[string][]models.Team{}
	for _, team := range teams {
		key := team.Club
		if key == "" {
			key = "\x00solo:" + team.ID
		}
		if _, ok := partitions[key]; !ok {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], team)
	}

	for _, key := range keys {
		members := partitions[key]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
	}

	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	out := make([]models.Team, 0, len(teams))
	offsets := make(map[string]int, len(keys))
	for len(out) < len(teams) {
		for _, key := range keys {
			offset := offsets[key]
			if offset >= len(partitions[key]) {
				continue
			}
			out = append(out, partitions[key][offset])
			offsets[key] = offset + 1
		}
	}
	return out
}

// chunk slices an interleaved sequence into consecutive groups of
// matchSize; the final group may be smaller.
func chunk(sequence []models.Team, competition, phase string, matchSize int) []models.MatchGroup {
	var groups []models.MatchGroup
	for i := 0; i < len(sequence); i += matchSize {
		end := i + matchSize
		if end > len(sequence) {
			end = len(sequence)
		}

		ids := make(models.StringList, 0, end-i)
		for _, team := range sequence[i:end] {
			ids = append(ids, team.ID)
		}

		groups = append(groups, models.MatchGroup{
			ID:          uuid.NewString(),
			Competition: competition,
			Phase:       phase,
			Position:    len(groups) + 1,
			TeamIDs:     ids,
		})
	}
	return groups
}
