package scoring

import "github.com/rbtx/arena/internal/models"

// Homologation is the technical pre-qualification check, scored separately
// from performance phases.
const Homologation = "homologation"

// Phase ordering is advisory: the ledger only enforces the
// duplicate-submission rule, the UI uses these tables for display order.
var (
	MatchPhases     = []string{"qualifications", "quarter_final", "semi_final", "final"}
	TimeTrialPhases = []string{"essay_1", "essay_2"}
)

// PhasesFor returns the advisory phase sequence for a competition kind.
func PhasesFor(kind models.CompetitionKind) []string {
	if kind == models.KindTimeTrial {
		return TimeTrialPhases
	}
	return MatchPhases
}

// PhaseRank returns the position of a phase in its kind's sequence, or -1
// for phases outside it (homologation, ad hoc phases).
func PhaseRank(kind models.CompetitionKind, phase string) int {
	for i, p := range PhasesFor(kind) {
		if p == phase {
			return i
		}
	}
	return -1
}
