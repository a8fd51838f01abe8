package scoring

import (
	"sort"
	"strings"

	"github.com/rbtx/arena/internal/models"
)

// Accumulative counter sections keep positive and negative contributions in
// separate bucket keys, so repeated increments and decrements compose
// additively instead of overwriting each other.
const (
	plusSuffix  = ":plus"
	minusSuffix = ":minus"
)

// Aggregate sums every section of a detailed score breakdown.
func Aggregate(detailed models.DetailedScores) int {
	total := 0
	for _, points := range detailed {
		total += points
	}
	return total
}

// SetTier records a single-choice point tier for a section, replacing any
// previous choice.
func SetTier(detailed models.DetailedScores, section string, points int) {
	detailed[section] = points
}

// Bump applies one step of an accumulative counter. step is the section's
// point worth, negative for penalty sections; dir is +1 to increment and -1
// to undo one increment. Buckets are clamped so a positive counter never
// goes negative and a penalty counter never goes positive.
func Bump(detailed models.DetailedScores, section string, step, dir int) {
	if step >= 0 {
		key := section + plusSuffix
		v := detailed[key] + step*dir
		if v < 0 {
			v = 0
		}
		detailed[key] = v
		return
	}

	key := section + minusSuffix
	v := detailed[key] + step*dir
	if v > 0 {
		v = 0
	}
	detailed[key] = v
}

// BucketValue reads the current value of an accumulative section bucket.
func BucketValue(detailed models.DetailedScores, section string, penalty bool) int {
	if penalty {
		return detailed[section+minusSuffix]
	}
	return detailed[section+plusSuffix]
}

// Sections lists the section ids of a breakdown with bucket suffixes folded
// away, sorted for stable display.
func Sections(detailed models.DetailedScores) []string {
	seen := map[string]bool{}
	for key := range detailed {
		key = strings.TrimSuffix(strings.TrimSuffix(key, plusSuffix), minusSuffix)
		seen[key] = true
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// TimeTrialTotal folds a run time into a single millisecond figure and adds
// bonus and homologation points on top. Lower is better for the time part,
// so bonuses are expected to be negative adjustments when used for ranking.
func TimeTrialTotal(minutes, seconds, millis, bonus, homologation int) int {
	return (minutes*60+seconds)*1000 + millis + bonus + homologation
}
