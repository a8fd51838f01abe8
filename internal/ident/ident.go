// Package ident resolves the many identifier schemes a competition shows up
// under (slug, legacy numeric id, UUID, free-text name) into one canonical
// slug. Resolution never fails: unknown input degrades to a normalized echo
// so callers always have something to key on.
package ident

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/models"
)

// Category is a locally known competition category. The slug is the
// canonical identifier everything else maps to.
type Category struct {
	Slug      string
	Name      string
	Kind      models.CompetitionKind
	LegacyID  string
	UUID      string
	MatchSize int
}

// Categories lists every category this deployment knows about. Legacy ids
// come from the pre-2023 registration system, UUIDs from the current one.
var Categories = []Category{
	{Slug: "robot_sumo", Name: "Robot Sumo", Kind: models.KindMatch, LegacyID: "1", UUID: "8f0a2d55-61e4-4c0b-9b3f-2f6f3a9c1e01", MatchSize: 2},
	{Slug: "mini_sumo", Name: "Mini Sumo", Kind: models.KindMatch, LegacyID: "2", UUID: "4b7c9e12-0d3a-48f6-a2c1-5e8d7f6b2a02", MatchSize: 2},
	{Slug: "line_follower", Name: "Line Follower", Kind: models.KindTimeTrial, LegacyID: "3", UUID: "ccf1d967-9d23-4c8a-b42e-7be4d1f772a4"},
	{Slug: "maze_solver", Name: "Maze Solver", Kind: models.KindTimeTrial, LegacyID: "4", UUID: "1d9e5b30-7a46-4f1c-8d02-9c3b1e4f7a04"},
	{Slug: "soccer", Name: "Robot Soccer", Kind: models.KindMatch, LegacyID: "5", UUID: "6a2f8c41-3e5d-49b7-b1a0-0d4e9f2c3b05", MatchSize: 2},
	{Slug: "drag_race", Name: "Drag Race", Kind: models.KindTimeTrial, LegacyID: "6", UUID: "9e4b1a73-5c28-4d6f-a3e9-7b0c2d8f4e06"},
}

// UnknownSlug is the canonical id an empty or blank reference degrades to.
const UnknownSlug = "unknown"

var (
	bySlug   = map[string]Category{}
	byLegacy = map[string]string{}
	byUUID   = map[string]string{}
)

func init() {
	for _, c := range Categories {
		bySlug[c.Slug] = c
		byLegacy[c.LegacyID] = c.Slug
		byUUID[strings.ToLower(c.UUID)] = c.Slug
	}
}

// Lookup returns the category for a canonical slug.
func Lookup(slug string) (Category, bool) {
	c, ok := bySlug[slug]
	return c, ok
}

// Canonicalize maps any competition reference to its canonical slug. The
// chain is ordered, total and side-effect-free: known slug, legacy numeric
// table, UUID table, remote records, local category name, then a normalized
// echo of the input. It never returns an error; an unresolvable reference is
// logged and normalized, because the caller still has to key on something.
func Canonicalize(ref string, remote []models.Competition) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		// stay total: even garbage input yields a non-empty key
		return UnknownSlug
	}

	if _, ok := bySlug[ref]; ok {
		return ref
	}

	if slug, ok := byLegacy[ref]; ok {
		return slug
	}

	if slug, ok := byUUID[strings.ToLower(ref)]; ok {
		return slug
	}

	for _, c := range remote {
		if c.Slug == ref || strings.EqualFold(c.UUID, ref) || (c.LegacyID != "" && c.LegacyID == ref) {
			return c.Slug
		}
		if c.Name != "" && strings.EqualFold(c.Name, ref) {
			return c.Slug
		}
	}

	for _, c := range Categories {
		if strings.EqualFold(c.Name, ref) {
			return c.Slug
		}
	}

	logger.Debug.Printf("unresolved competition reference %q, falling back to normalized slug", ref)
	return Normalize(ref)
}

// Normalize produces a best-effort slug from free text.
func Normalize(ref string) string {
	slug := strings.ToLower(strings.TrimSpace(ref))
	slug = strings.Join(strings.Fields(slug), "_")
	return slug
}

// IsUUID reports whether ref parses as a UUID in any casing.
func IsUUID(ref string) bool {
	_, err := uuid.Parse(ref)
	return err == nil
}
