package app

import (
	"fmt"
	gosync "sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/draw"
	"github.com/rbtx/arena/internal/ident"
	"github.com/rbtx/arena/internal/live"
	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/scoring"
	"github.com/rbtx/arena/internal/store"
	"github.com/rbtx/arena/internal/sync"
)

// Service wires the long-lived collaborators of the server binary together.
// The bot and exporter binaries build a leaner subset by hand instead.
type Service struct {
	Config      *Config
	Store       store.Store
	Auth        *Auth
	Live        *live.Store
	Ledger      *scoring.Ledger
	Draws       *draw.Generator
	Coordinator *sync.Coordinator

	mu           gosync.RWMutex
	competitions []models.Competition
	refreshedAt  time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	liveStore := live.NewStore()

	coordinator, err := sync.New(sync.Config{
		RedisURL:     config.Realtime.RedisURL,
		Channels:     config.Realtime.Channels,
		Debounce:     config.Debounce(),
		RefreshEvery: config.RefreshEvery(),
	}, st, liveStore)
	if err != nil {
		return nil, fmt.Errorf("failed to init sync coordinator: %w", err)
	}

	s := &Service{
		Config:      config,
		Store:       st,
		Auth:        auth,
		Live:        liveStore,
		Ledger:      scoring.NewLedger(st),
		Draws:       draw.NewGenerator(st),
		Coordinator: coordinator,
	}

	if err := s.RefreshCompetitions(); err != nil {
		logger.Error.Printf("initial competition fetch failed, canonicalization runs on local tables only: %v", err)
	}

	return s, nil
}

func (s *Service) Close() error {
	if s.Coordinator != nil {
		s.Coordinator.Close()
	}
	if s.Auth != nil {
		s.Auth.Close()
	}
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// RefreshCompetitions reloads the remote competition records used by the
// canonicalizer. Called at startup and lazily when the cache goes stale.
func (s *Service) RefreshCompetitions() error {
	comps, err := s.Store.ListCompetitions()
	if err != nil {
		return fmt.Errorf("failed to list competitions: %w", err)
	}

	s.mu.Lock()
	s.competitions = comps
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// Competitions returns the cached remote competition records, refreshing
// them when older than a minute. A failed refresh keeps the stale cache.
func (s *Service) Competitions() []models.Competition {
	s.mu.RLock()
	stale := time.Since(s.refreshedAt) > time.Minute
	comps := s.competitions
	s.mu.RUnlock()

	if stale {
		if err := s.RefreshCompetitions(); err != nil {
			logger.Debug.Printf("competition refresh failed, using stale cache: %v", err)
			return comps
		}
		s.mu.RLock()
		comps = s.competitions
		s.mu.RUnlock()
	}
	return comps
}

// Canonicalize maps any competition reference from a URL or message to its
// canonical slug, consulting remote records after the local tables.
func (s *Service) Canonicalize(ref string) string {
	return ident.Canonicalize(ref, s.Competitions())
}

// MatchSize resolves the group size for a competition's draw: config
// override first, then the category default, then the global default.
func (s *Service) MatchSize(slug string) int {
	if size, ok := s.Config.Draw.MatchSizes[slug]; ok && size >= 2 {
		return size
	}
	if category, ok := ident.Lookup(slug); ok && category.MatchSize >= 2 {
		return category.MatchSize
	}
	return s.Config.Draw.DefaultMatchSize
}

// EligibleTeams lists the teams registered for a competition. A team's
// stored competition reference keeps whatever form registration captured
// (slug, legacy id, UUID, free text), so rows are matched by canonicalizing
// each reference rather than by raw column equality.
func (s *Service) EligibleTeams(competition string) ([]models.Team, error) {
	teams, err := s.Store.ListTeams("")
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	remote := s.Competitions()
	eligible := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if ident.Canonicalize(team.Competition, remote) == competition {
			eligible = append(eligible, team)
		}
	}
	return eligible, nil
}

// History returns every team's score records for a competition, grouped in
// first-appearance order with the newest record first inside each team.
func (s *Service) History(competition string) ([]scoring.TeamHistory, error) {
	records, err := s.Store.ListScores(competition)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scoring.GroupByTeam(records), nil
}
