// Package sync owns reconciliation between the external store and the
// process-local state. A single coordinator goroutine consumes realtime
// push messages and periodic ticks, debounces them into one reconciliation
// pass per window, and repopulates the live session store. Observers never
// subscribe to the raw channel themselves.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/live"
	"github.com/rbtx/arena/internal/metrics"
	"github.com/rbtx/arena/internal/models"
	"github.com/rbtx/arena/internal/store"
)

const (
	ChannelLiveSessions  = "live_sessions"
	ChannelAnnouncements = "announcements"
)

// Event is the wire shape of a realtime message. The payload is advisory
// only: the coordinator re-fetches authoritative rows instead of trusting
// it, to avoid drift.
type Event struct {
	Event string `json:"event"`
	Table string `json:"table"`
}

type Config struct {
	RedisURL     string
	Channels     []string
	Debounce     time.Duration
	RefreshEvery time.Duration
}

type Coordinator struct {
	cfg   Config
	store store.Store
	live  *live.Store
	redis *redis.Client
	kicks chan struct{}

	fetchSeq atomic.Uint64
	applySeq atomic.Uint64
}

func New(cfg Config, s store.Store, l *live.Store) (*Coordinator, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = time.Minute
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = []string{ChannelLiveSessions, ChannelAnnouncements}
	}

	return &Coordinator{
		cfg:   cfg,
		store: s,
		live:  l,
		redis: client,
		kicks: make(chan struct{}, 1),
	}, nil
}

func (c *Coordinator) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// Kick requests a reconciliation pass. Safe from any goroutine; pending
// kicks coalesce.
func (c *Coordinator) Kick() {
	select {
	case c.kicks <- struct{}{}:
	default:
	}
}

// Publish notifies other replicas (and this one) that a table changed.
// Consumers re-fetch rather than trust the payload.
func (c *Coordinator) Publish(ctx context.Context, table, event string) error {
	payload, err := json.Marshal(Event{Event: event, Table: table})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.redis.Publish(ctx, table, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", table, err)
	}
	return nil
}

// Run blocks until the context is cancelled. Bursts of realtime messages
// are coalesced: reconciliation runs at most once per debounce window.
func (c *Coordinator) Run(ctx context.Context) error {
	pubsub := c.redis.Subscribe(ctx, c.cfg.Channels...)
	defer pubsub.Close()

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(c.cfg.RefreshEvery).Do(c.Kick); err != nil {
		return fmt.Errorf("failed to schedule periodic refresh: %w", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// initial populate: the live store starts empty after restart
	if err := c.Reconcile(ctx); err != nil {
		logger.Error.Printf("initial reconciliation failed: %v", err)
	}

	msgs := pubsub.Channel()
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(c.cfg.Debounce)
			fire = timer.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("realtime channel closed")
			}
			logger.Debug.Printf("realtime message on %s: %s", msg.Channel, msg.Payload)
			metrics.RealtimeMessagesTotal.WithLabelValues(msg.Channel).Inc()
			schedule()

		case <-c.kicks:
			schedule()

		case <-fire:
			timer = nil
			fire = nil
			if err := c.Reconcile(ctx); err != nil {
				logger.Error.Printf("reconciliation failed: %v", err)
			}
		}
	}
}

// Reconcile fetches the authoritative live sessions and swaps them into the
// local store. Stale fetches are discarded: if a newer fetch completed
// while this one was in flight, its result wins (last-completed-wins).
func (c *Coordinator) Reconcile(ctx context.Context) error {
	seq := c.fetchSeq.Add(1)

	sessions, err := c.store.ListLiveSessions()
	if err != nil {
		return fmt.Errorf("failed to fetch live sessions: %w", err)
	}

	for {
		applied := c.applySeq.Load()
		if applied >= seq {
			logger.Debug.Printf("discarding superseded reconciliation result (seq %d <= %d)", seq, applied)
			return nil
		}
		if c.applySeq.CompareAndSwap(applied, seq) {
			break
		}
	}

	byCompetition := make(map[string]models.LiveSession, len(sessions))
	for _, session := range sessions {
		byCompetition[session.Competition] = session
	}
	c.live.SetAll(byCompetition)

	metrics.SyncRunsTotal.Inc()
	logger.Debug.Printf("reconciled %d live sessions", len(sessions))
	return nil
}
