package geoip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/session"
	"github.com/fragstats/fragstatsd/internal/attr"
)

const (
	defaultCacheTTL      = 30 * time.Minute
	defaultBatchSize     = 10
	defaultDefaultGame   = "cstrike"
	defaultSweepInterval = 15 * time.Minute

	// requestCachePruneLen bounds the enqueue-dedup map before expired
	// entries are dropped.
	requestCachePruneLen = 4096
)

// Config tunes the enrichment pipeline. The river client hosted here also
// runs the session sweep, so the sweep knobs live alongside.
type Config struct {
	Client ClientConfig

	// CacheTTL suppresses re-enrichment of a player within the window.
	CacheTTL time.Duration
	// BatchSize caps candidates per lookup job.
	BatchSize int
	// DefaultGame is used when the server record is unknown.
	DefaultGame string

	// SessionMaxAge and SweepInterval drive the periodic session sweep.
	SessionMaxAge time.Duration
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.DefaultGame == "" {
		c.DefaultGame = defaultDefaultGame
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = session.DefaultMaxAge
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	return c
}

// Service filters enrichment candidates and queues lookup batches. It owns
// the daemon's river client, which also hosts the session sweep job.
type Service struct {
	client     *river.Client[pgx.Tx]
	pool       *pgxpool.Pool
	serverRepo serverdb.Repository
	logger     *slog.Logger
	metrics    Metrics
	cfg        Config

	mu        sync.Mutex
	requested map[int64]time.Time
}

// NewService creates the enrichment service. River requires pgx, not
// database/sql, so the service opens its own pool on the shared DSN.
func NewService(
	ctx context.Context,
	logger *slog.Logger,
	dsn string,
	playerRepo playerdb.Repository,
	serverRepo serverdb.Repository,
	sessions session.Store,
	metrics Metrics,
	cfg Config,
) (*Service, error) {
	cfg = cfg.withDefaults()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	lookupClient := NewClient(cfg.Client, logger)

	workers := river.NewWorkers()
	river.AddWorker(workers, NewLookupWorker(logger, playerRepo, lookupClient, metrics))
	river.AddWorker(workers, session.NewSweepWorker(logger, sessions, metrics, cfg.SessionMaxAge))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: 5},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return session.SweepArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: false},
			),
		},
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}

	logger.InfoContext(ctx, "Geo enrichment service initialized",
		attr.String("endpoint", cfg.Client.withDefaults().Endpoint),
		attr.Int("batch_size", cfg.BatchSize),
		attr.Duration("cache_ttl", cfg.CacheTTL),
	)

	return &Service{
		client:     riverClient,
		pool:       pool,
		serverRepo: serverRepo,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
		requested:  make(map[int64]time.Time),
	}, nil
}

// Start begins job processing.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start river client: %w", err)
	}
	s.logger.InfoContext(ctx, "Geo enrichment service started")
	return nil
}

// Stop drains workers and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop river client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Geo enrichment service stopped")
	return nil
}

// HealthCheck verifies the backing pool is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RequestEnrichment filters candidates per the server's policy and queues
// lookup batches. Unresolvable or recently-enriched candidates drop out
// silently; an empty survivor set enqueues nothing.
func (s *Service) RequestEnrichment(ctx context.Context, serverID int64, candidates []Candidate) error {
	serverCfg := s.serverConfig(ctx, serverID)
	if !serverCfg.GeoIPEnabled {
		return nil
	}

	survivors := s.filterCandidates(serverCfg, candidates)
	if len(survivors) == 0 {
		return nil
	}

	game := s.serverGame(ctx, serverID)
	for start := 0; start < len(survivors); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(survivors) {
			end = len(survivors)
		}
		job := LookupJob{
			ServerID:   serverID,
			Game:       game,
			Candidates: survivors[start:end],
		}
		if _, err := s.client.Insert(ctx, job, &river.InsertOpts{
			Queue: QueueName,
			UniqueOpts: river.UniqueOpts{
				ByArgs: true,
			},
		}); err != nil {
			return fmt.Errorf("failed to enqueue lookup job: %w", err)
		}
	}

	s.logger.DebugContext(ctx, "Enrichment candidates queued",
		attr.ServerID(serverID),
		attr.Int("candidates", len(survivors)),
	)
	return nil
}

// filterCandidates drops bots (per server policy), non-public addresses
// and players already enriched within the TTL.
func (s *Service) filterCandidates(serverCfg *serverdb.Config, candidates []Candidate) []Candidate {
	survivors := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.IsBot && serverCfg.IgnoreBots {
			continue
		}
		if !publicIP(hostOnly(candidate.IPAddress)) {
			continue
		}
		if !s.markRequested(candidate.PlayerID) {
			continue
		}
		survivors = append(survivors, candidate)
	}
	return survivors
}

// markRequested records an enrichment request for the player, reporting
// false when one already happened within the TTL.
func (s *Service) markRequested(playerID int64) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.requested[playerID]; ok && now.Sub(last) < s.cfg.CacheTTL {
		return false
	}
	if len(s.requested) >= requestCachePruneLen {
		for id, last := range s.requested {
			if now.Sub(last) >= s.cfg.CacheTTL {
				delete(s.requested, id)
			}
		}
	}
	s.requested[playerID] = now
	return true
}

func (s *Service) serverConfig(ctx context.Context, serverID int64) *serverdb.Config {
	cfg, err := s.serverRepo.GetServerConfig(ctx, serverID)
	if err != nil {
		return &serverdb.Config{GeoIPEnabled: true, IgnoreBots: true}
	}
	return cfg
}

func (s *Service) serverGame(ctx context.Context, serverID int64) string {
	game, err := s.serverRepo.GetServerGame(ctx, serverID)
	if err != nil {
		return s.cfg.DefaultGame
	}
	return game
}
