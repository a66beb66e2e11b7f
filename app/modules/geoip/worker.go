package geoip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riverqueue/river"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// LookupWorker resolves queued candidates against the lookup endpoint and
// patches the matching player rows. One candidate failing never fails the
// batch; enrichment is best-effort by contract.
type LookupWorker struct {
	river.WorkerDefaults[LookupJob]

	logger   *slog.Logger
	repo     playerdb.Repository
	lookuper Lookuper
	metrics  Metrics
}

// NewLookupWorker creates a lookup worker.
func NewLookupWorker(logger *slog.Logger, repo playerdb.Repository, lookuper Lookuper, metrics Metrics) *LookupWorker {
	return &LookupWorker{
		logger:   logger,
		repo:     repo,
		lookuper: lookuper,
		metrics:  metrics,
	}
}

func (w *LookupWorker) Work(ctx context.Context, job *river.Job[LookupJob]) error {
	args := job.Args
	for _, candidate := range args.Candidates {
		if err := w.enrich(ctx, args.Game, candidate); err != nil {
			w.metrics.RecordGeoLookup("error")
			w.logger.WarnContext(ctx, "Geo enrichment failed for candidate",
				attr.ServerID(args.ServerID),
				attr.PlayerID(candidate.PlayerID),
				attr.String("unique_id", candidate.UniqueID),
				attr.Error(err),
			)
		}
	}
	return nil
}

// enrich runs one candidate end to end: resolve the row, look the address
// up, patch the geo columns.
func (w *LookupWorker) enrich(ctx context.Context, game string, candidate Candidate) error {
	player, err := w.repo.FindByUniqueID(ctx, game, candidate.UniqueID)
	if err != nil {
		if errors.Is(err, playerdb.ErrPlayerNotFound) {
			// Row vanished between enqueue and work. Nothing to patch.
			w.metrics.RecordGeoLookup("skipped")
			return nil
		}
		return fmt.Errorf("resolve player: %w", err)
	}

	host := hostOnly(candidate.IPAddress)
	location, err := w.lookuper.Lookup(ctx, host)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			w.metrics.RecordGeoLookup("miss")
			return nil
		}
		return fmt.Errorf("lookup %s: %w", host, err)
	}

	delta := &playerdomain.StatDelta{
		LastAddress: host,
		Geo: &playerdomain.GeoPatch{
			City:      location.City,
			Country:   location.Country,
			Flag:      strings.ToLower(location.CountryCode),
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
		},
	}
	if err := w.repo.Update(ctx, player.ID, delta); err != nil {
		return fmt.Errorf("patch player row: %w", err)
	}

	w.metrics.RecordGeoLookup("hit")
	w.logger.DebugContext(ctx, "Player geo enriched",
		attr.PlayerID(player.ID),
		attr.String("city", location.City),
		attr.String("country", location.Country),
	)
	return nil
}
