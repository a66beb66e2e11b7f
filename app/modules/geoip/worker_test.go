package geoip

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"

	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
)

// fakeRepo implements the two repository methods the worker touches; the
// embedded interface panics on anything else.
type fakeRepo struct {
	playerdb.Repository

	findByUniqueID func(ctx context.Context, game, uniqueID string) (*playerdb.Player, error)
	update         func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error
}

func (f *fakeRepo) FindByUniqueID(ctx context.Context, game, uniqueID string) (*playerdb.Player, error) {
	return f.findByUniqueID(ctx, game, uniqueID)
}

func (f *fakeRepo) Update(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
	return f.update(ctx, playerID, delta)
}

type fakeLookuper struct {
	lookup func(ctx context.Context, ip string) (*Location, error)
}

func (f *fakeLookuper) Lookup(ctx context.Context, ip string) (*Location, error) {
	return f.lookup(ctx, ip)
}

type captureMetrics struct {
	outcomes []string
}

func (m *captureMetrics) RecordGeoLookup(outcome string) { m.outcomes = append(m.outcomes, outcome) }
func (m *captureMetrics) RecordSessionsSwept(int)        {}
func (m *captureMetrics) SetActiveSessions(int)          {}

func TestLookupWorker_PatchesPlayerRow(t *testing.T) {
	var gotDelta *playerdomain.StatDelta
	repo := &fakeRepo{
		findByUniqueID: func(ctx context.Context, game, uniqueID string) (*playerdb.Player, error) {
			if game != "cstrike" || uniqueID != "STEAM_0:1:111" {
				t.Errorf("FindByUniqueID(%q, %q)", game, uniqueID)
			}
			return &playerdb.Player{ID: 42, UniqueID: uniqueID}, nil
		},
		update: func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
			if playerID != 42 {
				t.Errorf("Update playerID = %d, want 42", playerID)
			}
			gotDelta = delta
			return nil
		},
	}
	lookuper := &fakeLookuper{
		lookup: func(ctx context.Context, ip string) (*Location, error) {
			if ip != "203.0.113.7" {
				t.Errorf("Lookup ip = %q, want port stripped", ip)
			}
			return &Location{City: "Berlin", Country: "Germany", CountryCode: "DE", Latitude: 52.52, Longitude: 13.4}, nil
		},
	}
	metrics := &captureMetrics{}

	worker := NewLookupWorker(testLogger(), repo, lookuper, metrics)
	job := &river.Job[LookupJob]{Args: LookupJob{
		ServerID: 1,
		Game:     "cstrike",
		Candidates: []Candidate{
			{PlayerID: 42, UniqueID: "STEAM_0:1:111", IPAddress: "203.0.113.7:27005"},
		},
	}}

	if err := worker.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if gotDelta == nil || gotDelta.Geo == nil {
		t.Fatal("player row not patched")
	}
	if gotDelta.Geo.City != "Berlin" || gotDelta.Geo.Flag != "de" {
		t.Errorf("Geo = %+v, want Berlin/de", gotDelta.Geo)
	}
	if gotDelta.LastAddress != "203.0.113.7" {
		t.Errorf("LastAddress = %q", gotDelta.LastAddress)
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != "hit" {
		t.Errorf("outcomes = %v, want [hit]", metrics.outcomes)
	}
}

func TestLookupWorker_CandidateFailuresDoNotFailBatch(t *testing.T) {
	repo := &fakeRepo{
		findByUniqueID: func(ctx context.Context, game, uniqueID string) (*playerdb.Player, error) {
			switch uniqueID {
			case "gone":
				return nil, playerdb.ErrPlayerNotFound
			case "broken":
				return nil, errors.New("connection reset")
			default:
				return &playerdb.Player{ID: 7, UniqueID: uniqueID}, nil
			}
		},
		update: func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
			return nil
		},
	}
	lookuper := &fakeLookuper{
		lookup: func(ctx context.Context, ip string) (*Location, error) {
			if ip == "203.0.113.9" {
				return nil, ErrNotFound
			}
			return &Location{CountryCode: "SE"}, nil
		},
	}
	metrics := &captureMetrics{}

	worker := NewLookupWorker(testLogger(), repo, lookuper, metrics)
	job := &river.Job[LookupJob]{Args: LookupJob{
		Game: "cstrike",
		Candidates: []Candidate{
			{PlayerID: 1, UniqueID: "gone", IPAddress: "203.0.113.7"},
			{PlayerID: 2, UniqueID: "broken", IPAddress: "203.0.113.8"},
			{PlayerID: 3, UniqueID: "missing-location", IPAddress: "203.0.113.9"},
			{PlayerID: 4, UniqueID: "ok", IPAddress: "203.0.113.10"},
		},
	}}

	if err := worker.Work(context.Background(), job); err != nil {
		t.Fatalf("Work returned error for per-candidate failures: %v", err)
	}
	want := []string{"skipped", "error", "miss", "hit"}
	if len(metrics.outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", metrics.outcomes, want)
	}
	for i := range want {
		if metrics.outcomes[i] != want[i] {
			t.Errorf("outcomes[%d] = %q, want %q", i, metrics.outcomes[i], want[i])
		}
	}
}
