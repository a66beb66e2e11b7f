package playerservice

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fragstats/fragstatsd/app/modules/geoip"
	playerdomain "github.com/fragstats/fragstatsd/app/modules/player/domain"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	playerdb "github.com/fragstats/fragstatsd/app/modules/player/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/ranking"
	serverdb "github.com/fragstats/fragstatsd/app/modules/server/infrastructure/repositories"
	"github.com/fragstats/fragstatsd/app/modules/session"
)

// ------------------------
// Fake player repository
// ------------------------

// FakeRepository provides a programmable stub for playerdb.Repository.
// Unset Func fields return benign defaults: updates succeed, stats exist at
// the baseline rating, unique-id lookups miss.
type FakeRepository struct {
	trace []string

	UpdateFunc           func(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error
	GetPlayerStatsFunc   func(ctx context.Context, playerID int64) (*playerdomain.PlayerStats, error)
	FindByIDFunc         func(ctx context.Context, playerID int64) (*playerdb.Player, error)
	FindByUniqueIDFunc   func(ctx context.Context, game, uniqueID string) (*playerdb.Player, error)
	GetOrCreateFunc      func(ctx context.Context, game, uniqueID, name string) (*playerdb.Player, bool, error)
	UpsertPlayerNameFunc func(ctx context.Context, playerID int64, name string, delta *playerdomain.NameDelta) error
	HasRecentConnectFunc func(ctx context.Context, serverID, playerID int64, window time.Duration) (bool, error)

	CreateConnectEventFunc    func(ctx context.Context, row *playerdb.EventConnect) error
	CreateDisconnectEventFunc func(ctx context.Context, row *playerdb.EventDisconnect) error
	CreateEntryEventFunc      func(ctx context.Context, row *playerdb.EventEntry) error
	CreateChangeTeamEventFunc func(ctx context.Context, row *playerdb.EventChangeTeam) error
	CreateChangeNameEventFunc func(ctx context.Context, row *playerdb.EventChangeName) error
	CreateSuicideEventFunc    func(ctx context.Context, row *playerdb.EventSuicide) error
	CreateTeamkillEventFunc   func(ctx context.Context, row *playerdb.EventTeamkill) error
	CreateChatEventFunc       func(ctx context.Context, row *playerdb.EventChat) error
	LogEventFragFunc          func(ctx context.Context, row *playerdb.EventFrag) error

	// Captured writes, in call order.
	Updates     []CapturedUpdate
	NameUpserts []CapturedNameUpsert
	ChatRows    []*playerdb.EventChat
	FragRows    []*playerdb.EventFrag
}

type CapturedUpdate struct {
	PlayerID int64
	Delta    *playerdomain.StatDelta
}

type CapturedNameUpsert struct {
	PlayerID int64
	Name     string
	Delta    *playerdomain.NameDelta
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of repository methods called.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) Update(ctx context.Context, playerID int64, delta *playerdomain.StatDelta) error {
	f.record("Update")
	f.Updates = append(f.Updates, CapturedUpdate{PlayerID: playerID, Delta: delta})
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, playerID, delta)
	}
	return nil
}

func (f *FakeRepository) GetPlayerStats(ctx context.Context, playerID int64) (*playerdomain.PlayerStats, error) {
	f.record("GetPlayerStats")
	if f.GetPlayerStatsFunc != nil {
		return f.GetPlayerStatsFunc(ctx, playerID)
	}
	return &playerdomain.PlayerStats{PlayerID: playerID, Skill: playerdomain.BaselineSkill}, nil
}

func (f *FakeRepository) FindByID(ctx context.Context, playerID int64) (*playerdb.Player, error) {
	f.record("FindByID")
	if f.FindByIDFunc != nil {
		return f.FindByIDFunc(ctx, playerID)
	}
	return &playerdb.Player{ID: playerID}, nil
}

func (f *FakeRepository) FindByUniqueID(ctx context.Context, game, uniqueID string) (*playerdb.Player, error) {
	f.record("FindByUniqueID")
	if f.FindByUniqueIDFunc != nil {
		return f.FindByUniqueIDFunc(ctx, game, uniqueID)
	}
	return nil, playerdb.ErrPlayerNotFound
}

func (f *FakeRepository) GetOrCreate(ctx context.Context, game, uniqueID, name string) (*playerdb.Player, bool, error) {
	f.record("GetOrCreate")
	if f.GetOrCreateFunc != nil {
		return f.GetOrCreateFunc(ctx, game, uniqueID, name)
	}
	return &playerdb.Player{ID: 1, Game: game, UniqueID: uniqueID, LastName: name}, true, nil
}

func (f *FakeRepository) UpsertPlayerName(ctx context.Context, playerID int64, name string, delta *playerdomain.NameDelta) error {
	f.record("UpsertPlayerName")
	f.NameUpserts = append(f.NameUpserts, CapturedNameUpsert{PlayerID: playerID, Name: name, Delta: delta})
	if f.UpsertPlayerNameFunc != nil {
		return f.UpsertPlayerNameFunc(ctx, playerID, name, delta)
	}
	return nil
}

func (f *FakeRepository) HasRecentConnect(ctx context.Context, serverID, playerID int64, window time.Duration) (bool, error) {
	f.record("HasRecentConnect")
	if f.HasRecentConnectFunc != nil {
		return f.HasRecentConnectFunc(ctx, serverID, playerID, window)
	}
	return false, nil
}

func (f *FakeRepository) CreateConnectEvent(ctx context.Context, row *playerdb.EventConnect) error {
	f.record("CreateConnectEvent")
	if f.CreateConnectEventFunc != nil {
		return f.CreateConnectEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateDisconnectEvent(ctx context.Context, row *playerdb.EventDisconnect) error {
	f.record("CreateDisconnectEvent")
	if f.CreateDisconnectEventFunc != nil {
		return f.CreateDisconnectEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateEntryEvent(ctx context.Context, row *playerdb.EventEntry) error {
	f.record("CreateEntryEvent")
	if f.CreateEntryEventFunc != nil {
		return f.CreateEntryEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateChangeTeamEvent(ctx context.Context, row *playerdb.EventChangeTeam) error {
	f.record("CreateChangeTeamEvent")
	if f.CreateChangeTeamEventFunc != nil {
		return f.CreateChangeTeamEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateChangeNameEvent(ctx context.Context, row *playerdb.EventChangeName) error {
	f.record("CreateChangeNameEvent")
	if f.CreateChangeNameEventFunc != nil {
		return f.CreateChangeNameEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateSuicideEvent(ctx context.Context, row *playerdb.EventSuicide) error {
	f.record("CreateSuicideEvent")
	if f.CreateSuicideEventFunc != nil {
		return f.CreateSuicideEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateTeamkillEvent(ctx context.Context, row *playerdb.EventTeamkill) error {
	f.record("CreateTeamkillEvent")
	if f.CreateTeamkillEventFunc != nil {
		return f.CreateTeamkillEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) CreateChatEvent(ctx context.Context, row *playerdb.EventChat) error {
	f.record("CreateChatEvent")
	f.ChatRows = append(f.ChatRows, row)
	if f.CreateChatEventFunc != nil {
		return f.CreateChatEventFunc(ctx, row)
	}
	return nil
}

func (f *FakeRepository) LogEventFrag(ctx context.Context, row *playerdb.EventFrag) error {
	f.record("LogEventFrag")
	f.FragRows = append(f.FragRows, row)
	if f.LogEventFragFunc != nil {
		return f.LogEventFragFunc(ctx, row)
	}
	return nil
}

var _ playerdb.Repository = (*FakeRepository)(nil)

// ------------------------
// Fake server repository
// ------------------------

// FakeServerRepo provides a programmable stub for serverdb.Repository.
// Defaults: servers run cstrike, geoip on, bots ignored, counter updates
// succeed.
type FakeServerRepo struct {
	trace []string

	FindByIDFunc             func(ctx context.Context, serverID int64) (*serverdb.Server, error)
	GetServerGameFunc        func(ctx context.Context, serverID int64) (string, error)
	GetServerConfigFunc      func(ctx context.Context, serverID int64) (*serverdb.Config, error)
	UpdateForPlayerEventFunc func(ctx context.Context, serverID int64, delta *serverdb.Delta) error

	Deltas []*serverdb.Delta
}

func NewFakeServerRepo() *FakeServerRepo {
	return &FakeServerRepo{trace: []string{}}
}

func (f *FakeServerRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeServerRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeServerRepo) FindByID(ctx context.Context, serverID int64) (*serverdb.Server, error) {
	f.record("FindByID")
	if f.FindByIDFunc != nil {
		return f.FindByIDFunc(ctx, serverID)
	}
	return &serverdb.Server{ID: serverID, Game: "cstrike"}, nil
}

func (f *FakeServerRepo) GetServerGame(ctx context.Context, serverID int64) (string, error) {
	f.record("GetServerGame")
	if f.GetServerGameFunc != nil {
		return f.GetServerGameFunc(ctx, serverID)
	}
	return "cstrike", nil
}

func (f *FakeServerRepo) GetServerConfig(ctx context.Context, serverID int64) (*serverdb.Config, error) {
	f.record("GetServerConfig")
	if f.GetServerConfigFunc != nil {
		return f.GetServerConfigFunc(ctx, serverID)
	}
	return &serverdb.Config{GeoIPEnabled: true, IgnoreBots: true}, nil
}

func (f *FakeServerRepo) UpdateForPlayerEvent(ctx context.Context, serverID int64, delta *serverdb.Delta) error {
	f.record("UpdateForPlayerEvent")
	f.Deltas = append(f.Deltas, delta)
	if f.UpdateForPlayerEventFunc != nil {
		return f.UpdateForPlayerEventFunc(ctx, serverID, delta)
	}
	return nil
}

var _ serverdb.Repository = (*FakeServerRepo)(nil)

// ------------------------
// Fake collaborators
// ------------------------

// FakeRanking provides a programmable stub for ranking.Engine. Default
// adjustment is zero; default penalties mirror the real engine.
type FakeRanking struct {
	CalculateSkillAdjustmentFunc func(killer, victim *playerdomain.PlayerStats, kill ranking.KillContext) ranking.Adjustment
	SuicidePenaltyFunc           func() int
	TeamkillPenaltyFunc          func() int
}

func (f *FakeRanking) CalculateSkillAdjustment(killer, victim *playerdomain.PlayerStats, kill ranking.KillContext) ranking.Adjustment {
	if f.CalculateSkillAdjustmentFunc != nil {
		return f.CalculateSkillAdjustmentFunc(killer, victim, kill)
	}
	return ranking.Adjustment{}
}

func (f *FakeRanking) SuicidePenalty() int {
	if f.SuicidePenaltyFunc != nil {
		return f.SuicidePenaltyFunc()
	}
	return -5
}

func (f *FakeRanking) TeamkillPenalty() int {
	if f.TeamkillPenaltyFunc != nil {
		return f.TeamkillPenaltyFunc()
	}
	return -10
}

var _ ranking.Engine = (*FakeRanking)(nil)

// FakeTeamTracker captures team assignments.
type FakeTeamTracker struct {
	SetCalls   []TeamAssignment
	ClearCalls []int64
}

type TeamAssignment struct {
	ServerID int64
	PlayerID int64
	Team     string
}

func (f *FakeTeamTracker) SetPlayerTeam(serverID, playerID int64, team string) {
	f.SetCalls = append(f.SetCalls, TeamAssignment{ServerID: serverID, PlayerID: playerID, Team: team})
}

func (f *FakeTeamTracker) ClearPlayer(serverID, playerID int64) {
	f.ClearCalls = append(f.ClearCalls, playerID)
}

var _ TeamTracker = (*FakeTeamTracker)(nil)

// FakeMaps reports a fixed current map.
type FakeMaps struct {
	Map string
}

func (f *FakeMaps) CurrentMap(serverID int64) string { return f.Map }

var _ MapLookup = (*FakeMaps)(nil)

// FakeGeoEnricher captures enrichment requests.
type FakeGeoEnricher struct {
	RequestEnrichmentFunc func(ctx context.Context, serverID int64, candidates []geoip.Candidate) error

	Requests [][]geoip.Candidate
}

func (f *FakeGeoEnricher) RequestEnrichment(ctx context.Context, serverID int64, candidates []geoip.Candidate) error {
	f.Requests = append(f.Requests, candidates)
	if f.RequestEnrichmentFunc != nil {
		return f.RequestEnrichmentFunc(ctx, serverID, candidates)
	}
	return nil
}

var _ GeoEnricher = (*FakeGeoEnricher)(nil)

// FakeNotifier captures notifications. Enabled lists the kinds
// IsEventTypeEnabled reports true for.
type FakeNotifier struct {
	Enabled []gameevents.NotificationKind

	NotifyConnectFunc    func(ctx context.Context, payload *gameevents.PlayerConnectedPayload) error
	NotifyDisconnectFunc func(ctx context.Context, payload *gameevents.PlayerDisconnectedPayload) error
	NotifySuicideFunc    func(ctx context.Context, payload *gameevents.PlayerSuicidePayload) error
	NotifyTeamkillFunc   func(ctx context.Context, payload *gameevents.PlayerTeamkilledPayload) error
	NotifyKillFunc       func(ctx context.Context, payload *gameevents.PlayerKilledPayload) error

	KillPayloads    []*gameevents.PlayerKilledPayload
	SuicidePayloads []*gameevents.PlayerSuicidePayload
	ConnectCount    int
	DisconnectCount int
	TeamkillCount   int
}

func (f *FakeNotifier) IsEventTypeEnabled(kind gameevents.NotificationKind) bool {
	for _, k := range f.Enabled {
		if k == kind {
			return true
		}
	}
	return false
}

func (f *FakeNotifier) NotifyConnect(ctx context.Context, payload *gameevents.PlayerConnectedPayload) error {
	f.ConnectCount++
	if f.NotifyConnectFunc != nil {
		return f.NotifyConnectFunc(ctx, payload)
	}
	return nil
}

func (f *FakeNotifier) NotifyDisconnect(ctx context.Context, payload *gameevents.PlayerDisconnectedPayload) error {
	f.DisconnectCount++
	if f.NotifyDisconnectFunc != nil {
		return f.NotifyDisconnectFunc(ctx, payload)
	}
	return nil
}

func (f *FakeNotifier) NotifySuicide(ctx context.Context, payload *gameevents.PlayerSuicidePayload) error {
	f.SuicidePayloads = append(f.SuicidePayloads, payload)
	if f.NotifySuicideFunc != nil {
		return f.NotifySuicideFunc(ctx, payload)
	}
	return nil
}

func (f *FakeNotifier) NotifyTeamkill(ctx context.Context, payload *gameevents.PlayerTeamkilledPayload) error {
	f.TeamkillCount++
	if f.NotifyTeamkillFunc != nil {
		return f.NotifyTeamkillFunc(ctx, payload)
	}
	return nil
}

func (f *FakeNotifier) NotifyKill(ctx context.Context, payload *gameevents.PlayerKilledPayload) error {
	f.KillPayloads = append(f.KillPayloads, payload)
	if f.NotifyKillFunc != nil {
		return f.NotifyKillFunc(ctx, payload)
	}
	return nil
}

var _ Notifier = (*FakeNotifier)(nil)

// FakeMetrics counts event outcomes per type.
type FakeMetrics struct {
	Processed map[string]int
	Skipped   map[string]int
	Failed    map[string]int
	Discarded map[string]int
	Sessions  int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{
		Processed: map[string]int{},
		Skipped:   map[string]int{},
		Failed:    map[string]int{},
		Discarded: map[string]int{},
	}
}

func (f *FakeMetrics) RecordOperationAttempt(string)           {}
func (f *FakeMetrics) RecordOperationSuccess(string)           {}
func (f *FakeMetrics) RecordOperationFailure(string)           {}
func (f *FakeMetrics) RecordOperationDuration(string, float64) {}
func (f *FakeMetrics) RecordEventProcessed(t string)           { f.Processed[t]++ }
func (f *FakeMetrics) RecordEventSkipped(t string)             { f.Skipped[t]++ }
func (f *FakeMetrics) RecordEventFailed(t string)              { f.Failed[t]++ }
func (f *FakeMetrics) RecordEventDiscarded(t string)           { f.Discarded[t]++ }
func (f *FakeMetrics) SetActiveSessions(n int)                 { f.Sessions = n }

var _ OperationMetrics = (*FakeMetrics)(nil)

// ------------------------
// Test fixture
// ------------------------

// fixture bundles a service with every collaborator faked and a real
// in-memory session store.
type fixture struct {
	svc      *PlayerService
	repo     *FakeRepository
	servers  *FakeServerRepo
	sessions session.Store
	ranking  *FakeRanking
	match    *FakeTeamTracker
	maps     *FakeMaps
	geo      *FakeGeoEnricher
	notifier *FakeNotifier
	metrics  *FakeMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     NewFakeRepository(),
		servers:  NewFakeServerRepo(),
		sessions: session.NewInMemoryStore(),
		ranking:  &FakeRanking{},
		match:    &FakeTeamTracker{},
		maps:     &FakeMaps{Map: "de_dust2"},
		geo:      &FakeGeoEnricher{},
		notifier: &FakeNotifier{},
		metrics:  NewFakeMetrics(),
	}
	f.svc = NewPlayerService(Deps{
		Repo:       f.repo,
		ServerRepo: f.servers,
		Sessions:   f.sessions,
		Ranking:    f.ranking,
		Match:      f.match,
		Maps:       f.maps,
		GeoIP:      f.geo,
		Notifier:   f.notifier,
	}, Config{}, testLogger(), f.metrics, noop.NewTracerProvider().Tracer("test"))
	return f
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeEvent builds an envelope with the payload marshaled into Data.
func makeEvent(t *testing.T, eventType gameevents.EventType, serverID int64, data any, meta *gameevents.EventMeta) *gameevents.GameEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	return &gameevents.GameEvent{
		EventType: eventType,
		ServerID:  serverID,
		Timestamp: time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC),
		Data:      raw,
		Meta:      meta,
	}
}
