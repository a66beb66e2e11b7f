package playerhandlers

import (
	"context"

	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
)

// ------------------------
// Fake Player Service
// ------------------------

// FakePlayerService provides a programmable stub for the playerservice.Service
// interface. Unset Func fields return an empty success result.
type FakePlayerService struct {
	trace []string

	// Events captures every envelope a handler passed down, in call order.
	Events []*gameevents.GameEvent

	HandlePlayerConnectFunc    func(ctx context.Context, event *gameevents.GameEvent) (playerservice.ConnectResult, error)
	HandlePlayerDisconnectFunc func(ctx context.Context, event *gameevents.GameEvent) (playerservice.DisconnectResult, error)
	HandlePlayerEntryFunc      func(ctx context.Context, event *gameevents.GameEvent) (playerservice.EntryResult, error)
	HandlePlayerChangeTeamFunc func(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChangeTeamResult, error)
	HandlePlayerChangeNameFunc func(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChangeNameResult, error)
	HandlePlayerSuicideFunc    func(ctx context.Context, event *gameevents.GameEvent) (playerservice.SuicideResult, error)
	HandlePlayerDamageFunc     func(ctx context.Context, event *gameevents.GameEvent) (playerservice.DamageResult, error)
	HandlePlayerTeamkillFunc   func(ctx context.Context, event *gameevents.GameEvent) (playerservice.TeamkillResult, error)
	HandlePlayerChatFunc       func(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChatResult, error)
	HandlePlayerKillFunc       func(ctx context.Context, event *gameevents.GameEvent) (playerservice.KillResult, error)
}

// NewFakePlayerService initializes a new FakePlayerService.
func NewFakePlayerService() *FakePlayerService {
	return &FakePlayerService{trace: []string{}}
}

func (f *FakePlayerService) record(step string, event *gameevents.GameEvent) {
	f.trace = append(f.trace, step)
	f.Events = append(f.Events, event)
}

// Trace returns the sequence of service methods called.
func (f *FakePlayerService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakePlayerService) HandlePlayerConnect(ctx context.Context, event *gameevents.GameEvent) (playerservice.ConnectResult, error) {
	f.record("HandlePlayerConnect", event)
	if f.HandlePlayerConnectFunc != nil {
		return f.HandlePlayerConnectFunc(ctx, event)
	}
	return playerservice.ConnectResult{Success: &gameevents.PlayerConnectedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerDisconnect(ctx context.Context, event *gameevents.GameEvent) (playerservice.DisconnectResult, error) {
	f.record("HandlePlayerDisconnect", event)
	if f.HandlePlayerDisconnectFunc != nil {
		return f.HandlePlayerDisconnectFunc(ctx, event)
	}
	return playerservice.DisconnectResult{Success: &gameevents.PlayerDisconnectedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerEntry(ctx context.Context, event *gameevents.GameEvent) (playerservice.EntryResult, error) {
	f.record("HandlePlayerEntry", event)
	if f.HandlePlayerEntryFunc != nil {
		return f.HandlePlayerEntryFunc(ctx, event)
	}
	return playerservice.EntryResult{Success: &gameevents.PlayerEnteredPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerChangeTeam(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChangeTeamResult, error) {
	f.record("HandlePlayerChangeTeam", event)
	if f.HandlePlayerChangeTeamFunc != nil {
		return f.HandlePlayerChangeTeamFunc(ctx, event)
	}
	return playerservice.ChangeTeamResult{Success: &gameevents.TeamChangedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerChangeName(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChangeNameResult, error) {
	f.record("HandlePlayerChangeName", event)
	if f.HandlePlayerChangeNameFunc != nil {
		return f.HandlePlayerChangeNameFunc(ctx, event)
	}
	return playerservice.ChangeNameResult{Success: &gameevents.NameChangedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerSuicide(ctx context.Context, event *gameevents.GameEvent) (playerservice.SuicideResult, error) {
	f.record("HandlePlayerSuicide", event)
	if f.HandlePlayerSuicideFunc != nil {
		return f.HandlePlayerSuicideFunc(ctx, event)
	}
	return playerservice.SuicideResult{Success: &gameevents.PlayerSuicidePayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerDamage(ctx context.Context, event *gameevents.GameEvent) (playerservice.DamageResult, error) {
	f.record("HandlePlayerDamage", event)
	if f.HandlePlayerDamageFunc != nil {
		return f.HandlePlayerDamageFunc(ctx, event)
	}
	return playerservice.DamageResult{Success: &gameevents.PlayerDamagedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerTeamkill(ctx context.Context, event *gameevents.GameEvent) (playerservice.TeamkillResult, error) {
	f.record("HandlePlayerTeamkill", event)
	if f.HandlePlayerTeamkillFunc != nil {
		return f.HandlePlayerTeamkillFunc(ctx, event)
	}
	return playerservice.TeamkillResult{Success: &gameevents.PlayerTeamkilledPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerChat(ctx context.Context, event *gameevents.GameEvent) (playerservice.ChatResult, error) {
	f.record("HandlePlayerChat", event)
	if f.HandlePlayerChatFunc != nil {
		return f.HandlePlayerChatFunc(ctx, event)
	}
	return playerservice.ChatResult{Success: &gameevents.ChatLoggedPayload{}}, nil
}

func (f *FakePlayerService) HandlePlayerKill(ctx context.Context, event *gameevents.GameEvent) (playerservice.KillResult, error) {
	f.record("HandlePlayerKill", event)
	if f.HandlePlayerKillFunc != nil {
		return f.HandlePlayerKillFunc(ctx, event)
	}
	return playerservice.KillResult{Success: &gameevents.PlayerKilledPayload{}}, nil
}

// Ensure the fake satisfies the Service interface
var _ playerservice.Service = (*FakePlayerService)(nil)

// ------------------------
// Fake handler metrics
// ------------------------

// FakeHandlerMetrics counts wrapper callbacks per handler name.
type FakeHandlerMetrics struct {
	Attempts  map[string]int
	Successes map[string]int
	Failures  map[string]int
}

func NewFakeHandlerMetrics() *FakeHandlerMetrics {
	return &FakeHandlerMetrics{
		Attempts:  map[string]int{},
		Successes: map[string]int{},
		Failures:  map[string]int{},
	}
}

func (f *FakeHandlerMetrics) RecordHandlerAttempt(name string) { f.Attempts[name]++ }
func (f *FakeHandlerMetrics) RecordHandlerSuccess(name string) { f.Successes[name]++ }
func (f *FakeHandlerMetrics) RecordHandlerFailure(name string) { f.Failures[name]++ }

func (f *FakeHandlerMetrics) RecordHandlerDuration(name string, s float64) {}
