//go:build integration

package playerhandlerintegrationtests

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fragstats/fragstatsd/app/eventbus"
	"github.com/fragstats/fragstatsd/app/modules/geoip"
	"github.com/fragstats/fragstatsd/app/modules/match"
	"github.com/fragstats/fragstatsd/app/modules/notify"
	"github.com/fragstats/fragstatsd/app/modules/player"
	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/app/modules/ranking"
	"github.com/fragstats/fragstatsd/app/modules/session"
	"github.com/fragstats/fragstatsd/integration_tests/testutils"
	"github.com/fragstats/fragstatsd/internal/observability"
)

var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// HandlerTestDeps bundles the shared environment with the per-test module,
// router and geo pipeline.
type HandlerTestDeps struct {
	*testutils.TestEnvironment
	PlayerModule *player.Module
	Router       *message.Router
	EventBus     eventbus.EventBus
	Sessions     *session.InMemoryStore
	GeoService   *geoip.Service
	GeoEndpoint  *httptest.Server
}

// GetTestEnv initializes the shared containers once per package run.
func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()

	testEnvOnce.Do(func() {
		log.Println("Initializing player handler test environment...")
		env, err := testutils.NewTestEnvironment(t)
		if err != nil {
			testEnvErr = err
			log.Printf("Failed to set up test environment: %v", err)
		} else {
			log.Println("Player handler test environment initialized successfully.")
			testEnv = env
		}
	})

	if testEnvErr != nil {
		t.Fatalf("Player handler test environment initialization failed: %v", testEnvErr)
	}
	if testEnv == nil {
		t.Fatalf("Player handler test environment not initialized")
	}

	return testEnv
}

// fakeGeoEndpoint serves the lookup wire shape locally so enrichment tests
// never leave the test network.
func fakeGeoEndpoint() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","city":"Reykjavik","country":"Iceland","countryCode":"IS","lat":64.1466,"lon":-21.9426}`))
	}))
}

// SetupTestPlayerHandler wires a complete player module against the shared
// containers: fresh metrics registry, local geo endpoint, every notification
// kind enabled and a running watermill router. Cleanup is registered on t;
// the shared event bus and containers stay up for the next test.
func SetupTestPlayerHandler(t *testing.T) HandlerTestDeps {
	t.Helper()

	env := GetTestEnv(t)

	resetCtx, resetCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer resetCancel()
	if err := env.Reset(resetCtx); err != nil {
		t.Fatalf("Failed to reset environment: %v", err)
	}

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	obs := &observability.Observability{
		Logger:   discardLogger,
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Registry: registry,
		Metrics:  observability.NewMetrics(registry),
	}

	routerRunCtx, routerRunCancel := context.WithCancel(env.Ctx)

	geoEndpoint := fakeGeoEndpoint()
	sessions := session.NewInMemoryStore()

	geoService, err := geoip.NewService(
		env.Ctx,
		discardLogger,
		env.Config.Postgres.DSN,
		env.DBService.PlayerDB,
		env.DBService.ServerDB,
		sessions,
		obs.Metrics,
		geoip.Config{
			Client: geoip.ClientConfig{
				Endpoint:          geoEndpoint.URL,
				Timeout:           5 * time.Second,
				RequestsPerSecond: 100,
			},
		},
	)
	if err != nil {
		geoEndpoint.Close()
		routerRunCancel()
		t.Fatalf("Failed to create geo service: %v", err)
	}
	if err := geoService.Start(env.Ctx); err != nil {
		geoEndpoint.Close()
		routerRunCancel()
		t.Fatalf("Failed to start geo service: %v", err)
	}

	notifyKinds := make([]string, 0, len(gameevents.AllNotificationKinds()))
	for _, kind := range gameevents.AllNotificationKinds() {
		notifyKinds = append(notifyKinds, kind.String())
	}
	notifier, err := notify.NewPublisher(env.EventBus, discardLogger, obs.Metrics, notifyKinds)
	if err != nil {
		stopGeo(t, geoService)
		geoEndpoint.Close()
		routerRunCancel()
		t.Fatalf("Failed to create notify publisher: %v", err)
	}

	watermillRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: 2 * time.Second}, watermill.NopLogger{})
	if err != nil {
		stopGeo(t, geoService)
		geoEndpoint.Close()
		routerRunCancel()
		t.Fatalf("Failed to create Watermill router: %v", err)
	}

	matchState := match.NewInMemoryState()
	serviceDeps := playerservice.Deps{
		Repo:       env.DBService.PlayerDB,
		ServerRepo: env.DBService.ServerDB,
		Sessions:   sessions,
		Ranking:    ranking.NewEloEngine(ranking.Config{}),
		Match:      matchState,
		Maps:       matchState,
		GeoIP:      geoService,
		Notifier:   notifier,
	}

	playerModule, err := player.NewPlayerModule(env.Ctx, env.Config, obs, serviceDeps, env.EventBus, watermillRouter, routerRunCtx)
	if err != nil {
		stopGeo(t, geoService)
		geoEndpoint.Close()
		routerRunCancel()
		t.Fatalf("Failed to create player module: %v", err)
	}

	routerWg := &sync.WaitGroup{}
	routerWg.Add(1)
	go func() {
		defer routerWg.Done()
		if runErr := watermillRouter.Run(routerRunCtx); runErr != nil && runErr != context.Canceled {
			t.Errorf("Watermill router stopped with error: %v", runErr)
		}
	}()

	select {
	case <-watermillRouter.Running():
	case <-time.After(10 * time.Second):
		t.Fatalf("Watermill router did not start within 10s")
	}

	t.Cleanup(func() {
		routerRunCancel()

		if err := playerModule.Close(); err != nil {
			t.Logf("Warning: Failed to close player module: %v", err)
		}
		if err := watermillRouter.Close(); err != nil {
			t.Logf("Warning: Failed to close Watermill router: %v", err)
		}

		stopGeo(t, geoService)
		geoEndpoint.Close()

		waitCh := make(chan struct{})
		go func() {
			routerWg.Wait()
			close(waitCh)
		}()
		select {
		case <-waitCh:
		case <-time.After(2 * time.Second):
			t.Log("WARNING: Router goroutine did not finish within timeout")
		}
	})

	return HandlerTestDeps{
		TestEnvironment: env,
		PlayerModule:    playerModule,
		Router:          watermillRouter,
		EventBus:        env.EventBus,
		Sessions:        sessions,
		GeoService:      geoService,
		GeoEndpoint:     geoEndpoint,
	}
}

// stopGeo drains the river client with a bounded context so a stuck worker
// cannot hang the whole package run.
func stopGeo(t *testing.T, geoService *geoip.Service) {
	t.Helper()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := geoService.Stop(stopCtx); err != nil {
		t.Logf("Warning: Failed to stop geo service: %v", err)
	}
}
