package api

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/strainfeed/internal/api/handlers"
	mw "github.com/Harshitk-cp/strainfeed/internal/api/middleware"
	"github.com/Harshitk-cp/strainfeed/internal/buildconfig"
	"github.com/Harshitk-cp/strainfeed/internal/config"
	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"github.com/Harshitk-cp/strainfeed/internal/service"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Engine   *service.MetricEngine
	Watchdog *service.Watchdog
	Bus      *service.UpdateBus
	Query    *service.QueryService
	Ingest   *service.IngestService
	Metrics  *metrics.Collector
}

func NewApp(nodes domain.NodeStore, edges domain.EdgeStore, logger *zap.Logger) *App {
	collector := metrics.NewCollector("strainfeed")

	// Services
	bus := service.NewUpdateBus(logger)
	bus.SetBufferSize(config.FeedBuffer())
	bus.SetHeartbeatInterval(config.HeartbeatInterval())
	bus.SetMetrics(collector)

	engine := service.NewMetricEngine(nodes, bus, logger)
	engine.SetInterval(config.TickInterval())
	engine.SetMetrics(collector)

	watchdog := service.NewWatchdog(engine, logger)
	watchdog.SetMultiplier(config.StallMultiplier())
	watchdog.SetMetrics(collector)

	querySvc := service.NewQueryService(nodes, edges, logger)
	querySvc.SetThresholds(domain.StatsThresholds{
		HighStrain:    config.HighStrainThreshold(),
		LowResistance: config.LowResistanceThreshold(),
		HighFrequency: config.HighFrequencyThreshold(),
		HighMass:      config.HighMassThreshold(),
	})

	ingestSvc := service.NewIngestService(nodes, bus, logger)
	ingestSvc.SetMetrics(collector)

	// Handlers
	graphHandler := handlers.NewGraphHandler(querySvc, logger)
	ingestHandler := handlers.NewIngestHandler(ingestSvc, logger)
	streamHandler := handlers.NewStreamHandler(bus, logger)

	r := chi.NewRouter()

	app := &App{
		Router:   r,
		Engine:   engine,
		Watchdog: watchdog,
		Bus:      bus,
		Query:    querySvc,
		Ingest:   ingestSvc,
		Metrics:  collector,
	}

	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics(collector))
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(watchdog))
	r.Get("/version", versionHandler)
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", graphHandler.Stats)
		r.Get("/agents", graphHandler.Agents)
		r.Get("/entities", graphHandler.Entities)
		r.Get("/relationships", graphHandler.Relationships)
		r.Get("/nodes/{id}", graphHandler.Node)
		r.Get("/graph-data", graphHandler.GraphData)
		r.Get("/stream-updates", streamHandler.Updates)

		r.Post("/ingest", ingestHandler.Ingest)
		// Older dashboards post prompts here.
		r.Post("/process-prompt", ingestHandler.Ingest)
	})

	return app
}

// Start launches the metric engine and its watchdog.
func (app *App) Start() {
	app.Engine.Start()
	app.Watchdog.Start()
}

// Stop ends every open feed, then stops the watchdog and the engine.
func (app *App) Stop() {
	app.Bus.Close()
	app.Watchdog.Stop()
	app.Engine.Stop()
}

func healthHandler(watchdog *service.Watchdog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := watchdog.Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.NodeStore  = (*store.NodeStore)(nil)
	_ domain.EdgeStore  = (*store.EdgeStore)(nil)
	_ domain.SeedSource = (*store.FileSeedSource)(nil)
	_ domain.SeedSource = (*store.PostgresSeedSource)(nil)
	_ domain.Publisher  = (*service.UpdateBus)(nil)
)
