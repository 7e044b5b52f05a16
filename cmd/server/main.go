package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"trucklog/internal/app"
	"trucklog/internal/config"
	"trucklog/internal/handler"
	"trucklog/internal/hos"
	"trucklog/internal/metrics"
	internalRedis "trucklog/internal/redis"
	"trucklog/internal/repository/postgres"
	"trucklog/internal/routing"
	"trucklog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	loc, err := cfg.HOS.Location()
	if err != nil {
		log.Fatalf("failed to load trip-day time zone: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
			nrApp = nil
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	metrics.RegisterDefault()

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	planner, closeRouting, err := newRoutePlanner(ctx, cfg.Routing)
	if err != nil {
		log.Fatalf("failed to initialize routing: %v", err)
	}
	defer closeRouting()

	server := wireServer(db, redisClient, nrApp, planner, loc, cfg)

	go func() {
		log.Printf("Starting server on port %s tz=%s", cfg.Server.Port, loc)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// newRoutePlanner builds the trip route planner. Without an ORS key every
// route is a straight-line estimate.
func newRoutePlanner(ctx context.Context, cfg config.RoutingConfig) (*routing.Planner, func(), error) {
	if cfg.ORSAPIKey == "" {
		log.Println("ORS_API_KEY not set; routes use straight-line estimates")
		return routing.NewPlanner(nil, true), func() {}, nil
	}

	if cfg.CachePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
			return nil, nil, err
		}
	}

	cache, err := routing.OpenSQLiteCache(ctx, cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}

	client, err := routing.NewORSClient(routing.ORSConfig{
		APIKey:            cfg.ORSAPIKey,
		BaseURL:           cfg.ORSBaseURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.Timeout,
	}, cache)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	log.Printf("ORS routing enabled base_url=%s cache=%s fallback=%t", cfg.ORSBaseURL, cfg.CachePath, cfg.Fallback)
	return routing.NewPlanner(client, cfg.Fallback), func() { cache.Close() }, nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	planner service.RoutePlanner,
	loc *time.Location,
	cfg *config.Config,
) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.HOS.StatusCacheTTL)

	// Initialize repositories.
	store := postgres.NewStore(db, loc)
	repos := store.Repositories()

	// Initialize the compliance engine.
	mutator := hos.NewMutator(hos.NewDetector())
	opts := service.HOSOptions{Location: loc, LockTTL: cfg.HOS.LockTTL}

	// Initialize services.
	driverService := service.NewDriverService(cacheStore, repos.Drivers, repos.Logs, opts)
	logService := service.NewLogService(store, repos.Logs, repos.Drivers, lockStore, cacheStore, mutator, opts)
	tripService := service.NewTripService(store, repos.Trips, repos.Drivers, repos.Logs, lockStore, cacheStore, planner, mutator, opts)
	violationService := service.NewViolationService(repos.Violations)

	router := app.NewRouter(app.RouterDeps{
		DriverHandler:    handler.NewDriverHandler(driverService),
		LogHandler:       handler.NewLogHandler(logService, loc),
		TripHandler:      handler.NewTripHandler(tripService),
		ViolationHandler: handler.NewViolationHandler(violationService),
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
