package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/ctf-scoreboard/external/webhook"
	"github.com/riskibarqy/ctf-scoreboard/internal/config"
	"github.com/riskibarqy/ctf-scoreboard/internal/infrastructure/content"
	"github.com/riskibarqy/ctf-scoreboard/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/ctf-scoreboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/ctf-scoreboard/internal/interfaces/realtime"
	"github.com/riskibarqy/ctf-scoreboard/internal/observability"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/resilience"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/session"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

// App owns the HTTP server and the background workers behind it.
type App struct {
	Server *http.Server

	hub       *realtime.Hub
	announcer *webhook.Announcer
	logger    *logging.Logger
	closers   []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.closeResources()
		}
	}()

	events, err := content.LoadEvents(cfg.EventsFile)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	puzzles, err := content.LoadCatalog(ctx, cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("load challenge catalog: %w", err)
	}
	challenges, ctfs := puzzles.Size()
	logger.Info("content loaded",
		"events", len(events.List()),
		"challenges", challenges,
		"ctfs", ctfs,
	)

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repos.close)

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	boardCache, err := a.buildLeaderboardCache(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}

	eventSvc := usecase.NewEventService(events, logger)
	teamSvc := usecase.NewTeamService(repos.teams, events, logger)
	challengeSvc := usecase.NewChallengeService(puzzles, repos.access, repos.attempts, logger)
	scoringSvc := usecase.NewScoringService(puzzles, repos.attempts, repos.hints, repos.teams, logger)
	timerSvc := usecase.NewTimerService(repos.timers, repos.teams, logger)
	leaderboardSvc := usecase.NewLeaderboardService(
		repos.teams,
		repos.attempts,
		repos.timers,
		boardCache,
		usecase.LeaderboardConfig{Workers: cfg.LeaderboardWorkers},
		logger,
	)

	// Cache invalidation must run before anything re-reads the board.
	listeners := []usecase.ScoreListener{leaderboardSvc}

	var streamer httpapi.LeaderboardStreamer
	if cfg.RealtimeEnabled {
		a.hub = realtime.NewHub(leaderboardSvc, realtime.Config{AllowedOrigins: cfg.CORSAllowedOrigins}, logger)
		streamer = a.hub
		listeners = append(listeners, a.hub)
		metrics.TrackGauge("realtime_clients", "Connected leaderboard websocket clients", func() float64 {
			return float64(a.hub.Clients())
		})
	}
	if metrics != nil {
		listeners = append(listeners, metrics)
	}
	if cfg.WebhookEnabled {
		breaker := resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebhookCircuitEnabled,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
		}.WithDefaults(resilience.DefaultCircuitBreakerConfig())
		a.announcer, err = webhook.NewAnnouncer(webhook.Config{
			URL:            cfg.WebhookURL,
			Token:          cfg.WebhookToken,
			Timeout:        cfg.WebhookTimeout,
			CircuitBreaker: breaker,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("webhook announcer ready", breaker.LogFields()...)
		listeners = append(listeners, a.announcer)
	}

	for _, listener := range listeners {
		scoringSvc.Subscribe(listener)
		teamSvc.Subscribe(listener)
		timerSvc.Subscribe(listener)
	}

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}

	handler := httpapi.NewHandler(
		eventSvc,
		teamSvc,
		challengeSvc,
		scoringSvc,
		leaderboardSvc,
		timerSvc,
		sessions,
		streamer,
		cfg.SessionCookieSecure,
		logger,
	)
	opts := httpapi.RouterOptions{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if metrics != nil {
		opts.Metrics = metrics.Handler()
		opts.Observer = metrics
	}

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, sessions, logger, opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ok = true
	return a, nil
}

func (a *App) buildLeaderboardCache(ctx context.Context, cfg config.Config, metrics *observability.Metrics) (usecase.LeaderboardCache, error) {
	if !cfg.LeaderboardCacheEnabled {
		a.logger.Info("leaderboard cache disabled", "reason", "LEADERBOARD_CACHE_ENABLED=false")
		return nil, nil
	}
	if !cfg.RedisEnabled {
		return cache.NewLocalLeaderboardCache(cfg.LeaderboardCacheTTL, metrics), nil
	}

	redisCfg := cache.RedisConfig{
		Addr:           cfg.RedisAddr,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		TTL:            cfg.LeaderboardCacheTTL,
		CircuitBreaker: resilience.CacheCircuitBreakerConfig(),
	}
	client, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRedis(client))
	fields := append([]any{"addr", cfg.RedisAddr, "db", cfg.RedisDB}, redisCfg.CircuitBreaker.LogFields()...)
	a.logger.Info("redis leaderboard cache ready", fields...)
	return cache.NewRedisLeaderboardCache(client, redisCfg, metrics, a.logger), nil
}

func closeRedis(client *redis.Client) func() error {
	return func() error {
		return client.Close()
	}
}

// Run starts the background workers. They stop when ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.hub != nil {
		go a.hub.Run(ctx)
	}
	if a.announcer != nil {
		go a.announcer.Run(ctx)
	}
}

// Close flushes pending announcements and releases storage. Call it after
// the HTTP server has shut down.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.announcer != nil {
		if err := a.announcer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close webhook announcer: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
