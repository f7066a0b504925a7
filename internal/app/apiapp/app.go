package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	s3infra "github.com/neopath7/pethoria-matchpage-server/internal/infra/s3"
	"github.com/neopath7/pethoria-matchpage-server/internal/jobs/matchrepair"
	"github.com/neopath7/pethoria-matchpage-server/internal/metrics"
	redrepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/redis"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	discoverysvc "github.com/neopath7/pethoria-matchpage-server/internal/services/discovery"
	geosvc "github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
	matchessvc "github.com/neopath7/pethoria-matchpage-server/internal/services/matches"
	mediasvc "github.com/neopath7/pethoria-matchpage-server/internal/services/media"
	ratesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/rate"
	searchsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/search"
	swipesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	store      Store
	closeStore func()
	redis      *goredis.Client
	repairJob  *matchrepair.Job
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	store, closeStore, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	recorder := metrics.New()
	r := chi.NewRouter()
	ApplyMiddlewares(r, log, recorder)

	var redisClient *goredis.Client
	if c, err := redrepo.NewClient(ctx, cfg.Redis); err != nil {
		log.Warn("redis init failed, swipe limits and match repair queue disabled", zap.Error(err))
	} else {
		redisClient = c
	}

	var images *mediasvc.ImageResolver
	if c, err := s3infra.NewClient(cfg.S3); err != nil {
		log.Warn("s3 init failed, image keys will not be signed", zap.Error(err))
		images = mediasvc.NewImageResolver(nil, cfg.S3.SignedURLTTL, log)
	} else {
		images = mediasvc.NewImageResolver(mediasvc.NewS3Storage(c, cfg.S3.Bucket), cfg.S3.SignedURLTTL, log)
	}

	matchDeps := matchessvc.Dependencies{
		Store:   store,
		Images:  images,
		Metrics: recorder,
		Logger:  log.Named("matches"),
	}
	swipeDeps := swipesvc.Dependencies{
		Store:   store,
		Metrics: recorder,
		Logger:  log.Named("swipes"),
	}
	var repairQueue *redrepo.RepairQueue
	if redisClient != nil {
		repairQueue = redrepo.NewRepairQueue(redisClient)
		matchDeps.Repairs = repairQueue
		swipeDeps.RateLimiter = ratesvc.NewLimiter(
			redrepo.NewRateRepo(redisClient),
			cfg.Remote.Limits.SwipeRatePerMinute,
			cfg.Remote.Limits.SwipeRatePer10Seconds,
		)
	}

	matchService := matchessvc.NewService(matchDeps, matchessvc.Config{
		WriteTimeout: cfg.Store.MatchWriteTimeout,
	})
	swipeDeps.Detector = matchService
	swipeService := swipesvc.NewService(swipeDeps)
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		Store:   store,
		Images:  images,
		Metrics: recorder,
		Logger:  log.Named("discovery"),
	}, discoverysvc.Config{
		DefaultRadiusMiles: cfg.Remote.Discovery.DefaultRadiusMiles,
		DefaultLimit:       cfg.Remote.Discovery.DefaultLimit,
		MaxLimit:           cfg.Remote.Discovery.MaxLimit,
	})
	searchService := searchsvc.NewService(searchsvc.Dependencies{
		Store:  store,
		Images: images,
		Logger: log.Named("search"),
	}, searchsvc.Config{
		MaxResults:         cfg.Remote.Search.MaxResults,
		DefaultRecencyDays: cfg.Remote.Search.DefaultRecencyDays,
	})
	geoService := geosvc.NewService(cfg.Remote.Cities, store)
	authService := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL))

	var repairJob *matchrepair.Job
	if repairQueue != nil {
		repairJob = matchrepair.New(repairQueue, matchService, cfg.Jobs.MatchRepairBatch, cfg.Jobs.MatchRepairInterval, log.Named("matchrepair"))
		repairJob.AttachBacklogGauge(recorder)
	}

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		DiscoveryService: discoveryService,
		GeoService:       geoService,
		MatchService:     matchService,
		SearchService:    searchService,
		SwipeService:     swipeService,
		Store:            store,
		Metrics:          recorder,
		Logger:           log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		store:      store,
		closeStore: closeStore,
		redis:      redisClient,
		repairJob:  repairJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	jobsCtx, cancel := context.WithCancel(context.Background())
	a.stopJobs = cancel
	if a.repairJob != nil {
		go a.repairJob.Start(jobsCtx)
	}

	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("store", a.cfg.Store.Driver),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.stopJobs != nil {
		a.stopJobs()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.closeStore != nil {
		a.closeStore()
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

func (a *App) Store() Store {
	return a.store
}

// RepairJob is nil when Redis is unavailable.
func (a *App) RepairJob() *matchrepair.Job {
	return a.repairJob
}
