package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/config"
	s3infra "github.com/chloe472/Reely/internal/infra/s3"
	"github.com/chloe472/Reely/internal/jobs/cleanup"
	pgrepo "github.com/chloe472/Reely/internal/repo/postgres"
	redrepo "github.com/chloe472/Reely/internal/repo/redis"
	"github.com/chloe472/Reely/internal/services/accounts"
	authsvc "github.com/chloe472/Reely/internal/services/auth"
	foldersvc "github.com/chloe472/Reely/internal/services/folders"
	mediasvc "github.com/chloe472/Reely/internal/services/media"
	ratesvc "github.com/chloe472/Reely/internal/services/rate"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	videosvc "github.com/chloe472/Reely/internal/services/video"
	visionsvc "github.com/chloe472/Reely/internal/services/vision"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	sweeper    *cleanup.Job
	sweepStop  chan struct{}
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if err := pgrepo.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			log.Warn("migrations failed, continuing with current schema", zap.Error(err))
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)

	storage, err := mediasvc.NewLocalStorage(cfg.Media.Dir, cfg.Media.PublicPath)
	if err != nil {
		return nil, fmt.Errorf("init media storage: %w", err)
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing without media mirror", zap.Error(err))
	} else {
		s3Client = c
	}

	var mirror uploadsvc.ObjectMirror
	if s3Client != nil {
		s3Storage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed, continuing without media mirror", zap.Error(err))
		} else {
			mirror = s3Storage
		}
	}

	visionClient := visionsvc.NewClient(visionsvc.Config{
		APIKey:  cfg.Vision.APIKey,
		Model:   cfg.Vision.Model,
		BaseURL: cfg.Vision.BaseURL,
		Timeout: cfg.Vision.Timeout,
	}, log)

	extractor := videosvc.NewExtractor(cfg.Media.FFmpegPath, log)
	gate := ratesvc.NewGate(cfg.Pipeline.FrameDelay)
	pipeline := videosvc.NewPipeline(extractor, visionClient, gate, storage, videosvc.Config{
		FPS:                 cfg.Pipeline.FPS,
		MaxFrames:           cfg.Pipeline.MaxFrames,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
	}, log)

	authService := authsvc.NewService(authsvc.NewVerifier(cfg.Auth.JWTSecret))

	var directory uploadsvc.DirectoryLister
	if cfg.Auth.ProjectURL != "" && cfg.Auth.ServiceKey != "" {
		directory = accounts.NewDirectory(accounts.Config{
			ProjectURL: cfg.Auth.ProjectURL,
			ServiceKey: cfg.Auth.ServiceKey,
		}, log)
	} else {
		log.Warn("supabase service key missing, leaderboard will show aggregates only")
	}

	uploadRepo := pgrepo.NewUploadRepo(pool)
	folderRepo := pgrepo.NewFolderRepo(pool)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.UploadsPerMinute)

	uploadsService := uploadsvc.NewService(
		uploadRepo,
		storage,
		mirror,
		visionClient,
		pipeline,
		rateLimiter,
		directory,
		cacheRepo,
		uploadsvc.Config{LeaderboardCacheTTL: cfg.Limits.LeaderboardCacheTTL},
		log,
	)
	foldersService := foldersvc.NewService(folderRepo, uploadsService, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		UploadsService: uploadsService,
		FoldersService: foldersService,
		Postgres:       pool,
		Logger:         log,
		Config:         cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		sweeper:    cleanup.New(storage.ScratchRoot(), cfg.Media.SweepMaxAge, log),
		sweepStop:  make(chan struct{}),
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.startSweeper()

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// startSweeper runs the scratch-dir cleanup on a fixed interval until
// Shutdown.
func (a *App) startSweeper() {
	interval := a.cfg.Media.SweepInterval
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-a.sweepStop:
				return
			case <-ticker.C:
				if err := a.sweeper.Run(); err != nil {
					a.logger.Warn("scratch sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	close(a.sweepStop)

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
