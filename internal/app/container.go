package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/announce"
	"github.com/railsign/isl-announce-go/internal/cloud"
	"github.com/railsign/isl-announce-go/internal/config"
	"github.com/railsign/isl-announce-go/internal/live"
	"github.com/railsign/isl-announce-go/internal/media"
	"github.com/railsign/isl-announce-go/internal/service/cache"
	"github.com/railsign/isl-announce-go/internal/service/database"
	"github.com/railsign/isl-announce-go/internal/sign"
	"github.com/railsign/isl-announce-go/internal/status"
	"github.com/railsign/isl-announce-go/internal/store"
	"github.com/railsign/isl-announce-go/internal/video"
)

// Container holds the assembled service graph. Optional cloud services are
// nil when not configured.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache     *cache.CacheService
	Postgres  *database.PostgresService
	Templates *store.TemplateStore
	Records   *store.AnnouncementStore
	LiveJobs  *store.LiveJobStore

	Generator    *video.Generator
	Lifecycle    *video.Manager
	Orchestrator *announce.Orchestrator
	Hub          *status.Hub
	Live         *live.Service

	Translator  *cloud.Translator
	Transcriber *cloud.Transcriber

	closers []func()
}

// Build assembles all infrastructure services. Heavy-weight initialization
// (DB/cache/cloud clients) happens here so the entry point stays focused on
// process lifecycle.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and database
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,

		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	// Stores
	templates := store.NewTemplateStore(postgresSvc, cacheSvc, cfg.Redis.TemplateTTL, logger)
	records := store.NewAnnouncementStore(postgresSvc, cfg.Assets.StagingDir, cfg.Assets.PermanentDir, logger)
	liveJobs := store.NewLiveJobStore(postgresSvc, logger)

	// Video pipeline
	resolver := sign.NewResolver(cfg.Assets.Root, logger)
	concatenator := media.NewConcatenator(
		cfg.Media.FFmpegBin, cfg.Media.FFprobeBin,
		cfg.Media.ConcatTimeout, cfg.Media.ProbeTimeout, logger)
	lifecycle, err := video.NewManager(cfg.Assets.StagingDir, cfg.Assets.PermanentDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create video lifecycle manager: %w", err)
	}
	generator := video.NewGenerator(resolver, concatenator, lifecycle, logger)

	// Announcement flow
	orchestrator := announce.NewOrchestrator(templates, records, generator, logger)
	hub := status.NewHub(logger)
	closers = append(closers, hub.Close)
	liveSvc := live.NewService(liveJobs, orchestrator, hub, logger)

	// Cloud stack (optional)
	var (
		translator  *cloud.Translator
		transcriber *cloud.Transcriber
	)

	if cfg.Google.CredentialsFile != "" && cfg.Google.ProjectID != "" {
		creds, credErr := cloud.LoadCredentials(ctx, cfg.Google.CredentialsFile)
		if credErr != nil {
			logger.Warn("Failed to load Google credentials (translation disabled)", zap.Error(credErr))
		} else {
			translator, err = cloud.NewTranslator(ctx, creds, cfg.Google.ProjectID, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create translator: %w", err)
			}
			logger.Info("Cloud translation enabled", zap.String("project", cfg.Google.ProjectID))
		}
	}

	if cfg.Google.GeminiAPIKey != "" {
		transcriber, err = cloud.NewTranscriber(ctx, cloud.TranscriberConfig{
			GeminiAPIKey:   cfg.Google.GeminiAPIKey,
			OpenAIAPIKey:   cfg.OpenAI.APIKey,
			EnableFallback: cfg.OpenAI.EnableFallback,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcriber: %w", err)
		}
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Cache:        cacheSvc,
		Postgres:     postgresSvc,
		Templates:    templates,
		Records:      records,
		LiveJobs:     liveJobs,
		Generator:    generator,
		Lifecycle:    lifecycle,
		Orchestrator: orchestrator,
		Hub:          hub,
		Live:         liveSvc,
		Translator:   translator,
		Transcriber:  transcriber,
		closers:      closers,
	}, nil
}

// Close tears services down in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
