package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/showdex-go/internal/config"
	"github.com/kapu/showdex-go/internal/server"
	"github.com/kapu/showdex-go/internal/service/aggregator"
	"github.com/kapu/showdex-go/internal/service/kvstore"
	"github.com/kapu/showdex-go/internal/service/streaming"
	"github.com/kapu/showdex-go/internal/service/tmdb"
	"github.com/kapu/showdex-go/internal/service/translate"
	"github.com/kapu/showdex-go/internal/service/tvmaze"
	"github.com/kapu/showdex-go/internal/service/warmer"
)

// Container bundles the assembled services for the runtime entrypoint.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Store      *kvstore.TieredStore
	Metadata   *tvmaze.CachedClient
	Providers  *tmdb.Client
	Translator *translate.Service
	Aggregator *aggregator.Aggregator
	Warmer     *warmer.Warmer
	Server     *server.Server

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Heavy-weight initialization
// (cache tiers, HTTP clients, AI clients) happens here so the entrypoint
// stays focused on lifecycle.
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

	// Cache tiers. Either tier may be absent; the tiered store degrades to
	// whatever is available, down to no caching at all.
	var remote *kvstore.RedisStore
	if cfg.Redis.URL != "" {
		remote, err = kvstore.NewRedisStore(kvstore.RedisConfig{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Warn("Redis unavailable, continuing on local cache only", zap.Error(err))
			remote = nil
			err = nil
		}
	} else {
		logger.Info("No Redis URL configured, using local cache only")
	}

	var local *kvstore.BoltStore
	if cfg.LocalCache.Dir != "" {
		local, err = kvstore.NewBoltStore(cfg.LocalCache.Dir, logger)
		if err != nil {
			logger.Warn("Local cache unavailable", zap.Error(err))
			local = nil
			err = nil
		}
	}

	if remote == nil && local == nil {
		logger.Warn("No cache tier available, every request goes upstream")
	}

	var remoteStore, localStore kvstore.Store
	if remote != nil {
		remoteStore = remote
	}
	if local != nil {
		localStore = local
	}

	store := kvstore.NewTieredStore(remoteStore, localStore, logger)
	closers = append(closers, func() {
		_ = store.Close()
	})

	// Upstream clients
	tvmazeClient := tvmaze.NewClient(cfg.TVMaze.BaseURL, logger)
	metadata := tvmaze.NewCachedClient(tvmazeClient, store, logger)

	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, store, logger)
	if !tmdbClient.Enabled() {
		logger.Warn("No TMDB API key configured, streaming availability disabled")
	}

	normalizer := streaming.NewNormalizer(cfg.Affiliate.Tag, logger)

	// Translation stack
	modelManager, err := translate.NewModelManager(ctx, translate.ModelManagerConfig{
		GeminiAPIKey:   cfg.Gemini.APIKey,
		OpenAIAPIKey:   cfg.OpenAI.APIKey,
		EnableFallback: cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	translator := translate.NewService(modelManager, store, logger)

	agg := aggregator.NewAggregator(metadata, tmdbClient, normalizer, translator, logger)
	warm := warmer.NewWarmer(metadata, agg, logger)
	srv := server.NewServer(cfg.Server.Port, agg, translator, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Metadata:   metadata,
		Providers:  tmdbClient,
		Translator: translator,
		Aggregator: agg,
		Warmer:     warm,
		Server:     srv,
		closers:    closers,
	}, nil
}
