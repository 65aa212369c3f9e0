package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/codealamode/imiimi/internal/bookmarks"
	"github.com/codealamode/imiimi/internal/config"
	"github.com/codealamode/imiimi/internal/fetcher"
	"github.com/codealamode/imiimi/internal/httpserver"
	"github.com/codealamode/imiimi/internal/httpserver/deps"
	"github.com/codealamode/imiimi/internal/indexer"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/redis"
	"github.com/codealamode/imiimi/internal/search"
	"github.com/codealamode/imiimi/internal/seed"
	redisstore "github.com/codealamode/imiimi/internal/store/redis"
	"github.com/codealamode/imiimi/internal/tokenizer"
	"github.com/codealamode/imiimi/internal/urlnorm"
	"github.com/codealamode/imiimi/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	seeder      *seed.Loader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)

	stopWords, err := tokenizer.ReadStopWords(cfg.StopWordsFile)
	if err != nil {
		loggerClient.Errorf("Failed to load stop words: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("stop words loaded",
		logger.String("file", cfg.StopWordsFile),
		logger.Int("count", stopWords.Len()))

	normalizer := &urlnorm.Normalizer{DocumentIndexes: cfg.DocumentIndexes}
	tok := tokenizer.New(cfg.ContentTags)
	fetch := fetcher.NewHTTP(cfg.FetchTimeout, cfg.FetchMaxRedirects, cfg.FetchMaxBodyBytes, loggerClient)
	idx := indexer.New(store, loggerClient)

	service := bookmarks.NewService(normalizer, fetch, tok, stopWords, idx, store, loggerClient, cfg.MinTagWeight)
	engine := search.New(store, store, stopWords, loggerClient, cfg.SearchPerPage, cfg.SearchCacheTTL)

	var seeder *seed.Loader
	if cfg.SeedFile != "" {
		seeder = seed.NewLoader(cfg.SeedFile, service, loggerClient)
	}

	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		RedisClient: redisClient,
		Engine:      engine,
		Bookmarks:   service,
		PerPage:     cfg.SearchPerPage,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		seeder:      seeder,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting imiimi v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("imiimi %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.seeder != nil {
		if err := a.seeder.Load(ctx); err != nil {
			// A broken seed file shouldn't keep the service down.
			a.logger.Warnf("seed import failed: %v", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("Redis closed cleanly")
		}
	}

	a.logger.Info("imiimi stopped cleanly")
	return nil
}
