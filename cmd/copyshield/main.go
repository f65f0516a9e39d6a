package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/cache"
	cacheRedis "github.com/copyshield/copyshield/internal/cache/redis"
	"github.com/copyshield/copyshield/internal/config"
	"github.com/copyshield/copyshield/internal/embed/local"
	"github.com/copyshield/copyshield/internal/hash"
	logpkg "github.com/copyshield/copyshield/internal/logger"
	"github.com/copyshield/copyshield/internal/media"
	"github.com/copyshield/copyshield/internal/metrics"
	artifactrepo "github.com/copyshield/copyshield/internal/repository/artifacts"
	fprepo "github.com/copyshield/copyshield/internal/repository/fingerprints"
	outcomerepo "github.com/copyshield/copyshield/internal/repository/outcomes"
	chiTransport "github.com/copyshield/copyshield/internal/transport/chi"
	openaiTransport "github.com/copyshield/copyshield/internal/transport/openai"
	"github.com/copyshield/copyshield/internal/usecase/compare"
	"github.com/copyshield/copyshield/internal/usecase/evaluate"
	"github.com/copyshield/copyshield/internal/usecase/features"
	"github.com/copyshield/copyshield/internal/usecase/fingerprint"
	"github.com/copyshield/copyshield/internal/usecase/scoring"
	"github.com/copyshield/copyshield/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "copyshield",
		Short:         "Content protection: fingerprint, compare, score",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		serveCmd(),
		fingerprintCmd(),
		compareCmd(),
		evaluateCmd(),
		trainCmd(),
		optimizeCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("copyshield %s\n", version.String())
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting copyshield API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	textEmbed, imageEmbed, transcriber := buildEmbedders(cfg, logger)

	fpSvc := fingerprint.New(
		hash.NewExtractor(), textEmbed, imageEmbed, media.NewGIFFrameSource(),
		transcriber,
		fingerprint.Config{
			FrameRate:   cfg.Fingerprint.FrameRate,
			MaxFrames:   cfg.Fingerprint.MaxFrames,
			EmbedFrames: cfg.Fingerprint.EmbedFrames,
			TextLimit:   cfg.Fingerprint.TextLimit,
		},
		logger,
	)
	cmpSvc := compare.New(cfg.Fingerprint.Workers)
	engine := scoring.New(scoring.Config{
		Thresholds: scoring.Thresholds{
			AutoApprove: cfg.Scoring.AutoApprove,
			AutoReject:  cfg.Scoring.AutoReject,
		},
	}, logger)

	var artifacts scoring.ArtifactStore
	if cfg.Scoring.ArtifactPath != "" {
		artifacts = artifactrepo.New(cfg.Scoring.ArtifactPath)
		if err := engine.RestoreFrom(artifacts); err != nil {
			logger.Warn("Failed to restore model artifacts", zap.Error(err))
		} else if engine.Trained() {
			logger.Info("Restored trained scoring ensemble",
				zap.String("path", cfg.Scoring.ArtifactPath))
		}
	}

	var (
		store     cache.Store
		fpCache   evaluate.FingerprintCache
		cachePing chiTransport.Pinger
	)
	if len(cfg.Cache.Addrs) > 0 {
		s, err := cacheRedis.NewStore(cacheRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer s.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(context.Background(), readiness); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to fingerprint cache")

		store = s
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		fpCache = fprepo.New(s, ttl, metrics.FingerprintCacheTotal, logger)
		cachePing = store
	}

	var recorder evaluate.OutcomeRecorder
	var outcomeStore *outcomerepo.Store
	if cfg.Outcomes.Path != "" {
		outcomeStore, err = outcomerepo.Open(cfg.Outcomes.Path)
		if err != nil {
			return fmt.Errorf("open outcome store: %w", err)
		}
		defer func() { _ = outcomeStore.Close() }()
		recorder = outcomeStore
	}

	svc := evaluate.New(fpSvc, cmpSvc, features.New(), engine, fpCache, recorder, artifacts, logger)

	server := chiTransport.NewServer(svc, cachePing, logger)
	router := server.Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func buildEmbedders(cfg config.Config, logger *zap.Logger) (
	fingerprint.TextEmbedder, fingerprint.ImageEmbedder, fingerprint.Transcriber,
) {
	if cfg.Embedding.Provider != "openai" {
		emb := local.New()
		return emb, emb, nil
	}

	ocfg := &openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		TextModel:  cfg.Embedding.TextModel,
		ImageModel: cfg.Embedding.ImageModel,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	}
	emb := openaiTransport.NewEmbedder(ocfg)

	var transcriber fingerprint.Transcriber
	if cfg.Embedding.Transcription {
		transcriber = openaiTransport.NewTranscriber(ocfg, cfg.Embedding.TranscriptionModel)
	}
	return emb, emb, transcriber
}
