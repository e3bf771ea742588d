package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/executor"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/fuzzy"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/graph"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/llm"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/permissions"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/repo"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/core"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/server"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
	pkgpostgres "github.com/SalvadorCordova96/ProJect-Medical/pkg/postgres"
	pkgredis "github.com/SalvadorCordova96/ProJect-Medical/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis  pkgredis.Config
	AuthDB pkgpostgres.Config `envconfig:"AUTH_DB"`
	CoreDB pkgpostgres.Config `envconfig:"CORE_DB"`
	OpsDB  pkgpostgres.Config `envconfig:"OPS_DB"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Agent      model.AgentConfig
	Classifier model.ClassifierModelConfig
	Formatter  model.FormatterModelConfig
	Prompt     model.PromptConfig

	// Transport
	HTTP      server.Config
	Auth      server.AuthConfig
	RateLimit server.RateLimitConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file")
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	checkpoints := buildCheckpoints(envCfg)
	pools := buildPools(ctx, envCfg)

	chatModels, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:     envCfg.APIKey,
		BaseURL:    envCfg.BaseURL,
		Classifier: &envCfg.Classifier,
		Formatter:  &envCfg.Formatter,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create chat models")
	}

	engine := graph.New(
		llm.NewClassifier(chatModels.Classifier, envCfg.Prompt, envCfg.Agent.HistoryTurns),
		permissions.NewMatrix(),
		llm.NewTranslator(chatModels.Classifier, envCfg.Prompt),
		executor.New(pools, envCfg.Agent),
		llm.NewFormatter(chatModels.Formatter, envCfg.Prompt),
		fuzzy.DefaultCatalog(envCfg.Agent.FuzzyThreshold),
		envCfg.Agent,
	)
	runner := graph.NewRunner(engine, checkpoints, envCfg.Agent)

	router := server.New(runner).Router(envCfg.Auth, envCfg.RateLimit, envCfg.HTTP.RequestTimeout)

	srv := &http.Server{
		Addr:              ":" + envCfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("port", envCfg.HTTP.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envCfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// buildCheckpoints connects the Redis checkpoint store, degrading loudly to
// the in-memory fallback so the pipeline still answers when Redis is down.
func buildCheckpoints(cfg AppConfig) model.CheckpointRepository {
	ttl, err := time.ParseDuration(cfg.Agent.HistoryTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Agent.HistoryTTL).Msg("Invalid AGENT_HISTORY_TTL")
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Error().Err(err).Msg("Redis unavailable, checkpoints will NOT survive a restart")
		return repo.NewMemoryCheckpointRepository()
	}

	logx.Info().Msg("Connected to Redis")
	return repo.NewRedisCheckpointRepository(rdb, ttl)
}

// buildPools opens one pgx pool per logical database. All three are
// required: a clinic deployment without any one of them cannot answer its
// share of queries.
func buildPools(ctx context.Context, cfg AppConfig) map[model.DatabaseTarget]executor.Querier {
	pools := make(map[model.DatabaseTarget]executor.Querier, 3)
	for target, dbCfg := range map[model.DatabaseTarget]*pkgpostgres.Config{
		model.TargetAuth: &cfg.AuthDB,
		model.TargetCore: &cfg.CoreDB,
		model.TargetOps:  &cfg.OpsDB,
	} {
		pool, err := dbCfg.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Str("target", string(target)).Msg("Failed to connect database")
		}
		pools[target] = pool
	}
	return pools
}
