package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"deardiary/internal/analysis"
	"deardiary/internal/config"
	"deardiary/internal/embedding"
	"deardiary/internal/journal"
	"deardiary/internal/llm"
	"deardiary/internal/logging"
	"deardiary/internal/notify"
	"deardiary/internal/observability"
	"deardiary/internal/prefs"
	"deardiary/internal/prompts"
	"deardiary/internal/retry"
	"deardiary/internal/server"
	"deardiary/internal/tts"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deardiary-server",
		Short: "Journaling analysis service",
		Long:  "Dear Diary backend: accepts journal entries and returns AI-generated empathetic analyses with manipulation-tactic detection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(viper.GetString("config"))
		},
	}

	rootCmd.Flags().String("config", "deardiary.yaml", "path to the YAML config file")
	_ = viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	viper.SetEnvPrefix("DEARDIARY")
	viper.AutomaticEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := logging.NewComponentLogger("main")

	metrics, err := observability.NewMetricsCollector(observability.MetricsConfig{
		Enabled:        cfg.Metrics.Enabled,
		PrometheusPort: cfg.Metrics.PrometheusPort,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.NewGeminiEmbedder(embedding.Config{
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	entryStore, prefsStore, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}

	index, err := journal.NewVectorIndex(journal.VectorIndexConfig{
		PersistPath: cfg.Vector.PersistPath,
		Collection:  cfg.Vector.Collection,
	}, embedder.Embed)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}

	store := journal.NewIndexedStore(entryStore, index, logging.NewComponentLogger("store"))

	retriever := journal.NewRetriever(journal.RetrieverConfig{
		Limit:         cfg.Analysis.ContextLimit,
		CandidatePool: cfg.Analysis.CandidatePool,
	}, store, store, metrics)

	personas := prefs.NewResolver(prefsStore, metrics)

	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}
	client = llm.NewRetryClient(client, retry.DefaultConfig())

	loader, err := prompts.NewLoader()
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	builder := prompts.NewBuilder(loader, cfg.Analysis.ContextTokenBudget)

	notifier := notify.Nop()
	if cfg.Notify.Enabled {
		notifier, err = notify.NewTwilioNotifier(notify.TwilioConfig{
			AccountSID: cfg.Notify.AccountSID,
			AuthToken:  cfg.Notify.AuthToken,
			FromNumber: cfg.Notify.FromNumber,
			BaseURL:    cfg.Notify.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("init twilio: %w", err)
		}
	}

	var synthesizer tts.Synthesizer
	if cfg.TTS.Enabled {
		synthesizer, err = tts.NewElevenLabsClient(tts.Config{
			APIKey:  cfg.TTS.APIKey,
			BaseURL: cfg.TTS.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("init tts: %w", err)
		}
	}

	orchestrator := analysis.NewOrchestrator(analysis.Config{
		ProviderName:    cfg.LLM.Provider,
		RequestTimeout:  cfg.Analysis.RequestTimeout,
		AlertConfidence: cfg.Analysis.AlertConfidence,
	}, embedder, retriever, personas, builder, client, store, notifier, metrics)

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		EnableCORS:   cfg.Server.EnableCORS,
		Debug:        cfg.Server.Debug,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Server.JWTSecret,
	}, server.Deps{
		Orchestrator: orchestrator,
		Store:        store,
		PrefsStore:   prefsStore,
		Personas:     personas,
		Synthesizer:  synthesizer,
		Voices:       tts.VoiceMap(cfg.TTS.Voices),
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(srv.Start)
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStores constructs the persistence backends named by the config.
func buildStores(ctx context.Context, cfg *config.Config) (journal.EntryStore, prefs.Store, error) {
	switch cfg.Database.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		entryStore := journal.NewPostgresStore(pool)
		prefsStore := prefs.NewPostgresStore(pool)
		if err := entryStore.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure entry schema: %w", err)
		}
		if err := prefsStore.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure preferences schema: %w", err)
		}
		return entryStore, prefsStore, nil
	default:
		return journal.NewInMemoryStore(), prefs.NewInMemoryStore(), nil
	}
}
