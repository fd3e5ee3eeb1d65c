package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Connectify/internal/adapters/ai"
	"github.com/dkeye/Connectify/internal/adapters/events"
	router "github.com/dkeye/Connectify/internal/adapters/http"
	"github.com/dkeye/Connectify/internal/adapters/signal"
	"github.com/dkeye/Connectify/internal/adapters/store"
	"github.com/dkeye/Connectify/internal/app"
	"github.com/dkeye/Connectify/internal/app/assistant"
	"github.com/dkeye/Connectify/internal/app/orch"
	"github.com/dkeye/Connectify/internal/config"
	"github.com/dkeye/Connectify/internal/core"
	"github.com/dkeye/Connectify/internal/telemetry"
)

var (
	configFile string
	portFlag   int
)

var rootCmd = &cobra.Command{
	Use:          "connectify",
	Short:        "Connectify signaling and room coordination server",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = portFlag
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default: config/config.$CONFIG_ENV.yaml)")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "listen port, overrides the config")
}

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// zerolog is set up before config.Load so config loading can log.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg)

	shutdownTracing, err := telemetry.Setup(ctx, "connectify", cfg.OTLPEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("tracing setup failed, continuing without it")
		shutdownTracing = func(context.Context) error { return nil }
	}

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	log.Info().Str("mode", events.Mode(publisher)).Str("reason", events.NoopReason(publisher)).Msg("event publisher ready")

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewDirectory(),
		Policy:   app.SimplePolicy{},
		Events:   publisher,
	}

	var meetings router.MeetingStore
	db, err := store.Open(cfg.DatabasePath, cfg.Mode == "debug")
	if err != nil {
		log.Error().Err(err).Msg("meeting store unavailable")
	} else if repo, err := store.NewMeetingRepository(db); err != nil {
		log.Error().Err(err).Msg("meeting store unavailable")
	} else {
		meetings = repo
		o.Meetings = repo
	}

	gen := &assistant.Invoker{
		Primary:         generator(cfg.AI, cfg.AI.PrimaryModel),
		Fallback:        generator(cfg.AI, cfg.AI.FallbackModel),
		PrimaryAttempts: cfg.AI.PrimaryAttempts,
		BackoffBase:     cfg.AI.BackoffBase,
	}
	if cfg.AI.APIKey == "" {
		log.Warn().Msg("ai.api_key is empty, the meeting assistant will answer with a configuration hint")
	}
	asst := assistant.New(o.Rooms, o, gen, assistant.Config{
		WakePhrases:   cfg.Assistant.WakePhrases,
		ContextChars:  cfg.Assistant.ContextChars,
		QueueSize:     cfg.Assistant.QueueSize,
		TriggerLimit:  cfg.Assistant.TriggerLimit,
		TriggerWindow: cfg.Assistant.TriggerWindow,
	})
	o.Assistant = asst

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})
	r := router.SetupRouter(ctx, cfg, o, ctrl, meetings)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Connectify server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// websockets share ctx, so they are already closing; their disconnects
	// must finish before room teardown is awaited and the store is closed
	if err := ctrl.Wait(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("websocket connections did not drain")
	}
	// cancel any in-flight generator calls, then wait for late room teardown
	asst.Close()
	o.Wait()

	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("close publisher")
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func generator(cfg config.AIConfig, model string) core.Generator {
	if cfg.APIKey == "" || model == "" {
		return nil
	}
	return ai.NewGeminiClient(cfg.BaseURL, cfg.APIKey, model, cfg.Timeout)
}
