package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mantradev/mantra/internal/api"
	"github.com/mantradev/mantra/internal/artifact"
	"github.com/mantradev/mantra/internal/audiocache"
	"github.com/mantradev/mantra/internal/config"
	"github.com/mantradev/mantra/internal/logger"
	"github.com/mantradev/mantra/internal/maintenance"
	"github.com/mantradev/mantra/internal/resolver"
	"github.com/mantradev/mantra/internal/store"
	"github.com/mantradev/mantra/internal/telemetry"
	"github.com/mantradev/mantra/internal/textgen"
	"github.com/mantradev/mantra/internal/tts"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the cache sweeper",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	config.RequireProviders()
	cfg := config.AppConfig

	st, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	blobs, err := artifact.New(artifact.Config{
		Backend:        cfg.ArtifactBackend,
		AudioDir:       cfg.AudioDir,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}

	synth, err := tts.New(tts.Config{
		Provider:        cfg.TTSProvider,
		PiperAddr:       cfg.PiperAddr,
		PiperVoiceModel: cfg.PiperVoiceModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		Timeout:         time.Duration(cfg.TTSTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init speech synthesis: %w", err)
	}
	defer synth.Close()

	generator, err := textgen.New(textgen.Config{
		Provider:        cfg.TextgenProvider,
		Model:           cfg.TextgenModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		Timeout:         time.Duration(cfg.TextgenTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init text generation: %w", err)
	}
	defer generator.Close()

	cache := audiocache.New(st, blobs, synth)
	recorder := telemetry.NewRecorder(st, telemetry.NewRingMirror(cfg.TelemetryMirrorSize))
	res := resolver.New(st, cache, generator, recorder, resolver.Options{
		LinesPerSession:   cfg.LinesPerSession,
		GenerationTimeout: time.Duration(cfg.TextgenTimeout) * time.Second,
	})

	sweeper := maintenance.NewSweeper(st, blobs, cfg.CacheMaxBytes)
	if err := sweeper.Start(cfg.CacheSweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	router := api.NewRouter(api.NewAPIHandler(res, recorder, cache, st, blobs))

	addr := ":" + cfg.HTTPPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Generation and synthesis can take time
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	// Give active sessions time to finish synthesizing.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
