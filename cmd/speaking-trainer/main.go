package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/audio"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/config"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/devices"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/feedback/gemini"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/genlive"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/session"
	"github.com/chndnsingh1403/ai-speaking-trainer/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	log.Info().Msg("Starting AI Speaking Trainer")

	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create data store")
	}

	var vad audio.VAD
	if cfg.CaptureVAD {
		vad, err = audio.NewWebRTCVAD()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create capture VAD")
		}
		defer vad.Close()
	}

	dialer := &genlive.Dialer{APIKey: cfg.GenAIAPIKey}
	dial := func(ctx context.Context, liveCfg genlive.SessionConfig, h genlive.Handler) (session.Live, error) {
		return dialer.Dial(ctx, liveCfg, h)
	}

	provider := &devices.FileProvider{
		InputPath: cfg.InputWAV,
		OutputPath: filepath.Join(cfg.DataDir, "audio",
			time.Now().Format("20060102_150405")+".wav"),
		Realtime: true,
	}

	sess := session.New(provider, dial, session.Config{
		Live: genlive.SessionConfig{
			Model:               cfg.LiveModel,
			Voice:               cfg.Voice,
			SystemInstruction:   cfg.SystemInstruction,
			InputTranscription:  cfg.InputTranscription,
			OutputTranscription: cfg.OutputTranscription,
		},
		VAD: vad,
	})

	if err := sess.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Str("session_id", sess.ID).Msg("Failed to start session")
	}

	log.Info().Str("session_id", sess.ID).Msg("Session is running. Press Ctrl+C to end.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("Ending session...")

	// Graceful teardown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sess.Teardown()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("Error during teardown")
		}
	case <-ctx.Done():
		log.Warn().Msg("Teardown timeout exceeded, forcing exit")
	}

	finalize(cfg, fileStore, sess)
}

// finalize persists the transcript and, when enabled, the generated feedback.
func finalize(cfg *config.Config, fileStore *store.FileStore, sess *session.Session) {
	entries := sess.Transcript()
	if len(entries) == 0 {
		log.Info().Msg("No transcript recorded, nothing to save")
		return
	}

	if _, err := fileStore.SaveTranscript(sess.ID, entries); err != nil {
		log.Error().Err(err).Msg("Failed to save transcript")
	}

	if !cfg.FeedbackEnabled {
		return
	}

	coach, err := gemini.NewCoach(cfg.GenAIAPIKey, cfg.FeedbackModel)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create feedback coach")
		return
	}
	defer coach.Close()

	// Fresh context: the session context is long gone by now
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	review, err := coach.Review(ctx, entries)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate feedback")
		return
	}

	if path, err := fileStore.SaveFeedback(sess.ID, review); err != nil {
		log.Error().Err(err).Msg("Failed to save feedback")
	} else {
		log.Info().Str("file", path).Msg("Session feedback ready")
	}
}

func setupLogging(level string) {
	// Setup zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	// Set log level
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("level", level).Msg("Logging configured")
}
