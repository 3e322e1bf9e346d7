package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultPersona = "You are a friendly, patient English tutor. Hold a natural " +
	"spoken conversation with the learner, gently correct their mistakes and " +
	"keep your answers short so they get plenty of speaking time."

type Config struct {
	// Gemini
	GenAIAPIKey   string
	LiveModel     string
	FeedbackModel string

	// Session
	Voice               string
	SystemInstruction   string
	InputTranscription  bool
	OutputTranscription bool

	// Capture
	CaptureVAD bool
	InputWAV   string

	// Storage
	DataDir         string
	FeedbackEnabled bool

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		GenAIAPIKey:   os.Getenv("GENAI_API_KEY"),
		LiveModel:     getEnvOrDefault("LIVE_MODEL", "models/gemini-2.0-flash-live-001"),
		FeedbackModel: getEnvOrDefault("FEEDBACK_MODEL", "gemini-2.5-flash"),

		Voice:               getEnvOrDefault("VOICE", "Aoede"),
		SystemInstruction:   getEnvOrDefault("SYSTEM_INSTRUCTION", defaultPersona),
		InputTranscription:  getBoolEnvOrDefault("INPUT_TRANSCRIPTION", true),
		OutputTranscription: getBoolEnvOrDefault("OUTPUT_TRANSCRIPTION", true),

		CaptureVAD: getBoolEnvOrDefault("CAPTURE_VAD", false),
		InputWAV:   os.Getenv("INPUT_WAV"),

		DataDir:         getEnvOrDefault("DATA_DIR", "./data"),
		FeedbackEnabled: getBoolEnvOrDefault("FEEDBACK_ENABLED", true),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.GenAIAPIKey == "" {
		return fmt.Errorf("GENAI_API_KEY is required")
	}

	if c.InputWAV == "" {
		return fmt.Errorf("INPUT_WAV is required (16kHz mono WAV streamed as microphone input)")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
