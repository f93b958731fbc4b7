package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"eartrainer/internal/models"
)

// Config holds application configuration.
type Config struct {
	// Storage
	DatabaseType   string // sqlite (default), postgres, mysql
	DatabasePath   string // sqlite file
	DatabaseURL    string // postgres/mysql connection URL
	MigrationsPath string

	// Scheduling
	SchedulerMode      string
	InitialClearance   int  // fresh questions before a mistake is re-asked
	ClearanceStep      int  // floor increase per failed re-ask
	WeaknessLimit      int  // candidate cap for weighted selection
	WeaknessMatchExact bool // narrow candidates to whole-settings equality

	// Question defaults
	KeyRoot      int
	ScaleName    string
	NoteCount    int
	BPM          int
	LowestPitch  int
	HighestPitch int

	// MIDI
	InputPreferred []string // device name fragments, most preferred first
	OutputPort     string   // empty picks the first output
	ReplayHotkey   int      // MIDI pitch; negative disables
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first when
// present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Loading .env failed: %v", err)
	}

	return &Config{
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./eartrainer.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		SchedulerMode:      getEnv("SCHEDULER_MODE", "spaced"),
		InitialClearance:   getEnvInt("INITIAL_CLEARANCE", 3),
		ClearanceStep:      getEnvInt("CLEARANCE_STEP", 3),
		WeaknessLimit:      getEnvInt("WEAKNESS_LIMIT", 20),
		WeaknessMatchExact: getEnvBool("WEAKNESS_MATCH_EXACT", false),

		KeyRoot:      getEnvInt("KEY_ROOT", 0), // C
		ScaleName:    getEnv("SCALE", "major"),
		NoteCount:    getEnvInt("NOTE_COUNT", 4),
		BPM:          getEnvInt("BPM", 90),
		LowestPitch:  getEnvInt("LOW_PITCH", 48),  // C3
		HighestPitch: getEnvInt("HIGH_PITCH", 72), // C5

		InputPreferred: getEnvList("MIDI_INPUT_PREFERRED", nil),
		OutputPort:     getEnv("MIDI_OUTPUT", ""),
		ReplayHotkey:   getEnvInt("REPLAY_HOTKEY", -1),
	}
}

// Settings builds the question settings snapshot from the configured
// defaults.
func (c *Config) Settings() models.Settings {
	return models.Settings{
		KeyRoot:      c.KeyRoot,
		ScaleName:    c.ScaleName,
		NoteCount:    c.NoteCount,
		BPM:          c.BPM,
		LowestPitch:  uint8(c.LowestPitch),
		HighestPitch: uint8(c.HighestPitch),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable; malformed values fall
// back to the default with a log line.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, value, err)
		return defaultValue
	}
	return n
}

// getEnvBool reads a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, value, err)
		return defaultValue
	}
	return b
}

// getEnvList reads a comma-separated environment variable.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
