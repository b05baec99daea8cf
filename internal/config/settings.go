// Package config loads process settings from a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvConfigSource = "ADPARAMS_CONFIG_SOURCE"
	EnvLogLevel     = "ADPARAMS_LOG_LEVEL"
	EnvLogDir       = "ADPARAMS_LOG_DIR"
	EnvConsoleOnly  = "ADPARAMS_CONSOLE_ONLY"
	EnvHTTPAddr     = "ADPARAMS_HTTP_ADDR"
	EnvWorkers      = "ADPARAMS_WORKERS"
	EnvMode         = "ADPARAMS_MODE"
)

// Settings are the process-wide settings. CLI flags override them.
type Settings struct {
	// ConfigSource is the override file or SQLite store used in config mode
	ConfigSource string
	LogLevel     string
	LogDir       string
	ConsoleOnly  bool
	HTTPAddr     string
	// Workers bounds sweep parallelism, 0 meaning one per CPU
	Workers int
	// Mode is the feature mode the deployment expects the binary to be built for
	Mode string
}

// Defaults returns the settings used when nothing is configured
func Defaults() Settings {
	return Settings{
		LogLevel: "info",
		LogDir:   "logs",
		HTTPAddr: ":8080",
	}
}

// Load reads envFile if it exists, then the environment. A missing file is not an error.
func Load(envFile string) (Settings, bool, error) {
	loaded := false
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Settings{}, false, fmt.Errorf("could not load environment file %s: %w", envFile, err)
			}
			loaded = true
		}
	}
	s, err := FromEnv()
	return s, loaded, err
}

// FromEnv reads settings from the environment on top of Defaults
func FromEnv() (Settings, error) {
	s := Defaults()
	s.ConfigSource = getEnvWithDefault(EnvConfigSource, s.ConfigSource)
	s.LogLevel = getEnvWithDefault(EnvLogLevel, s.LogLevel)
	s.LogDir = getEnvWithDefault(EnvLogDir, s.LogDir)
	s.HTTPAddr = getEnvWithDefault(EnvHTTPAddr, s.HTTPAddr)
	s.Mode = getEnvWithDefault(EnvMode, s.Mode)

	var errs []string
	if v := os.Getenv(EnvConsoleOnly); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not a boolean", EnvConsoleOnly, v))
		}
		s.ConsoleOnly = b
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("%s: %q is not a non-negative integer", EnvWorkers, v))
		}
		s.Workers = n
	}
	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("invalid environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return s, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
