// Package config loads EditorConfig from the environment: named
// requirements, a validator function per field, and defaults for unset
// variables. An invalid value is fatal in production or staging and a
// logged warning, falling back to the default, elsewhere.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"inkwell/internal/ot"
)

// Environment constants resolved through the GO_ENV/APEX_ENV/ENVIRONMENT/ENV
// fallback chain.
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultFlushInterval = 300 * time.Millisecond
	DefaultMaxBatchSize  = 50
	DefaultTieBreak      = ot.Left
	DefaultClockSource   = "system"
)

// ClockSystem is the only production clock source this module ships;
// ClockManual exists so tests and replay tooling can request a
// caller-driven clock by name instead of time.Now.
const (
	ClockSystem = "system"
	ClockManual = "manual"
)

// EditorConfig holds the validated, environment-sourced settings a
// document session's batched transport and OT engine are constructed
// with.
type EditorConfig struct {
	FlushInterval time.Duration
	MaxBatchSize  int
	TieBreak      ot.TieBreak
	ClockSource   string

	Environment  string
	IsProduction bool
}

// fieldRequirement names an environment variable and the validator that
// parses and range-checks its value.
type fieldRequirement struct {
	Name      string
	EnvVar    string
	Validator func(string) error
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Invalid  []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Invalid, ", "))
}

func (e *ValidationError) HasErrors() bool { return len(e.Invalid) > 0 }

// fieldRequirements returns the validators run against each
// EditorConfig-backing environment variable.
func fieldRequirements() []fieldRequirement {
	return []fieldRequirement{
		{Name: "Flush Interval", EnvVar: "EDITOR_FLUSH_INTERVAL", Validator: validateDuration},
		{Name: "Max Batch Size", EnvVar: "EDITOR_MAX_BATCH_SIZE", Validator: validateBatchSize},
		{Name: "Tie Break", EnvVar: "EDITOR_TIE_BREAK", Validator: validateTieBreak},
		{Name: "Clock Source", EnvVar: "EDITOR_CLOCK_SOURCE", Validator: validateClockSource},
	}
}

// Load reads .env (if present), validates every EDITOR_* variable against
// fieldRequirements, and returns an EditorConfig. Unset variables fall
// back to the package defaults; a value that is set but fails validation
// is a hard error in production/staging and a logged warning elsewhere.
func Load() (*EditorConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded (%v), using process environment", err)
	}

	env := GetEnvironment()
	isProduction := IsProductionEnvironment()

	validationErr := &ValidationError{}
	invalid := make(map[string]bool)
	for _, req := range fieldRequirements() {
		value := os.Getenv(req.EnvVar)
		if value == "" {
			continue
		}
		if err := req.Validator(value); err != nil {
			msg := fmt.Sprintf("%s: %s", req.EnvVar, err.Error())
			if isProduction || IsStagingEnvironment() {
				validationErr.Invalid = append(validationErr.Invalid, msg)
			} else {
				validationErr.Warnings = append(validationErr.Warnings, msg)
				invalid[req.EnvVar] = true
			}
		}
	}

	for _, warning := range validationErr.Warnings {
		log.Printf("config: WARNING: %s (using default)", warning)
	}
	if validationErr.HasErrors() {
		return nil, validationErr
	}

	cfg := &EditorConfig{
		FlushInterval: durationOrDefault("EDITOR_FLUSH_INTERVAL", DefaultFlushInterval),
		MaxBatchSize:  intOrDefault("EDITOR_MAX_BATCH_SIZE", DefaultMaxBatchSize),
		TieBreak:      tieBreakOrDefault("EDITOR_TIE_BREAK", DefaultTieBreak),
		ClockSource:   stringOrDefault("EDITOR_CLOCK_SOURCE", DefaultClockSource),
		Environment:   env,
		IsProduction:  isProduction,
	}
	if invalid["EDITOR_FLUSH_INTERVAL"] {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if invalid["EDITOR_MAX_BATCH_SIZE"] {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if invalid["EDITOR_CLOCK_SOURCE"] {
		cfg.ClockSource = DefaultClockSource
	}
	return cfg, nil
}

// MustLoad calls Load and fatally logs if it fails, for use at process
// startup where a misconfigured editor session must not run.
func MustLoad() *EditorConfig {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: FATAL: %v", err)
	}
	return cfg
}

func durationOrDefault(envVar string, def time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

func intOrDefault(envVar string, def int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

func tieBreakOrDefault(envVar string, def ot.TieBreak) ot.TieBreak {
	value := os.Getenv(envVar)
	switch strings.ToLower(value) {
	case "left":
		return ot.Left
	case "right":
		return ot.Right
	default:
		return def
	}
}

func stringOrDefault(envVar, def string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return def
	}
	return value
}

func validateDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("not a valid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	if d > 10*time.Second {
		return fmt.Errorf("unreasonably large flush interval %s (did you mean milliseconds?)", d)
	}
	return nil
}

func validateBatchSize(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not an integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	if n > 10000 {
		return fmt.Errorf("unreasonably large batch size %d", n)
	}
	return nil
}

func validateTieBreak(value string) error {
	switch strings.ToLower(value) {
	case "left", "right":
		return nil
	default:
		return fmt.Errorf("must be %q or %q, got %q", ot.Left, ot.Right, value)
	}
}

func validateClockSource(value string) error {
	switch value {
	case ClockSystem, ClockManual:
		return nil
	default:
		return fmt.Errorf("must be %q or %q, got %q", ClockSystem, ClockManual, value)
	}
}

// GetEnvironment returns the current environment, checking GO_ENV,
// APEX_ENV, ENVIRONMENT, then ENV before defaulting to development.
func GetEnvironment() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = os.Getenv("APEX_ENV")
	}
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}
	return strings.ToLower(env)
}

// IsProductionEnvironment reports whether GetEnvironment resolves to
// production.
func IsProductionEnvironment() bool {
	env := GetEnvironment()
	return env == EnvProduction || env == "prod"
}

// IsStagingEnvironment reports whether GetEnvironment resolves to
// staging.
func IsStagingEnvironment() bool {
	env := GetEnvironment()
	return env == EnvStaging || env == "stage"
}
