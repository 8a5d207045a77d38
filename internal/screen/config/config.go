package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env       string          `koanf:"env" validate:"required,oneof=dev prod"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Engine    EngineConfig    `koanf:"engine"`
	Blocklist BlocklistConfig `koanf:"blocklist"`
	Platform  PlatformConfig  `koanf:"platform"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig locates the persisted key space.
type StoreConfig struct {
	// Path is the bbolt file holding rules, the block list and preferences.
	Path string `koanf:"path" validate:"required"`
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// EngineConfig tunes rule evaluation.
type EngineConfig struct {
	// PatternCache is the compiled regex cache size; 0 disables it.
	PatternCache int `koanf:"pattern_cache" validate:"gte=0"`
}

// BlocklistConfig tunes the block-list lookup filter.
type BlocklistConfig struct {
	// FPRate is the bloom filter false-positive target, strictly between 0 and 1.
	FPRate float64 `koanf:"fp_rate" validate:"fprate"`
}

// PlatformConfig supplies the host identity when the CLI flags do not.
type PlatformConfig struct {
	Vendor string `koanf:"vendor"`
	SDK    int    `koanf:"sdk" validate:"gte=0"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	Store: StoreConfig{
		Path:    "/var/lib/callscreen/callscreen.db",
		Timeout: time.Second,
	},
	Engine:    EngineConfig{PatternCache: 64},
	Blocklist: BlocklistConfig{FPRate: 0.01},
}

const envPrefix = "CALLSCREEN_"

// envKeys maps the lowercased variable name (prefix removed) onto its
// nested koanf path. Variables not listed are ignored.
var envKeys = map[string]string{
	"env":                  "env",
	"log_level":            "log.level",
	"store_path":           "store.path",
	"store_timeout":        "store.timeout",
	"engine_pattern_cache": "engine.pattern_cache",
	"blocklist_fp_rate":    "blocklist.fp_rate",
	"platform_vendor":      "platform.vendor",
	"platform_sdk":         "platform.sdk",
}

func envKey(raw string) string {
	return envKeys[strings.ToLower(strings.TrimPrefix(raw, envPrefix))]
}

// validFPRate accepts false-positive rates strictly between 0 and 1.
func validFPRate(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	return p > 0 && p < 1
}

// envLoader loads CALLSCREEN_* variables; it can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), strings.TrimSpace(value)
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("fprate", validFPRate)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
