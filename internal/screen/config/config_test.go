package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected Log.Level=info, got %q", cfg.Log.Level)
	}
	if cfg.Store.Path != "/var/lib/callscreen/callscreen.db" {
		t.Errorf("expected Store.Path=/var/lib/callscreen/callscreen.db, got %q", cfg.Store.Path)
	}
	if cfg.Store.Timeout != time.Second {
		t.Errorf("expected Store.Timeout=1s, got %v", cfg.Store.Timeout)
	}
	if cfg.Engine.PatternCache != 64 {
		t.Errorf("expected Engine.PatternCache=64, got %d", cfg.Engine.PatternCache)
	}
	if cfg.Blocklist.FPRate != 0.01 {
		t.Errorf("expected Blocklist.FPRate=0.01, got %v", cfg.Blocklist.FPRate)
	}
	if cfg.Platform.Vendor != "" || cfg.Platform.SDK != 0 {
		t.Errorf("expected empty Platform by default, got %+v", cfg.Platform)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("CALLSCREEN_ENV", "dev")
	t.Setenv("CALLSCREEN_LOG_LEVEL", "debug")
	t.Setenv("CALLSCREEN_STORE_PATH", "/tmp/cs.db")
	t.Setenv("CALLSCREEN_STORE_TIMEOUT", "250ms")
	t.Setenv("CALLSCREEN_ENGINE_PATTERN_CACHE", "0")
	t.Setenv("CALLSCREEN_BLOCKLIST_FP_RATE", "0.001")
	t.Setenv("CALLSCREEN_PLATFORM_VENDOR", "samsung")
	t.Setenv("CALLSCREEN_PLATFORM_SDK", " 33 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected Log.Level=debug, got %q", cfg.Log.Level)
	}
	if cfg.Store.Path != "/tmp/cs.db" {
		t.Errorf("expected Store.Path=/tmp/cs.db, got %q", cfg.Store.Path)
	}
	if cfg.Store.Timeout != 250*time.Millisecond {
		t.Errorf("expected Store.Timeout=250ms, got %v", cfg.Store.Timeout)
	}
	if cfg.Engine.PatternCache != 0 {
		t.Errorf("expected Engine.PatternCache=0, got %d", cfg.Engine.PatternCache)
	}
	if cfg.Blocklist.FPRate != 0.001 {
		t.Errorf("expected Blocklist.FPRate=0.001, got %v", cfg.Blocklist.FPRate)
	}
	if cfg.Platform.Vendor != "samsung" || cfg.Platform.SDK != 33 {
		t.Errorf("expected Platform samsung/33, got %+v", cfg.Platform)
	}
}

func TestLoad_UnknownVariablesIgnored(t *testing.T) {
	t.Setenv("CALLSCREEN_RESOLVER_PORT", "53")
	t.Setenv("CALLSCREEN_STORE", "oops")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Store.Path != DEFAULT_APP_CONFIG.Store.Path {
		t.Errorf("expected default Store.Path, got %q", cfg.Store.Path)
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CALLSCREEN_ENV":                  "staging",
		"CALLSCREEN_LOG_LEVEL":            "trace",
		"CALLSCREEN_STORE_PATH":           "",
		"CALLSCREEN_STORE_TIMEOUT":        "0s",
		"CALLSCREEN_ENGINE_PATTERN_CACHE": "-1",
		"CALLSCREEN_BLOCKLIST_FP_RATE":    "1.5",
		"CALLSCREEN_PLATFORM_SDK":         "not_a_number",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q, got nil", key, value)
			}
		})
	}
}

func TestValidFPRate(t *testing.T) {
	cases := []struct {
		input    float64
		expected bool
	}{
		{0.01, true},
		{0.5, true},
		{0.999, true},
		{0, false},
		{1, false},
		{-0.1, false},
	}

	validate := validator.New()
	_ = validate.RegisterValidation("fprate", validFPRate)

	type S struct {
		P float64 `validate:"fprate"`
	}
	for _, tc := range cases {
		err := validate.Struct(S{P: tc.input})
		if tc.expected && err != nil {
			t.Errorf("validFPRate(%v) = false, want true", tc.input)
		}
		if !tc.expected && err == nil {
			t.Errorf("validFPRate(%v) = true, want false", tc.input)
		}
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("CALLSCREEN_BLOCKLIST_FP_RATE"); got != "blocklist.fp_rate" {
		t.Errorf("expected blocklist.fp_rate, got %q", got)
	}
	if got := envKey("CALLSCREEN_NOPE"); got != "" {
		t.Errorf("expected unknown variable to map to empty key, got %q", got)
	}
}

func TestDefaultLoader_InvalidDefault_ValidationFails(t *testing.T) {
	orig := DEFAULT_APP_CONFIG
	defer func() { DEFAULT_APP_CONFIG = orig }()

	DEFAULT_APP_CONFIG = orig
	DEFAULT_APP_CONFIG.Blocklist.FPRate = 0

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for zero fp rate default, got nil")
	}
}
