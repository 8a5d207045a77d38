package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/haukened/callscreen/internal/screen/common/clock"
	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/config"
	"github.com/haukened/callscreen/internal/screen/gateways/notify"
	"github.com/haukened/callscreen/internal/screen/repos/blocked"
	"github.com/haukened/callscreen/internal/screen/repos/blocked/bloom"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
	"github.com/haukened/callscreen/internal/screen/repos/kv/bolt"
	"github.com/haukened/callscreen/internal/screen/repos/prefs"
	"github.com/haukened/callscreen/internal/screen/repos/rules"
	"github.com/haukened/callscreen/internal/screen/services/engine"
	"github.com/haukened/callscreen/internal/screen/services/screening"
)

// Application holds all the components of the screening host.
type Application struct {
	config      *config.AppConfig
	store       kv.Store
	rules       *rules.Store
	blocked     *blocked.Store
	prefs       *prefs.Store
	engine      *engine.Engine
	coordinator *screening.Coordinator
}

// repositories holds all repository implementations
type repositories struct {
	store   kv.Store
	rules   *rules.Store
	blocked *blocked.Store
	prefs   *prefs.Store
}

// openStore is replaced in tests.
var openStore = func(path string, opts bolt.Options) (kv.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return bolt.Open(path, opts)
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	eng, err := engine.New(engine.Options{
		Lookup:           repos.blocked.ContainsNumber,
		PatternCacheSize: cfg.Engine.PatternCache,
		Logger:           logger,
	})
	if err != nil {
		_ = repos.store.Close()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	notifier := notify.New(notify.Options{
		Sequence: repos.store,
		Clock:    clock.RealClock{},
		Sink:     notify.NewLogSink(logger),
		Logger:   logger,
	})

	coordinator := screening.New(screening.Options{
		Rules:       repos.rules,
		Engine:      eng,
		Preferences: repos.prefs,
		Notifier:    notifier,
		Logger:      logger,
	})

	return &Application{
		config:      cfg,
		store:       repos.store,
		rules:       repos.rules,
		blocked:     repos.blocked,
		prefs:       repos.prefs,
		engine:      eng,
		coordinator: coordinator,
	}, nil
}

// buildRepositories opens the key space and layers the stores over it
func buildRepositories(cfg *config.AppConfig, logger log.Logger) (*repositories, error) {
	store, err := openStore(cfg.Store.Path, bolt.Options{Timeout: cfg.Store.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	log.Info(map[string]any{
		"path":    cfg.Store.Path,
		"timeout": cfg.Store.Timeout.String(),
	}, "Store opened")

	return &repositories{
		store: store,
		rules: rules.New(store, logger),
		blocked: blocked.New(blocked.Options{
			KV:     store,
			Logger: logger,
			Bloom:  bloom.NewFactory(),
			FPRate: cfg.Blocklist.FPRate,
		}),
		prefs: prefs.New(store, logger),
	}, nil
}

// Close releases the store file lock.
func (a *Application) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}
