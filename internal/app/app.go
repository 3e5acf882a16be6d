package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"draftstore/internal/retention"
	"draftstore/pkg/api"
	"draftstore/pkg/api/handlers"
	"draftstore/pkg/banner"
	"draftstore/pkg/config"
	"draftstore/pkg/diskwatch"
	"draftstore/pkg/media"
	"draftstore/pkg/migrate"
	"draftstore/pkg/models"
	"draftstore/pkg/session"
	"draftstore/pkg/state"
	"draftstore/pkg/store"
	"draftstore/pkg/transfer"
)

// App encapsulates the service components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	media    *media.Store
	transfer *transfer.Transfer
	disk     *diskwatch.Watcher

	srv             *http.Server
	retentionCancel context.CancelFunc
}

// New initializes resources that do not require a running context: the
// pebble store, the managed media root and the transfer component. Call
// Run to start the HTTP server and retention sweep and block until
// shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}
	if err := state.EnsureRuntimeDirs(eff.DBPath, eff.MediaRoot); err != nil {
		return nil, fmt.Errorf("runtime dirs invalid: %w", err)
	}

	m, err := media.NewStore(eff.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to init media root %s: %w", eff.MediaRoot, err)
	}
	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}
	store.Bind(m.Resolver(), m)

	if _, err := migrate.Run(context.Background(), version); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		media:     m,
		transfer:  transfer.New(m),
		disk:      diskwatch.New(eff.MediaRoot, 30*time.Second, 0),
	}
	return a, nil
}

// Media returns the managed file store.
func (a *App) Media() *media.Store { return a.media }

// NewSession opens a capture session bound to the managed store, seeded
// with the configured duration ceiling and autosave quiet window.
func (a *App) NewSession(mode string, upload *models.UploadConfig) (*session.Controller, error) {
	return session.New(a.media, session.Options{
		Mode:          mode,
		LimitSeconds:  a.eff.Config.Session.DefaultLimitSeconds,
		Upload:        upload,
		AutosaveQuiet: a.eff.Config.AutosaveQuiet(),
	})
}

// Run starts the retention sweep (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	cancel, err := retention.Start(ctx, a.eff, a.media)
	if err != nil {
		return err
	}
	a.retentionCancel = cancel

	a.disk.Start()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.retentionCancel != nil {
		a.retentionCancel()
	}
	if a.disk != nil {
		a.disk.Stop()
	}
	if a.srv != nil {
		_ = a.srv.Close()
	}
	_ = store.Close()
}

func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff.Addr, a.eff.DBPath, a.eff.MediaRoot, a.eff.Source, verStr)
}

func (a *App) apiOptions() api.Options {
	return api.Options{
		Deps:           handlers.Deps{Media: a.media, Transfer: a.transfer},
		RateLimitRPS:   a.eff.Config.Security.RateLimit.RPS,
		RateLimitBurst: a.eff.Config.Security.RateLimit.Burst,
	}
}
