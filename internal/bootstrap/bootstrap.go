package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	cataloginadapter "mathbot/internal/modules/catalog/adapter/in"
	catalogoutadapter "mathbot/internal/modules/catalog/adapter/out"
	catalogin "mathbot/internal/modules/catalog/port/in"
	catalogservice "mathbot/internal/modules/catalog/service"
	catalogusecase "mathbot/internal/modules/catalog/usecase"
	progressinadapter "mathbot/internal/modules/progress/adapter/in"
	progressoutadapter "mathbot/internal/modules/progress/adapter/out"
	progressin "mathbot/internal/modules/progress/port/in"
	progressout "mathbot/internal/modules/progress/port/out"
	progressservice "mathbot/internal/modules/progress/service"
	progressusecase "mathbot/internal/modules/progress/usecase"
	"mathbot/internal/platform/clock"
	"mathbot/internal/platform/config"
	"mathbot/internal/platform/httpapi"
	"mathbot/internal/platform/kv"
	"mathbot/internal/platform/logging"
	uiapp "mathbot/internal/ui/app"
)

type App struct {
	Config config.Config
	Logger hclog.Logger

	Catalog  catalogin.Usecase
	Progress progressin.Usecase

	CatalogCLI  cataloginadapter.CLIHandler
	ProgressCLI progressinadapter.CLIHandler

	closers []io.Closer
}

func New(cfg config.Config) (*App, error) {
	logger := logging.New(logging.Options{Name: "mathbot", Level: cfg.LogLevel, JSON: cfg.LogJSON})
	return NewWithLogger(cfg, logger)
}

// NewWithLogger wires both modules against the storage backend cfg selects.
func NewWithLogger(cfg config.Config, logger hclog.Logger) (*App, error) {
	logger = logging.OrNull(logger)
	clk := clock.SystemClock{}
	app := &App{Config: cfg, Logger: logger}

	store, err := app.newStore(cfg)
	if err != nil {
		return nil, err
	}

	projector, err := catalogoutadapter.NewSQLiteLessonProjector(cfg.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new lesson projector: %w", err)
	}
	app.closers = append(app.closers, projector)

	catalogSvc := catalogservice.NewCatalogService(
		catalogoutadapter.NewHTTPFetcher(cfg.APIBase, cfg.CatalogTimeout, &http.Client{}),
		catalogoutadapter.NewKVRawCache(store),
		projector,
		logger.Named("catalog"),
	)
	app.Catalog = catalogusecase.NewInteractor(catalogSvc)

	var journal progressout.SessionJournal
	if cfg.JournalEnabled {
		journal = progressoutadapter.NewVaultSessionJournal(cfg.DataDir, clk.Now().Location())
	}
	progressSvc := progressservice.NewProgressService(
		context.Background(),
		progressoutadapter.NewKVStateStore(store),
		progressoutadapter.NewCatalogLessonSource(app.Catalog),
		journal,
		clk,
		logger.Named("progress"),
	)
	app.Progress = progressusecase.NewInteractor(progressSvc, progressoutadapter.NewMarkdownReportWriter(cfg.DataDir, clk))

	app.CatalogCLI = cataloginadapter.NewCLIHandler(app.Catalog)
	app.ProgressCLI = progressinadapter.NewCLIHandler(app.Progress)
	return app, nil
}

func (a *App) newStore(cfg config.Config) (kv.Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		store, err := kv.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("new sqlite store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return kv.NewFileStore(cfg.KVDir), nil
	}
}

// Warm loads the catalog so progress aggregates see every lesson. A failed
// load is logged and the app keeps working on what it has.
func (a *App) Warm(ctx context.Context) {
	if _, err := a.Catalog.Ready(ctx); err != nil {
		a.Logger.Warn("lesson catalog unavailable", "error", err)
	}
}

// Handler serves the browser bridge: catalog under /api/catalog and
// progress under /api/progress.
func (a *App) Handler() http.Handler {
	router := httpapi.NewRouter(a.Logger.Named("http"), a.Config.AllowedOrigins)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Mount("/api/catalog", cataloginadapter.NewHTTPHandler(a.Catalog, a.Logger.Named("catalog")).Routes())
	router.Mount("/api/progress", progressinadapter.NewHTTPHandler(a.Progress, a.Logger.Named("progress")).Routes())
	return router
}

// Serve runs the HTTP bridge until ctx ends. When syncEvery is positive the
// catalog is refreshed on that interval in the background.
func (a *App) Serve(ctx context.Context, syncEvery time.Duration) error {
	go a.Warm(ctx)
	if syncEvery > 0 {
		scheduler := cataloginadapter.NewSyncScheduler(a.Catalog, syncEvery, a.Logger.Named("sync"))
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}
	a.Logger.Info("serving", "addr", a.Config.HTTPAddr)
	return httpapi.Serve(ctx, a.Config.HTTPAddr, a.Handler(), a.Logger.Named("http"))
}

// Sync refreshes the catalog every interval until ctx ends.
func (a *App) Sync(ctx context.Context, every time.Duration, onResult func(error)) error {
	scheduler := cataloginadapter.NewSyncScheduler(a.Catalog, every, a.Logger.Named("sync"))
	scheduler.OnResult(onResult)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.CatalogCLI, app.ProgressCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
