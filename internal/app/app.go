package app

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"arxiv_digest/config"
	"arxiv_digest/digest"
	"arxiv_digest/internal/events"
	"arxiv_digest/internal/httpapi"
	"arxiv_digest/internal/jobs"
	"arxiv_digest/internal/store"
	"arxiv_digest/internal/watch"
	"arxiv_digest/render"
)

// App wires the digest service, job runner, watcher and HTTP API together.
type App struct {
	cfg     config.Config
	store   *store.Store
	service *digest.Service
	runner  *jobs.Runner
	watcher *watch.Watcher
	mux     *http.ServeMux
}

func New(cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewHTMLRenderer(cfg.TemplatePath)
	if err != nil {
		st.Close()
		return nil, err
	}
	svc := digest.NewService(cfg, st, renderer)
	bus := events.NewBus()
	svc.SetEventBus(bus)
	runner := jobs.NewRunner(buildRegistry(cfg, svc), cfg.QueueSize)
	watcher := watch.New(cfg, runner)
	mux := http.NewServeMux()
	httpapi.NewRouter(cfg, st, runner, bus).Register(mux)
	return &App{cfg: cfg, store: st, service: svc, runner: runner, watcher: watcher, mux: mux}, nil
}

func buildRegistry(cfg config.Config, svc *digest.Service) jobs.Registry {
	return jobs.Registry{
		jobs.OpGenerate: func(ctx context.Context, params map[string]any) error {
			opts := digest.RunOptions{
				Days:    paramsInt(params, "days", 0),
				Cleanup: paramsBool(params, "cleanup", true),
			}
			_, err := svc.Run(ctx, opts)
			return err
		},
		jobs.OpCleanup: func(ctx context.Context, params map[string]any) error {
			_, err := svc.Cleanup(ctx)
			return err
		},
		jobs.OpBackfill: func(ctx context.Context, params map[string]any) error {
			_, err := svc.Backfill(ctx, paramsInt(params, "limit", cfg.BackfillLimit))
			return err
		},
	}
}

// Run starts the worker, watcher and HTTP server, and blocks until the
// context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.runner.Start(ctx)
	defer a.runner.Stop()
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}
	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Infof("http listening on %s", a.cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Close() error { return a.store.Close() }

func (a *App) Service() *digest.Service { return a.service }
func (a *App) Runner() *jobs.Runner     { return a.runner }
func (a *App) Mux() *http.ServeMux      { return a.mux }

func paramsInt(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func paramsBool(params map[string]any, key string, fallback bool) bool {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}
