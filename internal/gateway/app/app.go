package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"annotator/internal/annotate/session"
	"annotator/internal/gateway/config"
	"annotator/internal/gateway/handler"
	"annotator/internal/gateway/notify"
	shotrepo "annotator/internal/gateway/repository/screenshot"
	"annotator/internal/gateway/repository/wizard"
	"annotator/internal/gateway/server"
)

type App struct {
	server   *server.Server
	sessions *session.Manager
	log      *zap.Logger

	stopBackground context.CancelFunc
	background     chan struct{}
	closeStores    func() error
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	stores, err := initStores(ctx, cfg, log.Named("stores"))
	if err != nil {
		cancel()
		return nil, err
	}
	source, demo, cachedCatalog, err := catalogSource(cfg, log)
	if err != nil {
		cancel()
		_ = stores.closeWizard()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	hub := notify.NewHub()
	sessions, err := session.NewManager(session.Deps{
		Images:   shotrepo.NewLoader(stores.screenshots, 0, cfg.ScreenshotURLHosts),
		Catalog:  source,
		Filter:   catalogFilter(cfg),
		Configs:  stores.wizard,
		Notifier: notify.Multi{notify.NewLogNotifier(log.Named("notices")), hub},
		Log:      log.Named("session"),
		IsNotFound: func(err error) bool {
			return errors.Is(err, wizard.ErrNotFound)
		},
	}, cfg.SessionMax)
	if err != nil {
		cancel()
		_ = stores.closeWizard()
		return nil, err
	}

	var health *handler.HealthHandler
	if cachedCatalog != nil {
		health = handler.NewHealthHandler(stores.screenshots, cachedCatalog, sessions.Len)
	} else {
		health = handler.NewHealthHandler(stores.screenshots, nil, sessions.Len)
	}
	mux := server.NewMux(server.Handlers{
		Sessions: handler.NewSessionHandler(sessions, log.Named("http")),
		Drafts:   handler.NewDraftHandler(stores.screenshots, stores.wizard, log.Named("http")),
		Notices:  handler.NewNoticeHandler(sessions, hub, log.Named("ws")),
		Health:   health,

		CORSOrigins: cfg.CORSOrigins,
	}, log.Named("http"))

	a := &App{
		server:         server.New(cfg.Port, mux, log),
		sessions:       sessions,
		log:            log,
		stopBackground: cancel,
		background:     make(chan struct{}),
		closeStores:    stores.closeWizard,
	}
	go func() {
		defer close(a.background)
		if demo == nil {
			<-ctx.Done()
			return
		}
		if err := demo.Watch(ctx); err != nil {
			log.Warn("catalog fixture watch stopped", zap.Error(err))
		}
	}()
	return a, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops the HTTP server, then releases sessions, background watchers
// and store handles.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.sessions.CloseAll()
	a.stopBackground()
	select {
	case <-a.background:
	case <-ctx.Done():
	}
	if cerr := a.closeStores(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
