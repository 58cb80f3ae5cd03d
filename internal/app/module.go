package app

import (
	"context"
	"time"

	"github.com/matheus3301/bcast/internal/api"
	"github.com/matheus3301/bcast/internal/api/ws"
	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/lock"
	"github.com/matheus3301/bcast/internal/logging"
	"github.com/matheus3301/bcast/internal/paths"
	"github.com/matheus3301/bcast/internal/store"
	"github.com/matheus3301/bcast/internal/templates"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved process configuration passed to the fx modules.
type Params struct {
	Home    string // data directory
	Binary  string // names the log file
	Console bool   // also log to stderr
	Listen  string // optional override for server.listen
	Serve   bool   // set by Daemon
}

// Core returns the fx module shared by every binary: config, logging,
// the instance lock, history store, directory client, stores and the
// broadcast controller.
func Core(p Params) fx.Option {
	return fx.Options(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Module("core",
			fx.Supply(p),
			fx.Provide(
				provideConfig,
				provideLogger,
				provideBus,
				provideLock,
				provideStore,
				provideDirectory,
				provideContacts,
				provideTemplates,
				provideController,
			),
			fx.Invoke(registerCoreLifecycle),
		),
	)
}

// Daemon adds the HTTP API and websocket hub on top of Core.
func Daemon(p Params) fx.Option {
	p.Serve = true
	return fx.Options(
		Core(p),
		fx.Module("daemon",
			fx.Provide(
				provideHub,
				provideHandler,
				provideServer,
			),
			fx.Invoke(registerDaemonLifecycle),
		),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if err := paths.EnsureDir(p.Home); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(paths.ConfigPath(p.Home))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if p.Listen != "" {
		cfg.Server.Listen = p.Listen
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(paths.LogPath(p.Home, p.Binary), p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	addr := ""
	if p.Serve {
		addr = cfg.Server.Listen
	}
	logger.Info("acquiring instance lock", zap.String("home", p.Home))
	l, err := lock.Acquire(p.Home, addr)
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

// provideStore depends on the lock so two instances never migrate the
// same database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := paths.DBPath(p.Home)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideDirectory(cfg *config.Config, logger *zap.Logger) *directory.Client {
	return directory.New(cfg.Directory, logger.Named("directory"))
}

func provideContacts(cfg *config.Config, dir *directory.Client, b *bus.Bus, logger *zap.Logger) *contacts.Store {
	return contacts.NewStore(dir, cfg.Contacts, b, logger.Named("contacts"))
}

// provideTemplates restores the saved link and selected template. A saved
// key that no longer exists, such as a custom template from an earlier
// run, is ignored.
func provideTemplates(cfg *config.Config, db *store.DB, b *bus.Bus, logger *zap.Logger) *templates.Store {
	ctx := context.Background()
	link := cfg.Templates.Link
	if saved, ok, err := db.GetSetting(ctx, settingTemplateLink); err != nil {
		logger.Warn("read saved template link", zap.Error(err))
	} else if ok {
		link = saved
	}
	ts := templates.NewStore(link, b, logger.Named("templates"))

	if key, ok, err := db.GetSetting(ctx, settingTemplateActive); err != nil {
		logger.Warn("read saved template selection", zap.Error(err))
	} else if ok && key != "" && !ts.Select(key) {
		logger.Info("saved template selection no longer exists", zap.String("key", key))
	}
	return ts
}

func provideController(cfg *config.Config, dir *directory.Client, cs *contacts.Store, ts *templates.Store, db *store.DB, b *bus.Bus, logger *zap.Logger) *broadcast.Controller {
	return broadcast.NewController(broadcast.Params{
		Sender:     dir,
		Recipients: cs,
		Templates:  ts,
		Recorder:   db,
		Config:     cfg.Broadcast,
		Bus:        b,
		Logger:     logger.Named("broadcast"),
	})
}

func provideHub(logger *zap.Logger) *ws.Hub {
	return ws.NewHub(logger.Named("ws"))
}

func provideHandler(cs *contacts.Store, ts *templates.Store, ctrl *broadcast.Controller, db *store.DB, logger *zap.Logger) *api.Handler {
	return api.NewHandler(cs, ts, ctrl, db, logger.Named("api"))
}

func provideServer(cfg *config.Config, h *api.Handler, hub *ws.Hub, logger *zap.Logger) (*api.Server, error) {
	return api.NewServer(cfg.Server.Listen, api.NewRouter(h, hub, logger.Named("http")), logger)
}

func registerCoreLifecycle(lc fx.Lifecycle, cs *contacts.Store, db *store.DB, b *bus.Bus, lk *lock.Lock, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	persister := newSettingsPersister(db, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go persister.Run(ctx, b)

			// First load runs in the background so a slow directory
			// does not block startup.
			go func() {
				loadCtx, loadCancel := context.WithTimeout(ctx, time.Minute)
				defer loadCancel()
				if err := cs.Load(loadCtx); err != nil {
					logger.Warn("initial contact load failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("core stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

func registerDaemonLifecycle(lc fx.Lifecycle, srv *api.Server, hub *ws.Hub, b *bus.Bus, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go hub.Run(ctx)
			go hub.Forward(ctx, b)

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			err := srv.Stop(stopCtx)
			cancel()
			logger.Info("daemon stopped")
			return err
		},
	})
}
