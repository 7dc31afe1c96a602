package daemon

import (
	"context"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/config"
	"github.com/matheus3301/botpanel/internal/lock"
	"github.com/matheus3301/botpanel/internal/logging"
	"github.com/matheus3301/botpanel/internal/persist"
	"github.com/matheus3301/botpanel/internal/schedule"
	"github.com/matheus3301/botpanel/internal/session"
	"github.com/matheus3301/botpanel/internal/shell"
	"github.com/matheus3301/botpanel/internal/status"
	"github.com/matheus3301/botpanel/internal/store"
	"github.com/matheus3301/botpanel/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	Config      *config.Config
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideWriter,
			provideAdapter,
			provideSnapshot,
			provideManager,
			provideBridge,
			provideBridgeService,
			NewServer,
			provideShell,
			provideScheduler,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) *config.Config {
	if p.Config != nil {
		return p.Config
	}
	return config.Default()
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.Log.Level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName), p.SessionName)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore depends on the lock so a second daemon never opens the database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.BotDBPath(p.SessionName)
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
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

func provideWriter(db *store.DB, logger *zap.Logger) *persist.Writer {
	return persist.NewWriter(db, logger)
}

func provideAdapter(p Params, _ *lock.Lock, cfg *config.Config, logger *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), session.SessionDBPath(p.SessionName), cfg.Bot.ReadyTimeout.Duration, logger)
}

func provideSnapshot(db *store.DB) (bot.Snapshot, error) {
	return bot.LoadSnapshot(context.Background(), db)
}

func provideManager(adapter *wa.Adapter, machine *status.Machine, b *bus.Bus, w *persist.Writer, cfg *config.Config, snap bot.Snapshot, logger *zap.Logger) *bot.Manager {
	opts := bot.Options{KnowledgeFallback: cfg.Bot.KnowledgeFallback}
	return bot.New(adapter, machine, b, w, logger, opts, snap)
}

func provideBridge(mgr *bot.Manager, b *bus.Bus, logger *zap.Logger) *bridge.Bridge {
	return bridge.New(mgr, b, logger)
}

func provideBridgeService(p Params, br *bridge.Bridge, logger *zap.Logger) *api.BridgeService {
	return api.NewBridgeService(p.SessionName, br, logger)
}

func provideShell(cfg *config.Config, br *bridge.Bridge, logger *zap.Logger) *shell.Server {
	return shell.NewServer(cfg.Bridge.WSListen, br, logger)
}

func provideScheduler(cfg *config.Config, mgr *bot.Manager, logger *zap.Logger) (*schedule.Scheduler, error) {
	return schedule.New(cfg.Bot.DirectoryRefresh, mgr.ScheduleDirectoryRefresh, logger)
}

type lifecycleDeps struct {
	fx.In

	Server    *Server
	Shell     *shell.Server
	Scheduler *schedule.Scheduler
	Lock      *lock.Lock
	DB        *store.DB
	Writer    *persist.Writer
	Adapter   *wa.Adapter
	Manager   *bot.Manager
	Bridge    *bridge.Bridge
	Logger    *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, d lifecycleDeps) {
	var cancelRelay context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start the write-behind persistence loop and the bot loop.
			d.Writer.Start(context.Background())
			d.Manager.StartLoop(context.Background())

			// Relay bus events to the attached shell.
			var relayCtx context.Context
			relayCtx, cancelRelay = context.WithCancel(context.Background())
			go d.Bridge.Run(relayCtx)

			// Start gRPC server in background.
			go func() {
				if err := d.Server.Start(); err != nil {
					d.Logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			if err := d.Shell.Start(); err != nil {
				return err
			}
			d.Scheduler.Start()

			// Reconnect a paired device; otherwise wait for bot:start.
			if d.Adapter.HasCredentials() {
				go func() {
					if err := d.Manager.Start(context.Background()); err != nil {
						d.Logger.Error("auto-connect failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("no credentials found, waiting for start")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Scheduler.Stop(ctx)
			if err := d.Shell.Stop(ctx); err != nil {
				d.Logger.Warn("error stopping websocket server", zap.Error(err))
			}
			if err := d.Manager.Shutdown(ctx); err != nil {
				d.Logger.Warn("error shutting down bot", zap.Error(err))
			}
			if cancelRelay != nil {
				cancelRelay()
			}
			d.Bridge.Detach()
			d.Writer.Stop()
			d.Server.Stop(ctx)
			if err := d.Adapter.Close(); err != nil {
				d.Logger.Warn("error closing device store", zap.Error(err))
			}
			if err := d.DB.Close(); err != nil {
				d.Logger.Warn("error closing store", zap.Error(err))
			}
			if err := d.Lock.Release(); err != nil {
				d.Logger.Warn("error releasing lock", zap.Error(err))
			}
			d.Logger.Info("daemon stopped")
			return nil
		},
	})
}
