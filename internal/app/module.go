package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/waconsole/waconsole/internal/bus"
	"github.com/waconsole/waconsole/internal/config"
	"github.com/waconsole/waconsole/internal/history"
	"github.com/waconsole/waconsole/internal/lock"
	"github.com/waconsole/waconsole/internal/logging"
	"github.com/waconsole/waconsole/internal/outbox"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/profile"
	"github.com/waconsole/waconsole/internal/qr"
	"github.com/waconsole/waconsole/internal/realtime"
	"github.com/waconsole/waconsole/internal/store"
	cachesync "github.com/waconsole/waconsole/internal/sync"
	"github.com/waconsole/waconsole/internal/tui"
	"github.com/waconsole/waconsole/internal/tui/model"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the console, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("console",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			providePlatformClient,
			provideNotifier,
			provideRealtimeClient,
			provideLoader,
			provideSyncEngine,
			provideSender,
			providePoller,
			provideViewModel,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

// provideLogger logs to the profile's log file only; stderr belongs to the
// terminal UI.
func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return logging.NewFileOnly(profile.LogPath(p.Profile), p.Profile)
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded", zap.String("profile", p.Profile))
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.CachePath(p.Profile)
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
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func providePlatformClient(cfg *config.Config, logger *zap.Logger) *platform.Client {
	return platform.NewClient(platform.Config{
		APIURL:      cfg.Server.APIURL,
		SessionsURL: cfg.Server.SessionsURL,
		Token:       cfg.Server.Token,
	}, logger)
}

func provideNotifier(cfg *config.Config, b *bus.Bus) *realtime.Notifier {
	return realtime.NewNotifier(cfg.Notifications.Enabled, realtime.BusSink{Bus: b})
}

func provideRealtimeClient(cfg *config.Config, b *bus.Bus, notifier *realtime.Notifier, logger *zap.Logger) *realtime.Client {
	return realtime.NewClient(realtime.Config{
		Endpoint:          cfg.Server.EventsURL,
		ReconnectAttempts: cfg.Realtime.ReconnectAttempts,
		ReconnectDelay:    cfg.Realtime.ReconnectDelay(),
		DialTimeout:       cfg.Realtime.DialTimeout(),
		LiveFeedCap:       cfg.Realtime.LiveFeedCap,
	}, b, notifier, logger)
}

// provideLoader publishes every fetched page on the bus, so the sync engine
// mirrors paged history into the cache the same way it mirrors live pushes.
func provideLoader(cfg *config.Config, api *platform.Client, b *bus.Bus, logger *zap.Logger) *history.Loader {
	hook := func(sessionName, chatID string, msgs []platform.Message) {
		b.Publish(bus.Event{
			Kind:      realtime.KindHistoryPage,
			Timestamp: time.Now(),
			Payload: realtime.HistoryPage{
				SessionName: sessionName,
				ChatID:      chatID,
				Messages:    msgs,
			},
		})
	}
	return history.NewLoader(api, cfg.History.PageSize, logger, history.WithPageHook(hook))
}

func provideSyncEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *cachesync.Engine {
	return cachesync.NewEngine(db, b, logger)
}

func provideSender(db *store.DB, api *platform.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, api, b, logger)
}

func providePoller(cfg *config.Config, api *platform.Client, b *bus.Bus, logger *zap.Logger) *qr.Poller {
	return qr.NewPoller(api, b, cfg.QR.Refresh(), logger)
}

func provideViewModel(api *platform.Client, db *store.DB, loader *history.Loader, sender *outbox.Sender) *model.ViewModel {
	return model.NewViewModel(api, db, loader, sender)
}

func provideApp(p Params, vm *model.ViewModel, client *realtime.Client, poller *qr.Poller, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *tui.App {
	return tui.NewApp(p.Profile, vm, client, poller, b, cfg, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, engine *cachesync.Engine, sender *outbox.Sender, client *realtime.Client, poller *qr.Poller, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The engine subscribes to realtime.* bus events; it must be
			// running before the first push lands.
			engine.Start(context.Background())
			sender.Start(context.Background())

			if cfg.Realtime.AutoConnect {
				client.Connect()
			} else {
				logger.Info("auto-connect disabled; event stream stays down")
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			poller.Stop()
			client.Disconnect()
			sender.Stop()
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing cache", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("console stopped")
			return nil
		},
	})
}
