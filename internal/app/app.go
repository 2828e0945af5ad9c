// Package app assembles the bot from configuration: storage, sessions,
// services, handlers and the Telegram runtime options.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/unimeeting/unimeetbot/core/bootstrap"
	corecmd "github.com/unimeeting/unimeetbot/core/cmd"
	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/core/metrics"
	tg "github.com/unimeeting/unimeetbot/core/telegram"
	"github.com/unimeeting/unimeetbot/core/telegram/router"
	"github.com/unimeeting/unimeetbot/core/telegram/sender"
	"github.com/unimeeting/unimeetbot/core/telegram/state"
	"github.com/unimeeting/unimeetbot/internal/access"
	"github.com/unimeeting/unimeetbot/internal/config"
	"github.com/unimeeting/unimeetbot/internal/events"
	"github.com/unimeeting/unimeetbot/internal/handlers"
	"github.com/unimeeting/unimeetbot/internal/mode"
	"github.com/unimeeting/unimeetbot/internal/presenter"
	"github.com/unimeeting/unimeetbot/internal/review"
	"github.com/unimeeting/unimeetbot/internal/storage"
	"github.com/unimeeting/unimeetbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// App owns every long-lived resource of the bot process.
type App struct {
	cfg *config.Config

	db         *sqlx.DB
	rdb        *redis.Client
	bot        *tele.Bot
	dispatcher *sender.Dispatcher
	metrics    *metrics.Metrics

	registry *tg.Registry
	machine  *state.Machine
	handlers *handlers.Handlers
}

var _ corecmd.TelegramApp = (*App)(nil)

// Bootstrap is the core/cmd entry point.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg)
}

// New runs the bootstrap pipeline and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{bootstrap.SeederFunc(seedAdmins(cfg.AdminIDs))},
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: res.DB, metrics: metrics.New()}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// seedAdmins stores the configured numeric admin ids as super admins.
func seedAdmins(ids []int64) func(context.Context, *sqlx.DB) error {
	return func(ctx context.Context, db *sqlx.DB) error {
		store := storage.New(db)
		for _, id := range ids {
			if err := store.AddAdmin(ctx, id, nil, true); err != nil {
				return err
			}
		}
		logger.Seed.LogAttrs(ctx, slog.LevelInfo, "admins seeded", slog.Int("count", len(ids)))
		return nil
	}
}

func (a *App) wire(ctx context.Context) error {
	sessions, err := a.openSessions(ctx)
	if err != nil {
		return err
	}

	core := a.cfg.CoreConfig()
	if a.bot, err = tg.NewBot(core); err != nil {
		return err
	}
	opts := tg.DispatcherOptionsFrom(core)
	opts.OnResult = a.metrics.ObserveDelivery
	a.dispatcher = sender.NewDispatcher(opts)

	store := storage.New(a.db)
	authz := access.New(a.cfg.AdminIDs, a.cfg.AdminHandles, store)
	notifier := handlers.NewNotifier(a.bot, a.dispatcher, authz)

	a.handlers, err = handlers.New(handlers.Deps{
		Store:     store,
		Sessions:  sessions,
		Mode:      mode.New(sessions),
		Presenter: presenter.New(presenter.NewBotTransport(a.bot), sessions, a.metrics),
		Wizard:    wizard.NewEngine(sessions, wizard.DefaultPolicy(a.cfg.Limits), a.metrics),
		Review:    review.New(store, notifier, a.metrics),
		Events:    events.New(store),
		Access:    authz,
	})
	if err != nil {
		return err
	}

	a.registry = tg.NewRegistry()
	a.machine = state.NewMachine(sessions)
	if err := a.handlers.Register(a.registry, a.machine); err != nil {
		return fmt.Errorf("app: register handlers: %w", err)
	}

	if addr := a.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, a.metrics); err != nil {
				logger.Metrics.LogAttrs(ctx, slog.LevelError, "exporter.failed",
					slog.String("listen", addr),
					slog.String("err", err.Error()),
				)
			}
		}()
	}
	return nil
}

func (a *App) openSessions(ctx context.Context) (state.Store, error) {
	if a.cfg.Session.Backend != config.SessionRedis {
		logger.L.Info("session store", slog.String("event", "sessions"), slog.String("backend", config.SessionMemory))
		return state.NewMemoryStore(), nil
	}
	opt, err := redis.ParseURL(a.cfg.Session.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", err)
	}
	a.rdb = redis.NewClient(opt)
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("app: redis ping: %w", err)
	}
	logger.L.Info("session store",
		slog.String("event", "sessions"),
		slog.String("backend", config.SessionRedis),
		slog.Duration("ttl", a.cfg.Session.TTL),
	)
	return state.NewRedisStore(a.rdb, state.RedisOptions{TTL: a.cfg.Session.TTL}), nil
}

// TelegramRunOptions builds the middleware chain and routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	h := a.handlers
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin:       h.IsAdmin,
		OnAdminReject: h.Denied,
		Metrics:       a.metrics,
	})
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{
		Machine:         a.machine,
		IsAdmin:         h.IsAdmin,
		OnAdminReject:   h.Denied,
		UnknownText:     h.UnknownText(),
		UnknownPhoto:    h.UnknownPhoto(),
		UnknownDocument: h.UnknownDocument(),
		Metrics:         a.metrics,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: h.UnknownCallback(),
		Metrics:  a.metrics,
	}))

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(core, a.metrics, h.OnLimited),
		Routes:      routes,
	}, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
