package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ykvlv/checkin-bot/internal/checkin"
	"github.com/ykvlv/checkin-bot/internal/config"
	"github.com/ykvlv/checkin-bot/internal/geocode"
	"github.com/ykvlv/checkin-bot/internal/logger"
	"github.com/ykvlv/checkin-bot/internal/portal"
	"github.com/ykvlv/checkin-bot/internal/scheduler"
	"github.com/ykvlv/checkin-bot/internal/server"
	"github.com/ykvlv/checkin-bot/internal/store"
	"github.com/ykvlv/checkin-bot/internal/telegram"
)

type App struct {
	cfg       config.Config
	log       *zap.Logger
	bot       *tgbotapi.BotAPI
	kv        store.KV
	geocoder  *geocode.Client
	scheduler *scheduler.Scheduler
	router    *telegram.Router
	httpSrv   *http.Server
}

// New connects to Telegram and the store and wires every component.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	users := store.NewUsers(kv, cfg.StorePageSize)

	portalClient := portal.New(
		&http.Client{Timeout: cfg.PortalTimeout},
		cfg.PortalBaseURL,
		rate.NewLimiter(rate.Limit(cfg.PortalRate), cfg.PortalBurst),
	)
	geocoder := geocode.New(&http.Client{Timeout: 10 * time.Second}, cfg.AmapBaseURL, cfg.AmapKey, cfg.GeocodeCacheTTL)
	runner := checkin.NewRunner(portalClient)
	notifier := telegram.NewNotifier(bot)

	sched := scheduler.New(users, runner, notifier, log.Named("scheduler"), cfg.SweepInterval)
	router := telegram.NewRouter(telegram.Deps{
		Users:    users,
		Auth:     portalClient,
		Runner:   runner,
		Geocoder: geocoder,
		Sweeper:  sched,
		Notifier: notifier,
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewHandler(server.Config{
			WebhookSecret: cfg.WebhookSecret,
			SweepToken:    cfg.SweepToken,
		}, log.Named("http"), router, sched),
		ReadTimeout: 5 * time.Second,
		// /sweep and webhook dispatch wait on the portal.
		WriteTimeout: 5 * time.Minute,
	}

	return &App{
		cfg:       cfg,
		log:       log,
		bot:       bot,
		kv:        kv,
		geocoder:  geocoder,
		scheduler: sched,
		router:    router,
		httpSrv:   srv,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.OpenSQLite(ctx, cfg.DBPath)
	case config.BackendRedis:
		return store.OpenRedis(ctx, store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendMemory:
		return store.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.StoreBackend)
}

// Close releases the store.
func (a *App) Close() error {
	return a.kv.Close()
}

// SweepOnce runs a single sweep, for external timers.
func (a *App) SweepOnce(ctx context.Context) (scheduler.Report, error) {
	return a.scheduler.Sweep(logger.WithContext(ctx, a.log))
}

// Run serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting checkin-bot", zap.String("config", a.cfg.NonSensitiveString()))
	ctx, cancel := context.WithCancel(logger.WithContext(ctx, a.log))

	var wg sync.WaitGroup
	defer wg.Wait()
	// Background loops stop before Run waits on them.
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.geocoder.Start()
	}()
	defer a.geocoder.Stop()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()
	defer a.shutdownHTTP()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.scheduler.Run(ctx)
	}()

	switch a.cfg.RunMode {
	case config.ModeWebhook:
		return a.serveWebhook(ctx)
	default:
		return a.poll(ctx)
	}
}

func (a *App) serveWebhook(ctx context.Context) error {
	link := strings.TrimRight(a.cfg.WebhookURL, "/") + "/webhook"
	if a.cfg.WebhookSecret != "" {
		link += "/" + a.cfg.WebhookSecret
	}
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := a.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	a.log.Info("webhook registered", zap.String("url", a.cfg.WebhookURL))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return nil
}

func (a *App) poll(ctx context.Context) error {
	if _, err := a.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		a.log.Warn("delete webhook failed", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			return nil

		case upd := <-updCh:
			in, err := telegram.FromUpdate(upd)
			if err != nil {
				a.log.Debug("ignoring update", zap.Int("update_id", upd.UpdateID), zap.Error(err))
				continue
			}
			a.router.Dispatch(ctx, in)
		}
	}
}

func (a *App) shutdownHTTP() {
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
}
