package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/shop-orders/internal/bot"
	"github.com/ariefcatur/shop-orders/internal/catalog"
	"github.com/ariefcatur/shop-orders/internal/checkout"
	"github.com/ariefcatur/shop-orders/internal/config"
	"github.com/ariefcatur/shop-orders/internal/httpx"
	"github.com/ariefcatur/shop-orders/internal/intake"
	kafkax "github.com/ariefcatur/shop-orders/internal/kafka"
	"github.com/ariefcatur/shop-orders/internal/logx"
	"github.com/ariefcatur/shop-orders/internal/notify"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/redisx"
	"github.com/ariefcatur/shop-orders/internal/scheduler"
	"github.com/ariefcatur/shop-orders/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logx.New(cfg.LogLevel, cfg.LogFormat)
	loc, err := cfg.Location()
	if err != nil {
		log.Error("timezone", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	backend, closeStore, err := store.Open(ctx, cfg.DataDir, cfg.PostgresDSN)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer closeStore()
	orderLog := orders.NewLog(backend)
	cat := catalog.NewService(backend)

	// Notifications
	var channel notify.Channel = notify.LogChannel{Log: log}
	if cfg.BotToken != "" {
		channel = notify.NewTelegramChannel(cfg.BotToken, cfg.TelegramAPI, cfg.NotifyTimeout)
	} else {
		log.Warn("BOT_TOKEN not set, notifications go to the log")
	}
	dispatcher := notify.NewDispatcher(channel, cfg.GroupChatID, log, notify.WithTimeout(cfg.NotifyTimeout))

	// Kafka producer (optional)
	var opts []intake.Option
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		opts = append(opts, intake.WithEvents(prod, cfg.ServiceName))
	}

	// Redis (optional): checkout sessions and status cache
	var rdb *redis.Client
	var sessions checkout.Store = checkout.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Error("redis ping", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		sessions = checkout.NewRedisStore(rdb, cfg.SessionTTL)
		opts = append(opts, intake.WithStatusCache(rdb))
	}
	svc := intake.NewService(orderLog, dispatcher, log, opts...)
	machine, err := checkout.NewMachine(sessions, svc)
	if err != nil {
		log.Error("checkout table", "err", err)
		os.Exit(1)
	}

	// Scheduler
	sched, err := scheduler.New(log, orderLog, dispatcher, cfg.Schedule, loc)
	if err != nil {
		log.Error("scheduler", "err", err)
		os.Exit(1)
	}
	sched.Start()

	// Telegram bot (optional)
	var tg *tgbotapi.BotAPI
	botCtx, stopBot := context.WithCancel(ctx)
	defer stopBot()
	botDone := make(chan struct{})
	if cfg.BotToken != "" && cfg.BotPolling {
		tg, err = tgbotapi.NewBotAPIWithClient(cfg.BotToken, cfg.TelegramAPI, &http.Client{Timeout: 75 * time.Second})
		if err != nil {
			log.Error("telegram bot", "err", err)
			os.Exit(1)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		b := bot.New(tg, machine, cat, svc, cfg.AdminIDs, log)
		go func() {
			defer close(botDone)
			b.Run(botCtx, tg.GetUpdatesChan(u))
		}()
		log.Info("telegram polling started", "bot", tg.Self.UserName)
	} else {
		close(botDone)
	}

	// HTTP
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Orders: svc, Log: log}
	if rdb != nil {
		oh.Cache = rdb
	}
	oh.Register(router)
	(&httpx.CatalogHandler{Catalog: cat, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	// graceful shutdown
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "tz", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// writers first: bot, then scheduler, then pending notifications
	stopBot()
	if tg != nil {
		tg.StopReceivingUpdates()
	}
	<-botDone
	if err := sched.Stop(ctx2); err != nil {
		log.Warn("scheduler stop", "err", err)
	}
	svc.Wait()
	if prod != nil {
		prod.Close()      // flush queued events
		cancel()          // stop producer loop
		prod.WaitClosed() // drain
	}
	cancel()
}
