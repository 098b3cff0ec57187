package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	auctionhandler "bidhall/internal/auction/handler"
	auctionservice "bidhall/internal/auction/service"
	auctionstore "bidhall/internal/auction/store"
	bidhandler "bidhall/internal/bid/handler"
	bidmetrics "bidhall/internal/bid/metrics"
	bidservice "bidhall/internal/bid/service"
	bidstore "bidhall/internal/bid/store"
	"bidhall/internal/email"
	"bidhall/internal/events"
	transport "bidhall/internal/http"
	itemhandler "bidhall/internal/item/handler"
	itemservice "bidhall/internal/item/service"
	itemstore "bidhall/internal/item/store"
	"bidhall/internal/notification"
	notificationhandler "bidhall/internal/notification/handler"
	"bidhall/internal/platform/config"
	"bidhall/internal/platform/httpserver"
	"bidhall/internal/platform/logger"
	"bidhall/pkg/platform/tx"
)

// main wires stores, services, the event bus, and the email worker, then runs
// the HTTP server until interrupted. Business logic lives in the internal
// services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		auctions auctionstore.Store
		members  auctionstore.MembershipStore
		items    itemstore.Store
		bids     bidstore.Store
		notifs   notification.Store
		runner   tx.Runner
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("database open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		pg := auctionstore.NewPostgres(db)
		auctions, members = pg, pg
		items = itemstore.NewPostgres(db)
		bids = bidstore.NewPostgres(db)
		notifs = notification.NewPostgresStore(db)
		runner = tx.SQLRunner{DB: db}
		log.Info("using postgres stores")
	} else {
		memItems := itemstore.NewInMemory()
		pg := auctionstore.NewInMemory()
		auctions, members = pg, pg
		items = memItems
		bids = bidstore.NewInMemory(memItems)
		notifs = notification.NewInMemoryStore()
		runner = tx.Passthrough{}
		log.Info("using in-memory stores")
	}

	var outbox email.Outbox
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		outbox = email.NewRedisOutbox(client)
		log.Info("using redis email outbox")
	} else {
		outbox = email.NewMemoryOutbox(0)
	}

	bus := events.NewBus(log)
	email.Subscribe(bus, outbox, log)
	emailWorker := email.NewWorker(outbox, email.NewLogSender(log), log, cfg.EmailMaxAttempts, cfg.EmailBackoffBase)

	notifier := notification.NewService(notifs, bus, log, notification.WithMetrics(notification.NewMetrics()))
	auctionSvc := auctionservice.NewService(auctions, members, items, runner, notifier, bus, log)
	itemSvc := itemservice.NewService(auctions, members, items, notifier, bus, log)
	bidSvc := bidservice.NewService(auctions, members, items, bids, notifier, bus, log, bidservice.WithMetrics(bidmetrics.New()))

	router := transport.NewRouter(transport.Config{
		JWTSigningKey:           cfg.JWTSigningKey,
		InsecureIdentityHeaders: cfg.InsecureIdentityHeaders,
	}, transport.Handlers{
		Auctions:      auctionhandler.New(auctionSvc, log),
		Items:         itemhandler.New(itemSvc, log),
		Bids:          bidhandler.New(bidSvc, log),
		Notifications: notificationhandler.New(notifier, log),
	}, log)

	srv := httpserver.New(cfg.Addr, router, httpserver.Timeouts{
		Read:  cfg.HTTPReadTimeout,
		Write: cfg.HTTPWriteTimeout,
		Idle:  cfg.HTTPIdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := emailWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
