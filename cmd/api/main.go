package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pusher/pusher-http-go/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/config"
	"go-gamehall/internal/event"
	"go-gamehall/internal/game/mines"
	"go-gamehall/internal/game/wheel"
	"go-gamehall/internal/http-server/handlers/fairness/rotate"
	"go-gamehall/internal/http-server/handlers/mines/cashout"
	"go-gamehall/internal/http-server/handlers/mines/reveal"
	"go-gamehall/internal/http-server/handlers/mines/start"
	"go-gamehall/internal/http-server/handlers/provider/callback"
	"go-gamehall/internal/http-server/handlers/wheel/bet"
	"go-gamehall/internal/http-server/middleware/inflight"
	mwlogger "go-gamehall/internal/http-server/middleware/logger"
	"go-gamehall/internal/job"
	"go-gamehall/internal/lib/logger/handler/slogpretty"
	"go-gamehall/internal/lib/logger/sl"
	"go-gamehall/internal/provider"
	"go-gamehall/internal/repository"
	"go-gamehall/internal/storage/mysql"
	"go-gamehall/internal/wallet"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	jobQueueSize   = 128
	jobWorkerCount = 4
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting api server", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})

	pusherClient := &pusher.Client{
		AppID:   cfg.Pusher.AppID,
		Key:     cfg.Pusher.Key,
		Secret:  cfg.Pusher.Secret,
		Cluster: cfg.Pusher.Cluster,
	}

	pusherEvent := event.NewPusherEvent(log, pusherClient)

	jobQueue := job.NewQueue(jobQueueSize)
	job.NewWorkerPool(jobWorkerCount, jobQueue).Start()

	userRepo := repository.NewUserRepository(handler)
	ledgerRepo := repository.NewLedgerRepository(handler)
	seedRepo := repository.NewSeedRepository(handler)
	roundRepo := repository.NewRoundRepository(handler)
	roundBetRepo := repository.NewRoundBetRepository(handler)
	sessionRepo := repository.NewSessionRepository(handler)
	providerRepo := repository.NewProviderRepository(handler)
	freeSpinRepo := repository.NewFreeSpinRepository(handler)

	walletSvc := wallet.New(userRepo, ledgerRepo, jobQueue, pusherEvent, log)

	wheelStores := wheel.NewStores(handler, roundRepo, roundBetRepo, seedRepo, ledgerRepo, userRepo, walletSvc)

	if err = wheelStores.Seeder.EnsureHouseSeed(); err != nil {
		log.Error("failed to provision house seed", sl.Err(err))
		os.Exit(1)
	}

	driver := wheel.NewDriver(wheelStores.Rounds, wheelStores.Settler, wheelStores.Roller,
		jobQueue, pusherEvent, cfg.Wheel, log)

	supervisor := wheel.NewSupervisor(driver, 3*time.Second, log)
	if err = supervisor.Start(); err != nil {
		log.Error("failed to start wheel driver", sl.Err(err))
		os.Exit(1)
	}
	defer supervisor.Stop()

	wheelBets := wheel.NewBetService(driver, wheelStores.Bets, log)

	minesStore := mines.NewStore(handler, sessionRepo, seedRepo, walletSvc, config.MinesConfig)
	minesSvc := mines.NewService(minesStore, config.MinesConfig, log)

	rotator := rotate.NewRotator(handler, seedRepo, sessionRepo, log)

	reconciler := provider.NewReconciler(
		provider.NewStore(handler, userRepo, ledgerRepo, providerRepo, freeSpinRepo, walletSvc),
		cfg.Provider,
		log,
	)

	placeBet := place_bet.NewBet(log, userRepo, wheelBets)
	minesStart := start.NewStart(log, userRepo, minesSvc)
	minesReveal := reveal.NewReveal(log, userRepo, minesSvc)
	minesCashout := cashout.NewCashout(log, userRepo, minesSvc)
	rotateSeed := rotate.NewRotate(log, userRepo, rotator)
	providerCallback := callback.NewCallback(log, reconciler)

	wagerGuard := inflight.New(log, inflight.NewRedisLocker(redisClient))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Group(func(r chi.Router) {
		r.Use(wagerGuard)

		r.Post("/wheel/bets", placeBet.New())
		r.Post("/mines/start", minesStart.New())
		r.Post("/mines/reveal", minesReveal.New())
		r.Post("/mines/cashout", minesCashout.New())
	})

	router.Post("/fairness/rotate", rotateSeed.New())
	router.Get("/provider/callback", providerCallback.New())

	log.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("server failed", sl.Err(err))
	}

	log.Error("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return slog.New(opts.NewPrettyHandler(os.Stdout))
}
