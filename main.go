package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookly/config"
	"bookly/cron"
	"bookly/database"
	bookingRepo "bookly/database/repository/booking"
	companyRepo "bookly/database/repository/company"
	"bookly/handlers"
	"bookly/middleware"
	"bookly/routes"
	"bookly/services/scheduling"
	"bookly/services/selection"
	"bookly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	cfg := config.AppConfig
	loc := cfg.Location()
	clk := clock.WallClock

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		bookings  bookingRepo.BookingRepository
		companies companyRepo.CompanyRepository
		sessions  selection.Store
		snapshots scheduling.SnapshotCache
		queue     scheduling.OfflineQueue
		mongoDB   *mongo.Client
		redisUsed []*redis.Client
	)

	if cfg.UseMemoryStore() {
		logger.Info("main: running on the in-memory store")
		bookings = bookingRepo.NewMemoryBookingRepo()
		companies = companyRepo.NewMemoryCompanyRepo()
		sessions = selection.NewMemoryStore()
		snapshots = scheduling.NewMemorySnapshotCache(cfg.SnapshotTTL())
	} else {
		database.InitDB()
		mongoDB = database.MongoClient
		bookings = bookingRepo.NewMongoBookingRepo()
		companies = companyRepo.NewMongoCompanyRepo()

		ctx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		if err := bookingRepo.EnsureIndexes(ctx, bookings); err != nil {
			logger.Sugar().Fatalf("main: failed to create booking indexes: %v", err)
		}
		if err := companyRepo.EnsureIndexes(ctx, companies); err != nil {
			logger.Sugar().Fatalf("main: failed to create company indexes: %v", err)
		}
		cancel()

		sessionClient := utils.GetSessionCacheClient()
		snapshotClient := utils.GetSnapshotCacheClient()
		redisUsed = []*redis.Client{sessionClient, snapshotClient}
		sessions = selection.NewRedisStore(sessionClient, cfg.SessionTTL())
		snapshots = scheduling.NewRedisSnapshotCache(snapshotClient, cfg.SnapshotTTL())
	}

	if cfg.UseMemoryStore() || cfg.SeedData {
		ctx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		if err := companyRepo.Seed(ctx, companies); err != nil {
			logger.Sugar().Fatalf("main: failed to seed catalogue: %v", err)
		}
		cancel()
		logger.Info("main: demo catalogue seeded")
	}

	var (
		asynqClient *asynq.Client
		worker      *asynq.Server
		sweeper     *asynq.Scheduler
	)
	if !cfg.UseMemoryStore() {
		asynqClient = asynq.NewClient(cron.RedisOpt())
		queue = scheduling.NewAsynqQueue(asynqClient, scheduling.DefaultReplayDelay)
	}

	scheduler := scheduling.New(scheduling.Deps{
		Bookings:  bookings,
		Companies: companies,
		Sessions:  sessions,
		Snapshots: snapshots,
		Queue:     queue,
		Clock:     clk,
		Logger:    logger.Named("scheduling"),
	}, scheduling.Options{
		Timeout:     cfg.RemoteTimeout(),
		Granularity: cfg.SlotGranularityMinutes,
		Staleness:   cfg.StalenessWindow(),
		Location:    loc,
	})

	if cfg.UseMemoryStore() {
		cron.StartLocalSweep(rootCtx, clk, cron.LocalSweepInterval, scheduler, logger.Named("sweep"))
	} else {
		worker = cron.InitWorker(scheduler, logger.Named("worker"))
		var err error
		sweeper, err = cron.InitSweepScheduler(cfg.CompletionSweepSpec, loc)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
	}

	utils.StartHealthMonitor(rootCtx, clk, redisUsed, mongoDB)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	routes.RegisterRoutes(router, handlers.NewHandlerBundle(scheduler))

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if sweeper != nil {
		sweeper.Shutdown()
	}
	if worker != nil {
		worker.Shutdown()
	}
	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	utils.CloseCaches()
	database.CloseDB(ctx)

	logger.Sugar().Info("main: server stopped gracefully")
}
