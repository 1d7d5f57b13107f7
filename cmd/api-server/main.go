package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/campusbook/appointment-booking/internal/api"
	"github.com/campusbook/appointment-booking/internal/booking"
	"github.com/campusbook/appointment-booking/internal/config"
	"github.com/campusbook/appointment-booking/internal/db"
	redisclient "github.com/campusbook/appointment-booking/internal/redis"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s granularity=%s", cfg.Env, cfg.HTTPPort, cfg.SlotGranularity)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   booking.Repository
		pgPool *pgxpool.Pool
	)

	if cfg.PostgresDSN != "" {
		pgPool, err = db.ConnectWithRetry(rootCtx, cfg.PostgresDSN, cfg.ConnectRetries, cfg.ConnectBackoff)
	} else {
		err = errors.New("no POSTGRES_DSN configured")
	}
	switch {
	case err == nil:
		defer pgPool.Close()
		repo = booking.NewPgRepository(pgPool)
		log.Println("connected to Postgres")
	case cfg.DemoFallback:
		log.Printf("postgres unavailable (%v), serving from the in-memory demo store", err)
		repo = seedDemoStore()
	default:
		log.Fatalf("postgres connection error: %v", err)
	}

	var (
		rdb    *redis.Client
		locker booking.Locker
	)
	rdb, err = redisclient.Connect(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Printf("redis unavailable (%v), using in-process booking locks", err)
		rdb = nil
		locker = booking.NewLocalLocker()
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = redisclient.NewSlotLocker(rdb, cfg.LockTTL)
		log.Println("connected to Redis")
	}

	svc := booking.NewService(repo, locker, cfg.SlotGranularity)

	handler := api.NewRouter(api.RouterConfig{
		Service:   svc,
		JWTSecret: cfg.JWTSecret,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
