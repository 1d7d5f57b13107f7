package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusbook/appointment-booking/internal/booking"
	"github.com/campusbook/appointment-booking/internal/config"
	"github.com/campusbook/appointment-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running reminder worker in env=%s interval=%s lead=%s", cfg.Env, cfg.WorkerInterval, cfg.ReminderLead)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgPool, err := db.ConnectWithRetry(rootCtx, cfg.PostgresDSN, cfg.ConnectRetries, cfg.ConnectBackoff)
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	repo := booking.NewPgRepository(pgPool)
	// The worker never books, so the in-process locker is enough.
	svc := booking.NewService(repo, booking.NewLocalLocker(), cfg.SlotGranularity)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.ReminderLead)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.ReminderLead)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, lead time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := svc.SendReminders(runCtx, lead)
	if err != nil {
		log.Printf("reminder run error: %v", err)
		return
	}
	log.Printf("reminder run complete: sent=%d in %s", sent, time.Since(start))
}
