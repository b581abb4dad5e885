package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lahorneada/bakery-api/internal/config"
	"github.com/lahorneada/bakery-api/internal/events"
	kafkax "github.com/lahorneada/bakery-api/internal/kafka"
	"github.com/lahorneada/bakery-api/internal/postgres"
	"github.com/lahorneada/bakery-api/internal/reconcile"
	"github.com/lahorneada/bakery-api/internal/redisx"
	"github.com/lahorneada/bakery-api/internal/reservation"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &reconcile.Service{
		Repo:        &reservation.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-reconciler",
	}

	group := getenv("RECONCILER_GROUP", "reconciler")
	workers := mustAtoi(os.Getenv("RECONCILER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicReservationCreated, workers)

	go func() {
		log.Printf("reconciler consumer started: group=%s topic=%s workers=%d",
			group, events.TopicReservationCreated, workers)
		if err := cons.Start(ctx, svc.HandleReservationCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	every := time.Duration(mustAtoi(os.Getenv("AUDIT_INTERVAL_MIN"), "15")) * time.Minute
	go svc.RunLoop(ctx, every)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down reconciler...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
