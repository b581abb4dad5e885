package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/availability"
	"github.com/lahorneada/bakery-api/internal/cart"
	"github.com/lahorneada/bakery-api/internal/catalog"
	"github.com/lahorneada/bakery-api/internal/config"
	"github.com/lahorneada/bakery-api/internal/events"
	"github.com/lahorneada/bakery-api/internal/httpx"
	kafkax "github.com/lahorneada/bakery-api/internal/kafka"
	"github.com/lahorneada/bakery-api/internal/postgres"
	"github.com/lahorneada/bakery-api/internal/redisx"
	"github.com/lahorneada/bakery-api/internal/reservation"
	"github.com/lahorneada/bakery-api/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicReservationCreated, 1024)
	pCreated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicReservationCancelled, 1024)
	pCancelled.Start(ctx)
	pAdjusted := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicStockAdjusted, 1024)
	pAdjusted.Start(ctx)

	// Repos & views
	catalogRepo := &catalog.Repo{DB: db}
	stockRepo := &stock.Repo{DB: db}
	resRepo := &reservation.Repo{DB: db}
	view := &availability.View{Stock: stockRepo, Products: catalogRepo, Redis: rdb}
	carts := &cart.Store{Redis: rdb}

	am := &auth.Middleware{
		Verifier: &auth.Verifier{Secret: []byte(cfg.AuthJWTSecret), Issuer: cfg.AuthIssuer},
		Profiles: &auth.ProfilesRepo{DB: db},
	}

	router := httpx.NewRouter()
	(&httpx.CatalogHandler{Repo: catalogRepo, Auth: am}).Register(router)
	(&httpx.AvailabilityHandler{View: view}).Register(router)
	(&httpx.CartHandler{Store: carts, Catalog: catalogRepo, Stock: stockRepo, Auth: am}).Register(router)
	(&httpx.ReservationsHandler{
		Repo: resRepo, Carts: carts, View: view, Redis: rdb,
		Created: pCreated, Cancelled: pCancelled, Auth: am, Service: cfg.ServiceName,
	}).Register(router)
	(&httpx.AdminStockHandler{
		Stock: stockRepo, View: view, Adjusted: pAdjusted, Auth: am, Service: cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close()
	pCancelled.Close()
	pAdjusted.Close()
	cancel()
	pCreated.WaitClosed()
	pCancelled.WaitClosed()
	pAdjusted.WaitClosed()
}
