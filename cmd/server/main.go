package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/config"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/database"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/feed"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/handler"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/middleware"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/reservation"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	sessions := repository.NewSessionRepo(db)
	orders := repository.NewOrderRepo(db)

	// Refresh tokens past their expiry only clutter the table; clear the
	// backlog once on boot.
	cleanCtx, cleanCancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
	if n, err := tokens.DeleteExpired(cleanCtx, 24*time.Hour); err != nil {
		log.Printf("token cleanup: %v", err)
	} else if n > 0 {
		log.Printf("token cleanup: removed %d expired refresh tokens", n)
	}
	cleanCancel()

	rdb := config.NewRedisClient() // Redis backs the response cache and rate limiter

	// Order status events flow broker -> consumer -> in-process feed ->
	// SSE streams.  Without a broker URL staff updates still succeed but
	// nothing reaches open customer streams.
	orderFeed := feed.New()
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartOrderStatusConsumer(cfg.AMQPURL, orderFeed); err != nil {
				log.Printf("order status consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set; order feed bridge disabled")
	}

	manager := reservation.NewManager(tables, sessions, cfg.OpTimeout)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	sessionH := handler.NewSessionHandler(cfg.JWTSecret)
	tableH := handler.NewTableHandler(manager, middleware.NewCacheInvalidator(config.LoadCacheConfig(), rdb))
	orderH := handler.NewOrderHandler(orders, cfg.AMQPURL, cfg.OpTimeout)
	feedH := handler.NewFeedHandler(orderFeed, sessions, cfg.OpTimeout)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterSession(e, sessionH)
	router.RegisterTables(e, tableH, cfg.JWTSecret, rdb)
	router.RegisterOrders(e, orderH, feedH, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
