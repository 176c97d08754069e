package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"gigmarket_backend/internal/config"
	"gigmarket_backend/internal/db"
	"gigmarket_backend/internal/realtime"
	"gigmarket_backend/internal/server"
	"gigmarket_backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	deps := server.Deps{
		Hub:           hub,
		RDB:           rdb,
		JWTSecret:     cfg.JWTSecret,
		JWTExpiresMin: cfg.JWTExpiresMin,
		CORSOrigins:   cfg.CORSOrigins,
	}
	deps.Stores.Users = store.NewGormUserStore(gdb)
	deps.Stores.Orders = store.NewGormOrderStore(gdb)
	deps.Stores.Messages = store.NewGormMessageStore(gdb)
	deps.Stores.Gigs = store.NewGormGigStore(gdb)
	deps.Stores.PaymentDetails = store.NewGormPaymentDetailStore(gdb)

	app := server.New(deps)
	log.Fatal(app.Listen(":" + cfg.AppPort))
}
