package main

import (
	"context"
	"log"

	"orderbridge/config"
	"orderbridge/fanout-svc/internal/service"
	"orderbridge/fanout-svc/internal/storage"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[fanout-svc] no .env file, relying on environment")
	}

	db := config.MustInitPostgres()
	defer db.Close()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	reader := config.NewKafkaReader("orders", "fanout-svc-consumer")
	defer reader.Close()

	store := storage.NewStore(db, rdb)
	consumer := service.NewConsumer(reader, store)
	consumer.Start(context.Background())
}
