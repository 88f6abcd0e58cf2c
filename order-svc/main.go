package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"orderbridge/config"
	httpapi "orderbridge/order-svc/internal/api/http"
	"orderbridge/order-svc/internal/service"
	"orderbridge/order-svc/internal/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[order-svc] no .env file, relying on environment")
	}

	db := config.MustInitPostgres()
	defer db.Close()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter("orders")
	defer kafkaWriter.Close()

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(); err != nil {
		log.Fatal("[order-svc] failed to ensure schema:", err)
	}

	replayTTL, err := time.ParseDuration(config.Getenv("REPLAY_MARKER_TTL", "24h"))
	if err != nil {
		log.Fatal("[order-svc] invalid REPLAY_MARKER_TTL:", err)
	}
	cache := storage.NewRedisCache(rdb, replayTTL)
	publisher := storage.NewKafkaPublisher(kafkaWriter)

	baseURL := config.Getenv("PUBLIC_BASE_URL", "http://localhost:8080")
	qr := service.PairingQRGenerator{BaseURL: baseURL}

	dispatcher := service.NewCallbackDispatcher(
		&http.Client{},
		cache,
		config.Getenv("CALLBACK_SERVICE_TOKEN", ""),
	)

	handshakes := service.NewHandshakeService(repo, qr)
	intake := service.NewIntakeService(repo, cache, publisher)
	status := service.NewStatusService(repo, dispatcher, publisher, config.Getenv("APP_VERSION", "dev"))

	rateLimit, err := strconv.ParseInt(config.Getenv("RATE_LIMIT_PER_MINUTE", "120"), 10, 64)
	if err != nil {
		log.Fatal("[order-svc] invalid RATE_LIMIT_PER_MINUTE:", err)
	}
	limiter := httpapi.NewRateLimiter(cache, rateLimit, time.Minute)

	handler := httpapi.NewHandler(handshakes, intake, status, limiter)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	corsHandler := cors.Default().Handler(r)

	port := config.Getenv("PORT", "8080")
	log.Println("[order-svc] listening on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
