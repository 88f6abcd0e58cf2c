package main

import (
	"log"
	"net/http"

	"orderbridge/api-gateway/internal/gateway"
	"orderbridge/config"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[api-gateway] no .env file, relying on environment")
	}

	cfg := gateway.Config{
		OrderSvcURL: config.Getenv("ORDER_SVC_URL", "http://localhost:8081"),
	}

	gw := gateway.NewGateway(cfg, &http.Client{})

	r := gw.SetupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	port := config.Getenv("PORT", "8080")
	log.Println("[api-gateway] listening on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
