package main

import (
	"log"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/app"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := app.Run(); err != nil {
		log.Fatalf("order service failed: %v", err)
	}
}
