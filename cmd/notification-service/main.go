package main

import (
	"log"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/notify/app"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := app.Run(); err != nil {
		log.Fatalf("notification service failed: %v", err)
	}
}
