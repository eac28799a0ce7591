package main

import (
	"log"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/email/app"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := app.Run(); err != nil {
		log.Fatalf("email service failed: %v", err)
	}
}
