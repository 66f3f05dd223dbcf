package main

import (
	"log"

	"github.com/MrSnakeDoc/jobwatch/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ jobwatch failed: %v", err)
	}
}
