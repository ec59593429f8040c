package main

import (
	"log"

	"github.com/MrSnakeDoc/bookmarko/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ bookmarko failed: %v", err)
	}
}
