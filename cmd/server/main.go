package main

import (
	"currency-widget/internal/app"
	"currency-widget/internal/config"
	"log"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)

	log.Println("Starting currency widget on http://" + cfg.Server.Addr())
	if err := application.Run(); err != nil {
		log.Fatalf("Failed: %v", err)
	}
	log.Println("Stopped")
}
