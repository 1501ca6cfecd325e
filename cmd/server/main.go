package main

import (
	"context"
	"log"

	"github.com/dominiquedave/Time-Financial/internal/server"
	"github.com/dominiquedave/Time-Financial/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		return
	}

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
