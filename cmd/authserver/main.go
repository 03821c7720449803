package main

import (
	"context"
	"log"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/config"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/googleauth"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	exchanger := googleauth.NewExchanger(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	app, err := server.NewApp(cfg, exchanger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
