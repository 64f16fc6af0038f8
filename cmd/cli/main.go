package main

import (
	"context"
	"log"

	"github.com/framezapp/framez/internal/client/cli"
	"github.com/framezapp/framez/internal/client/config"
)

func main() {

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(context.Background())
}
