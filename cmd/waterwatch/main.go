package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/waterwatch/internal/buildinfo"
	"github.com/dmitrijs2005/waterwatch/internal/cli"
	"github.com/dmitrijs2005/waterwatch/internal/config"
	"github.com/dmitrijs2005/waterwatch/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	app.Run(ctx)

}
