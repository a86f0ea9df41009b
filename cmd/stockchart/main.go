package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stockchart/config"
	"stockchart/internal/app"
	"stockchart/logger"

	"go.uber.org/zap"

	_ "time/tzdata"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run engine until interrupted
	if err := app.Run(ctx, cfg, log); err != nil {
		log.Fatal("stockchart failed", zap.Error(err))
	}
}
