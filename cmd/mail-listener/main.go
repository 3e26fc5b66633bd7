package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"placement/internal/config"
	"placement/internal/listener"
	"placement/internal/logging"
	"placement/internal/objectstore"
	"placement/internal/pipeline"
	"placement/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	log := logging.New(os.Stderr, cfg.LogLevel)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	sink, err := objectstore.NewS3Sink(cfg)
	must(err)

	uploads := pipeline.NewUploadService(sink, db, cfg, log)
	svc := listener.NewService(db, uploads, cfg, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
