package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/pvsizer/pkg/geocode"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/optimizer"
	"github.com/raterudder/pvsizer/pkg/pvgis"
	"github.com/raterudder/pvsizer/pkg/server"
	"github.com/raterudder/pvsizer/pkg/storage"
)

func main() {
	// init packages
	o := optimizer.Configured()
	p := pvgis.Configured()
	g := geocode.Configured()
	s := storage.Configured("firestore")

	// init server
	srv := server.Configured(o, p, g, s)

	// parse flags
	lflag.Configure()
	log.Configure(os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
