package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/internal/config"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("devserver failed")
	}
	log.Info().Msg("devserver stopped")
}

func run() error {
	c := config.New()
	displayAppname(c.GetAppName() + " Dev")

	addr := ":" + config.GetEnv("PORT", "8080")
	httpServer := &http.Server{Addr: addr, Handler: server.New(c)}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("devserver listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
