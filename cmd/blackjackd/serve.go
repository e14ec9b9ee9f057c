package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cardroom/blackjack-online/cmd/blackjackd/shared"
	"github.com/cardroom/blackjack-online/internal/server"
)

// ServeCmd contains server configuration. Flags override the config file.
type ServeCmd struct {
	Config        string `kong:"help='Path to HCL config file',type='path'"`
	Addr          string `kong:"help='Listen address override'"`
	Port          int    `kong:"help='Listen port override'"`
	Debug         bool   `kong:"help='Enable debug logging'"`
	Seed          *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	ResultDelayMs *int   `kong:"name='result-delay-ms',help='Pause before the continue prompt, in milliseconds'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if c.ResultDelayMs != nil {
		cfg.Game.ResultDelayMs = *c.ResultDelayMs
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel)

	opts := []server.ServerOption{
		server.WithResultDelay(time.Duration(cfg.Game.ResultDelayMs) * time.Millisecond),
		server.WithRebuildThreshold(cfg.Game.DeckRebuildThreshold),
	}
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		opts = append(opts, server.WithSeed(*c.Seed))
	}

	s := server.NewServer(logger, opts...)

	addr := cfg.ListenAddress()
	logger.Info("Starting blackjack server",
		"addr", addr,
		"result_delay_ms", cfg.Game.ResultDelayMs,
		"deck_rebuild_threshold", cfg.Game.DeckRebuildThreshold)

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
