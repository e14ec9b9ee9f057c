package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cardroom/blackjack-online/cmd/blackjackd/shared"
	"github.com/cardroom/blackjack-online/internal/client"
)

// PlayCmd connects to a server as an interactive terminal player
type PlayCmd struct {
	Server string `kong:"default='ws://localhost:8000',help='Server URL'"`
	Name   string `kong:"help='Player name (default: player-<pid>)'"`
	Debug  bool   `kong:"help='Log protocol traffic to stderr'"`
}

func (c *PlayCmd) Run() error {
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("player-%d", os.Getpid())
	}

	// The TUI owns the terminal, so logging stays off unless asked for.
	var logger *log.Logger
	if c.Debug {
		logger = shared.SetupLogger("debug")
	} else {
		logger = shared.SetupQuietLogger()
	}

	ctx := shared.SetupSignalHandler()

	cl := client.NewClient(c.Server, name, logger)
	return cl.Run(ctx)
}
