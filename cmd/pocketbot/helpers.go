package main

import (
	"fmt"
	"os"

	pocketbot "github.com/jojo-swe/pocketbot-go"
)

// getClient creates an HTTP client from the stored server settings.
func getClient() *pocketbot.Client {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Server.Address == "" {
		fmt.Fprintln(os.Stderr, "No server address. Run 'pocketbot config set server.address <url>' first.")
		os.Exit(1)
	}
	return pocketbot.NewClient(cfg.Server.Address, cfg.Server.Token)
}

// getServer returns the stored server connection for the chat client.
func getServer() pocketbot.ServerConnection {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Server.Address == "" {
		fmt.Fprintln(os.Stderr, "No server address. Run 'pocketbot config set server.address <url>' first.")
		os.Exit(1)
	}
	return pocketbot.ServerConnection{Address: cfg.Server.Address, Token: cfg.Server.Token}
}
