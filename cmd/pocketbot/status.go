package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	pocketbot "github.com/jojo-swe/pocketbot-go"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentGetCmd)
	agentCmd.AddCommand(agentSetCmd)
	rootCmd.AddCommand(rotateCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		info, err := client.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Status:      %s\n", info.Status)
		fmt.Printf("Version:     %s\n", info.Version)
		fmt.Printf("Model:       %s\n", info.Model)
		fmt.Printf("Uptime:      %s\n", (time.Duration(info.UptimeSeconds) * time.Second).String())
		fmt.Printf("Connections: %d\n", info.Connections)
		fmt.Printf("Listening:   %s:%d\n", info.Host, info.Port)
		fmt.Printf("Auth:        %v\n", info.AuthEnabled)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check whether the server is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		client := getClient()
		if client.Probe(context.Background()) {
			fmt.Println("Server is reachable.")
			return
		}
		fmt.Fprintln(os.Stderr, "Server is not reachable.")
		os.Exit(1)
	},
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Read or update the remote agent configuration",
}

var agentGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the agent configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cfg, err := client.GetConfig(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("model:               %s\n", cfg.Model)
		fmt.Printf("max_tokens:          %d\n", cfg.MaxTokens)
		fmt.Printf("temperature:         %g\n", cfg.Temperature)
		fmt.Printf("memory_window:       %d\n", cfg.MemoryWindow)
		fmt.Printf("max_tool_iterations: %d\n", cfg.MaxToolIterations)
		fmt.Printf("workspace:           %s\n", cfg.Workspace)
		return nil
	},
}

var agentSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update agent configuration fields",
	Long:  "Update agent configuration fields via flags.\nExample: pocketbot agent set --model openai/gpt-4o --temperature 0.5",
	RunE: func(cmd *cobra.Command, args []string) error {
		var update pocketbot.ConfigUpdate
		if cmd.Flags().Changed("model") {
			v, _ := cmd.Flags().GetString("model")
			update.Model = &v
		}
		if cmd.Flags().Changed("max-tokens") {
			v, _ := cmd.Flags().GetInt("max-tokens")
			update.MaxTokens = &v
		}
		if cmd.Flags().Changed("temperature") {
			v, _ := cmd.Flags().GetFloat64("temperature")
			update.Temperature = &v
		}
		if cmd.Flags().Changed("memory-window") {
			v, _ := cmd.Flags().GetInt("memory-window")
			update.MemoryWindow = &v
		}
		if cmd.Flags().Changed("max-tool-iterations") {
			v, _ := cmd.Flags().GetInt("max-tool-iterations")
			update.MaxToolIterations = &v
		}

		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := client.UpdateConfig(ctx, update)
		if err != nil {
			return err
		}
		for k, v := range result.Updated {
			fmt.Printf("updated %s = %v\n", k, v)
		}
		for k, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "rejected %s: %s\n", k, msg)
		}
		return nil
	},
}

var rotateCmd = &cobra.Command{
	Use:   "rotate-token",
	Short: "Rotate the server access token and store the new one",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := client.RotateToken(ctx)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Server.Token = token
		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Token rotated and saved.")
		return nil
	},
}

func init() {
	agentSetCmd.Flags().String("model", "", "model identifier")
	agentSetCmd.Flags().Int("max-tokens", 0, "maximum response tokens")
	agentSetCmd.Flags().Float64("temperature", 0, "sampling temperature")
	agentSetCmd.Flags().Int("memory-window", 0, "conversation memory window")
	agentSetCmd.Flags().Int("max-tool-iterations", 0, "tool-call iteration limit")
}
