// Package cli implements snakectl, the operator tool for the arena server.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "snakectl",
		Short: "CLI tool for the snake arena server",
		Long: `snakectl talks to the snake arena server API.

It covers the operator surface: health checks, leaderboard inspection,
credit grants on behalf of the payment bot, and live spectating of the
arena over the websocket feed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL, cfg.BotToken)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SNAKEARENA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.BotToken, "bot-token", cfg.BotToken, "Payment bot token (env: SNAKEARENA_BOT_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newGrantCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
