package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <account-token>",
		Short: "Credit a paid bundle to an account",
		Long: `grant confirms a payment for the given account token, the same call
the payment bot makes. Requires the bot token (--bot-token or
SNAKEARENA_BOT_TOKEN).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.BotToken == "" {
				return errors.New("bot token required (--bot-token or SNAKEARENA_BOT_TOKEN)")
			}

			var result GrantResult
			body := map[string]string{"token": args[0]}
			if err := client.Post("/api/v1/payments/confirm", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
