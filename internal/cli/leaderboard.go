package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var limit int
	var solo bool

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the arena leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if solo {
				var result SoloLeaderboardResult
				if err := client.Get("/api/v1/leaderboard/solo", &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			path := "/api/v1/leaderboard"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			var result LeaderboardResult
			if err := client.Get(path, &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum rows to fetch")
	cmd.Flags().BoolVar(&solo, "solo", false, "Show the solo board instead of multiplayer rounds")

	return cmd
}
