package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// watchState mirrors the broadcast world snapshot.
type watchState struct {
	Type  string `json:"type"`
	Snake struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Length int `json:"length"`
	} `json:"snake"`
	Sessions []struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
		X     int    `json:"x"`
		Y     int    `json:"y"`
	} `json:"sessions"`
	Score int `json:"score"`
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Spectate the arena over the websocket feed",
		Long: `watch connects to the server's websocket endpoint without joining
the arena and prints world snapshots as they arrive. Interrupt to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := websocket.DefaultDialer.Dial(client.WebsocketURL(), nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			frames := make(chan []byte)
			errs := make(chan error, 1)
			go func() {
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						errs <- err
						return
					}
					frames <- data
				}
			}()

			last := time.Time{}
			for {
				select {
				case <-interrupt:
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				case err := <-errs:
					return fmt.Errorf("connection lost: %w", err)
				case data := <-frames:
					var state watchState
					if err := json.Unmarshal(data, &state); err != nil || state.Type != "state" {
						continue
					}
					if time.Since(last) < interval {
						continue
					}
					last = time.Now()
					printWatchState(state)
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Minimum time between printed snapshots")

	return cmd
}

func printWatchState(state watchState) {
	players := make([]string, len(state.Sessions))
	for i, s := range state.Sessions {
		players[i] = fmt.Sprintf("%s %s (%d,%d)", s.Emoji, s.Name, s.X, s.Y)
	}
	line := fmt.Sprintf("score=%d snake=(%d,%d) len=%d players=%d",
		state.Score, state.Snake.X, state.Snake.Y, state.Snake.Length, len(state.Sessions))
	if len(players) > 0 {
		line += " [" + strings.Join(players, ", ") + "]"
	}
	fmt.Println(line)
}
