package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case SoloLeaderboardResult:
		o.printSoloLeaderboard(v)
	case GrantResult:
		o.printGrantResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// LeaderboardEntry is one multiplayer round on the board
type LeaderboardEntry struct {
	IDs      []string  `json:"ids"`
	Names    []string  `json:"names"`
	Score    int       `json:"score"`
	Recorded time.Time `json:"recorded"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// SoloEntry is one solo score on the board
type SoloEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SoloLeaderboardResult response type
type SoloLeaderboardResult struct {
	Leaderboard []SoloEntry `json:"leaderboard"`
}

// GrantResult response type
type GrantResult struct {
	Credits int `json:"credits"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	if len(l.Leaderboard) == 0 {
		fmt.Println("No rounds recorded")
		return
	}
	fmt.Printf("Rounds (%d):\n", len(l.Leaderboard))
	for i, e := range l.Leaderboard {
		fmt.Printf("  %2d. %d pts - %s (%s)\n",
			i+1, e.Score, strings.Join(e.Names, ", "), e.Recorded.Format("2006-01-02 15:04"))
	}
}

func (o *Output) printSoloLeaderboard(l SoloLeaderboardResult) {
	if len(l.Leaderboard) == 0 {
		fmt.Println("No scores submitted")
		return
	}
	fmt.Printf("Scores (%d):\n", len(l.Leaderboard))
	for i, e := range l.Leaderboard {
		fmt.Printf("  %2d. %d pts - %s\n", i+1, e.Score, e.Name)
	}
}

func (o *Output) printGrantResult(g GrantResult) {
	fmt.Printf("Balance: %d credits\n", g.Credits)
}
