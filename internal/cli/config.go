package cli

import "os"

// Config holds CLI configuration
type Config struct {
	ServerURL string
	BotToken  string
	Output    string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("SNAKEARENA_SERVER", "http://localhost:8080"),
		BotToken:  os.Getenv("SNAKEARENA_BOT_TOKEN"),
		Output:    "text",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
