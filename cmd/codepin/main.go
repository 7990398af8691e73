package main

import (
	"os"

	"codepin/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{Format: "human", Level: "info", Output: os.Stderr})
		logger.Error("command failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
