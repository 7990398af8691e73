package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codepin/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize codepin in this repository",
	Long:  "Creates a .codepin/ directory with default configuration under the repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Reinitialize, replacing existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := filepath.Join(repoFlag, ".codepin")
	configPath := filepath.Join(dir, "config.json")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		// Already initialized is success, so init stays idempotent in CI
		fmt.Println("codepin already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		return nil
	}

	cfg := config.Default()
	if err := cfg.Save(repoFlag); err != nil {
		return err
	}

	fmt.Printf("Initialized codepin in %s\n", dir)
	return nil
}
