package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codepin/internal/errors"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the constructs extracted from a file",
	Long: `Parses one file with the matching language backend and prints every
extracted construct with its kind, line range, and qualified name. Useful
for finding the exact qualname to pin.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	path := args[0]
	ix, err := registry.ForPath(path)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(filepath.Join(repoFlag, path)) // #nosec G304 -- user-supplied path
	if err != nil {
		return errors.New(errors.RevisionUnavailable, "reading "+path, err)
	}

	constructs, err := ix.IndexFile(cmd.Context(), source, path)
	if err != nil {
		return err
	}
	if len(constructs) == 0 {
		fmt.Printf("No constructs in %s\n", path)
		return nil
	}

	for i := range constructs {
		c := &constructs[i]
		fmt.Printf("%-9s %4d-%-4d %s", c.Kind, c.StartLine, c.EndLine, c.Qualname)
		if c.HasParseError {
			fmt.Print("  (parse error)")
		}
		fmt.Println()
	}
	return nil
}
