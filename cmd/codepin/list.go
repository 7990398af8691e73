package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codepin/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active pins",
	RunE:  runList,
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Remove a pin",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpin,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(unpinCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(repoFlag, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListSubscriptions()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No pins.")
		return nil
	}

	for _, rec := range records {
		switch {
		case rec.Line != nil:
			fmt.Printf("%s  lines     %s:%d-%d", rec.ID, rec.Line.Path, rec.Line.StartLine, rec.Line.EndLine)
		case rec.Semantic != nil:
			fmt.Printf("%s  %-9s %s %s", rec.ID, rec.Semantic.Kind, rec.Semantic.Path, rec.Semantic.Qualname)
			if rec.Semantic.IncludeMembers {
				fmt.Print(" (+members)")
			}
		}
		if rec.Note != "" {
			fmt.Printf("  # %s", rec.Note)
		}
		fmt.Println()
	}
	return nil
}

func runUnpin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(repoFlag, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSubscription(args[0]); err != nil {
		return err
	}
	fmt.Printf("Unpinned %s\n", args[0])
	return nil
}
