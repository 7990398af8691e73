package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"codepin/internal/manifest"
	"codepin/internal/store"
)

var syncPrune bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync pins from the committed manifest",
	Long: `Reads .codepin/pins.toml and creates a subscription for every declared
pin that does not exist yet, capturing baselines from the working tree.
Manifest ids become subscription ids, so the manifest stays the source of
truth across clones.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncPrune, "prune", false, "Remove pins no longer declared in the manifest")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	m, err := manifest.Load(filepath.Join(repoFlag, manifest.DefaultPath))
	if err != nil {
		return err
	}

	st, err := store.Open(repoFlag, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	existing, err := st.ListSubscriptions()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, rec := range existing {
		known[rec.ID] = true
	}

	declared := make(map[string]bool, len(m.Pins))
	created := 0
	for i := range m.Pins {
		pin := &m.Pins[i]
		declared[pin.ID] = true
		if known[pin.ID] {
			continue
		}

		rec := &store.Record{ID: pin.ID, Note: pin.Note}
		if pin.Line != nil {
			rec.Line = pin.Line.Target()
		} else {
			rec.Semantic = pin.Semantic.Target()
			if err := captureBaseline(registry, rec.Semantic); err != nil {
				return fmt.Errorf("pin %q: %w", pin.ID, err)
			}
		}
		if err := st.CreateSubscription(rec); err != nil {
			return fmt.Errorf("pin %q: %w", pin.ID, err)
		}
		created++
	}

	pruned := 0
	if syncPrune {
		for _, rec := range existing {
			if !declared[rec.ID] {
				if err := st.DeleteSubscription(rec.ID); err != nil {
					return err
				}
				pruned++
			}
		}
	}

	fmt.Printf("Sync complete: %d created, %d pruned, %d declared\n", created, pruned, len(m.Pins))
	return nil
}
