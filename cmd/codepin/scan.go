package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codepin/internal/detect"
	"codepin/internal/errors"
	"codepin/internal/export"
	"codepin/internal/gitrepo"
	"codepin/internal/logging"
	"codepin/internal/proposal"
	"codepin/internal/store"
)

var (
	scanBase     string
	scanTarget   string
	scanFormat   string
	scanApply    bool
	scanExitCode bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan pins against a revision range",
	Long: `Compares every pin between two revisions and reports what happened to
each: unchanged, triggered, line_shift, structural, content, renamed,
moved, aggregate, missing, or ambiguous. Relocations come with a proposed
updated location; --apply accepts the proposals.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanBase, "base", "HEAD", "Baseline revision")
	scanCmd.Flags().StringVar(&scanTarget, "target", gitrepo.WorktreeRef, "Revision to compare against (defaults to the working tree)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "Report format: json or yaml (default from config)")
	scanCmd.Flags().BoolVar(&scanApply, "apply", false, "Apply proposed location updates to the pins")
	scanCmd.Flags().BoolVar(&scanExitCode, "exit-code", false, "Exit non-zero when any pin needs attention")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	repo, err := gitrepo.Open(repoFlag, logger)
	if err != nil {
		return err
	}
	st, err := store.Open(repoFlag, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListSubscriptions()
	if err != nil {
		return err
	}

	subs := make([]detect.Subscription, 0, len(records))
	for _, rec := range records {
		subs = append(subs, detect.Subscription{ID: rec.ID, Line: rec.Line, Semantic: rec.Semantic})
	}

	detector := detect.New(registry, repo, repo,
		detect.WithAnchorWindow(cfg.Detection.AnchorWindow),
		detect.WithLogger(logger),
	)
	result, err := detector.Scan(cmd.Context(), detect.ScanRequest{
		BaseRef:       scanBase,
		TargetRef:     scanTarget,
		Subscriptions: subs,
	})
	if err != nil {
		return err
	}

	proposal.Attach(result.Triggers)

	if _, err := st.RecordScan(result); err != nil {
		return err
	}

	if scanApply {
		if err := applyProposals(st, result, logger); err != nil {
			return err
		}
	}

	format := cfg.Report.Format
	if scanFormat != "" {
		format = scanFormat
	}
	report := export.BuildReport(result, time.Now())
	if err := export.WriteReport(os.Stdout, report, format); err != nil {
		return err
	}

	if scanExitCode && report.ActionRequired() {
		return errors.Newf(errors.ScanFailed, "pins need attention")
	}
	return nil
}

func applyProposals(st *store.Store, result *detect.ScanResult, logger *logging.Logger) error {
	applied := 0
	for i := range result.Triggers {
		trig := &result.Triggers[i]
		if trig.Proposal == nil || trig.SubscriptionID == "" {
			continue
		}
		if err := st.ApplyProposal(trig.SubscriptionID, trig.Proposal); err != nil {
			return err
		}
		applied++
	}
	if applied > 0 {
		logger.Info("proposals applied", map[string]interface{}{"count": applied})
		fmt.Fprintf(os.Stderr, "Applied %d proposal(s)\n", applied)
	}
	return nil
}
