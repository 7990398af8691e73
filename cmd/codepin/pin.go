package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/store"
	"codepin/internal/target"
)

var (
	pinKind       string
	pinMembers    bool
	pinPrivate    bool
	pinDecorators bool
	pinNote       string
)

var pinCmd = &cobra.Command{
	Use:   "pin <file> <qualname>",
	Short: "Pin a named construct",
	Long: `Pins a function, class, method, field, or variable by qualified name.
The construct's current fingerprints become the subscription baseline.

Java overloads are disambiguated with a parameter-type list, e.g.
'Order.total(int,String)'; a bare name works while it is unambiguous.`,
	Args: cobra.ExactArgs(2),
	RunE: runPin,
}

var pinLinesCmd = &cobra.Command{
	Use:   "pin-lines <file> <start> <end>",
	Short: "Pin a line range",
	Long: `Pins an inclusive 1-based line range of any file. The range's current
lines are captured as anchors and used to validate inferred shifts.`,
	Args: cobra.ExactArgs(3),
	RunE: runPinLines,
}

func init() {
	pinCmd.Flags().StringVar(&pinKind, "kind", "", "Construct kind: function, method, class, interface, enum, field, variable")
	pinCmd.Flags().BoolVar(&pinMembers, "members", false, "Track the container's direct members")
	pinCmd.Flags().BoolVar(&pinPrivate, "private", false, "Include conventionally-private members")
	pinCmd.Flags().BoolVar(&pinDecorators, "decorators", true, "Track decorator/annotation changes")
	pinCmd.Flags().StringVar(&pinNote, "note", "", "Free-form note stored with the pin")
	pinLinesCmd.Flags().StringVar(&pinNote, "note", "", "Free-form note stored with the pin")
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(pinLinesCmd)
}

func runPin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	sem := &target.SemanticTarget{
		Path:            args[0],
		Qualname:        args[1],
		Kind:            construct.Kind(pinKind),
		IncludeMembers:  pinMembers,
		IncludePrivate:  pinPrivate || cfg.Detection.IncludePrivate,
		TrackDecorators: pinDecorators && cfg.Detection.TrackDecorators,
	}
	if err := captureBaseline(registry, sem); err != nil {
		return err
	}

	st, err := store.Open(repoFlag, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &store.Record{Note: pinNote, Semantic: sem}
	if err := st.CreateSubscription(rec); err != nil {
		return err
	}

	fmt.Printf("Pinned %s %s in %s\n", sem.Kind, sem.Qualname, sem.Path)
	fmt.Printf("Subscription id: %s\n", rec.ID)
	return nil
}

func runPinLines(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Newf(errors.InvalidTarget, "start line %q is not a number", args[1])
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return errors.Newf(errors.InvalidTarget, "end line %q is not a number", args[2])
	}

	lt := &target.LineTarget{Path: args[0], StartLine: start, EndLine: end}
	if err := target.ValidateLine(lt); err != nil {
		return err
	}

	lt.Anchors, err = captureAnchors(lt)
	if err != nil {
		return err
	}

	st, err := store.Open(repoFlag, newLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &store.Record{Note: pinNote, Line: lt}
	if err := st.CreateSubscription(rec); err != nil {
		return err
	}

	fmt.Printf("Pinned %s:%d-%d\n", lt.Path, lt.StartLine, lt.EndLine)
	fmt.Printf("Subscription id: %s\n", rec.ID)
	return nil
}

// captureAnchors records the pinned range's current lines verbatim
func captureAnchors(lt *target.LineTarget) ([]string, error) {
	source, err := os.ReadFile(filepath.Join(repoFlag, lt.Path)) // #nosec G304 -- user-supplied pin path
	if err != nil {
		return nil, errors.New(errors.RevisionUnavailable, "reading "+lt.Path, err)
	}

	lines := strings.Split(string(source), "\n")
	if lt.EndLine > len(lines) {
		return nil, errors.Newf(errors.InvalidTarget,
			"end line %d is past the end of %s (%d lines)", lt.EndLine, lt.Path, len(lines))
	}
	return lines[lt.StartLine-1 : lt.EndLine], nil
}
