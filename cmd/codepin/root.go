package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codepin/internal/config"
	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/lang"
	"codepin/internal/lang/java"
	"codepin/internal/lang/python"
	"codepin/internal/logging"
	"codepin/internal/target"
	"codepin/internal/version"
)

var (
	repoFlag      string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "codepin",
	Short: "codepin - code location subscriptions",
	Long: `codepin watches pinned code locations across revisions. Pin a line range
or a named construct (function, class, method, field); scans classify what
happened to each pin - edited, shifted, renamed, moved, or gone - and
propose updated locations instead of silently drifting.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("codepin version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: human or json")
}

// loadConfig reads the repo config and applies CLI logging overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(repoFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
		Output: os.Stderr,
	})
}

// buildRegistry assembles the indexer registry from the enabled languages
func buildRegistry(cfg *config.Config) (*lang.Registry, error) {
	var indexers []lang.Indexer
	for _, tag := range cfg.Languages.Enabled {
		switch tag {
		case "python":
			indexers = append(indexers, python.New())
		case "java":
			indexers = append(indexers, java.New())
		default:
			return nil, errors.Newf(errors.UnsupportedLanguage, "unknown language %q in config", tag)
		}
	}
	return lang.NewRegistry(indexers...), nil
}

// captureBaseline fills a semantic target's fingerprints (and member
// fingerprints for containers) by indexing the file as it is on disk
func captureBaseline(registry *lang.Registry, sem *target.SemanticTarget) error {
	ix, err := registry.ForPath(sem.Path)
	if err != nil {
		return err
	}
	if sem.Language == "" {
		sem.Language = ix.Language()
	}

	source, err := os.ReadFile(filepath.Join(repoFlag, sem.Path)) // #nosec G304 -- user-supplied pin path
	if err != nil {
		return errors.New(errors.RevisionUnavailable, "reading "+sem.Path, err)
	}

	constructs, err := ix.IndexFile(rootCmd.Context(), source, sem.Path)
	if err != nil {
		return err
	}
	found, err := lang.Find(constructs, sem.Qualname, sem.Kind)
	if err != nil {
		return err
	}
	if found == nil {
		return errors.Newf(errors.InvalidTarget, "%q not found in %s", sem.Qualname, sem.Path)
	}
	if sem.IncludeMembers && !lang.SupportsMembers(ix, found.Kind) {
		return errors.Newf(errors.InvalidTarget,
			"%s %q cannot track members in %s", found.Kind, sem.Qualname, ix.Language())
	}

	sem.Kind = found.Kind
	sem.Qualname = found.Qualname
	sem.InterfaceHash = found.InterfaceHash
	sem.BodyHash = found.BodyHash

	if sem.IncludeMembers {
		sem.BaselineContainerQualname = found.Qualname
		sem.BaselineMembers = make(map[string]construct.MemberFingerprint)
		for _, m := range lang.DirectMembers(constructs, found.Qualname) {
			if !sem.IncludePrivate && m.Private {
				continue
			}
			fp := construct.FingerprintOf(m, found.Qualname)
			sem.BaselineMembers[fp.Qualname] = fp
		}
	}
	return nil
}
