package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codepin/internal/export"
)

var (
	exportOut      string
	exportCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a SCIP index of the repository's constructs",
	Long: `Walks the working tree, extracts constructs from every supported file,
and writes a SCIP index for code-navigation tooling. The output path and
compression default come from the config's export section.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output path (default from config)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "zstd-compress the index")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(repoFlag)
	if err != nil {
		return err
	}

	var docs []export.Document
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}

		ix, err := registry.ForPath(path)
		if err != nil {
			return nil // unsupported extension
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		source, err := os.ReadFile(path) // #nosec G304 -- path from the walked repo
		if err != nil {
			return err
		}
		constructs, err := ix.IndexFile(cmd.Context(), source, rel)
		if err != nil {
			logger.Warn("skipping unparseable file", map[string]interface{}{
				"path":  rel,
				"error": err.Error(),
			})
			return nil
		}

		docs = append(docs, export.Document{
			Path:       rel,
			Language:   ix.Language(),
			Constructs: constructs,
		})
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	out := cfg.Export.Path
	if exportOut != "" {
		out = exportOut
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}
	compress := exportCompress || cfg.Export.Compress

	index := export.BuildIndex(root, docs)
	written, err := export.WriteIndex(index, out, compress)
	if err != nil {
		return err
	}

	total := 0
	for _, doc := range docs {
		total += len(doc.Constructs)
	}
	fmt.Printf("Exported %d constructs from %d files to %s\n", total, len(docs), written)
	return nil
}
