package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"mdtoc/internal/config"
	"mdtoc/internal/document"
	"mdtoc/internal/parser"
	"mdtoc/internal/render"
	"mdtoc/internal/report"
	"mdtoc/internal/storage"
	"mdtoc/internal/toc"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "mdtoc",
		Short: "Markdown section parser, table-of-contents builder and renderer",
	}
	dbPath     string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local document index (SQLite); defaults from config")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the config file")

	renderCmd.Flags().BoolVar(&renderNoTOC, "no-toc", false, "Render without the contents block")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write output to a file instead of stdout")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tocCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(lookupCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Index.DBPath = dbPath
	}
	return cfg
}

func initStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		log.Fatalf("Failed to open document index: %v", err)
	}
	return store
}

func parseFile(path string) (*document.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(string(raw))
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Parse files and report fence errors and anchor collisions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		rep := report.New("check")

		failed := 0
		for _, path := range args {
			stage := rep.BeginStage("check_" + filepath.Base(path))
			doc, err := parseFile(path)
			if err != nil {
				failed++
				rep.AddFileMetric(report.FileMetric{Path: path, ParseError: err.Error()})
				rep.AddSignal("parse_failed", "check", "critical", fmt.Sprintf("%s: %v", path, err), 0)
				rep.EndStage(stage, "error", nil, err)
				fmt.Printf("❌ %s: %v\n", path, err)
				continue
			}

			table := toc.Build(doc)
			for _, col := range table.Collisions {
				rep.AddSignal("anchor_collision", "check", "warning",
					fmt.Sprintf("%s: sections %d and %d both produce anchor %q; lookups resolve to the first",
						path, col.FirstIndex, col.DupIndex, col.Anchor), float64(col.DupIndex))
				fmt.Printf("⚠️  %s: duplicate anchor %q (%s)\n", path, col.Anchor, col.DupTitle)
			}

			rep.AddFileMetric(report.FileMetric{
				Path:       path,
				Sections:   len(doc.Sections),
				Blocks:     countBlocks(doc),
				Collisions: len(table.Collisions),
			})
			rep.EndStage(stage, "ok", map[string]float64{
				"sections":   float64(len(doc.Sections)),
				"collisions": float64(len(table.Collisions)),
			}, nil)
			fmt.Printf("✅ %s: %d sections, %d collisions\n", path, len(doc.Sections), len(table.Collisions))
		}

		if err := rep.Save(cfg.Report.Path); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("📄 Report written to %s\n", cfg.Report.Path)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

var tocCmd = &cobra.Command{
	Use:   "toc <file>",
	Short: "Print the table of contents for a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		doc, err := parseFile(args[0])
		if err != nil {
			log.Fatalf("Failed to parse %s: %v", args[0], err)
		}
		block := render.ContentsBlock(toc.Build(doc), cfg.Render.MaxTOCLevel)
		if block != "" {
			fmt.Println(block)
		}
	},
}

var (
	renderNoTOC bool
	renderOut   string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Re-render a file, optionally prepending the contents block",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		doc, err := parseFile(args[0])
		if err != nil {
			log.Fatalf("Failed to parse %s: %v", args[0], err)
		}

		opts := render.Options{
			IncludeTOC:  cfg.IncludeTOC() && !renderNoTOC,
			MaxTOCLevel: cfg.Render.MaxTOCLevel,
		}
		out := render.Render(doc, opts)

		if renderOut == "" {
			fmt.Print(out)
			return
		}
		if err := os.WriteFile(renderOut, []byte(out), 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", renderOut, err)
		}
		fmt.Printf("✅ Rendered %s -> %s\n", args[0], renderOut)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Parse markdown files under a directory into the local index",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		ctx := context.Background()
		indexed := 0
		skipped := 0
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".md") {
				return nil
			}
			doc, perr := parseFile(path)
			if perr != nil {
				skipped++
				fmt.Printf("⚠️  Skipping %s: %v\n", path, perr)
				return nil
			}
			if serr := store.SaveDocument(ctx, path, doc); serr != nil {
				return fmt.Errorf("failed to index %s: %w", path, serr)
			}
			indexed++
			return nil
		})
		if err != nil {
			log.Fatalf("Index failed: %v", err)
		}

		fmt.Printf("🎉 Indexed %d documents (%d skipped). Database: %s\n", indexed, skipped, cfg.Index.DBPath)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <anchor>",
	Short: "Resolve an anchor from the index (first occurrence wins)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		ref, err := store.FindSectionByAnchor(context.Background(), args[0])
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		fmt.Printf("%s: section %d %q (level %d, #%s)\n", ref.DocPath, ref.Order, ref.Title, ref.Level, ref.Anchor)
	},
}

func countBlocks(doc *document.Document) int {
	n := len(doc.Preamble)
	for _, s := range doc.Sections {
		n += len(s.Blocks)
	}
	return n
}
