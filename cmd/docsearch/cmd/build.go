package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/doc-search-index/internal/catalog"
	"github.com/gcbaptista/doc-search-index/internal/engine"
)

// buildOptions holds CLI flags for build.
type buildOptions struct {
	catalogPath  string
	outPath      string
	deriveTokens bool
	unescape     bool
	strict       bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an index bundle from an entity catalog",
		Long: `Build an index bundle from an entity catalog.

The catalog is a JSON or YAML list of entities. The bundle format follows
the output extension: .json for the search box, .gob for docsearch itself.

Examples:
  docsearch build --catalog entities.json --out site/search-index.json
  docsearch build --catalog entities.yaml --out index.gob --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.catalogPath, "catalog", "c", "", "Entity catalog (.json, .yaml, .yml)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Bundle to write (.json, .gob)")
	cmd.Flags().BoolVar(&opts.deriveTokens, "derive-tokens", true, "Derive partial tokens for entities that have none")
	cmd.Flags().BoolVar(&opts.unescape, "unescape", true, "Unescape HTML entities in descriptions")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first malformed entity instead of skipping it")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	eng := engine.NewEngine(engine.Options{
		CatalogPath: opts.catalogPath,
		Catalog: catalog.Options{
			DerivePartialTokens:  opts.deriveTokens,
			UnescapeDescriptions: opts.unescape,
		},
		Strict:           opts.strict,
		SuggestCacheSize: -1,
	})
	defer eng.Close()

	report, err := eng.RebuildFromCatalog(cmd.Context())
	if err != nil {
		return err
	}
	if err := eng.SaveBundle(opts.outPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d entities (%d skipped) into %s\n", report.Ingested, report.Rejected, opts.outPath)
	fmt.Fprintf(out, "  words: %d  tokens: %d  paths: %d\n", report.Stats.Words, report.Stats.Tokens, report.Stats.Paths)
	for _, rejection := range report.Rejections {
		fmt.Fprintf(out, "  skipped %s\n", rejection)
	}
	return nil
}
