package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/internal/persistence"
	"github.com/gcbaptista/doc-search-index/internal/search"
)

func newQueryCmd() *cobra.Command {
	var bundlePath string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a bundle without starting a server",
		Long: `Query a bundle without starting a server.

Examples:
  docsearch query suggest Te --bundle index.gob
  docsearch query lookup health --bundle index.gob
  docsearch query describe Classes/ABuilding.html --bundle index.gob`,
	}

	cmd.PersistentFlags().StringVarP(&bundlePath, "bundle", "b", "", "Bundle to query (.json, .gob)")
	_ = cmd.MarkPersistentFlagRequired("bundle")

	var limit int
	suggestCmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "List entity names starting with prefix, ignoring case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openBundle(bundlePath)
			if err != nil {
				return err
			}
			suggestions := svc.Suggest(args[0])
			if limit > 0 && len(suggestions) > limit {
				suggestions = suggestions[:limit]
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	suggestCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of suggestions (0 for all)")

	lookupCmd := &cobra.Command{
		Use:   "lookup <token>",
		Short: "Show the exact and partial matches of a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openBundle(bundlePath)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), svc.Lookup(args[0]))
		},
	}

	describeCmd := &cobra.Command{
		Use:   "describe <path>",
		Short: "Show the display record of a documentation path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openBundle(bundlePath)
			if err != nil {
				return err
			}
			info, ok := svc.Describe(args[0])
			if !ok {
				return errors.NewPathNotFoundError(args[0])
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}

	cmd.AddCommand(suggestCmd, lookupCmd, describeCmd)
	return cmd
}

// openBundle loads the bundle at path into a query service.
func openBundle(path string) (*search.Service, error) {
	bundle, err := persistence.LoadBundle(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	idx, err := bundle.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to restore index from bundle %s: %w", path, err)
	}
	return search.NewService(idx, search.Options{SuggestCacheSize: -1})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
