// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surgical-scout/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [procedure]",
	Short: "Search PubMed for a single procedure",
	Long: `Search runs one PubMed query for the given procedure and prints the
matching articles. Useful for tuning the journal list and lookback window
before a full run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum articles to return (overrides config)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	procedure := args[0]

	cfg := buildConfig()
	if cfg.Search.Email == "" {
		return fmt.Errorf("missing configuration: [search.email (or .secrets/pubmed-email)]")
	}
	if max, _ := cmd.Flags().GetInt("max-results"); max > 0 {
		cfg.Search.MaxResults = max
	}

	client := search.NewClient(cfg.Search)
	articles, err := client.Search(cmd.Context(), procedure, cfg.Search)
	if err != nil {
		return fmt.Errorf("searching for %q: %w", procedure, err)
	}

	out := cmd.OutOrStdout()
	if len(articles) == 0 {
		fmt.Fprintf(out, "No recent articles found for %q\n", procedure)
		return nil
	}

	fmt.Fprintf(out, "Found %d articles for %q:\n\n", len(articles), procedure)
	for i, a := range articles {
		fmt.Fprintf(out, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(out, "   %s\n", a.Authors)
		fmt.Fprintf(out, "   %s, %s\n", a.Journal, a.Date)
		fmt.Fprintf(out, "   %s\n", a.PubMedURL())
		abstract := a.Abstract
		if len(abstract) > 200 {
			abstract = abstract[:200] + "..."
		}
		fmt.Fprintf(out, "   %s\n\n", strings.ReplaceAll(abstract, "\n", " "))
	}
	return nil
}
