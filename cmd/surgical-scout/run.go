// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/surgical-scout/internal/caselist"
	"github.com/pdiddy/surgical-scout/internal/dispatch"
	"github.com/pdiddy/surgical-scout/internal/extract"
	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/internal/pipeline"
	"github.com/pdiddy/surgical-scout/internal/resolve"
	"github.com/pdiddy/surgical-scout/internal/search"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full monitoring pipeline and email the digest",
	Long: `Run processes every procedure in the case list: searches PubMed, resolves
full text through the tier chain, extracts clinical pearls, renders the HTML
digest, and emails it. Per-procedure failures degrade to empty sections; the
run fails only on missing configuration or delivery exhaustion.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "render the digest and report without sending email")
	runCmd.Flags().String("case-list", "", "procedure list file (overrides config)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := buildConfig()
	if path, _ := cmd.Flags().GetString("case-list"); path != "" {
		cfg.CaseList = path
	}
	if err := validateRunConfig(cfg, dryRun); err != nil {
		return err
	}

	procedures, err := caselist.Load(cfg.CaseList)
	if err != nil {
		return fmt.Errorf("loading case list: %w", err)
	}

	log := logging.New(cfg.LogDir, verbose)
	defer log.Close()

	var session resolve.SessionSource
	if cfg.Resolve.EnableSession && cfg.Resolve.CookieFile != "" {
		session = resolve.NewCookieFile(cfg.Resolve.CookieFile)
	}

	backend := &extract.ClaudeBackend{
		APIKey: cfg.Extraction.APIKey,
		Client: &http.Client{Timeout: 2 * time.Minute},
	}

	p := pipeline.New(
		search.NewClient(cfg.Search),
		resolve.New(cfg.Resolve, session, log),
		extract.New(backend, cfg.Extraction),
		dispatch.New(cfg.Dispatch, log),
		cfg,
		log,
	)

	res, err := p.Run(cmd.Context(), procedures, dryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Digest: %s\n", res.HTMLPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", res.ReportPath)
	if res.Dispatched {
		fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d pearls from %d articles across %d procedures\n",
			res.Digest.PearlCount(), res.Digest.ArticleCount(), len(res.Digest.Sections))
	}
	return nil
}
