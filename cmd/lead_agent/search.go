package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/jonathan/lead-scraper/internal/config"
	"github.com/jonathan/lead-scraper/internal/db"
	"github.com/jonathan/lead-scraper/internal/observability"
	"github.com/jonathan/lead-scraper/internal/types"
	"github.com/spf13/cobra"
)

var searchCommand = &cobra.Command{
	Use:   "search",
	Short: "Search for business leads and print them as JSON",
	Long: `Runs one search: backend query -> candidate filtering -> site visits -> extraction -> aggregation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values,
which override the environment.`,
	RunE: runSearchCmd,
}

var (
	searchConfigPath string
	searchQuery      string
	searchLocation   string
	searchPlatform   string
	searchMethod     string
	searchPage       int
	searchWorkers    int
	searchOut        string
	searchVerbose    bool
	searchUseBrowser bool
	searchPersist    bool
)

func init() {
	searchCommand.Flags().StringVar(&searchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	searchCommand.Flags().StringVarP(&searchQuery, "query", "q", "", "Business type or keyword, e.g. \"plumbers\"")
	searchCommand.Flags().StringVarP(&searchLocation, "location", "l", "", "City or region, e.g. \"Austin, TX\"")
	searchCommand.Flags().StringVarP(&searchPlatform, "platform", "p", string(types.PlatformGoogle), "google, yellowpages, linkedin, facebook or instagram")
	searchCommand.Flags().StringVarP(&searchMethod, "method", "m", string(types.MethodAPI), "Web engine for google and social platforms: api or ddg")
	searchCommand.Flags().IntVar(&searchPage, "page", 1, "Directory result page")
	searchCommand.Flags().IntVarP(&searchWorkers, "workers", "w", 0, "Visit pool size (default depends on the backend)")
	searchCommand.Flags().StringVarP(&searchOut, "out", "o", "", "Write JSON to this file instead of stdout")
	searchCommand.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print detailed debug information")
	searchCommand.Flags().BoolVar(&searchUseBrowser, "use-browser", false, "Render script-heavy sites with a headless browser (requires Chrome)")
	searchCommand.Flags().BoolVar(&searchPersist, "persist", false, "Save the run and its leads to DATABASE_URL")

	_ = searchCommand.MarkFlagRequired("query")
	_ = searchCommand.MarkFlagRequired("location")

	rootCmd.AddCommand(searchCommand)
}

// searchOutput is the JSON document the command writes.
type searchOutput struct {
	RunID string `json:"run_id,omitempty"`
	*types.SearchResponse
}

func runSearchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := resolveConfig(searchConfigPath, searchVerbose)
	if err != nil {
		return err
	}
	applySearchFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	req := types.SearchRequest{
		Query:        searchQuery,
		Location:     searchLocation,
		Platform:     types.Platform(searchPlatform),
		SearchMethod: types.SearchMethod(searchMethod),
		Page:         searchPage,
	}

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := engine.Search(ctx, req)
	if err != nil {
		return err
	}

	out := searchOutput{SearchResponse: resp}
	if searchPersist {
		runID, err := persistRun(ctx, cfg.DatabaseURL, req, resp.Leads)
		if err != nil {
			return err
		}
		out.RunID = runID.String()
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintLeads(resp.Leads)
		printer.PrintSummary(resp)
	}

	if searchOut == "" {
		return writeOutput(os.Stdout, out)
	}
	f, err := os.Create(searchOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	if err := writeOutput(f, out); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "Wrote %d leads to %s\n", len(resp.Leads), searchOut)
	return nil
}

// applySearchFlags overrides config values with explicitly set flags.
func applySearchFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = searchWorkers
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = searchUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = searchVerbose
	}
}

func writeOutput(w io.Writer, out searchOutput) error {
	if out.SearchResponse == nil {
		out.SearchResponse = &types.SearchResponse{}
	}
	if out.Leads == nil {
		out.Leads = []types.Lead{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write leads: %w", err)
	}
	return nil
}

func persistRun(ctx context.Context, databaseURL string, req types.SearchRequest, leads []types.Lead) (uuid.UUID, error) {
	if databaseURL == "" {
		return uuid.Nil, fmt.Errorf("--persist requires DATABASE_URL or database_url in the config file")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return uuid.Nil, err
	}
	req.Normalize()
	runID, err := database.CreateSearchRun(ctx, req)
	if err != nil {
		return uuid.Nil, err
	}
	if err := database.SaveLeads(ctx, runID, leads); err != nil {
		_ = database.CompleteRun(ctx, runID, db.RunStatusFailed, 0)
		return uuid.Nil, err
	}
	if err := database.CompleteRun(ctx, runID, db.RunStatusCompleted, len(leads)); err != nil {
		return uuid.Nil, err
	}
	return runID, nil
}
