package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/map-harvest/harvest/internal/browser"
	"github.com/map-harvest/harvest/internal/config"
	"github.com/map-harvest/harvest/internal/output"
	"github.com/map-harvest/harvest/internal/scrape"
)

var (
	flagQuery       string
	flagCount       int
	flagHeadless    bool
	flagChromePath  string
	flagUserAgent   string
	flagOutputDir   string
	flagFormat      string
	flagWithReviews bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one search and export the extracted place records",
	Example: `  harvest scrape -q "sod farms in usa" -n 10
  harvest scrape -q "coffee roasters berlin" -n 25 --format both --with-reviews`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "search query text (required)")
	scrapeCmd.Flags().IntVarP(&flagCount, "count", "n", config.DefaultTargetCount, "target number of records")
	scrapeCmd.Flags().BoolVar(&flagHeadless, "headless", config.DefaultHeadless, "run the browser headless")
	scrapeCmd.Flags().StringVar(&flagChromePath, "chrome-path", "", "path to the Chrome executable")
	scrapeCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override the browser user agent")
	scrapeCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "directory for exported files")
	scrapeCmd.Flags().StringVar(&flagFormat, "format", "", "export format: csv, json, or both")
	scrapeCmd.Flags().BoolVar(&flagWithReviews, "with-reviews", false, "also extract reviews per place")
	_ = scrapeCmd.MarkFlagRequired("query")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	if flagCount <= 0 {
		return fmt.Errorf("count must be a positive integer, got %d", flagCount)
	}
	if !verbose {
		zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))
	}

	factory := func(ctx context.Context) (browser.Session, error) {
		return browser.NewChromeSession(ctx, browser.Options{
			Headless:   cfg.Headless,
			ChromePath: cfg.ChromePath,
			UserAgent:  cfg.UserAgent,
		})
	}

	bar := progressbar.NewOptions(flagCount,
		progressbar.OptionSetDescription("scraping"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	opts := []scrape.Option{
		scrape.WithResultsWait(cfg.ResultsWait),
		scrape.WithProgress(func(accepted, target int) {
			_ = bar.Set(accepted)
		}),
	}
	if cfg.WithReviews {
		opts = append(opts, scrape.WithReviews(cfg.MaxReviews))
	}

	scraper := scrape.New(factory, opts...)
	places := scraper.Scrape(cmd.Context(), flagQuery, flagCount)
	_ = bar.Finish()

	output.PrintSummary(os.Stdout, places)
	if len(places) == 0 {
		log.Warn().Msg("no places were scraped; check the query and try again")
		return nil
	}

	base := exportBaseName(flagQuery)
	if cfg.Format == "csv" || cfg.Format == "both" {
		path := filepath.Join(cfg.OutputDir, base+".csv")
		if err := output.SaveCSV(places, path); err != nil {
			return fmt.Errorf("failed to save CSV: %w", err)
		}
		log.Info().Str("path", path).Int("records", len(places)).Msg("saved CSV")
	}
	if cfg.Format == "json" || cfg.Format == "both" {
		path := filepath.Join(cfg.OutputDir, base+".json")
		if err := output.SaveJSON(places, path); err != nil {
			return fmt.Errorf("failed to save JSON: %w", err)
		}
		log.Info().Str("path", path).Int("records", len(places)).Msg("saved JSON")
	}
	return nil
}

// exportBaseName derives a filesystem-safe file stem from the query.
func exportBaseName(query string) string {
	stem := strings.ToLower(strings.TrimSpace(query))
	stem = strings.ReplaceAll(stem, ",", "")
	stem = strings.ReplaceAll(stem, " ", "_")
	return "places_" + stem
}
