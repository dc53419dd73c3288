package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/profilesmith/internal/config"
	"github.com/amosWeiskopf/profilesmith/internal/logger"
	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/internal/server"
	"github.com/amosWeiskopf/profilesmith/pkg/aggregator"
	"github.com/amosWeiskopf/profilesmith/pkg/profiler"
	"github.com/amosWeiskopf/profilesmith/pkg/reporter"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app bundles what every command needs
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   storage.Store
	service *profiler.Service
}

func setup(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.New(cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  log,
		store:   store,
		service: profiler.New(store, cfg.Crawler.Options(), cfg.Aggregator.Options(), log),
	}, nil
}

func (a *app) close() {
	_ = a.store.Close()
	_ = a.logger.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "profilesmith",
	Short: "ProfileSmith - company website crawler and profile aggregator",
	Long: `ProfileSmith crawls a company website for contacts and business signals,
and merges public sources into a single company profile.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [URL]",
	Short: "Crawl a company website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		maxPages, _ := cmd.Flags().GetInt("max-pages")
		return runCrawl(cmd.Context(), a, args[0], maxPages)
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [COMPANY]",
	Short: "Aggregate a company profile from public sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		urls, _ := cmd.Flags().GetStringArray("urls")
		return runAggregate(cmd.Context(), a, args[0], urls)
	},
}

var bothCmd = &cobra.Command{
	Use:   "both [COMPANY] [URL]",
	Short: "Crawl the company website, then aggregate its profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		maxPages, _ := cmd.Flags().GetInt("max-pages")
		urls, _ := cmd.Flags().GetStringArray("urls")
		if err := runCrawl(cmd.Context(), a, args[1], maxPages); err != nil {
			return err
		}
		return runAggregate(cmd.Context(), a, args[0], urls)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return server.New(a.cfg.Server, a.service, a.logger).Run(cmd.Context())
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [FILE]",
	Short: "Render a stored result as json, markdown or html",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		data, err := a.store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		report, err := reporter.New().GenerateReport(data, format)
		if err != nil {
			return fmt.Errorf("report generation failed: %w", err)
		}

		if output != "" {
			if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("Report saved to %s\n", output)
			return nil
		}
		fmt.Println(report)
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List stored results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		files, err := a.store.List(cmd.Context())
		if err != nil {
			return err
		}
		if fs, ok := a.store.(*storage.FileStore); ok {
			fmt.Printf("Results in %s\n", fs.Dir())
		}
		if len(files) == 0 {
			fmt.Println("No stored results")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%-40s %8d  %s\n", f.Name, f.Size, f.Modified.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func runCrawl(ctx context.Context, a *app, url string, maxPages int) error {
	fmt.Printf("Crawling %s (max %d pages)...\n", url, maxPages)
	result, file, err := a.service.Crawl(ctx, url, maxPages)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	fmt.Printf("Crawled %d pages from %s\n", len(result.Pages), result.Domain)
	fmt.Printf("Found %d contacts and %d business terms\n", result.ContactCount(), len(result.BusinessTerms))
	fmt.Printf("Saved to %s\n", file)
	return nil
}

func runAggregate(ctx context.Context, a *app, company string, urls []string) error {
	fmt.Printf("Aggregating profile for %s...\n", company)
	result, file, err := a.service.Aggregate(ctx, company, urls)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	fmt.Printf("Collected %d sources, %d profile fields\n", len(result.Sources), len(result.Profile))
	for _, field := range profileFieldsPresent(result) {
		fmt.Printf("  %s: %s\n", field, result.Profile[field])
	}
	fmt.Printf("Saved to %s\n", file)
	return nil
}

func profileFieldsPresent(result *models.AggregationResult) []string {
	var fields []string
	for _, field := range aggregator.ProfileFields {
		if _, ok := result.Profile[field]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}

func init() {
	crawlCmd.Flags().Int("max-pages", 20, "Maximum number of pages to crawl")

	aggregateCmd.Flags().StringArray("urls", nil, "Source URL, repeatable (defaults to well-known sources)")

	bothCmd.Flags().Int("max-pages", 20, "Maximum number of pages to crawl")
	bothCmd.Flags().StringArray("urls", nil, "Source URL, repeatable (defaults to well-known sources)")

	reportCmd.Flags().String("format", reporter.FormatMarkdown, "Report format (json, html, markdown)")
	reportCmd.Flags().String("output", "", "Output file for report")

	rootCmd.AddCommand(crawlCmd, aggregateCmd, bothCmd, serveCmd, reportCmd, filesCmd)

	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
