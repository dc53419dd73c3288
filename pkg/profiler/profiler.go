// Package profiler runs crawl and aggregation jobs and persists their
// results. It is the entry point shared by the CLI and the dashboard.
package profiler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/aggregator"
	"github.com/amosWeiskopf/profilesmith/pkg/crawler"
	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

// Service builds a fresh engine per job, so concurrent jobs share nothing
// but the store.
type Service struct {
	store          storage.Store
	crawlOpts      crawler.Options
	aggregatorOpts aggregator.Options
	fetcher        fetcher.Fetcher
	logger         *zap.Logger
}

// New creates a Service. A nil logger discards output.
func New(store storage.Store, crawlOpts crawler.Options, aggregatorOpts aggregator.Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:          store,
		crawlOpts:      crawlOpts,
		aggregatorOpts: aggregatorOpts,
		logger:         logger,
	}
}

// SetFetcher makes every job fetch through f instead of its own HTTP client
func (s *Service) SetFetcher(f fetcher.Fetcher) {
	s.fetcher = f
}

// Store returns the document store results are written to
func (s *Service) Store() storage.Store {
	return s.store
}

// Crawl crawls baseURL and stores the result. A positive pageBudget
// overrides the configured one. It returns the result and the stored
// document name.
func (s *Service) Crawl(ctx context.Context, baseURL string, pageBudget int) (*models.CrawlResult, string, error) {
	opts := s.crawlOpts
	if pageBudget > 0 {
		opts.PageBudget = pageBudget
	}

	c, err := crawler.New(baseURL, opts, s.logger)
	if err != nil {
		return nil, "", err
	}
	if s.fetcher != nil {
		c.SetFetcher(s.fetcher)
	}

	result, err := c.Crawl(ctx)
	if err != nil {
		return result, "", err
	}

	name := storage.CrawlFilename(result.Domain)
	if err := s.save(ctx, name, result); err != nil {
		return result, "", err
	}
	return result, name, nil
}

// Aggregate builds a profile for companyName from urls, or from the default
// sources when urls is empty, and stores it.
func (s *Service) Aggregate(ctx context.Context, companyName string, urls []string) (*models.AggregationResult, string, error) {
	a := aggregator.New(s.aggregatorOpts, s.logger)
	if s.fetcher != nil {
		a.SetFetcher(s.fetcher)
	}

	result, err := a.Aggregate(ctx, companyName, urls)
	if err != nil {
		return result, "", err
	}

	name := storage.ProfileFilename(result.CompanyName)
	if err := s.save(ctx, name, result); err != nil {
		return result, "", err
	}
	return result, name, nil
}

func (s *Service) save(ctx context.Context, name string, doc any) error {
	location, err := s.store.Save(ctx, name, doc)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	s.logger.Info("Saved result", zap.String("location", location))
	return nil
}
