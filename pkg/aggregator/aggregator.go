// Package aggregator fetches a company's pages from several sources and
// merges what they report into one profile.
package aggregator

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
	"github.com/amosWeiskopf/profilesmith/pkg/sources"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

// ProfileFields are the canonical fields merged into a profile, in order
var ProfileFields = []string{
	"summary", "description", "business_summary",
	"founded", "founders", "ceo", "industry",
	"headquarters", "revenue", "market_cap",
	"employees", "total_funding",
}

// Options contains configuration for the aggregator
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Timeout:      fetcher.DefaultTimeout,
		UserAgent:    fetcher.DefaultUserAgent,
		MaxBodyBytes: fetcher.DefaultMaxBodyBytes,
	}
}

// Aggregator runs aggregation jobs. It holds no per-job state, so one value
// may serve concurrent calls.
type Aggregator struct {
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

// New creates an Aggregator. A nil logger discards output.
func New(opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		fetcher: fetcher.New(fetcher.Options{
			Timeout:      opts.Timeout,
			UserAgent:    opts.UserAgent,
			MaxBodyBytes: opts.MaxBodyBytes,
		}),
		logger: logger.With(zap.String("component", "aggregator")),
	}
}

// SetFetcher replaces the HTTP fetcher
func (a *Aggregator) SetFetcher(f fetcher.Fetcher) {
	a.fetcher = f
}

// Aggregate fetches every URL, extracts a record per source kind and merges
// the records into a profile. With no URLs the defaults for companyName are
// used. Sources that fail to fetch are left out. When ctx ends early the
// partial result is returned along with the context error.
func (a *Aggregator) Aggregate(ctx context.Context, companyName string, urls []string) (*models.AggregationResult, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, fmt.Errorf("%w: company name is required", models.ErrConfiguration)
	}
	if len(urls) == 0 {
		urls = DefaultSourceURLs(companyName)
	}

	logger := a.logger.With(zap.String("company", companyName))
	logger.Info("Starting aggregation", zap.Int("sources", len(urls)))

	result := models.NewAggregationResult(companyName)
	for _, sourceURL := range urls {
		if err := ctx.Err(); err != nil {
			result.Profile = Merge(result.OrderedSources())
			return result, fmt.Errorf("aggregation interrupted: %w", err)
		}

		rec, ok := a.collect(ctx, logger, sourceURL)
		if !ok {
			continue
		}
		result.PutSource(rec)
	}

	result.Profile = Merge(result.OrderedSources())
	logger.Info("Aggregation complete",
		zap.Int("sources", len(result.Sources)),
		zap.Int("profile_fields", len(result.Profile)))

	return result, nil
}

// collect fetches and extracts one source
func (a *Aggregator) collect(ctx context.Context, logger *zap.Logger, sourceURL string) (models.SourceRecord, bool) {
	kind := sources.Classify(sourceURL)
	logger = logger.With(zap.String("source", kind), zap.String("url", sourceURL))
	logger.Info("Fetching source")

	body, err := a.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		logger.Warn("Source fetch failed", zap.Error(err))
		return models.SourceRecord{}, false
	}

	page, err := sources.Parse(body)
	if err != nil {
		logger.Warn("Source parse failed", zap.Error(err))
		return models.SourceRecord{}, false
	}

	rec := sources.Extract(kind, page)
	logger.Debug("Extracted source", zap.Int("fields", len(rec.Fields)))
	return rec, true
}

// Merge builds a profile from records in declaration order: for each
// canonical field the first record with a non-empty value wins.
func Merge(records []models.SourceRecord) map[string]string {
	profile := make(map[string]string)
	for _, field := range ProfileFields {
		if value, _, ok := resolve(field, records); ok {
			profile[field] = value
		}
	}
	return profile
}

// Attribution maps each merged field to the kind of the record it came from
func Attribution(records []models.SourceRecord) map[string]string {
	winners := make(map[string]string)
	for _, field := range ProfileFields {
		if _, kind, ok := resolve(field, records); ok {
			winners[field] = kind
		}
	}
	return winners
}

func resolve(field string, records []models.SourceRecord) (string, string, bool) {
	for _, rec := range records {
		if value, ok := rec.Get(field); ok {
			return value, rec.Source, true
		}
	}
	return "", "", false
}

// DefaultSourceURLs derives one URL per recognized source from the company
// name: the company's own site, a ticker guess, registry and encyclopedia
// pages, and trade data.
func DefaultSourceURLs(companyName string) []string {
	dashed := utils.Slug(companyName, "-")
	ticker := strings.ToUpper(strings.Join(strings.Fields(companyName), ""))

	return []string{
		"https://" + utils.Slug(companyName, "") + ".com",
		"https://finance.yahoo.com/quote/" + url.PathEscape(ticker),
		"https://www.crunchbase.com/organization/" + dashed,
		"https://en.wikipedia.org/wiki/" + url.PathEscape(companyName),
		"https://www.importyeti.com/company/" + dashed,
	}
}
