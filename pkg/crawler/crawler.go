package crawler

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/extractor"
	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
	"github.com/amosWeiskopf/profilesmith/pkg/scope"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

// ErrAlreadyRun is returned when Crawl is called on a job that has started
var ErrAlreadyRun = errors.New("crawl job already started")

var _ Engine = (*Crawler)(nil)

// Crawler is one bounded breadth-first crawl job. It owns its frontier,
// visited set and accumulated result exclusively.
type Crawler struct {
	baseURL   string
	startURL  string
	opts      Options
	policy    *scope.Policy
	fetcher   fetcher.Fetcher
	extractor *extractor.Extractor
	limiter   *rate.Limiter
	logger    *zap.Logger

	mu    sync.Mutex
	state State

	frontier *list.List
	queued   map[string]bool
	visited  map[string]bool
	result   *models.CrawlResult
}

// New creates a crawl job for baseURL. Only a zero PageBudget or UserAgent
// falls back to its default: a zero PolitenessDelay disables throttling and
// a false RespectRobots skips robots.txt, so start from DefaultOptions. A nil
// logger discards output.
func New(baseURL string, opts Options, logger *zap.Logger) (*Crawler, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: base URL is required", models.ErrConfiguration)
	}
	if opts.PageBudget < 0 {
		return nil, fmt.Errorf("%w: page budget must be positive, got %d", models.ErrConfiguration, opts.PageBudget)
	}
	if opts.PageBudget == 0 {
		opts.PageBudget = DefaultPageBudget
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetcher.DefaultUserAgent
	}

	startURL, err := scope.Canonicalize(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	policy, err := scope.New(startURL, opts.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.PolitenessDelay > 0 {
		limit = rate.Every(opts.PolitenessDelay)
	}

	c := &Crawler{
		baseURL:  baseURL,
		startURL: startURL,
		opts:     opts,
		policy:   policy,
		fetcher: fetcher.New(fetcher.Options{
			Timeout:      opts.Timeout,
			UserAgent:    opts.UserAgent,
			MaxBodyBytes: opts.MaxBodyBytes,
		}),
		extractor: extractor.New(extractor.Options{BusinessKeywords: opts.BusinessKeywords}),
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With(zap.String("component", "crawler"), zap.String("domain", policy.Authority())),
		frontier:  list.New(),
		queued:    make(map[string]bool),
		visited:   make(map[string]bool),
		result:    models.NewCrawlResult(baseURL, policy.Authority()),
	}
	c.enqueue(startURL)

	return c, nil
}

// SetFetcher replaces the HTTP fetcher. It must be called before Crawl.
func (c *Crawler) SetFetcher(f fetcher.Fetcher) {
	c.fetcher = f
}

// State reports where the job is in its lifecycle
func (c *Crawler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Crawler) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Crawl visits pages breadth-first until the frontier is exhausted or the page
// budget is spent. When ctx ends early the partial result is returned along
// with the context error.
func (c *Crawler) Crawl(ctx context.Context) (*models.CrawlResult, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	c.state = StateRunning
	c.mu.Unlock()
	defer c.setState(StateComplete)

	c.logger.Info("Starting crawl",
		zap.String("base_url", c.baseURL),
		zap.Int("page_budget", c.opts.PageBudget))

	if c.opts.RespectRobots {
		if err := c.policy.Load(ctx, c.fetcher); err != nil {
			c.logger.Warn("Could not load robots.txt, allowing all", zap.Error(err))
		} else {
			c.logger.Info("Loaded robots.txt", zap.String("url", c.policy.RobotsURL()))
		}
	}

	for c.frontier.Len() > 0 && len(c.visited) < c.opts.PageBudget {
		if err := ctx.Err(); err != nil {
			return c.finish(), fmt.Errorf("crawl interrupted: %w", err)
		}

		pageURL := c.dequeue()
		if c.visited[pageURL] {
			continue
		}
		c.visited[pageURL] = true

		if err := c.limiter.Wait(ctx); err != nil {
			return c.finish(), fmt.Errorf("crawl interrupted: %w", err)
		}

		c.visit(ctx, pageURL)
	}

	result := c.finish()
	c.logger.Info("Crawl complete",
		zap.Int("pages", len(result.Pages)),
		zap.Int("visited", result.Visited))

	return result, nil
}

// visit fetches and extracts one page. Every failure here is local to the URL.
func (c *Crawler) visit(ctx context.Context, pageURL string) {
	if !c.policy.IsAllowed(pageURL) {
		c.logger.Debug("Skipped (disallowed by robots.txt)", zap.String("url", pageURL))
		return
	}

	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		c.logger.Warn("Fetch failed", zap.String("url", pageURL), zap.Error(err))
		return
	}

	record, links, err := c.extractor.Extract(body, pageURL, c.shouldEnqueue)
	if err != nil {
		c.logger.Warn("Extraction failed", zap.String("url", pageURL), zap.Error(err))
		return
	}

	c.merge(*record)
	for _, link := range links {
		c.enqueue(link)
	}

	c.logger.Info("Crawled",
		zap.String("url", pageURL),
		zap.Int("links", len(links)),
		zap.Int("frontier", c.frontier.Len()))
}

func (c *Crawler) shouldEnqueue(link string) bool {
	return c.policy.InScope(link) && !c.visited[link] && !c.queued[link]
}

func (c *Crawler) enqueue(link string) {
	if c.visited[link] || c.queued[link] {
		return
	}
	c.queued[link] = true
	c.frontier.PushBack(link)
}

func (c *Crawler) dequeue() string {
	elem := c.frontier.Front()
	c.frontier.Remove(elem)
	link := elem.Value.(string)
	delete(c.queued, link)
	return link
}

// merge folds one page's delta into the job accumulator
func (c *Crawler) merge(record models.PageRecord) {
	c.result.Pages = append(c.result.Pages, record)
	for kind, values := range record.Contacts {
		c.result.Contacts[kind] = append(c.result.Contacts[kind], values...)
	}
	c.result.BusinessTerms = append(c.result.BusinessTerms, record.BusinessTerms...)
}

// finish deduplicates the accumulated contacts and terms
func (c *Crawler) finish() *models.CrawlResult {
	for kind, values := range c.result.Contacts {
		c.result.Contacts[kind] = utils.Dedupe(values)
	}
	c.result.BusinessTerms = utils.Dedupe(c.result.BusinessTerms)
	c.result.Visited = len(c.visited)
	return c.result
}
