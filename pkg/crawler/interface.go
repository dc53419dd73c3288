package crawler

import (
	"context"
	"time"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
)

// Engine defines the interface for website crawling operations
type Engine interface {
	// Crawl runs the job to completion or until ctx is done
	Crawl(ctx context.Context) (*models.CrawlResult, error)

	// State reports where the job is in its lifecycle
	State() State
}

// State is the lifecycle of a crawl job
type State int

const (
	StateIdle State = iota
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// DefaultPageBudget is the number of pages visited when the caller sets none
const DefaultPageBudget = 50

// Options contains configuration for the crawler
type Options struct {
	PageBudget       int           // Maximum pages to visit
	PolitenessDelay  time.Duration // Wait between successive fetches
	UserAgent        string        // Identifying user agent string
	Timeout          time.Duration // Request deadline
	RespectRobots    bool          // Respect robots.txt
	MaxBodyBytes     int64         // Response body cap
	BusinessKeywords []string      // Vocabulary matched against page text
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		PageBudget:      DefaultPageBudget,
		PolitenessDelay: time.Second,
		UserAgent:       fetcher.DefaultUserAgent,
		Timeout:         fetcher.DefaultTimeout,
		RespectRobots:   true,
		MaxBodyBytes:    fetcher.DefaultMaxBodyBytes,
	}
}
