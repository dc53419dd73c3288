// Package scope decides which discovered URLs a crawl may visit: same network
// authority as the base URL, and permitted by the site's robots.txt.
package scope

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
)

// robotsTxtPath is the well-known location of the crawl policy document
const robotsTxtPath = "/robots.txt"

// Policy is the scope policy of one crawl job. It is not safe for concurrent
// mutation; Load is called once before the crawl loop starts.
type Policy struct {
	base      *url.URL
	authority string
	userAgent string
	robots    *robotstxt.RobotsData
}

// New builds a policy scoped to baseURL's authority. The robots document is
// not loaded yet, so every in-scope URL is allowed until Load succeeds.
func New(baseURL, userAgent string) (*Policy, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing scheme or host", baseURL)
	}

	return &Policy{
		base:      u,
		authority: strings.ToLower(u.Host),
		userAgent: userAgent,
	}, nil
}

// Authority returns the network authority every crawled URL must share
func (p *Policy) Authority() string {
	return p.authority
}

// RobotsURL returns the policy document location for the base origin
func (p *Policy) RobotsURL() string {
	return p.base.ResolveReference(&url.URL{Path: robotsTxtPath}).String()
}

// Load fetches and parses the robots document once. Any failure leaves the
// policy allowing everything and is reported only through the return value.
func (p *Policy) Load(ctx context.Context, f fetcher.Fetcher) error {
	body, err := f.Fetch(ctx, p.RobotsURL())
	if err != nil {
		return err
	}
	return p.Parse(body)
}

// Parse installs the given robots document. On a parse error the policy
// stays allow-all.
func (p *Policy) Parse(body []byte) error {
	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		return fmt.Errorf("parse robots.txt: %w", err)
	}
	p.robots = robots
	return nil
}

// InScope reports whether rawURL has exactly the job's network authority
func (p *Policy) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.ToLower(u.Host) == p.authority
}

// IsAllowed reports whether the robots document permits fetching rawURL for
// the job's user agent.
func (p *Policy) IsAllowed(rawURL string) bool {
	if p.robots == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return p.robots.TestAgent(u.RequestURI(), p.userAgent)
}

// Resolve turns href, found on the page at base, into an absolute crawlable
// URL. Only http and https targets are kept; fragments are dropped and an
// empty path becomes "/".
func Resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	abs.Host = strings.ToLower(abs.Host)
	abs.Fragment = ""
	abs.RawFragment = ""
	if abs.Path == "" {
		abs.Path = "/"
	}
	return abs.String(), true
}

// Canonicalize normalizes an absolute URL the same way Resolve does.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing scheme or host", rawURL)
	}
	abs, ok := Resolve(u, "")
	if !ok {
		return "", fmt.Errorf("invalid URL %q: unsupported scheme", rawURL)
	}
	return abs, nil
}
