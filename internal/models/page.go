package models

import "errors"

// ErrConfiguration marks a missing or invalid invocation input. A job that
// fails with it never starts.
var ErrConfiguration = errors.New("configuration error")

// PageRecord represents one successfully fetched page of a crawl
type PageRecord struct {
	URL           string              `json:"url"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	TextLength    int                 `json:"text_length"`
	TextPreview   string              `json:"text_preview"`
	Contacts      map[string][]string `json:"contacts"`
	BusinessTerms []string            `json:"business_terms"`
}

// CrawlResult contains the results of a crawl operation
type CrawlResult struct {
	BaseURL       string              `json:"base_url"`
	Domain        string              `json:"domain"`
	Pages         []PageRecord        `json:"pages"`
	Contacts      map[string][]string `json:"contacts"`
	BusinessTerms []string            `json:"business_terms"`
	Visited       int                 `json:"visited"`
}

// NewCrawlResult returns an empty result for baseURL scoped to domain.
func NewCrawlResult(baseURL, domain string) *CrawlResult {
	return &CrawlResult{
		BaseURL:       baseURL,
		Domain:        domain,
		Pages:         []PageRecord{},
		Contacts:      map[string][]string{},
		BusinessTerms: []string{},
	}
}

// ContactCount is the total number of contact values across all kinds.
func (r *CrawlResult) ContactCount() int {
	n := 0
	for _, values := range r.Contacts {
		n += len(values)
	}
	return n
}
