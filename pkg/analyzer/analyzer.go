package analyzer

import (
	"fmt"
	"sort"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/aggregator"
)

// Analyzer summarizes crawl and aggregation results
type Analyzer struct {
	config *Config
}

// Config holds analyzer configuration
type Config struct {
	TopTerms int // Business terms kept in a crawl summary, 0 for all
}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{
		config: &Config{TopTerms: 10},
	}
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(config *Config) *Analyzer {
	return &Analyzer{config: config}
}

// Finding is one notable observation about a result
type Finding struct {
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// TermCount is a business term and the number of pages mentioning it
type TermCount struct {
	Term  string `json:"term"`
	Pages int    `json:"pages"`
}

// CrawlSummary describes a crawl result
type CrawlSummary struct {
	Domain                  string         `json:"domain"`
	BaseURL                 string         `json:"base_url"`
	Pages                   int            `json:"pages"`
	Visited                 int            `json:"visited"`
	Skipped                 int            `json:"skipped"`
	ContactCounts           map[string]int `json:"contact_counts"`
	TotalContacts           int            `json:"total_contacts"`
	TopTerms                []TermCount    `json:"top_terms"`
	AverageTextLength       int            `json:"average_text_length"`
	PagesWithoutTitle       int            `json:"pages_without_title"`
	PagesWithoutDescription int            `json:"pages_without_description"`
	Findings                []Finding      `json:"findings"`
}

// ProfileSummary describes an aggregation result
type ProfileSummary struct {
	CompanyName   string            `json:"company_name"`
	Sources       []string          `json:"sources"`
	FilledFields  []string          `json:"filled_fields"`
	MissingFields []string          `json:"missing_fields"`
	Coverage      float64           `json:"coverage"`
	Attribution   map[string]string `json:"attribution"`
	Findings      []Finding         `json:"findings"`
}

// SummarizeCrawl computes page, contact and term statistics for a crawl
func (a *Analyzer) SummarizeCrawl(result *models.CrawlResult) *CrawlSummary {
	summary := &CrawlSummary{
		Domain:        result.Domain,
		BaseURL:       result.BaseURL,
		Pages:         len(result.Pages),
		Visited:       result.Visited,
		Skipped:       max(result.Visited-len(result.Pages), 0),
		ContactCounts: make(map[string]int, len(result.Contacts)),
		TotalContacts: result.ContactCount(),
	}

	for kind, values := range result.Contacts {
		summary.ContactCounts[kind] = len(values)
	}

	totalText := 0
	for _, page := range result.Pages {
		totalText += page.TextLength
		if page.Title == "" {
			summary.PagesWithoutTitle++
		}
		if page.Description == "" {
			summary.PagesWithoutDescription++
		}
	}
	if len(result.Pages) > 0 {
		summary.AverageTextLength = totalText / len(result.Pages)
	}

	summary.TopTerms = a.rankTerms(result)
	summary.Findings = a.crawlFindings(result, summary)

	return summary
}

// rankTerms orders the job's business terms by how many pages mention them.
// Ties keep first-discovery order.
func (a *Analyzer) rankTerms(result *models.CrawlResult) []TermCount {
	pages := make(map[string]int)
	for _, page := range result.Pages {
		for _, term := range page.BusinessTerms {
			pages[term]++
		}
	}

	terms := make([]TermCount, 0, len(result.BusinessTerms))
	for _, term := range result.BusinessTerms {
		terms = append(terms, TermCount{Term: term, Pages: pages[term]})
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Pages > terms[j].Pages
	})

	if a.config.TopTerms > 0 && len(terms) > a.config.TopTerms {
		terms = terms[:a.config.TopTerms]
	}
	return terms
}

func (a *Analyzer) crawlFindings(result *models.CrawlResult, summary *CrawlSummary) []Finding {
	findings := []Finding{}

	if len(result.Pages) == 0 {
		findings = append(findings, Finding{
			Category:    "Crawl",
			Type:        "No Pages",
			Description: fmt.Sprintf("No page of %s could be fetched", result.BaseURL),
			Severity:    "high",
		})
		return findings
	}

	if summary.TotalContacts == 0 {
		findings = append(findings, Finding{
			Category:    "Contacts",
			Type:        "No Contact Information",
			Description: "No email, phone or address was found on any page",
			Severity:    "medium",
		})
	}

	if summary.Skipped > 0 {
		findings = append(findings, Finding{
			Category:    "Crawl",
			Type:        "Skipped Pages",
			Description: fmt.Sprintf("%d visited URLs were disallowed or failed to fetch", summary.Skipped),
			Severity:    "low",
		})
	}

	if summary.PagesWithoutDescription > 0 {
		findings = append(findings, Finding{
			Category:    "Content",
			Type:        "Missing Meta Descriptions",
			Description: fmt.Sprintf("%d pages lack meta descriptions", summary.PagesWithoutDescription),
			Severity:    "low",
		})
	}

	return findings
}

// SummarizeProfile reports which canonical fields the profile filled and
// which source each one came from.
func (a *Analyzer) SummarizeProfile(result *models.AggregationResult) *ProfileSummary {
	records := result.OrderedSources()
	summary := &ProfileSummary{
		CompanyName:   result.CompanyName,
		Sources:       append([]string{}, result.SourceOrder...),
		FilledFields:  []string{},
		MissingFields: []string{},
		Attribution:   aggregator.Attribution(records),
	}

	for _, field := range aggregator.ProfileFields {
		if _, ok := result.Profile[field]; ok {
			summary.FilledFields = append(summary.FilledFields, field)
		} else {
			summary.MissingFields = append(summary.MissingFields, field)
		}
	}
	summary.Coverage = float64(len(summary.FilledFields)) / float64(len(aggregator.ProfileFields))

	summary.Findings = a.profileFindings(summary)
	return summary
}

func (a *Analyzer) profileFindings(summary *ProfileSummary) []Finding {
	findings := []Finding{}

	switch len(summary.Sources) {
	case 0:
		findings = append(findings, Finding{
			Category:    "Sources",
			Type:        "No Sources",
			Description: "Every source failed to fetch",
			Severity:    "high",
		})
		return findings
	case 1:
		findings = append(findings, Finding{
			Category:    "Sources",
			Type:        "Single Source",
			Description: fmt.Sprintf("Profile relies on %s alone", summary.Sources[0]),
			Severity:    "medium",
		})
	}

	if len(summary.MissingFields) > 0 {
		findings = append(findings, Finding{
			Category:    "Profile",
			Type:        "Missing Fields",
			Description: fmt.Sprintf("%d of %d profile fields are empty", len(summary.MissingFields), len(aggregator.ProfileFields)),
			Severity:    "low",
		})
	}

	return findings
}
