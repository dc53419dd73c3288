// Package sources classifies aggregation input URLs and extracts sparse
// field records from the pages they serve.
package sources

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

// Source kinds
const (
	KindWikipedia    = "wikipedia"
	KindYahooFinance = "yahoo_finance"
	KindCrunchbase   = "crunchbase"
	KindSEC          = "sec"
	KindBuiltWith    = "builtwith"
	KindImportYeti   = "importyeti"
	KindCustom       = "custom"
)

type classifyRule struct {
	kind    string
	markers []string
}

// Evaluated in order; the first rule with a matching marker wins.
var classifyRules = []classifyRule{
	{kind: KindWikipedia, markers: []string{"wikipedia.org"}},
	{kind: KindYahooFinance, markers: []string{"yahoo.com", "finance.yahoo"}},
	{kind: KindCrunchbase, markers: []string{"crunchbase.com"}},
	{kind: KindSEC, markers: []string{"sec.gov"}},
	{kind: KindBuiltWith, markers: []string{"builtwith.com"}},
	{kind: KindImportYeti, markers: []string{"importyeti"}},
}

// Classify returns the source kind for rawURL, matched against its host.
// Unparseable URLs are matched as plain strings.
func Classify(rawURL string) string {
	target := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		target = strings.ToLower(u.Host)
	}

	for _, rule := range classifyRules {
		for _, marker := range rule.markers {
			if strings.Contains(target, marker) {
				return rule.kind
			}
		}
	}
	return KindCustom
}

// Page is a fetched source document in the forms extractors consume
type Page struct {
	Body []byte
	Doc  *goquery.Document
	Text string // visible text, single-space separated
}

// Parse builds a Page from a fetched body
func Parse(body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{
		Body: body,
		Doc:  doc,
		Text: utils.FlattenText(doc.Selection),
	}, nil
}

// Extractor turns a page into a sparse record. Extractors never fail as a
// whole: a field that cannot be found is left out.
type Extractor func(page *Page) models.SourceRecord

var extractors = map[string]Extractor{
	KindWikipedia:    ExtractWikipedia,
	KindYahooFinance: ExtractYahooFinance,
	KindCrunchbase:   ExtractCrunchbase,
	KindImportYeti:   ExtractImportYeti,
}

// For returns the extractor registered for kind, or the generic one
func For(kind string) Extractor {
	if ex, ok := extractors[kind]; ok {
		return ex
	}
	return func(page *Page) models.SourceRecord {
		return ExtractGeneric(page, kind)
	}
}

// Extract runs the extractor matching kind over page
func Extract(kind string, page *Page) models.SourceRecord {
	return For(kind)(page)
}

// labeled is a regex scan for a labeled value in flattened text. The value is
// the first capture group.
type labeled struct {
	field   string
	pattern *regexp.Regexp
}

// scan applies each rule to text and records the matches. When onlyMissing
// is set, fields already present are kept.
func scan(rec *models.SourceRecord, text string, rules []labeled, onlyMissing bool) {
	for _, rule := range rules {
		if onlyMissing {
			if _, ok := rec.Get(rule.field); ok {
				continue
			}
		}
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			set(rec, rule.field, m[1])
		}
	}
}

// set records a trimmed value, ignoring empty ones
func set(rec *models.SourceRecord, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	rec.Fields[field] = value
}

// selText returns the flattened visible text of sel
func selText(sel *goquery.Selection) string {
	return utils.FlattenText(sel)
}
