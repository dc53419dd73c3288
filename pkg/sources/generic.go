package sources

import (
	"bytes"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/extractor"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const (
	genericSummaryLength   = 500
	genericSummaryMinChars = 100
)

var genericStats = []labeled{
	{field: "revenue", pattern: regexp.MustCompile(`(?i)revenue[:\s]+\$?([0-9.,]+\s*[BMK]?)`)},
	{field: "employees", pattern: regexp.MustCompile(`(?i)employees?[:\s]+([0-9,]+)`)},
	{field: "founded", pattern: regexp.MustCompile(`(?i)founded[:\s]+([0-9]{4})`)},
}

// ExtractGeneric handles any page without a dedicated extractor. The record
// is tagged with kind.
func ExtractGeneric(page *Page, kind string) models.SourceRecord {
	rec := models.NewSourceRecord(kind)
	doc := page.Doc

	set(&rec, "title", selText(doc.Find("h1").First()))
	set(&rec, "description", extractor.ExtractMetaDescription(doc))

	scan(&rec, page.Text, genericStats, false)

	summary := firstLongParagraph(doc)
	if summary == "" {
		summary = mainContent(page.Body)
	}
	if summary != "" {
		set(&rec, "summary", utils.Truncate(summary, genericSummaryLength))
	}

	return rec
}

func firstLongParagraph(doc *goquery.Document) string {
	var summary string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if t := selText(p); utils.RuneLen(t) > genericSummaryMinChars {
			summary = t
			return false
		}
		return true
	})
	return summary
}

// mainContent falls back to boilerplate-free article text for pages that
// do not use paragraph markup.
func mainContent(body []byte) string {
	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{})
	if err != nil || result == nil {
		return ""
	}
	content := utils.CleanText(result.ContentText)
	if utils.RuneLen(content) <= genericSummaryMinChars {
		return ""
	}
	return content
}
