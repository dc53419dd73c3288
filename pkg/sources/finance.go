package sources

import (
	"regexp"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const businessSummaryLength = 1000

var financeStats = []labeled{
	{field: "market_cap", pattern: regexp.MustCompile(`(?i)Market Cap[:\s]+([0-9.,]+[BMK]?)`)},
	{field: "pe_ratio", pattern: regexp.MustCompile(`(?i)PE Ratio[:\s]+([0-9.]+)`)},
	{field: "revenue", pattern: regexp.MustCompile(`(?i)Revenue[:\s]+([0-9.,]+[BMK]?)`)},
	{field: "employees", pattern: regexp.MustCompile(`(?i)Employees[:\s]+([0-9,]+)`)},
}

// ExtractYahooFinance reads a quote page. Inline data elements take
// precedence; labeled values in the page text fill whatever they missed.
func ExtractYahooFinance(page *Page) models.SourceRecord {
	rec := models.NewSourceRecord(KindYahooFinance)
	doc := page.Doc

	set(&rec, "company_full_name", selText(doc.Find("h1").First()))
	set(&rec, "stock_price", selText(doc.Find(`fin-streamer[data-field="regularMarketPrice"]`).First()))
	set(&rec, "market_cap", selText(doc.Find(`fin-streamer[data-field="marketCap"]`).First()))

	scan(&rec, page.Text, financeStats, true)

	if summary := doc.Find(`section[data-testid="description"]`).First(); summary.Length() > 0 {
		set(&rec, "business_summary", utils.Truncate(selText(summary), businessSummaryLength))
	}

	return rec
}
