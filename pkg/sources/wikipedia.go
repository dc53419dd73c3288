package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const wikipediaSummaryLength = 1000

// infoboxFields maps canonical fields to the infobox headers that carry them.
// The first header present wins.
var infoboxFields = []struct {
	field   string
	headers []string
}{
	{field: "founded", headers: []string{"founded"}},
	{field: "founders", headers: []string{"founder", "founders"}},
	{field: "industry", headers: []string{"industry"}},
	{field: "headquarters", headers: []string{"headquarters"}},
	{field: "revenue", headers: []string{"revenue"}},
	{field: "ceo", headers: []string{"ceo"}},
}

// ExtractWikipedia reads the lead paragraph and the infobox of an
// encyclopedia article.
func ExtractWikipedia(page *Page) models.SourceRecord {
	rec := models.NewSourceRecord(KindWikipedia)

	if summary := wikipediaSummary(page.Doc); summary != "" {
		set(&rec, "summary", utils.Truncate(summary, wikipediaSummaryLength))
	}

	infobox := parseInfobox(page.Doc.Find("table.infobox").First())
	if len(infobox) == 0 {
		return rec
	}
	rec.Infobox = infobox

	for _, f := range infoboxFields {
		for _, header := range f.headers {
			if v, ok := infobox[header]; ok && v != "" {
				set(&rec, f.field, v)
				break
			}
		}
	}

	return rec
}

// wikipediaSummary returns the first non-empty paragraph directly under the
// article body.
func wikipediaSummary(doc *goquery.Document) string {
	content := doc.Find("#mw-content-text").First()
	if inner := content.ChildrenFiltered(".mw-parser-output").First(); inner.Length() > 0 {
		content = inner
	}

	var summary string
	content.ChildrenFiltered("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		summary = selText(p)
		return summary == ""
	})
	return summary
}

// parseInfobox maps lower-cased row headers to their values
func parseInfobox(table *goquery.Selection) map[string]string {
	infobox := make(map[string]string)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header := row.Find("th").First()
		value := row.Find("td").First()
		if header.Length() == 0 || value.Length() == 0 {
			return
		}
		key := strings.ToLower(selText(header))
		if key == "" {
			return
		}
		infobox[key] = selText(value)
	})
	return infobox
}
