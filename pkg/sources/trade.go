package sources

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const tradeOverviewLength = 500

var tradeStats = []labeled{
	{field: "total_transactions", pattern: regexp.MustCompile(`(?i)Total Transactions[:\s]+([0-9,]+)`)},
	{field: "countries", pattern: regexp.MustCompile(`(?i)Countries[:\s]+([0-9]+)`)},
	{field: "products", pattern: regexp.MustCompile(`(?i)Products[:\s]+([0-9]+)`)},
}

// ExtractImportYeti reads a trade-data company page: the overview block, the
// supplier table and the shipment counters.
func ExtractImportYeti(page *Page) models.SourceRecord {
	rec := models.NewSourceRecord(KindImportYeti)

	if overview := page.Doc.Find("div.company-overview").First(); overview.Length() > 0 {
		set(&rec, "description", utils.Truncate(selText(overview), tradeOverviewLength))
	}

	rec.Suppliers = parseSuppliers(page.Doc.Find("table#suppliers_table").First())

	scan(&rec, page.Text, tradeStats, false)

	return rec
}

// parseSuppliers reads (name, country) pairs, skipping the header row
func parseSuppliers(table *goquery.Selection) []models.Supplier {
	var suppliers []models.Supplier
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		suppliers = append(suppliers, models.Supplier{
			Name:    selText(cols.Eq(0)),
			Country: selText(cols.Eq(1)),
		})
	})
	return suppliers
}
