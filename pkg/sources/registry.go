package sources

import (
	"regexp"
	"strings"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const registryDescriptionLength = 500

var registryDescriptions = []*regexp.Regexp{
	regexp.MustCompile(`(?is)Description[:\s]+(.{100,500})`),
	regexp.MustCompile(`(?is)Overview[:\s]+(.{100,500})`),
}

var registryStats = []labeled{
	{field: "total_funding", pattern: regexp.MustCompile(`(?i)Total Funding Amount[:\s]+\$([0-9.,]+[BMK]?)`)},
	{field: "founded", pattern: regexp.MustCompile(`(?i)Founded Date[:\s]+([A-Za-z]+\s+\d{1,2},\s+\d{4})`)},
	{field: "employees", pattern: regexp.MustCompile(`(?i)Number of Employees[:\s]+([0-9,\-]+)`)},
}

// ExtractCrunchbase scans an organization page's text for its labeled
// description, funding, founding date and head count.
func ExtractCrunchbase(page *Page) models.SourceRecord {
	rec := models.NewSourceRecord(KindCrunchbase)

	for _, pattern := range registryDescriptions {
		if m := pattern.FindStringSubmatch(page.Text); m != nil {
			set(&rec, "description", utils.Truncate(strings.TrimSpace(m[1]), registryDescriptionLength))
			break
		}
	}

	scan(&rec, page.Text, registryStats, false)

	return rec
}
