package reporter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

func stampedCrawl(t *testing.T) []byte {
	t.Helper()
	result := models.NewCrawlResult("https://acme.com", "acme.com")
	result.Pages = []models.PageRecord{
		{URL: "https://acme.com/", Title: "Acme <Home>", Description: "Anvils", TextLength: 120,
			BusinessTerms: []string{"product"}},
	}
	result.Contacts = map[string][]string{"emails": {"info@acme.com"}}
	result.BusinessTerms = []string{"product"}
	result.Visited = 1

	data, err := storage.Stamp(result, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return data
}

func stampedProfile(t *testing.T) []byte {
	t.Helper()
	result := models.NewAggregationResult("Acme")
	wiki := models.NewSourceRecord("wikipedia")
	wiki.Fields["founded"] = "1949"
	result.PutSource(wiki)
	trade := models.NewSourceRecord("importyeti")
	trade.Suppliers = []models.Supplier{{Name: "Anvil Works", Country: "China"}}
	result.PutSource(trade)
	result.Profile["founded"] = "1949"

	data, err := storage.Stamp(result, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	r := New()

	crawl, err := r.Decode(stampedCrawl(t))
	require.NoError(t, err)
	assert.Equal(t, KindCrawl, crawl.Kind)
	assert.Equal(t, "acme.com", crawl.Crawl.Domain)
	assert.Equal(t, "2024-05-01T12:00:00Z", crawl.Metadata.Timestamp)
	require.NotNil(t, crawl.CrawlSummary)
	assert.Equal(t, 1, crawl.CrawlSummary.TotalContacts)

	profile, err := r.Decode(stampedProfile(t))
	require.NoError(t, err)
	assert.Equal(t, KindProfile, profile.Kind)
	assert.Equal(t, []string{"wikipedia", "importyeti"}, profile.Profile.SourceOrder)
	assert.Equal(t, "wikipedia", profile.ProfileSummary.Attribution["founded"])

	_, err = r.Decode([]byte(`{"something": "else"}`))
	assert.ErrorIs(t, err, ErrUnknownDocument)

	_, err = r.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeWithoutSourceOrder(t *testing.T) {
	doc, err := New().Decode([]byte(`{
		"company_name": "Acme",
		"sources": {"wikipedia": {"source": "wikipedia", "founded": "1949"}, "crunchbase": {"source": "crunchbase"}},
		"profile": {"founded": "1949"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"crunchbase", "wikipedia"}, doc.Profile.SourceOrder)
	assert.Equal(t, "1949", doc.Profile.Sources["wikipedia"].Fields["founded"])
}

func TestRenderMarkdown(t *testing.T) {
	r := New()

	crawl, err := r.GenerateReport(stampedCrawl(t), FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, crawl, "# Website Crawl: acme.com")
	assert.Contains(t, crawl, "*Generated on 2024-05-01T12:00:00Z*")
	assert.Contains(t, crawl, "- **emails:** info@acme.com")
	assert.Contains(t, crawl, "1. [Acme <Home>](https://acme.com/) - Anvils")

	profile, err := r.GenerateReport(stampedProfile(t), FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, profile, "# Company Profile: Acme")
	assert.Contains(t, profile, "| founded | 1949 | wikipedia |")
	assert.Contains(t, profile, "- **supplier:** Anvil Works (China)")
}

func TestRenderHTML(t *testing.T) {
	r := New()

	crawl, err := r.GenerateReport(stampedCrawl(t), FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, crawl, "<title>Website Crawl - acme.com</title>")
	assert.Contains(t, crawl, "Acme &lt;Home&gt;")
	assert.NotContains(t, crawl, "Acme <Home>")

	profile, err := r.GenerateReport(stampedProfile(t), FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, profile, "Company Profile: Acme")
	assert.Contains(t, profile, "Source: importyeti")
	assert.Contains(t, profile, "Anvil Works (China)")
}

func TestRenderJSON(t *testing.T) {
	out, err := New().GenerateReport(stampedProfile(t), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "profile")
	assert.Contains(t, decoded, "profile_summary")
	assert.NotContains(t, decoded, "crawl")
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := New().GenerateReport(stampedCrawl(t), "pdf")
	assert.Error(t, err)
}
