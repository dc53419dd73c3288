package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/analyzer"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

// Document kinds
const (
	KindCrawl   = "crawl"
	KindProfile = "profile"
)

// Formats supported by Render
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var ErrUnknownDocument = errors.New("document is neither a crawl result nor a profile")

// Document is a stored result together with its summary
type Document struct {
	Kind     string                    `json:"kind"`
	Metadata *storage.Metadata         `json:"metadata,omitempty"`
	Crawl    *models.CrawlResult       `json:"crawl,omitempty"`
	Profile  *models.AggregationResult `json:"profile,omitempty"`

	CrawlSummary   *analyzer.CrawlSummary   `json:"crawl_summary,omitempty"`
	ProfileSummary *analyzer.ProfileSummary `json:"profile_summary,omitempty"`
}

// Reporter handles report generation in various formats
type Reporter struct {
	analyzer *analyzer.Analyzer
}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{analyzer: analyzer.New()}
}

// Decode reads a stored document, telling crawls and profiles apart by
// their identifying key.
func (r *Reporter) Decode(data []byte) (*Document, error) {
	var probe struct {
		CompanyName *string           `json:"company_name"`
		BaseURL     *string           `json:"base_url"`
		Metadata    *storage.Metadata `json:"_metadata"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := &Document{Metadata: probe.Metadata}
	switch {
	case probe.CompanyName != nil:
		doc.Kind = KindProfile
		doc.Profile = &models.AggregationResult{}
		if err := json.Unmarshal(data, doc.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		if len(doc.Profile.SourceOrder) == 0 {
			doc.Profile.SourceOrder = sortedKinds(doc.Profile.Sources)
		}
		doc.ProfileSummary = r.analyzer.SummarizeProfile(doc.Profile)
	case probe.BaseURL != nil:
		doc.Kind = KindCrawl
		doc.Crawl = &models.CrawlResult{}
		if err := json.Unmarshal(data, doc.Crawl); err != nil {
			return nil, fmt.Errorf("failed to decode crawl result: %w", err)
		}
		doc.CrawlSummary = r.analyzer.SummarizeCrawl(doc.Crawl)
	default:
		return nil, ErrUnknownDocument
	}
	return doc, nil
}

// sortedKinds orders source kinds for documents written without an explicit
// source order.
func sortedKinds(sources map[string]models.SourceRecord) []string {
	kinds := make([]string, 0, len(sources))
	for kind := range sources {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Render creates a report in the specified format
func (r *Reporter) Render(doc *Document, format string) (string, error) {
	switch format {
	case FormatJSON:
		return r.generateJSON(doc)
	case FormatHTML:
		return r.generateHTML(doc)
	case FormatMarkdown:
		return r.generateMarkdown(doc)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// GenerateReport decodes data and renders it in format
func (r *Reporter) GenerateReport(data []byte, format string) (string, error) {
	doc, err := r.Decode(data)
	if err != nil {
		return "", err
	}
	return r.Render(doc, format)
}

// generateJSON creates a JSON formatted report
func (r *Reporter) generateJSON(doc *Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// generateHTML creates an HTML formatted report
func (r *Reporter) generateHTML(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// generateMarkdown creates a Markdown formatted report
func (r *Reporter) generateMarkdown(doc *Document) (string, error) {
	var buf bytes.Buffer

	switch doc.Kind {
	case KindCrawl:
		writeCrawlMarkdown(&buf, doc)
	case KindProfile:
		writeProfileMarkdown(&buf, doc)
	default:
		return "", ErrUnknownDocument
	}

	return buf.String(), nil
}

func writeCrawlMarkdown(buf *bytes.Buffer, doc *Document) {
	result, summary := doc.Crawl, doc.CrawlSummary

	fmt.Fprintf(buf, "# Website Crawl: %s\n\n", result.Domain)
	writeGenerated(buf, doc)

	fmt.Fprintf(buf, "| Metric | Value |\n")
	fmt.Fprintf(buf, "|--------|-------|\n")
	fmt.Fprintf(buf, "| Pages crawled | %d |\n", summary.Pages)
	fmt.Fprintf(buf, "| URLs visited | %d |\n", summary.Visited)
	fmt.Fprintf(buf, "| Contacts found | %d |\n", summary.TotalContacts)
	fmt.Fprintf(buf, "| Business terms | %d |\n\n", len(result.BusinessTerms))

	if len(result.Contacts) > 0 {
		fmt.Fprintf(buf, "## Contacts\n\n")
		for _, kind := range contactKinds(result.Contacts) {
			fmt.Fprintf(buf, "- **%s:** %s\n", kind, strings.Join(result.Contacts[kind], ", "))
		}
		fmt.Fprintf(buf, "\n")
	}

	if len(summary.TopTerms) > 0 {
		fmt.Fprintf(buf, "## Business Terms\n\n")
		for _, term := range summary.TopTerms {
			fmt.Fprintf(buf, "- %s (%d pages)\n", term.Term, term.Pages)
		}
		fmt.Fprintf(buf, "\n")
	}

	fmt.Fprintf(buf, "## Pages\n\n")
	for i, page := range result.Pages {
		fmt.Fprintf(buf, "%d. [%s](%s)", i+1, pageTitle(page), page.URL)
		if page.Description != "" {
			fmt.Fprintf(buf, " - %s", page.Description)
		}
		fmt.Fprintf(buf, "\n")
	}
	fmt.Fprintf(buf, "\n")

	writeFindings(buf, summary.Findings)
}

func writeProfileMarkdown(buf *bytes.Buffer, doc *Document) {
	result, summary := doc.Profile, doc.ProfileSummary

	fmt.Fprintf(buf, "# Company Profile: %s\n\n", result.CompanyName)
	writeGenerated(buf, doc)

	fmt.Fprintf(buf, "**Coverage:** %.0f%% of profile fields from %d sources\n\n",
		summary.Coverage*100, len(summary.Sources))

	if len(summary.FilledFields) > 0 {
		fmt.Fprintf(buf, "## Profile\n\n")
		fmt.Fprintf(buf, "| Field | Value | Source |\n")
		fmt.Fprintf(buf, "|-------|-------|--------|\n")
		for _, field := range summary.FilledFields {
			fmt.Fprintf(buf, "| %s | %s | %s |\n", field, escapeCell(result.Profile[field]), summary.Attribution[field])
		}
		fmt.Fprintf(buf, "\n")
	}

	if len(summary.MissingFields) > 0 {
		fmt.Fprintf(buf, "**Missing:** %s\n\n", strings.Join(summary.MissingFields, ", "))
	}

	for _, rec := range result.OrderedSources() {
		fmt.Fprintf(buf, "## Source: %s\n\n", rec.Source)
		for _, field := range fieldNames(rec.Fields) {
			fmt.Fprintf(buf, "- **%s:** %s\n", field, rec.Fields[field])
		}
		for _, s := range rec.Suppliers {
			fmt.Fprintf(buf, "- **supplier:** %s (%s)\n", s.Name, s.Country)
		}
		fmt.Fprintf(buf, "\n")
	}

	writeFindings(buf, summary.Findings)
}

func writeGenerated(buf *bytes.Buffer, doc *Document) {
	if doc.Metadata != nil && doc.Metadata.Timestamp != "" {
		fmt.Fprintf(buf, "*Generated on %s*\n\n", doc.Metadata.Timestamp)
	}
}

func writeFindings(buf *bytes.Buffer, findings []analyzer.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(buf, "## Key Findings\n\n")
	for _, finding := range findings {
		fmt.Fprintf(buf, "- **%s** (%s): %s\n", finding.Type, finding.Severity, finding.Description)
	}
	fmt.Fprintf(buf, "\n")
}

func pageTitle(page models.PageRecord) string {
	if page.Title != "" {
		return page.Title
	}
	return page.URL
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}

func contactKinds(contacts map[string][]string) []string {
	kinds := make([]string, 0, len(contacts))
	for kind := range contacts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent":      func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"join":         strings.Join,
	"contactKinds": contactKinds,
	"fieldNames":   fieldNames,
	"pageTitle":    pageTitle,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if eq .Kind "crawl"}}Website Crawl - {{.Crawl.Domain}}{{else}}Company Profile - {{.Profile.CompanyName}}{{end}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .finding {
            border-left: 4px solid #ffc107;
            padding: 0.5rem 1rem;
            margin: 0.5rem 0;
        }
        .finding.high { border-left-color: #dc3545; }
        .finding.low { border-left-color: #28a745; }
        table { border-collapse: collapse; width: 100%; }
        td, th { text-align: left; padding: 0.4rem; border-bottom: 1px solid #eee; vertical-align: top; }
    </style>
</head>
<body>
{{if eq .Kind "crawl"}}
    <div class="header">
        <h1>Website Crawl: {{.Crawl.Domain}}</h1>
        {{with .Metadata}}<p>Generated on {{.Timestamp}}</p>{{end}}
    </div>
    <div class="card">
        <h2>Summary</h2>
        <p>{{.CrawlSummary.Pages}} pages crawled, {{.CrawlSummary.Visited}} URLs visited,
           {{.CrawlSummary.TotalContacts}} contacts, {{len .Crawl.BusinessTerms}} business terms.</p>
    </div>
    {{if .Crawl.Contacts}}
    <div class="card">
        <h2>Contacts</h2>
        <table>
        {{range $kind := contactKinds .Crawl.Contacts}}
            <tr><th>{{$kind}}</th><td>{{join (index $.Crawl.Contacts $kind) ", "}}</td></tr>
        {{end}}
        </table>
    </div>
    {{end}}
    {{if .CrawlSummary.TopTerms}}
    <div class="card">
        <h2>Business Terms</h2>
        <ul>{{range .CrawlSummary.TopTerms}}<li>{{.Term}} ({{.Pages}} pages)</li>{{end}}</ul>
    </div>
    {{end}}
    <div class="card">
        <h2>Pages</h2>
        <table>
        {{range .Crawl.Pages}}
            <tr><td><a href="{{.URL}}">{{pageTitle .}}</a></td><td>{{.Description}}</td><td>{{.TextLength}} chars</td></tr>
        {{end}}
        </table>
    </div>
    {{template "findings" .CrawlSummary.Findings}}
{{else}}
    <div class="header">
        <h1>Company Profile: {{.Profile.CompanyName}}</h1>
        {{with .Metadata}}<p>Generated on {{.Timestamp}}</p>{{end}}
    </div>
    <div class="card">
        <h2>Profile</h2>
        <p>Coverage: {{percent .ProfileSummary.Coverage}} from {{len .ProfileSummary.Sources}} sources</p>
        <table>
        {{range $field := .ProfileSummary.FilledFields}}
            <tr><th>{{$field}}</th><td>{{index $.Profile.Profile $field}}</td><td>{{index $.ProfileSummary.Attribution $field}}</td></tr>
        {{end}}
        </table>
        {{if .ProfileSummary.MissingFields}}<p>Missing: {{join .ProfileSummary.MissingFields ", "}}</p>{{end}}
    </div>
    {{range .Profile.OrderedSources}}
    <div class="card">
        <h2>Source: {{.Source}}</h2>
        <table>
        {{$fields := .Fields}}
        {{range $name := fieldNames .Fields}}
            <tr><th>{{$name}}</th><td>{{index $fields $name}}</td></tr>
        {{end}}
        {{range .Suppliers}}
            <tr><th>supplier</th><td>{{.Name}} ({{.Country}})</td></tr>
        {{end}}
        </table>
    </div>
    {{end}}
    {{template "findings" .ProfileSummary.Findings}}
{{end}}
</body>
</html>
{{define "findings"}}{{if .}}
    <div class="card">
        <h2>Key Findings</h2>
        {{range .}}
        <div class="finding {{.Severity}}">
            <h4>{{.Type}}</h4>
            <p>{{.Description}}</p>
        </div>
        {{end}}
    </div>
{{end}}{{end}}`))
