package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/scope"
	"github.com/amosWeiskopf/profilesmith/pkg/utils"
)

const (
	previewLength = 500
	addressLength = 200

	ContactEmails = "emails"
	ContactPhones = "phones"
)

// DefaultBusinessKeywords is the vocabulary matched against page text
var DefaultBusinessKeywords = []string{
	"product", "service", "solution", "technology", "platform",
	"mission", "vision", "value", "innovation", "customer",
	"industry", "market", "enterprise", "cloud", "software",
	"data", "analytics", "AI", "machine learning", "automation",
}

// DefaultAddressKeywords anchor the address-like text blocks
var DefaultAddressKeywords = []string{"address", "headquarters", "office", "location"}

// blockElements are the ancestors an address anchor may resolve to
var blockElements = map[string]bool{
	"p":       true,
	"div":     true,
	"span":    true,
	"li":      true,
	"td":      true,
	"address": true,
}

// Options configures an Extractor
type Options struct {
	BusinessKeywords []string
	AddressKeywords  []string
}

// Extractor turns fetched HTML into a page record and its outbound links
type Extractor struct {
	emailRegex       *regexp.Regexp
	phoneRegex       *regexp.Regexp
	businessKeywords []string
	addressKeywords  []string
}

// New creates a new Extractor instance
func New(opts Options) *Extractor {
	if len(opts.BusinessKeywords) == 0 {
		opts.BusinessKeywords = DefaultBusinessKeywords
	}
	if len(opts.AddressKeywords) == 0 {
		opts.AddressKeywords = DefaultAddressKeywords
	}
	return &Extractor{
		emailRegex:       regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		phoneRegex:       regexp.MustCompile(`\b(?:\+?1[\-.\s]?)?\(?([0-9]{3})\)?[\-.\s]?([0-9]{3})[\-.\s]?([0-9]{4})\b`),
		businessKeywords: opts.BusinessKeywords,
		addressKeywords:  opts.AddressKeywords,
	}
}

// Extract parses body fetched from pageURL. keep filters the outbound links;
// a nil keep retains every resolvable link.
func (e *Extractor) Extract(body []byte, pageURL string, keep func(string) bool) (*models.PageRecord, []string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	text := utils.FlattenText(doc.Selection)
	record := &models.PageRecord{
		URL:           pageURL,
		Title:         ExtractTitle(doc),
		Description:   ExtractMetaDescription(doc),
		TextLength:    utils.RuneLen(text),
		TextPreview:   utils.Truncate(text, previewLength),
		Contacts:      e.ExtractContacts(doc, text),
		BusinessTerms: e.ExtractBusinessTerms(text),
	}

	return record, e.ExtractLinks(doc, base, keep), nil
}

// ExtractTitle returns the text of the first title element
func ExtractTitle(doc *goquery.Document) string {
	return utils.CleanText(doc.Find("title").First().Text())
}

// ExtractMetaDescription returns the content of the name=description meta tag
func ExtractMetaDescription(doc *goquery.Document) string {
	var desc string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "description") {
			return true
		}
		desc, _ = s.Attr("content")
		desc = strings.TrimSpace(desc)
		return false
	})
	return desc
}

// ExtractContacts collects emails, phones and address-like blocks. Kinds
// with nothing found are omitted.
func (e *Extractor) ExtractContacts(doc *goquery.Document, text string) map[string][]string {
	contacts := make(map[string][]string)

	if emails := e.ExtractEmails(text); len(emails) > 0 {
		contacts[ContactEmails] = emails
	}
	if phones := e.ExtractPhones(text); len(phones) > 0 {
		contacts[ContactPhones] = phones
	}
	for keyword, block := range e.ExtractAddresses(doc) {
		contacts[keyword] = []string{block}
	}

	return contacts
}

// ExtractEmails finds all email addresses in the content
func (e *Extractor) ExtractEmails(content string) []string {
	return utils.Dedupe(e.emailRegex.FindAllString(content, -1))
}

// ExtractPhones finds North-American numbers and normalizes them to
// (AAA) BBB-CCCC.
func (e *Extractor) ExtractPhones(content string) []string {
	matches := e.phoneRegex.FindAllStringSubmatch(content, -1)
	phones := make([]string, 0, len(matches))
	for _, m := range matches {
		phones = append(phones, fmt.Sprintf("(%s) %s-%s", m[1], m[2], m[3]))
	}
	return utils.Dedupe(phones)
}

// ExtractAddresses maps each address keyword to the text of the nearest
// block ancestor of the first text node mentioning it.
func (e *Extractor) ExtractAddresses(doc *goquery.Document) map[string]string {
	nodes := utils.TextNodes(doc.Selection)
	found := make(map[string]string)

	for _, keyword := range e.addressKeywords {
		for _, n := range nodes {
			if !utils.ContainsFold(n.Data, keyword) {
				continue
			}
			if block := blockAncestor(n); block != nil {
				text := utils.FlattenText(goquery.NewDocumentFromNode(block).Selection)
				if text != "" {
					found[keyword] = utils.Truncate(text, addressLength)
				}
			}
			break
		}
	}

	return found
}

func blockAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && blockElements[p.Data] {
			return p
		}
	}
	return nil
}

// ExtractBusinessTerms returns the vocabulary terms contained in text, in
// vocabulary order.
func (e *Extractor) ExtractBusinessTerms(text string) []string {
	lower := strings.ToLower(text)
	terms := []string{}
	for _, term := range e.businessKeywords {
		if strings.Contains(lower, strings.ToLower(term)) {
			terms = append(terms, term)
		}
	}
	return utils.Dedupe(terms)
}

// ExtractLinks resolves every hyperlink on the page against base and returns
// the distinct ones keep accepts.
func (e *Extractor) ExtractLinks(doc *goquery.Document, base *url.URL, keep func(string) bool) []string {
	var links []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, ok := scope.Resolve(base, href)
		if !ok || seen[abs] {
			return
		}
		seen[abs] = true
		if keep == nil || keep(abs) {
			links = append(links, abs)
		}
	})

	return links
}
