package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// invisibleElements never contribute to flattened text
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// IsInvisible reports whether n is an element whose text is never rendered
func IsInvisible(n *html.Node) bool {
	return n.Type == html.ElementNode && invisibleElements[n.Data]
}

// TextNodes returns every visible, non-blank text node under the selection
// in document order.
func TextNodes(sel *goquery.Selection) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsInvisible(n) {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return nodes
}

// FlattenText joins the stripped visible text of the selection with single
// spaces.
func FlattenText(sel *goquery.Selection) string {
	nodes := TextNodes(sel)
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, CleanText(n.Data))
	}
	return strings.Join(parts, " ")
}
