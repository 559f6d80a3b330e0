// internal/pipeline/extract-content/readability.go
package extractcontent

import (
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	boilerplateSelector = "script, style, noscript, iframe, nav, header, footer, aside, form, svg, " +
		"button, input, select, textarea, object, embed, canvas, template, dialog, link, meta"
	semanticSelector = "article, main, [role=main], [itemprop=articleBody]"
	scoredSelector   = "p, pre, td, blockquote"

	minParagraphLength = 25
	minSemanticLength  = 140
)

var (
	unlikelyCandidates = regexp.MustCompile(`(?i)-ad-|ai2html|banner|breadcrumbs|combx|comment|community|cover-wrap|disqus|extra|footer|gdpr|header|legends|menu|related|remark|replies|rss|shoutbox|sidebar|skyscraper|social|sponsor|supplemental|ad-break|agegate|pagination|pager|popup|yom-remote|cookie|newsletter`)
	maybeCandidate     = regexp.MustCompile(`(?i)and|article|body|column|content|main|shadow`)
	positiveWeight     = regexp.MustCompile(`(?i)article|body|content|entry|hentry|h-entry|main|page|pagination|post|text|blog|story`)
	negativeWeight     = regexp.MustCompile(`(?i)-ad-|hidden|^hid$| hid$| hid |^hid |banner|combx|comment|com-|contact|foot|footer|footnote|gdpr|masthead|media|meta|outbrain|promo|related|scroll|share|shoutbox|sidebar|skyscraper|sponsor|shopping|tags|tool|widget`)
	displayNone        = regexp.MustCompile(`(?i)display\s*:\s*none|visibility\s*:\s*hidden`)
)

// blockElements get a line break around their text.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Blockquote: true, atom.Dd: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Figcaption: true, atom.Figure: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// mainText returns the readable text of doc, or "" when nothing qualifies.
func mainText(doc *goquery.Document) string {
	doc.Find(boilerplateSelector).Remove()
	removeHidden(doc)
	removeUnlikely(doc)

	if text := semanticText(doc); text != "" {
		return text
	}
	if text := scoredText(doc); text != "" {
		return text
	}
	return strings.TrimSpace(nodesText(doc.Find("body").Nodes))
}

func removeHidden(doc *goquery.Document) {
	doc.Find("[hidden], [aria-hidden=true]").Remove()
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if style, _ := s.Attr("style"); displayNone.MatchString(style) {
			s.Remove()
		}
	})
}

func removeUnlikely(doc *goquery.Document) {
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "article", "main", "body", "a", "td", "th", "table", "tbody":
			return
		}
		match := classAndID(s)
		if match == "" {
			return
		}
		if unlikelyCandidates.MatchString(match) && !maybeCandidate.MatchString(match) {
			s.Remove()
		}
	})
}

// semanticText picks the longest explicitly marked content region.
func semanticText(doc *goquery.Document) string {
	best := ""
	doc.Find(semanticSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(nodesText(s.Nodes))
		if len(text) > len(best) {
			best = text
		}
	})
	if len(best) < minSemanticLength {
		return ""
	}
	return best
}

// scoredText scores the parents of paragraph-like nodes and returns the winner
// together with its qualifying siblings.
func scoredText(doc *goquery.Document) string {
	scores := make(map[*html.Node]float64)
	var order []*html.Node

	addScore := func(n *html.Node, score float64) {
		if n == nil || n.Type != html.ElementNode {
			return
		}
		if _, seen := scores[n]; !seen {
			scores[n] = classWeight(goquery.NewDocumentFromNode(n).Selection)
			order = append(order, n)
		}
		scores[n] += score
	}

	doc.Find(scoredSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < minParagraphLength {
			return
		}
		score := 1 + float64(strings.Count(text, ",")) + math.Min(float64(len(text)/100), 3)
		parent := s.Parent()
		if parent.Length() == 0 {
			return
		}
		addScore(parent.Get(0), score)
		if grand := parent.Parent(); grand.Length() > 0 {
			addScore(grand.Get(0), score/2)
		}
	})

	var top *html.Node
	topScore := 0.0
	for _, n := range order {
		sel := goquery.NewDocumentFromNode(n).Selection
		final := scores[n] * (1 - linkDensity(sel))
		scores[n] = final
		if top == nil || final > topScore {
			top, topScore = n, final
		}
	}
	if top == nil {
		return ""
	}

	parts := []*html.Node{top}
	if top.Parent != nil {
		threshold := math.Max(10, topScore*0.2)
		parts = parts[:0]
		for sib := top.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
			if sib == top || includeSibling(sib, scores, threshold) {
				parts = append(parts, sib)
			}
		}
	}
	return strings.TrimSpace(nodesText(parts))
}

func includeSibling(n *html.Node, scores map[*html.Node]float64, threshold float64) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if score, ok := scores[n]; ok && score >= threshold {
		return true
	}
	if n.DataAtom != atom.P {
		return false
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	text := strings.TrimSpace(sel.Text())
	density := linkDensity(sel)
	if len(text) > 80 && density < 0.25 {
		return true
	}
	return len(text) > 0 && density == 0 && strings.ContainsAny(text, ".!?")
}

func classAndID(s *goquery.Selection) string {
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	return strings.TrimSpace(class + " " + id)
}

func classWeight(s *goquery.Selection) float64 {
	weight := 0.0
	for _, attr := range []string{"class", "id"} {
		v, ok := s.Attr(attr)
		if !ok || v == "" {
			continue
		}
		if negativeWeight.MatchString(v) {
			weight -= 25
		}
		if positiveWeight.MatchString(v) {
			weight += 25
		}
	}
	return weight
}

func linkDensity(s *goquery.Selection) float64 {
	total := len(strings.TrimSpace(s.Text()))
	if total == 0 {
		return 0
	}
	linked := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linked += len(strings.TrimSpace(a.Text()))
	})
	return float64(linked) / float64(total)
}

// nodesText renders text with line breaks at block boundaries.
func nodesText(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
