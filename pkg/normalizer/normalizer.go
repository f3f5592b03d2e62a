package normalizer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// NormalizeError marks content that could not be reduced to indexable
// text (malformed markup or nothing left after cleaning).
type NormalizeError struct {
	Reason string
	Err    error
}

func (e *NormalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize: %s", e.Reason)
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// Result is the cleaned form of a fetched page.
type Result struct {
	Title           string
	MetaDescription string
	CleanText       string
}

// removeTags are stripped entirely, subtree included.
var removeTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"img":      true,
	"picture":  true,
	"source":   true,
	"video":    true,
	"audio":    true,
	"track":    true,
	"embed":    true,
	"object":   true,
	"iframe":   true,
	"svg":      true,
	"canvas":   true,
	"form":     true,
	"input":    true,
	"button":   true,
	"select":   true,
	"textarea": true,
	"label":    true,
}

// keepTags survive as structure; anything else is a wrapper candidate
// for collapsing.
var keepTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
	"a": true, "blockquote": true, "pre": true, "code": true,
	"strong": true, "em": true, "b": true, "i": true, "br": true, "hr": true,
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalizer strips boilerplate from fetched HTML. Normalizing already
// normalized output is a no-op.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize cleans raw HTML (or plain text). baseURL resolves relative
// href/src values; pass "" when the source has no URL.
func (n *Normalizer) Normalize(raw string, baseURL string) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, &NormalizeError{Reason: "malformed markup", Err: err}
	}

	var base *url.URL
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			base = u
		}
	}

	result := &Result{
		Title:           extractTitle(doc),
		MetaDescription: extractMetaDescription(doc),
	}

	body := findNode(doc, "body")
	if body == nil {
		return nil, &NormalizeError{Reason: "no body content"}
	}

	pruneNonContent(body)
	stripAttributes(body, base)
	collapseWrappers(body)
	removeEmpty(body)

	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return nil, &NormalizeError{Reason: "render failed", Err: err}
		}
	}

	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(sb.String(), " "))
	if clean == "" {
		return nil, &NormalizeError{Reason: "empty content after cleaning"}
	}
	result.CleanText = clean

	return result, nil
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func extractTitle(doc *html.Node) string {
	title := findNode(doc, "title")
	if title == nil {
		return ""
	}
	return strings.TrimSpace(textContent(title))
}

func extractMetaDescription(doc *html.Node) string {
	head := findNode(doc, "head")
	if head == nil {
		return ""
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "meta" {
			continue
		}
		var name, content string
		for _, a := range c.Attr {
			switch strings.ToLower(a.Key) {
			case "name":
				name = strings.ToLower(a.Val)
			case "content":
				content = a.Val
			}
		}
		if name == "description" {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// pruneNonContent drops comments, removed tags and whitespace-only text
// nodes in one pass.
func pruneNonContent(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && removeTags[c.Data]:
			n.RemoveChild(c)
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			n.RemoveChild(c)
		default:
			pruneNonContent(c)
		}
		c = next
	}
}

// stripAttributes keeps only href/src, resolving them against base.
func stripAttributes(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if key != "href" && key != "src" {
				continue
			}
			val := a.Val
			if base != nil {
				if ref, err := url.Parse(val); err == nil {
					val = base.ResolveReference(ref).String()
				}
			}
			kept = append(kept, html.Attribute{Key: key, Val: val})
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripAttributes(c, base)
	}
}

// collapseWrappers hoists the contents of non-structural elements that
// wrap exactly one element child. Children are processed first so nested
// wrappers unwind bottom-up.
func collapseWrappers(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		collapseWrappers(c)
		c = next
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isCollapsibleWrapper(c) {
			hoistChildren(n, c)
		}
		c = next
	}
}

func isCollapsibleWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode || keepTags[n.Data] {
		return false
	}
	elementChildren := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			elementChildren++
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		}
	}
	return elementChildren == 1
}

func hoistChildren(parent, n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// removeEmpty deletes elements left with no content, bottom-up. br/hr
// are intentionally empty and survive.
func removeEmpty(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		removeEmpty(c)
		c = next
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.Data != "br" && c.Data != "hr" && c.FirstChild == nil {
			n.RemoveChild(c)
		}
		c = next
	}
}
