package mscore

import (
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/notefall/lyrebird/core/errors"
)

// parseTree reads an XML document into an xmlquery node tree.
func parseTree(r io.Reader) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Message: "malformed document", Err: err}
	}
	return doc, nil
}

// rootElement returns the document's top-level element, skipping the XML
// declaration and any leading comments.
func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

var (
	queryMu        sync.Mutex
	descendantExpr = map[string]*xpath.Expr{}
)

// descendantQuery returns the compiled expression for ".//name". Descendant
// lookups run for every measure of every staff, so compilations are cached.
func descendantQuery(name string) *xpath.Expr {
	queryMu.Lock()
	defer queryMu.Unlock()
	if q, ok := descendantExpr[name]; ok {
		return q
	}
	q := xpath.MustCompile(".//" + name)
	descendantExpr[name] = q
	return q
}

// firstDescendant returns the first descendant element with the given name,
// searching in document order at any depth. Both schema generations wrap
// measure properties at different depths, so descendant search is the
// dialect-neutral way to find them.
func firstDescendant(n *xmlquery.Node, name string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	return xmlquery.QuerySelector(n, descendantQuery(name))
}

// childElements returns the direct element children of n, in document order.
func childElements(n *xmlquery.Node) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// childElement returns the first direct child element named name, or nil.
func childElement(n *xmlquery.Node, name string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}

// namedChildren returns the direct child elements named name, in order.
func namedChildren(n *xmlquery.Node, name string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			out = append(out, c)
		}
	}
	return out
}

// elementText returns the trimmed text content of n, or "" for nil.
func elementText(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

// childText returns the trimmed text of the first child element named name,
// or "" when the child is absent.
func childText(n *xmlquery.Node, name string) string {
	return elementText(childElement(n, name))
}

// childInt returns the integer content of the named child, or def when the
// child is absent or not a number.
func childInt(n *xmlquery.Node, name string, def int) int {
	s := childText(n, name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// childFloat returns the float content of the named child, or def when the
// child is absent or not a number.
func childFloat(n *xmlquery.Node, name string, def float64) float64 {
	s := childText(n, name)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// attr returns the value of the named attribute, or "" when absent.
func attr(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	return n.SelectAttr(name)
}

// attrInt returns the integer value of the named attribute, or def when the
// attribute is absent or not a number.
func attrInt(n *xmlquery.Node, name string, def int) int {
	s := attr(n, name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
