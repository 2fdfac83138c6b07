package ixbrl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// defaultNamespaces are always treated as XBRL-owned prefixes, even when the
// filer omits the standard xmlns declarations.
var defaultNamespaces = []string{"ix", "xbrli", "xbrl"}

// xbrlLocalNames are element names that belong to XBRL regardless of how the
// document prefixes them. The set is restricted to names that cannot collide
// with real HTML tags.
var xbrlLocalNames = map[string]bool{
	"nonfraction":  true,
	"nonnumeric":   true,
	"fraction":     true,
	"tuple":        true,
	"continuation": true,
	"exclude":      true,
	"denominator":  true,
	"numerator":    true,
}

// Unwrapping runs in passes: each pass removes the outermost matched
// elements, so nested inline tags surface on the next pass. Real filings nest
// a handful of levels at most.
const maxUnwrapPasses = 8

// Preprocess strips every inline-XBRL element from a raw filing, replacing
// each with its own inner content so that visible text and all non-XBRL
// markup survive in place. The output feeds ExtractBlocks and is idempotent:
// running Preprocess on already-cleaned output is a no-op because no XBRL
// element remains.
//
// Unparsable input returns a MalformedDocumentError with no partial output.
// A document that declares no XBRL namespaces still succeeds using the
// default prefix set.
func Preprocess(rawHTML string) (string, []Warning, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil, &MalformedDocumentError{Stage: "preprocessor", Err: ErrEmptyDocument}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", nil, &MalformedDocumentError{Stage: "preprocessor", Err: err}
	}

	ns := identifyNamespaces(doc)

	var warnings []Warning
	removed := false
	for pass := 0; pass < maxUnwrapPasses; pass++ {
		matched := findXBRLElements(doc, ns)
		if len(matched) == 0 {
			removed = true
			break
		}
		for _, sel := range matched {
			// Nested matches are handled on the next pass, after their
			// ancestor has been unwrapped; replacing them now would operate
			// on a detached node.
			if hasXBRLAncestor(sel, ns) {
				continue
			}
			inner, err := sel.Html()
			if err != nil || inner == "" {
				sel.Remove()
				continue
			}
			sel.ReplaceWithHtml(inner)
		}
	}
	if !removed && len(findXBRLElements(doc, ns)) > 0 {
		warnings = append(warnings, Warning{
			Stage:   "preprocessor",
			Kind:    WarnSkippedElement,
			Message: "xbrl elements remain after maximum unwrap passes",
		})
	}

	cleaned, err := doc.Html()
	if err != nil {
		return "", nil, &MalformedDocumentError{Stage: "preprocessor", Err: err}
	}
	return cleaned, warnings, nil
}

// identifyNamespaces builds the namespace set for one document: every
// xmlns:<prefix> declaration on the root element whose URI mentions XBRL,
// unioned with the fixed defaults. Read-only after this.
func identifyNamespaces(doc *goquery.Document) map[string]bool {
	ns := make(map[string]bool, len(defaultNamespaces))
	for _, p := range defaultNamespaces {
		ns[p] = true
	}

	root := doc.Find("html").First()
	if len(root.Nodes) == 0 {
		return ns
	}
	for _, attr := range root.Nodes[0].Attr {
		key := strings.ToLower(attr.Key)
		if !strings.HasPrefix(key, "xmlns:") {
			continue
		}
		if strings.Contains(strings.ToLower(attr.Val), "xbrl") {
			ns[strings.TrimPrefix(key, "xmlns:")] = true
		}
	}
	return ns
}

// isXBRLTag reports whether a tag name is XBRL-owned, either by namespace
// prefix membership or by known local name regardless of prefix. The union
// guards against filings with unconventional namespace usage.
func isXBRLTag(tag string, ns map[string]bool) bool {
	tag = strings.ToLower(tag)
	if i := strings.IndexByte(tag, ':'); i > 0 {
		if ns[tag[:i]] {
			return true
		}
		return xbrlLocalNames[tag[i+1:]]
	}
	return xbrlLocalNames[tag]
}

func findXBRLElements(doc *goquery.Document, ns map[string]bool) []*goquery.Selection {
	var matched []*goquery.Selection
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if isXBRLTag(goquery.NodeName(s), ns) {
			matched = append(matched, s)
		}
	})
	return matched
}

func hasXBRLAncestor(sel *goquery.Selection, ns map[string]bool) bool {
	if len(sel.Nodes) == 0 {
		return false
	}
	for n := sel.Nodes[0].Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && isXBRLTag(n.Data, ns) {
			return true
		}
	}
	return false
}
