package ixbrl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultFontSizes supplies a conventional size per tag when an element
// carries no inline font-size. Heading defaults decrease monotonically and
// line up with the default heading thresholds in RenderConfig, so an
// unstyled h1..h6 maps onto levels 1..6.
var DefaultFontSizes = map[string]float64{
	"h1": 26,
	"h2": 24,
	"h3": 22,
	"h4": 20,
	"h5": 18,
	"h6": 16,
}

// bodyFontSize is the default for paragraph-like and other blocks.
const bodyFontSize = 12

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	fontSizeRe   = regexp.MustCompile(`font-size\s*:\s*([0-9]*\.?[0-9]+)\s*(px|pt)`)
)

// ExtractBlocks walks the cleaned document and produces the ordered sequence
// of typed, styled content blocks. It must run on Preprocess output; the
// parse is still re-checked defensively.
//
// Selection and ordering are decoupled: Position comes from a full
// document-order traversal of the tree, independent of the order elements
// were matched, and the final sequence is sorted by Position. Extensions to
// the selection rule therefore cannot corrupt reading order.
func ExtractBlocks(cleanedHTML string) (BlockSequence, []Warning, error) {
	if strings.TrimSpace(cleanedHTML) == "" {
		return nil, nil, &MalformedDocumentError{Stage: "block_extractor", Err: ErrEmptyDocument}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanedHTML))
	if err != nil {
		return nil, nil, &MalformedDocumentError{Stage: "block_extractor", Err: err}
	}

	positions := documentOrderPositions(doc)
	selected := make(map[*html.Node]bool)

	var blocks BlockSequence
	var warnings []Warning

	// goquery's Find("*") visits elements depth-first in document order, so
	// an ancestor is always classified before its descendants.
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		tag := strings.ToLower(goquery.NodeName(s))
		kind, ok := classifyElement(tag, s)
		if !ok {
			return
		}
		node := s.Nodes[0]
		// An element nested inside an already-selected block (a p inside a
		// blockquote, a table inside a table) is part of its ancestor's
		// content, not a block of its own.
		if hasSelectedAncestor(node, selected) {
			return
		}

		text := normalizeText(s.Text())
		if !utf8.ValidString(text) {
			warnings = append(warnings, Warning{
				Stage:   "block_extractor",
				Kind:    WarnSkippedElement,
				Message: fmt.Sprintf("<%s> at position %d has unrenderable content, skipping", tag, positions[node]),
			})
			return
		}
		// Empty blocks carry nothing for the rendering, except tables whose
		// structure (not text) is the payload.
		if text == "" && kind != BlockTable {
			return
		}

		style := strings.ToLower(s.AttrOr("style", ""))
		block := Block{
			Kind:      kind,
			Tag:       tag,
			Text:      text,
			FontSize:  extractFontSize(tag, style),
			Bold:      hasBold(s, style),
			Italic:    hasItalic(s, style),
			Underline: hasUnderline(s, style),
			Position:  positions[node],
		}
		if kind == BlockTable {
			// Keep the original inner markup verbatim; converting merged or
			// nested cells to Markdown would be lossy.
			if raw, err := s.Html(); err == nil {
				block.RawMarkup = raw
			}
		}

		selected[node] = true
		blocks = append(blocks, block)
	})

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Position < blocks[j].Position })
	return blocks, warnings, nil
}

// classifyElement dispatches a tag to its block kind. The switch is
// exhaustive over the closed kind set; unlisted tags are simply not blocks.
func classifyElement(tag string, s *goquery.Selection) (BlockKind, bool) {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return BlockHeading, true
	case "p":
		return BlockParagraph, true
	case "table":
		return BlockTable, true
	case "div", "body":
		// A container with only text/inline children is prose; one holding
		// block-level children is layout and its children are extracted
		// individually instead, so it is never double-counted. Including body
		// here keeps stray text that sits directly under it (common once
		// inline tags have been unwrapped) from being dropped.
		if isTextOnlyContainer(s) {
			return BlockParagraph, true
		}
		return "", false
	case "ul", "ol", "li", "pre", "blockquote":
		return BlockOther, true
	}
	return "", false
}

// isBlockLevelTag covers every tag the extractor treats as block-level,
// including layout divs.
func isBlockLevelTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "table", "div", "ul", "ol", "li", "pre", "blockquote":
		return true
	}
	return false
}

func isTextOnlyContainer(s *goquery.Selection) bool {
	blockChild := false
	s.Children().Each(func(_ int, c *goquery.Selection) {
		if isBlockLevelTag(strings.ToLower(goquery.NodeName(c))) {
			blockChild = true
		}
	})
	if blockChild {
		return false
	}
	return normalizeText(s.Text()) != ""
}

// documentOrderPositions assigns each element node its ordinal in a
// depth-first walk of the whole tree. This is the sole ordering key for
// blocks.
func documentOrderPositions(doc *goquery.Document) map[*html.Node]int {
	positions := make(map[*html.Node]int)
	ord := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			positions[n] = ord
			ord++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return positions
}

func hasSelectedAncestor(n *html.Node, selected map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if selected[p] {
			return true
		}
	}
	return false
}

// normalizeText collapses runs of whitespace to single spaces and trims.
func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// extractFontSize takes an inline font-size declaration when present (px or
// pt, compared numerically as-is), otherwise the tag default.
func extractFontSize(tag, style string) float64 {
	if m := fontSizeRe.FindStringSubmatch(style); len(m) > 1 {
		if size, err := strconv.ParseFloat(m[1], 64); err == nil {
			return size
		}
	}
	if size, ok := DefaultFontSizes[tag]; ok {
		return size
	}
	return bodyFontSize
}

// Style flags are true when either a styling tag wraps the content or the
// inline style sets the equivalent CSS property.

func hasBold(s *goquery.Selection, style string) bool {
	if s.Find("b, strong").Length() > 0 {
		return true
	}
	if strings.Contains(style, "font-weight") {
		for _, w := range []string{"bold", "700", "800", "900"} {
			if strings.Contains(style, w) {
				return true
			}
		}
	}
	return false
}

func hasItalic(s *goquery.Selection, style string) bool {
	if s.Find("i, em").Length() > 0 {
		return true
	}
	return strings.Contains(style, "font-style") && strings.Contains(style, "italic")
}

func hasUnderline(s *goquery.Selection, style string) bool {
	if s.Find("u").Length() > 0 {
		return true
	}
	return strings.Contains(style, "text-decoration") && strings.Contains(style, "underline")
}
