package ixbrl

import (
	"fmt"
	"sort"
	"strings"
)

// Render fuses a BlockSequence and an optional FactTable into a single
// Markdown document. A nil/empty FactTable simply produces no footnotes.
//
// Headings get a level from the configured font-size thresholds; sizes below
// every threshold render as plain paragraphs. Tables are embedded as their
// verbatim HTML markup, since Markdown tables cannot express merged cells.
// Heading and paragraph text is scanned for mentions of extracted concepts:
// the first mention of a concept anywhere in the document allocates the next
// footnote index, later mentions reuse it, and the footnote list appended at
// the end contains exactly the allocated indices.
func Render(blocks BlockSequence, facts FactTable, cfg RenderConfig) MarkdownDocument {
	fn := newFootnoter(facts, cfg.LabelOverrides)

	ordered := make(BlockSequence, len(blocks))
	copy(ordered, blocks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var sb strings.Builder
	for _, b := range ordered {
		switch b.Kind {
		case BlockHeading:
			level := headingLevel(b.FontSize, cfg.HeadingThresholds)
			text := applyStyles(fn.annotate(b.Text), b)
			if level == 0 {
				sb.WriteString(text + "\n\n")
			} else {
				sb.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
			}
		case BlockParagraph:
			sb.WriteString(applyStyles(fn.annotate(b.Text), b) + "\n\n")
		case BlockTable:
			sb.WriteString("<table>\n" + b.RawMarkup + "\n</table>\n\n")
		case BlockOther:
			sb.WriteString(b.Text + "\n\n")
		}
	}

	if len(fn.notes) > 0 {
		sb.WriteString("## Footnotes\n\n")
		for _, n := range fn.notes {
			line := fmt.Sprintf("[^%d]: %s", n.Index, n.Concept)
			if n.ContextRef != "" {
				line += " | Context: " + n.ContextRef
			}
			if n.UnitRef != "" {
				line += " | Unit: " + n.UnitRef
			}
			line += " | Value: " + n.Value
			sb.WriteString(line + "\n")
		}
	}

	return MarkdownDocument{Content: sb.String(), Footnotes: fn.notes}
}

// RenderDocument renders with the default configuration.
func RenderDocument(blocks BlockSequence, facts FactTable) MarkdownDocument {
	return Render(blocks, facts, DefaultRenderConfig())
}

// applyStyles wraps text with Markdown style markers per the block's flags.
// Markdown has no underline syntax, so underline keeps an inline <u> wrapper
// rather than inventing ambiguous markers.
func applyStyles(text string, b Block) string {
	if b.Bold {
		text = "**" + text + "**"
	}
	if b.Italic {
		text = "*" + text + "*"
	}
	if b.Underline {
		text = "<u>" + text + "</u>"
	}
	return text
}

// labelBinding ties a visible label to the concept it evidences.
type labelBinding struct {
	label   string
	concept string
}

// footnoter carries the footnote allocation state for one rendering run.
type footnoter struct {
	bindings       []labelBinding
	indexByConcept map[string]int
	facts          FactTable
	notes          []Footnote
}

// newFootnoter derives one label per concept from its local name
// ("Revenues" from "us-gaap:Revenues"), then adds configured overrides for
// concepts actually present in the table. Bindings are built in sorted order
// so allocation is deterministic when two labels first appear in the same
// block.
func newFootnoter(facts FactTable, overrides map[string]string) *footnoter {
	fn := &footnoter{
		indexByConcept: make(map[string]int),
		facts:          facts,
	}
	if len(facts) == 0 {
		return fn
	}

	concepts := make([]string, 0, len(facts))
	for c := range facts {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)

	seen := make(map[string]bool)
	for _, c := range concepts {
		label := localConceptName(c)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		fn.bindings = append(fn.bindings, labelBinding{label: label, concept: c})
	}

	labels := make([]string, 0, len(overrides))
	for l := range overrides {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		c := overrides[l]
		if seen[l] || len(facts[c]) == 0 {
			continue
		}
		seen[l] = true
		fn.bindings = append(fn.bindings, labelBinding{label: l, concept: c})
	}
	return fn
}

// localConceptName strips the namespace prefix from a qualified concept.
func localConceptName(concept string) string {
	if i := strings.LastIndexByte(concept, ':'); i >= 0 {
		return concept[i+1:]
	}
	return concept
}

// annotate inserts footnote markers after concept mentions in one block's
// text. The first mention of a concept in the document allocates the next
// sequential index; every later mention reuses that index, keeping the
// footnote list compact for frequently repeated metrics. Within a block each
// concept is marked at most once, at its earliest matching label.
func (fn *footnoter) annotate(text string) string {
	if len(fn.bindings) == 0 || text == "" {
		return text
	}

	type match struct {
		pos     int
		label   string
		concept string
	}
	best := make(map[string]match)
	for _, b := range fn.bindings {
		pos := strings.Index(text, b.label)
		if pos < 0 {
			continue
		}
		if prev, ok := best[b.concept]; !ok || pos < prev.pos {
			best[b.concept] = match{pos: pos, label: b.label, concept: b.concept}
		}
	}
	matches := make([]match, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	if len(matches) == 0 {
		return text
	}

	// Allocate indices in text order, then insert markers back-to-front so
	// earlier offsets stay valid.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].label < matches[j].label
	})
	for _, m := range matches {
		fn.allocate(m.concept)
	}
	inserts := make([]match, len(matches))
	copy(inserts, matches)
	sort.Slice(inserts, func(i, j int) bool {
		return inserts[i].pos+len(inserts[i].label) > inserts[j].pos+len(inserts[j].label)
	})
	for _, m := range inserts {
		at := m.pos + len(m.label)
		text = text[:at] + fmt.Sprintf("[^%d]", fn.indexByConcept[m.concept]) + text[at:]
	}
	return text
}

// allocate assigns the next footnote index to a concept on first sight,
// built from the concept's first extracted fact.
func (fn *footnoter) allocate(concept string) {
	if _, ok := fn.indexByConcept[concept]; ok {
		return
	}
	instances := fn.facts[concept]
	if len(instances) == 0 {
		return
	}
	first := instances[0]
	idx := len(fn.notes) + 1
	fn.indexByConcept[concept] = idx
	fn.notes = append(fn.notes, Footnote{
		Index:      idx,
		Concept:    concept,
		ContextRef: first.ContextRef,
		UnitRef:    first.UnitRef,
		Value:      first.Value,
	})
}
