package ixbrl

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractFacts builds a FactTable from the raw (unstripped) filing. It must
// always run against the original document: once Preprocess has unwrapped the
// inline tags there is nothing left to extract.
//
// Matching is tolerant of filer inconsistency: any element whose local tag
// name ends in nonFraction or nonNumeric (case-insensitive, any prefix) is a
// fact candidate, with a fallback to the conventional ix:nonFraction /
// ix:nonNumeric names when the suffix match finds nothing. Attribute names
// are matched case-insensitively.
//
// Every matched element contributes exactly one Fact or is skipped with a
// recorded warning; skips are per-element, never stage-fatal. Order within a
// concept's fact list follows document order of discovery.
func ExtractFacts(rawHTML string) (FactTable, []Warning, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, nil, &MalformedDocumentError{Stage: "fact_extractor", Err: ErrEmptyDocument}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, nil, &MalformedDocumentError{Stage: "fact_extractor", Err: err}
	}

	matched := findFactElements(doc, matchBySuffix)
	if len(matched) == 0 {
		// Non-conforming documents sometimes defeat the suffix match; fall
		// back to the conventional tag names directly.
		matched = findFactElements(doc, matchByConventionalName)
	}

	facts := make(FactTable)
	var warnings []Warning
	for _, m := range matched {
		fact, concept, warn := readFact(m.sel, m.kind)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if fact == nil {
			continue
		}
		facts[concept] = append(facts[concept], *fact)
	}
	return facts, warnings, nil
}

type factElement struct {
	sel  *goquery.Selection
	kind FactKind
}

// matchBySuffix classifies a tag by its local name suffix, prefix-agnostic.
func matchBySuffix(tag string) (FactKind, bool) {
	switch {
	case strings.HasSuffix(tag, "nonfraction"):
		return FactNumeric, true
	case strings.HasSuffix(tag, "nonnumeric"):
		return FactNonNumeric, true
	}
	return "", false
}

// matchByConventionalName matches only the canonical ix-prefixed tag names.
func matchByConventionalName(tag string) (FactKind, bool) {
	switch tag {
	case "ix:nonfraction":
		return FactNumeric, true
	case "ix:nonnumeric":
		return FactNonNumeric, true
	}
	return "", false
}

// findFactElements walks the whole tree once so that nonFraction and
// nonNumeric facts interleave in document order.
func findFactElements(doc *goquery.Document, match func(string) (FactKind, bool)) []factElement {
	var out []factElement
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if kind, ok := match(strings.ToLower(goquery.NodeName(s))); ok {
			out = append(out, factElement{sel: s, kind: kind})
		}
	})
	return out
}

// readFact extracts one Fact from a matched element. The name attribute is
// the concept identifier and is required; contextRef identifies the reporting
// period/entity and is mandatory for every fact. A nonFraction element
// without unitRef is a data-quality issue but the fact is still recorded.
func readFact(sel *goquery.Selection, kind FactKind) (*Fact, string, *Warning) {
	tag := goquery.NodeName(sel)

	concept, ok := attrCaseInsensitive(sel, "name")
	if !ok || concept == "" {
		return nil, "", &Warning{
			Stage:   "fact_extractor",
			Kind:    WarnMissingAttribute,
			Message: fmt.Sprintf("<%s> element without required 'name' attribute, skipping", tag),
		}
	}

	contextRef, ok := attrCaseInsensitive(sel, "contextref")
	if !ok || contextRef == "" {
		return nil, "", &Warning{
			Stage:   "fact_extractor",
			Kind:    WarnMissingAttribute,
			Message: fmt.Sprintf("fact %s without required 'contextRef' attribute, skipping", concept),
		}
	}

	fact := &Fact{
		Value:      strings.TrimSpace(sel.Text()),
		ContextRef: contextRef,
		Kind:       kind,
	}

	unitRef, hasUnit := attrCaseInsensitive(sel, "unitref")
	fact.UnitRef = unitRef
	if kind == FactNumeric && (!hasUnit || unitRef == "") {
		return fact, concept, &Warning{
			Stage:   "fact_extractor",
			Kind:    WarnDataQuality,
			Message: fmt.Sprintf("nonFraction fact %s missing 'unitRef', recorded without unit", concept),
		}
	}
	return fact, concept, nil
}

// attrCaseInsensitive reads an attribute tolerating any key casing
// (contextRef, contextref, contextREF all appear in the wild).
func attrCaseInsensitive(sel *goquery.Selection, name string) (string, bool) {
	if len(sel.Nodes) == 0 {
		return "", false
	}
	for _, attr := range sel.Nodes[0].Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}
