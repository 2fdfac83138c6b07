// Package ixbrl implements the document-structure-recovery pipeline for
// Inline XBRL (iXBRL) SEC filings. A raw filing is an HTML document in which
// machine-readable financial facts are embedded inline next to human-readable
// prose and tables. The pipeline recovers both sides:
//
//   - Preprocess strips the inline-XBRL markup while preserving the visible
//     document (feeds ExtractBlocks).
//   - ExtractFacts builds a concept-indexed fact table from the raw document.
//   - ExtractBlocks recovers the ordered heading/paragraph/table structure
//     from the cleaned document.
//   - Render fuses blocks and facts into an annotated Markdown document.
//
// Every stage is a stateless function returning its output plus any
// per-element warnings, so documents can be processed concurrently without
// shared state.
//
// This package uses github.com/PuerkitoBio/goquery for HTML traversal and
// mutation, and golang.org/x/net/html for node-level document-order walks.
package ixbrl

import (
	"errors"
	"fmt"
)

// FactKind distinguishes numeric facts (ix:nonFraction) from non-numeric
// facts (ix:nonNumeric).
type FactKind string

const (
	FactNumeric    FactKind = "numeric"
	FactNonNumeric FactKind = "non_numeric"
)

// Fact is a single machine-readable value extracted from an inline tag.
// ContextRef is always non-empty; UnitRef is empty for non-numeric facts and
// may be empty for numeric facts when the filer omitted it (recorded with a
// data-quality warning). Facts are immutable once extracted.
type Fact struct {
	Value      string   `json:"value"`
	ContextRef string   `json:"context_ref"`
	UnitRef    string   `json:"unit_ref,omitempty"`
	Kind       FactKind `json:"kind"`
}

// FactTable maps a namespace-qualified concept name (e.g. "us-gaap:Revenues")
// to its facts in document order. A concept recurs across reporting contexts.
type FactTable map[string][]Fact

// BlockKind is the closed set of structural block types. Classification is
// an exhaustive switch over this set so that a new kind is a compile-visible
// addition, not a silently ignored map miss.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockTable     BlockKind = "table"
	BlockOther     BlockKind = "other"
)

// Block is one structural unit of the cleaned document.
// Position is the block's ordinal in a full document-order traversal and is
// the sole ordering key: discovery order during extraction is decoupled from
// reading order.
type Block struct {
	Kind      BlockKind `json:"kind"`
	Tag       string    `json:"tag"`
	Text      string    `json:"text"`
	RawMarkup string    `json:"raw_markup,omitempty"` // tables only: verbatim inner HTML
	FontSize  float64   `json:"font_size"`
	Bold      bool      `json:"bold"`
	Italic    bool      `json:"italic"`
	Underline bool      `json:"underline"`
	Position  int       `json:"position"`
}

// BlockSequence is the ordered block list, sorted by Position.
type BlockSequence []Block

// Footnote links a rendered mention back to the fact that justifies it.
type Footnote struct {
	Index      int    `json:"index"`
	Concept    string `json:"concept"`
	ContextRef string `json:"context_ref"`
	UnitRef    string `json:"unit_ref,omitempty"`
	Value      string `json:"value"`
}

// MarkdownDocument is the final rendered artifact: the Markdown text plus the
// footnotes appended at its end, in allocation order.
type MarkdownDocument struct {
	Content   string     `json:"content"`
	Footnotes []Footnote `json:"footnotes"`
}

// WarningKind classifies non-fatal per-element issues.
type WarningKind string

const (
	// WarnMissingAttribute: a matched fact element lacked a required
	// identifying attribute and was skipped.
	WarnMissingAttribute WarningKind = "missing_attribute"
	// WarnDataQuality: the fact was recorded but with degraded data
	// (e.g. a nonFraction element without unitRef).
	WarnDataQuality WarningKind = "data_quality"
	// WarnSkippedElement: an element could not be rendered and was dropped.
	WarnSkippedElement WarningKind = "skipped_element"
)

// Warning is a recorded data-quality issue. Warnings never abort a document;
// they are accumulated and returned alongside the stage output so a caller
// can assess filing quality without failing the run.
type Warning struct {
	Stage   string      `json:"stage"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Stage, w.Kind, w.Message)
}

// MalformedDocumentError reports input that cannot be parsed as HTML at all.
// It is fatal to the whole pipeline run for that document; no partial output
// is returned.
type MalformedDocumentError struct {
	Stage string
	Err   error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document in %s stage: %v", e.Stage, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// ErrStateNotInitialized is returned when a component is used before its
// required construction step (e.g. the store before InitDB). The parsing
// stages themselves are stateless and cannot hit this.
var ErrStateNotInitialized = errors.New("state not initialized")

// ErrEmptyDocument is returned for zero-length input, which cannot yield a
// meaningful parse.
var ErrEmptyDocument = errors.New("empty document")
