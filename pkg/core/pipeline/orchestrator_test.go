package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ixbrl_pipeline/pkg/core/ixbrl"
)

const sampleFiling = `<html><body>
	<h1>Annual Report</h1>
	<p>Revenues grew to <ix:nonFraction name="us-gaap:Revenues" contextRef="c1" unitRef="usd">1000</ix:nonFraction> this year.</p>
	<table><tr><td>Q1</td><td>250</td></tr></table>
</body></html>`

func newTestOrchestrator() *Orchestrator {
	o := NewOrchestrator(ixbrl.DefaultRenderConfig())
	o.SetVerbose(false)
	return o
}

func TestProcessDocument(t *testing.T) {
	o := newTestOrchestrator()

	result, err := o.ProcessDocument(context.Background(), sampleFiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if strings.Contains(strings.ToLower(result.CleanedHTML), "ix:nonfraction") {
		t.Error("cleaned HTML should have inline tags stripped")
	}
	if len(result.Facts["us-gaap:Revenues"]) != 1 {
		t.Errorf("expected 1 Revenues fact, got %v", result.Facts)
	}
	if !strings.Contains(result.Markdown.Content, "# Annual Report") {
		t.Errorf("heading should render, got:\n%s", result.Markdown.Content)
	}
	if !strings.Contains(result.Markdown.Content, "Revenues[^1]") {
		t.Errorf("concept mention should be annotated, got:\n%s", result.Markdown.Content)
	}
	if !strings.Contains(result.Markdown.Content, "## Footnotes") {
		t.Errorf("footnote section missing, got:\n%s", result.Markdown.Content)
	}
	if !strings.Contains(result.Markdown.Content, "<table>") {
		t.Errorf("table block missing, got:\n%s", result.Markdown.Content)
	}
	if result.Duration <= 0 {
		t.Error("Duration should be positive")
	}
}

func TestProcessDocumentUnwrappedTopLevelText(t *testing.T) {
	o := newTestOrchestrator()

	// The fact and the prose mentioning it sit directly under body, with no
	// paragraph wrapper at all.
	raw := `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"><body><ix:nonFraction name="us-gaap:Revenues" contextRef="c1" unitRef="usd">1000</ix:nonFraction> Revenues grew.</body></html>`

	result, err := o.ProcessDocument(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Facts["us-gaap:Revenues"]) != 1 {
		t.Fatalf("expected 1 Revenues fact, got %v", result.Facts)
	}
	if !strings.Contains(result.Markdown.Content, "1000 Revenues[^1] grew.") {
		t.Errorf("first mention should carry the footnote marker, got:\n%s", result.Markdown.Content)
	}
	if len(result.Markdown.Footnotes) != 1 {
		t.Fatalf("expected a single footnote, got %+v", result.Markdown.Footnotes)
	}
	n := result.Markdown.Footnotes[0]
	if n.Index != 1 || n.Concept != "us-gaap:Revenues" || n.Value != "1000" {
		t.Errorf("unexpected footnote: %+v", n)
	}
}

func TestProcessDocumentAggregatesWarnings(t *testing.T) {
	o := newTestOrchestrator()

	// One fact without contextRef: skipped with a fact-extractor warning.
	raw := `<html><body><p><ix:nonFraction name="a:X" unitRef="usd">5</ix:nonFraction></p></body></html>`
	result, err := o.ProcessDocument(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	if result.Warnings[0].Stage != "fact_extractor" {
		t.Errorf("expected fact_extractor warning, got %+v", result.Warnings[0])
	}
	if len(result.Facts) != 0 {
		t.Errorf("skipped fact should not appear in the table, got %v", result.Facts)
	}
}

func TestProcessDocumentEmptyInput(t *testing.T) {
	o := newTestOrchestrator()

	_, err := o.ProcessDocument(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty document, got nil")
	}
	if !errors.Is(err, ixbrl.ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument in chain, got %v", err)
	}
}

func TestProcessDocumentNilOrchestrator(t *testing.T) {
	var o *Orchestrator

	_, err := o.ProcessDocument(context.Background(), sampleFiling)
	if !errors.Is(err, ixbrl.ErrStateNotInitialized) {
		t.Errorf("expected ErrStateNotInitialized, got %v", err)
	}
}

func TestProcessDocumentCancelledContext(t *testing.T) {
	o := newTestOrchestrator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.ProcessDocument(ctx, sampleFiling)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcessBatch(t *testing.T) {
	o := newTestOrchestrator()

	items := []BatchItem{
		{Name: "good-1", HTML: sampleFiling},
		{Name: "bad", HTML: "   "},
		{Name: "good-2", HTML: sampleFiling},
	}

	results := o.ProcessBatch(context.Background(), items, 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Results stay in item order regardless of worker scheduling.
	for i, item := range items {
		if results[i].Name != item.Name {
			t.Errorf("result %d: expected name '%s', got '%s'", i, item.Name, results[i].Name)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("good documents should succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("empty document should fail without stopping the batch")
	}
	if results[0].Result == nil || len(results[0].Result.Facts) != 1 {
		t.Errorf("successful result should carry artifacts, got %+v", results[0].Result)
	}
}

func TestProcessBatchMoreWorkersThanItems(t *testing.T) {
	o := newTestOrchestrator()

	results := o.ProcessBatch(context.Background(), []BatchItem{{Name: "only", HTML: sampleFiling}}, 16)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("unexpected error: %v", results[0].Err)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	o := newTestOrchestrator()

	results := o.ProcessBatch(context.Background(), nil, 4)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
