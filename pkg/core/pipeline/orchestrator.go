// Package pipeline wires the four ixbrl stages into a per-document run and a
// bounded-worker batch driver. Stages communicate only through immutable
// values, so documents are embarrassingly parallel across workers.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ixbrl_pipeline/pkg/core/ixbrl"
)

// Result carries every artifact of one document run. Each artifact is
// independently consumable: the cleaned HTML for debugging, the fact table
// for structured-data consumers, the Markdown document for text indexing.
type Result struct {
	RunID       string                 `json:"run_id"`
	CleanedHTML string                 `json:"cleaned_html"`
	Facts       ixbrl.FactTable        `json:"facts"`
	Markdown    ixbrl.MarkdownDocument `json:"markdown"`
	Warnings    []ixbrl.Warning        `json:"warnings"`
	Duration    time.Duration          `json:"duration"`
}

// Orchestrator manages the fixed data-flow order:
// raw HTML -> Preprocess -> ExtractBlocks -> Render, with ExtractFacts
// running concurrently against the raw input and joining at Render.
type Orchestrator struct {
	cfg     ixbrl.RenderConfig
	verbose bool
}

// NewOrchestrator creates an orchestrator with the given render
// configuration.
func NewOrchestrator(cfg ixbrl.RenderConfig) *Orchestrator {
	return &Orchestrator{cfg: cfg, verbose: true}
}

// SetVerbose toggles progress logging (off in tests).
func (o *Orchestrator) SetVerbose(v bool) { o.verbose = v }

type factsOutcome struct {
	facts    ixbrl.FactTable
	warnings []ixbrl.Warning
	err      error
}

// ProcessDocument runs all four stages for one filing. A document either
// completes all stages or fails with an error and no partial output; there
// is no cancellation mid-document. Per-element data-quality warnings from
// every stage are aggregated on the Result.
func (o *Orchestrator) ProcessDocument(ctx context.Context, rawHTML string) (*Result, error) {
	if o == nil {
		return nil, ixbrl.ErrStateNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.New().String()
	o.logf("Run %s: processing document (%d bytes)...\n", runID, len(rawHTML))

	// Fact extraction depends only on the raw input; run it alongside the
	// Preprocess -> ExtractBlocks chain.
	factsCh := make(chan factsOutcome, 1)
	go func() {
		facts, warns, err := ixbrl.ExtractFacts(rawHTML)
		factsCh <- factsOutcome{facts: facts, warnings: warns, err: err}
	}()

	cleaned, preWarns, err := ixbrl.Preprocess(rawHTML)
	if err != nil {
		<-factsCh
		return nil, err
	}

	blocks, blockWarns, err := ixbrl.ExtractBlocks(cleaned)
	if err != nil {
		<-factsCh
		return nil, err
	}

	fo := <-factsCh
	if fo.err != nil {
		return nil, fo.err
	}

	md := ixbrl.Render(blocks, fo.facts, o.cfg)

	var warnings []ixbrl.Warning
	warnings = append(warnings, preWarns...)
	warnings = append(warnings, fo.warnings...)
	warnings = append(warnings, blockWarns...)

	result := &Result{
		RunID:       runID,
		CleanedHTML: cleaned,
		Facts:       fo.facts,
		Markdown:    md,
		Warnings:    warnings,
		Duration:    time.Since(start),
	}
	o.logf("Run %s: %d blocks, %d concepts, %d footnotes, %d warnings in %v\n",
		runID, len(blocks), len(fo.facts), len(md.Footnotes), len(warnings), result.Duration)
	return result, nil
}

// BatchItem is one filing queued for batch processing.
type BatchItem struct {
	Name string
	HTML string
}

// BatchResult pairs an item with its outcome. A failed document never stops
// the batch.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// ProcessBatch runs N documents across a bounded worker pool. Results come
// back in item order; no ordering guarantee is needed between documents
// while running, since they share no mutable state.
func (o *Orchestrator) ProcessBatch(ctx context.Context, items []BatchItem, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]BatchResult, len(items))
	jobs := make(chan int)

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				res, err := o.ProcessDocument(ctx, items[i].HTML)
				results[i] = BatchResult{Name: items[i].Name, Result: res, Err: err}
				if err != nil {
					o.logf("Warning: %s failed: %v. Continuing.\n", items[i].Name, err)
				}
			}
			done <- struct{}{}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}
	return results
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.verbose {
		fmt.Printf(format, args...)
	}
}
