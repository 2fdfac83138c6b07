package store

import (
	"context"
	"testing"

	"ixbrl_pipeline/pkg/core/ixbrl"
)

func TestArtifactRepositoryFileRoundTrip(t *testing.T) {
	repo := NewArtifactRepository(nil, t.TempDir())
	ctx := context.Background()

	rec := &ArtifactRecord{
		RunID:           "run-1",
		CIK:             "0000320193",
		AccessionNumber: "0000320193-24-000123",
		Form:            "10-K",
		CleanedHTML:     "<html><body><p>clean</p></body></html>",
		Markdown:        "# Report\n\nclean\n",
		Facts: ixbrl.FactTable{
			"us-gaap:Revenues": {{Value: "1000", ContextRef: "c1", UnitRef: "usd", Kind: ixbrl.FactNumeric}},
		},
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on save")
	}

	md, err := repo.LoadMarkdown(ctx, rec.AccessionNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != rec.Markdown {
		t.Errorf("expected stored markdown back, got %q", md)
	}

	facts, err := repo.LoadFacts(ctx, rec.AccessionNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts["us-gaap:Revenues"]) != 1 {
		t.Errorf("expected stored fact table back, got %v", facts)
	}
	if facts["us-gaap:Revenues"][0].Value != "1000" {
		t.Errorf("unexpected fact: %+v", facts["us-gaap:Revenues"][0])
	}
}

func TestArtifactRepositoryMiss(t *testing.T) {
	repo := NewArtifactRepository(nil, t.TempDir())
	ctx := context.Background()

	md, err := repo.LoadMarkdown(ctx, "0000000000-00-000000")
	if err != nil {
		t.Fatalf("a miss should not be an error: %v", err)
	}
	if md != "" {
		t.Errorf("expected empty markdown on miss, got %q", md)
	}

	facts, err := repo.LoadFacts(ctx, "0000000000-00-000000")
	if err != nil {
		t.Fatalf("a miss should not be an error: %v", err)
	}
	if facts != nil {
		t.Errorf("expected nil facts on miss, got %v", facts)
	}
}

func TestArtifactRepositorySaveNil(t *testing.T) {
	repo := NewArtifactRepository(nil, t.TempDir())

	if err := repo.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil record, got nil")
	}
}
