package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"ixbrl_pipeline/pkg/core/edgar"
	"ixbrl_pipeline/pkg/core/ixbrl"
	"ixbrl_pipeline/pkg/core/pipeline"
	"ixbrl_pipeline/pkg/core/store"
	"ixbrl_pipeline/pkg/core/utils"
)

func main() {
	input := flag.String("input", "", "path to a local iXBRL filing (skips EDGAR fetch)")
	ticker := flag.String("ticker", "", "fetch a filing for this ticker from SEC EDGAR")
	form := flag.String("form", "10-K", "form type when fetching from EDGAR")
	year := flag.Int("year", 0, "fiscal year when fetching from EDGAR (0 = latest)")
	outDir := flag.String("out", "out", "output directory for artifacts")
	configPath := flag.String("config", "", "render config file (.yaml/.hjson/.json)")
	persist := flag.Bool("persist", false, "persist artifacts (Postgres if DATABASE_URL is set, files otherwise)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfg := ixbrl.DefaultRenderConfig()
	if *configPath != "" {
		loaded, err := ixbrl.LoadRenderConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load render config: %v", err)
		}
		cfg = loaded
	}

	fmt.Println("🚀 iXBRL Structure-Recovery Pipeline Starting...")

	rawHTML, meta, err := loadFiling(*input, *ticker, *form, *year)
	if err != nil {
		log.Fatalf("Failed to load filing: %v", err)
	}

	orch := pipeline.NewOrchestrator(cfg)
	result, err := orch.ProcessDocument(context.Background(), rawHTML)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if !utils.ValidateMarkdown(result.Markdown.Content) {
		fmt.Println("⚠️ Rendered markdown failed validation check")
	}

	if err := writeArtifacts(*outDir, result); err != nil {
		log.Fatalf("Failed to write artifacts: %v", err)
	}

	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️ %s\n", w)
	}
	fmt.Printf("✅ Done: %d concepts, %d footnotes, artifacts in %s\n",
		len(result.Facts), len(result.Markdown.Footnotes), *outDir)

	if *persist {
		persistArtifacts(meta, result)
	}
}

// loadFiling reads the raw iXBRL document from disk, or fetches it from SEC
// EDGAR when a ticker is given. Retrieval is the only I/O the driver does
// before handing text to the pipeline.
func loadFiling(input, ticker, form string, year int) (string, *edgar.FilingMetadata, error) {
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", nil, err
		}
		return string(data), nil, nil
	}
	if ticker == "" {
		return "", nil, fmt.Errorf("either -input or -ticker is required")
	}

	parser := edgar.NewParser()
	cik, err := parser.LookupCIK(ticker)
	if err != nil {
		return "", nil, err
	}
	meta, err := parser.GetFilingMetadataByYear(cik, form, year)
	if err != nil {
		return "", nil, err
	}
	fmt.Printf("📂 Fetching %s %s (%s, filed %s)...\n", meta.CompanyName, meta.Form, meta.AccessionNumber, meta.FilingDate)
	html, err := parser.FetchFilingHTML(meta.FilingURL)
	if err != nil {
		return "", nil, err
	}
	return html, meta, nil
}

func writeArtifacts(dir string, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "cleaned.html"), []byte(result.CleanedHTML), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "filing.md"), []byte(result.Markdown.Content), 0644); err != nil {
		return err
	}
	preview, err := utils.MarkdownToHTML(result.Markdown.Content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "filing.html"), []byte(preview), 0644); err != nil {
		return err
	}
	factsJSON, err := json.MarshalIndent(result.Facts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "facts.json"), factsJSON, 0644)
}

func persistArtifacts(meta *edgar.FilingMetadata, result *pipeline.Result) {
	ctx := context.Background()
	rec := &store.ArtifactRecord{
		RunID:       result.RunID,
		CleanedHTML: result.CleanedHTML,
		Markdown:    result.Markdown.Content,
		Footnotes:   result.Markdown.Footnotes,
		Facts:       result.Facts,
		Warnings:    result.Warnings,
	}
	if meta != nil {
		rec.CIK = meta.CIK
		rec.AccessionNumber = meta.AccessionNumber
		rec.Form = meta.Form
	} else {
		rec.AccessionNumber = result.RunID // local files have no accession
	}

	var repo *store.ArtifactRepository
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			log.Fatalf("Failed to init database: %v", err)
		}
		defer store.Close()
		pool, err := store.GetPool()
		if err != nil {
			log.Fatalf("Database pool unavailable: %v", err)
		}
		repo = store.NewArtifactRepository(pool, "")
	} else {
		repo = store.NewArtifactRepository(nil, "")
	}

	if err := repo.Save(ctx, rec); err != nil {
		log.Fatalf("Failed to persist artifacts: %v", err)
	}
	fmt.Printf("💾 Persisted artifacts for %s\n", rec.AccessionNumber)
}
