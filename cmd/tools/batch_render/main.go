// batch_render runs the structure-recovery pipeline over many local filings
// concurrently. Documents share no mutable state, so the batch is bounded
// only by the worker count.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"ixbrl_pipeline/pkg/core/ixbrl"
	"ixbrl_pipeline/pkg/core/pipeline"
)

func main() {
	workers := flag.Int("workers", 4, "number of concurrent documents")
	outDir := flag.String("out", "out", "output directory (one subdirectory per filing)")
	configPath := flag.String("config", "", "render config file (.yaml/.hjson/.json)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("Usage: batch_render [flags] <filing.html> [<filing.html> ...]")
	}

	cfg := ixbrl.DefaultRenderConfig()
	if *configPath != "" {
		loaded, err := ixbrl.LoadRenderConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load render config: %v", err)
		}
		cfg = loaded
	}

	var items []pipeline.BatchItem
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", p, err)
		}
		items = append(items, pipeline.BatchItem{Name: baseName(p), HTML: string(data)})
	}

	fmt.Printf("🚀 Batch rendering %d filings with %d workers...\n", len(items), *workers)
	orch := pipeline.NewOrchestrator(cfg)
	results := orch.ProcessBatch(context.Background(), items, *workers)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("❌ %s: %v\n", r.Name, r.Err)
			continue
		}
		if err := writeResult(*outDir, r.Name, r.Result); err != nil {
			log.Fatalf("Failed to write artifacts for %s: %v", r.Name, err)
		}
		fmt.Printf("✅ %s: %d concepts, %d footnotes, %d warnings\n",
			r.Name, len(r.Result.Facts), len(r.Result.Markdown.Footnotes), len(r.Result.Warnings))
	}
	fmt.Printf("Done: %d succeeded, %d failed.\n", len(results)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func writeResult(outDir, name string, result *pipeline.Result) error {
	dir := filepath.Join(outDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "cleaned.html"), []byte(result.CleanedHTML), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "filing.md"), []byte(result.Markdown.Content), 0644); err != nil {
		return err
	}
	factsJSON, err := json.MarshalIndent(result.Facts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "facts.json"), factsJSON, 0644)
}
