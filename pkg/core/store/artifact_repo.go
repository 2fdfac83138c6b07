package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ixbrl_pipeline/pkg/core/ixbrl"
)

// ArtifactRecord is one pipeline run's persisted output: the cleaned HTML,
// the concept-indexed fact table, and the annotated Markdown rendering,
// keyed by accession number.
type ArtifactRecord struct {
	RunID           string            `json:"run_id"`
	CIK             string            `json:"cik"`
	AccessionNumber string            `json:"accession_number"`
	Form            string            `json:"form"`
	CleanedHTML     string            `json:"cleaned_html"`
	Markdown        string            `json:"markdown"`
	Footnotes       []ixbrl.Footnote  `json:"footnotes"`
	Facts           ixbrl.FactTable   `json:"facts"`
	Warnings        []ixbrl.Warning   `json:"warnings"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ArtifactRepository stores artifacts in Postgres when a pool is provided,
// otherwise in a local directory (one subdirectory per accession number).
type ArtifactRepository struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewArtifactRepository creates a repository. If pool is nil it falls back
// to a file-based store in dir (default .cache/ixbrl/artifacts).
func NewArtifactRepository(pool *pgxpool.Pool, dir string) *ArtifactRepository {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "ixbrl", "artifacts")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check artifact dir: %v\n", err)
		}
	}
	return &ArtifactRepository{pool: pool, fileDir: dir}
}

// Save persists one record. DB writes upsert on accession number so re-runs
// replace earlier artifacts for the same filing.
func (r *ArtifactRepository) Save(ctx context.Context, rec *ArtifactRecord) error {
	if rec == nil {
		return fmt.Errorf("nil artifact record")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if r.pool != nil {
		factsJSON, err := json.Marshal(rec.Facts)
		if err != nil {
			return fmt.Errorf("failed to marshal fact table: %w", err)
		}
		warningsJSON, err := json.Marshal(rec.Warnings)
		if err != nil {
			return fmt.Errorf("failed to marshal warnings: %w", err)
		}
		footnotesJSON, err := json.Marshal(rec.Footnotes)
		if err != nil {
			return fmt.Errorf("failed to marshal footnotes: %w", err)
		}

		query := `
			INSERT INTO filing_artifacts
				(run_id, cik, accession_number, form, cleaned_html, markdown, footnotes, facts, warnings, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (accession_number) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				cleaned_html = EXCLUDED.cleaned_html,
				markdown = EXCLUDED.markdown,
				footnotes = EXCLUDED.footnotes,
				facts = EXCLUDED.facts,
				warnings = EXCLUDED.warnings,
				created_at = EXCLUDED.created_at
		`
		_, err = r.pool.Exec(ctx, query,
			rec.RunID, rec.CIK, rec.AccessionNumber, rec.Form,
			rec.CleanedHTML, rec.Markdown, footnotesJSON, factsJSON, warningsJSON, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert artifact: %w", err)
		}
		return nil
	}

	if r.fileDir == "" {
		return ixbrl.ErrStateNotInitialized
	}
	dir := filepath.Join(r.fileDir, sanitizeAccession(rec.AccessionNumber))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cleaned.html"), []byte(rec.CleanedHTML), 0644); err != nil {
		return fmt.Errorf("failed to write cleaned HTML: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "filing.md"), []byte(rec.Markdown), 0644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	recJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "artifact.json"), recJSON, 0644); err != nil {
		return fmt.Errorf("failed to write artifact record: %w", err)
	}
	return nil
}

// LoadMarkdown retrieves the persisted Markdown artifact for an accession
// number, or "" when none is stored.
func (r *ArtifactRepository) LoadMarkdown(ctx context.Context, accessionNumber string) (string, error) {
	if r.pool != nil {
		var markdown string
		err := r.pool.QueryRow(ctx,
			`SELECT markdown FROM filing_artifacts WHERE accession_number = $1 LIMIT 1`,
			accessionNumber).Scan(&markdown)
		if err != nil {
			return "", nil // treat as a miss
		}
		return markdown, nil
	}

	if r.fileDir == "" {
		return "", ixbrl.ErrStateNotInitialized
	}
	path := filepath.Join(r.fileDir, sanitizeAccession(accessionNumber), "filing.md")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read markdown artifact: %w", err)
	}
	return string(data), nil
}

// LoadFacts retrieves the persisted fact table for an accession number, or
// nil when none is stored.
func (r *ArtifactRepository) LoadFacts(ctx context.Context, accessionNumber string) (ixbrl.FactTable, error) {
	var raw []byte
	if r.pool != nil {
		err := r.pool.QueryRow(ctx,
			`SELECT facts FROM filing_artifacts WHERE accession_number = $1 LIMIT 1`,
			accessionNumber).Scan(&raw)
		if err != nil {
			return nil, nil
		}
		var facts ixbrl.FactTable
		if err := json.Unmarshal(raw, &facts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored fact table: %w", err)
		}
		return facts, nil
	}

	if r.fileDir == "" {
		return nil, ixbrl.ErrStateNotInitialized
	}
	path := filepath.Join(r.fileDir, sanitizeAccession(accessionNumber), "artifact.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read artifact record: %w", err)
	}
	var rec ArtifactRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact record: %w", err)
	}
	return rec.Facts, nil
}

func sanitizeAccession(accession string) string {
	return strings.ReplaceAll(accession, "/", "_")
}
