package ixbrl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"ixbrl_pipeline/pkg/core/utils"
)

// HeadingThreshold maps a minimum font size to a Markdown heading level.
type HeadingThreshold struct {
	MinSize float64 `json:"min_size" yaml:"min_size"`
	Level   int     `json:"level" yaml:"level"`
}

// RenderConfig is the editable rendering configuration. Filings vary widely
// in base font sizing, so thresholds are data, not algorithmic constants.
type RenderConfig struct {
	// HeadingThresholds assign heading levels by descending font size: the
	// largest size maps to level 1. A heading whose size falls below every
	// threshold is rendered as a plain paragraph (very small heading-tagged
	// text is usually a caption).
	HeadingThresholds []HeadingThreshold `json:"heading_thresholds" yaml:"heading_thresholds"`

	// LabelOverrides maps additional visible labels to concept names, on top
	// of the label derived from each concept's local name. E.g. prose that
	// says "Sales" can be linked to us-gaap:Revenues.
	LabelOverrides map[string]string `json:"label_overrides" yaml:"label_overrides"`
}

// DefaultRenderConfig returns the conventional SEC-filing calibration.
// Threshold sizes line up with DefaultFontSizes so unstyled h1..h6 map onto
// levels 1..6, while anything at body size or just above stays prose.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		HeadingThresholds: []HeadingThreshold{
			{MinSize: 26, Level: 1},
			{MinSize: 24, Level: 2},
			{MinSize: 22, Level: 3},
			{MinSize: 20, Level: 4},
			{MinSize: 18, Level: 5},
			{MinSize: 16, Level: 6},
		},
		LabelOverrides: map[string]string{
			"Revenue":    "us-gaap:Revenues",
			"Sales":      "us-gaap:Revenues",
			"Net Income": "us-gaap:NetIncomeLoss",
		},
	}
}

// LoadRenderConfig reads a RenderConfig from disk. The format follows the
// file extension: .yaml/.yml, .hjson, or .json (JSON goes through the
// lenient SmartParse chain so hand-edited files with trailing commas or
// comments still load). Missing fields fall back to the defaults.
func LoadRenderConfig(path string) (RenderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RenderConfig{}, fmt.Errorf("failed to read render config: %w", err)
	}

	var cfg RenderConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return RenderConfig{}, fmt.Errorf("failed to parse YAML render config: %w", err)
		}
	case ".hjson":
		if err := utils.ParseHJSONToStruct(string(data), &cfg); err != nil {
			return RenderConfig{}, fmt.Errorf("failed to parse HJSON render config: %w", err)
		}
	default:
		if _, err := utils.SmartParse(string(data), &cfg); err != nil {
			return RenderConfig{}, fmt.Errorf("failed to parse render config: %w", err)
		}
	}

	defaults := DefaultRenderConfig()
	if len(cfg.HeadingThresholds) == 0 {
		cfg.HeadingThresholds = defaults.HeadingThresholds
	}
	if cfg.LabelOverrides == nil {
		cfg.LabelOverrides = defaults.LabelOverrides
	}
	return cfg, nil
}

// headingLevel resolves a font size against the thresholds, largest first.
// Returns 0 when the size is below every threshold.
func headingLevel(size float64, thresholds []HeadingThreshold) int {
	sorted := make([]HeadingThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinSize > sorted[j].MinSize })
	for _, t := range sorted {
		if size >= t.MinSize {
			return t.Level
		}
	}
	return 0
}
