package utils

import (
	"strings"
	"testing"
)

type testConfig struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSmartParseValidJSON(t *testing.T) {
	var cfg testConfig
	out, err := SmartParse(`{"name": "render", "count": 3}`, &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "render" || cfg.Count != 3 {
		t.Errorf("unexpected result: %+v", cfg)
	}
	if out == "" {
		t.Error("expected the parsed JSON back")
	}
}

func TestSmartParseRepairsTrailingComma(t *testing.T) {
	var cfg testConfig
	_, err := SmartParse(`{"name": "render", "count": 3,}`, &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "render" || cfg.Count != 3 {
		t.Errorf("unexpected result: %+v", cfg)
	}
}

func TestSmartParseHJSONFallback(t *testing.T) {
	var cfg testConfig
	input := `{
  # hjson comment
  name: render
  count: 3
}`
	_, err := SmartParse(input, &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "render" || cfg.Count != 3 {
		t.Errorf("unexpected result: %+v", cfg)
	}
}

func TestSmartParseHopeless(t *testing.T) {
	var cfg testConfig
	_, err := SmartParse("<<<not a config>>>", &cfg)
	if err == nil {
		t.Fatal("expected error for unparseable input, got nil")
	}
	if !strings.Contains(err.Error(), "SMART_PARSE_FAILED") {
		t.Errorf("expected SMART_PARSE_FAILED, got %v", err)
	}
}

func TestParseHJSON(t *testing.T) {
	out, err := ParseHJSON("{name: render}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"name"`) || !strings.Contains(out, `"render"`) {
		t.Errorf("expected standard JSON output, got %s", out)
	}
}

func TestRepairJSONSingleQuotes(t *testing.T) {
	out, err := RepairJSON(`{'name': 'render'}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"name"`) {
		t.Errorf("expected double-quoted keys, got %s", out)
	}
}
