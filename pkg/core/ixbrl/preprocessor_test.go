package ixbrl

import (
	"errors"
	"strings"
	"testing"
)

func TestPreprocessStripsInlineTags(t *testing.T) {
	raw := `<html><body><p>Revenue was <ix:nonFraction name="us-gaap:Revenues" contextRef="c1" unitRef="usd">1,000</ix:nonFraction> this year.</p></body></html>`

	cleaned, warnings, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if strings.Contains(strings.ToLower(cleaned), "ix:nonfraction") {
		t.Error("inline XBRL tag should be stripped from output")
	}
	if !strings.Contains(cleaned, "Revenue was 1,000 this year.") {
		t.Errorf("visible text should survive in place, got: %s", cleaned)
	}
	if !strings.Contains(cleaned, "<p>") {
		t.Error("non-XBRL markup should be preserved")
	}
}

func TestPreprocessNestedTags(t *testing.T) {
	raw := `<html><body><p><ix:nonFraction name="a:X" contextRef="c1">outer <ix:nonNumeric name="a:Y" contextRef="c1">inner</ix:nonNumeric></ix:nonFraction></p></body></html>`

	cleaned, _, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lower := strings.ToLower(cleaned)
	if strings.Contains(lower, "ix:nonfraction") || strings.Contains(lower, "ix:nonnumeric") {
		t.Errorf("nested XBRL tags should all be stripped, got: %s", cleaned)
	}
	if !strings.Contains(cleaned, "outer inner") {
		t.Errorf("nested text content should survive, got: %s", cleaned)
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	raw := `<html><body><h1>Report</h1><p>Total: <ix:nonFraction name="a:X" contextRef="c1" unitRef="usd">42</ix:nonFraction></p></body></html>`

	once, _, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, _, err := Preprocess(once)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if once != twice {
		t.Errorf("Preprocess should be idempotent on cleaned output:\nfirst:  %s\nsecond: %s", once, twice)
	}
}

func TestPreprocessDeclaredNamespace(t *testing.T) {
	raw := `<html xmlns:acme="http://www.xbrl.org/2013/inlineXBRL"><body><p>Before <acme:hidden>secret</acme:hidden> after</p></body></html>`

	cleaned, _, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(strings.ToLower(cleaned), "acme:hidden") {
		t.Errorf("elements under a declared XBRL namespace should be stripped, got: %s", cleaned)
	}
	if !strings.Contains(cleaned, "secret") {
		t.Error("inner content of stripped elements should be preserved")
	}
}

func TestPreprocessSuffixMatchWithoutDeclaration(t *testing.T) {
	// No xmlns declaration at all; the known local names still match.
	raw := `<html><body><p><custom:nonFraction name="a:X" contextRef="c1">7</custom:nonFraction></p></body></html>`

	cleaned, _, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(strings.ToLower(cleaned), "nonfraction") {
		t.Errorf("known XBRL local names should match regardless of prefix, got: %s", cleaned)
	}
	if !strings.Contains(cleaned, "7") {
		t.Error("fact value text should survive unwrapping")
	}
}

func TestPreprocessPlainHTMLUnchanged(t *testing.T) {
	raw := `<html><body><h1>Title</h1><p>Just prose.</p></body></html>`

	cleaned, warnings, err := Preprocess(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for plain HTML, got %v", warnings)
	}
	if !strings.Contains(cleaned, "<h1>Title</h1>") || !strings.Contains(cleaned, "Just prose.") {
		t.Errorf("plain HTML content should pass through, got: %s", cleaned)
	}
}

func TestPreprocessEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		_, _, err := Preprocess(input)
		if err == nil {
			t.Fatalf("expected error for input %q, got nil", input)
		}
		var malformed *MalformedDocumentError
		if !errors.As(err, &malformed) {
			t.Errorf("expected MalformedDocumentError, got %T", err)
		}
		if !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument in chain, got %v", err)
		}
	}
}
