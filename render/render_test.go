package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arxiv_digest/digest"
)

func record(t *testing.T, payload map[string]any, score float64, day time.Time) digest.Record {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return digest.Record{Raw: raw, Score: score, SourceDate: day}
}

func TestRenderEmbeddedTemplate(t *testing.T) {
	r, err := NewHTMLRenderer("")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	day := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	in := digest.RenderInput{
		Records: []digest.Record{
			record(t, map[string]any{
				"title":   "Diffusion Models Revisited",
				"url":     "https://arxiv.org/abs/2401.00001",
				"summary": "A fresh look at sampling.",
				"authors": []string{"A. One", "B. Two"},
			}, 9.1, day),
		},
		Title:       "ArXiv CS.CV Papers (Image/Video Generation) - January 12, 2024",
		PrimaryDate: day,
		GeneratedAt: time.Date(2024, 1, 12, 6, 0, 0, 0, time.UTC),
		DateRange:   "January 12, 2024",
		TotalCount:  1,
	}
	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"Diffusion Models Revisited",
		"https://arxiv.org/abs/2401.00001",
		"A fresh look at sampling.",
		"A. One, B. Two",
		"January 12, 2024",
		"9.10",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}

func TestRenderEscapesPayload(t *testing.T) {
	r, err := NewHTMLRenderer("")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	day := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	in := digest.RenderInput{
		Records: []digest.Record{
			record(t, map[string]any{"title": "<script>alert(1)</script>"}, 1, day),
		},
		Title:      "t",
		TotalCount: 1,
	}
	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<script>alert(1)</script>") {
		t.Fatal("payload reached the page unescaped")
	}
}

func TestRenderUntitledFallback(t *testing.T) {
	r, err := NewHTMLRenderer("")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	in := digest.RenderInput{
		Records:    []digest.Record{{Raw: []byte(`{"summary":"no title"}`)}},
		Title:      "t",
		TotalCount: 1,
	}
	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "(untitled)") {
		t.Fatal("expected untitled fallback")
	}
}

func TestRenderCustomTemplatePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.html")
	if err := os.WriteFile(path, []byte(`<h1>{{.Title}}</h1><p>{{.TotalPapers}} papers</p>`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewHTMLRenderer(path)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	out, err := r.Render(digest.RenderInput{Title: "Custom", TotalCount: 3})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "<h1>Custom</h1>") || !strings.Contains(string(out), "3 papers") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewHTMLRendererMissingPath(t *testing.T) {
	if _, err := NewHTMLRenderer(filepath.Join(t.TempDir(), "nope.html")); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
