package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"arxiv_digest/digest"
	"arxiv_digest/formatting"
)

//go:embed paper_template.html
var defaultTemplate string

// HTMLRenderer renders a digest page from consolidated records.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the template at path, falling back to the embedded
// template when path is empty.
func NewHTMLRenderer(path string) (*HTMLRenderer, error) {
	text := defaultTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		text = string(data)
	}
	tmpl, err := template.New("report").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

type paperView struct {
	Title      string
	URL        string
	Summary    string
	Authors    string
	Score      float64
	SourceDate string
}

type pageView struct {
	Title       string
	ReportDate  string
	DateRange   string
	GeneratedAt string
	TotalPapers int
	Papers      []paperView
}

// Render produces the HTML page for the given input.
func (r *HTMLRenderer) Render(in digest.RenderInput) ([]byte, error) {
	page := pageView{
		Title:       in.Title,
		ReportDate:  formatting.HumanDate(in.PrimaryDate),
		DateRange:   in.DateRange,
		GeneratedAt: in.GeneratedAt.UTC().Format(time.RFC1123),
		TotalPapers: in.TotalCount,
		Papers:      make([]paperView, 0, len(in.Records)),
	}
	for _, rec := range in.Records {
		page.Papers = append(page.Papers, paperFromRecord(rec))
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func paperFromRecord(rec digest.Record) paperView {
	p := paperView{
		Title:      gjson.GetBytes(rec.Raw, "title").String(),
		URL:        gjson.GetBytes(rec.Raw, "url").String(),
		Summary:    gjson.GetBytes(rec.Raw, "summary").String(),
		Score:      rec.Score,
		SourceDate: formatting.HumanDate(rec.SourceDate),
	}
	if p.URL == "" {
		p.URL = gjson.GetBytes(rec.Raw, "abs_url").String()
	}
	if p.Title == "" {
		p.Title = "(untitled)"
		log.Debugf("record from %s has no title", rec.SourceDateISO())
	}
	if authors := gjson.GetBytes(rec.Raw, "authors"); authors.Exists() {
		if authors.IsArray() {
			joined := ""
			for i, a := range authors.Array() {
				if i > 0 {
					joined += ", "
				}
				joined += a.String()
			}
			p.Authors = joined
		} else {
			p.Authors = authors.String()
		}
	}
	return p
}
