// Package report renders matched tweets as an HTML page for manual review.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"tweetbot/pkg/models"
)

//go:embed templates/list.html
var listTemplateText string

//go:embed templates/report.html
var pageTemplateText string

// contentToken is the placeholder of plain page templates; the rendered
// list replaces every occurrence, case-insensitively.
var contentToken = regexp.MustCompile(`(?i)\$CONTENT\$`)

// Page is the data a template is executed with.
type Page struct {
	Title     string
	Query     string
	Generated time.Time
	Tweets    []models.Tweet
}

// Builder renders reports from the built-in page or a custom template.
type Builder struct {
	Title string
	Query string

	page *template.Template
	// raw is set for token templates
	raw string

	now func() time.Time
}

// NewBuilder returns a builder using the built-in page.
func NewBuilder(title, query string) *Builder {
	b := &Builder{Title: title, Query: query, now: time.Now}
	b.page = template.Must(newList().Parse(pageTemplateText))
	return b
}

// LoadTemplate replaces the page with the file at path. A file containing
// $CONTENT$ is used verbatim with the list spliced in; anything else is
// parsed as an html/template that may call {{template "list" .Tweets}}.
func (b *Builder) LoadTemplate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report template: %w", err)
	}
	return b.SetTemplate(string(data))
}

// SetTemplate is LoadTemplate for in-memory text.
func (b *Builder) SetTemplate(text string) error {
	if contentToken.MatchString(text) {
		b.raw = text
		b.page = nil
		return nil
	}
	page, err := newList().Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	b.page = page
	b.raw = ""
	return nil
}

// Render writes the report for tweets to w.
func (b *Builder) Render(w io.Writer, tweets []models.Tweet) error {
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	if b.raw != "" {
		list, err := RenderList(tweets)
		if err != nil {
			return err
		}
		// ReplaceAllLiteralString keeps any '$' in tweet text intact
		_, err = io.WriteString(w, contentToken.ReplaceAllLiteralString(b.raw, list))
		return err
	}

	page := Page{
		Title:     b.Title,
		Query:     b.Query,
		Generated: b.now(),
		Tweets:    tweets,
	}
	if err := b.page.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderList renders only the <ul> of tweets.
func RenderList(tweets []models.Tweet) (string, error) {
	var buf bytes.Buffer
	if err := newList().ExecuteTemplate(&buf, "list", tweets); err != nil {
		return "", fmt.Errorf("failed to render tweet list: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func newList() *template.Template {
	return template.Must(template.New("report").Parse(listTemplateText))
}
