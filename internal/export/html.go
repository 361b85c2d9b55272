// Package export writes a conversation to a standalone HTML page.
package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/csheth/churnscout/internal/conversation"
	"github.com/csheth/churnscout/internal/render"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var page = template.Must(template.New("page.tmpl").Funcs(template.FuncMap{
	"isKind": func(b render.Block, kind string) bool { return string(b.Kind) == kind },
	"stamp":  func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Options configures an export.
type Options struct {
	Title    string
	Endpoint string
	Now      func() time.Time
}

type pageData struct {
	Title      string
	Endpoint   string
	ExportedAt time.Time
	Turns      []conversation.Turn
}

// HTML renders turns as a page. Every dynamic value is escaped by the
// template; links only survive when they are http(s) URLs.
func HTML(turns []conversation.Turn, opts Options) ([]byte, error) {
	if len(turns) == 0 {
		return nil, errors.New("export: conversation has no turns")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	title := opts.Title
	if title == "" {
		title = "ChurnScout conversation"
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData{
		Title:      title,
		Endpoint:   opts.Endpoint,
		ExportedAt: now(),
		Turns:      turns,
	}); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile exports turns into dir and returns the file path.
func WriteFile(dir string, turns []conversation.Turn, opts Options) (string, error) {
	data, err := HTML(turns, opts)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	path := filepath.Join(dir, fmt.Sprintf("churnscout-%s.html", now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
