// Package web provides the embedded web UI: a document browser and a
// playground that shows lexemes, the parsed tree and parse errors.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
	"github.com/lemonberrylabs/kitty/pkg/parser"
	"github.com/lemonberrylabs/kitty/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are the page templates, each rendered inside the shared layout.
var pages = []string{
	"dashboard.html",
	"document_list.html",
	"document_detail.html",
	"playground.html",
	"not_found.html",
}

// Handler serves the web UI pages.
type Handler struct {
	store *store.Store
	opts  []parser.Option
	pages map[string]*template.Template
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler, parsing every page template up front.
// opts apply to every parse it performs.
func New(s *store.Store, opts ...parser.Option) (*Handler, error) {
	funcMap := template.FuncMap{
		"timeAgo":    timeAgo,
		"formatTime": formatTime,
		"kindClass":  kindClass,
		"truncate":   truncate,
		"countLines": countLines,
		"hasPrefix":  strings.HasPrefix,
	}

	h := &Handler{
		store: s,
		opts:  opts,
		pages: make(map[string]*template.Template, len(pages)),
	}
	// Parse per page so each page's "content" block stays separate.
	for _, page := range pages {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		h.pages[page] = tmpl
	}
	return h, nil
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	tmpl, ok := h.pages[page]
	if !ok {
		return c.Status(500).SendString(fmt.Sprintf("template error: unknown page %s", page))
	}

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/documents", h.documentList)
	app.Get("/ui/documents/:id", h.documentDetail)
	app.Get("/ui/playground", h.playground)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Documents    []*documentView
	ValidCount   int
	InvalidCount int
	LexemeCount  int
}

type documentView struct {
	*store.Document
	Valid   bool
	Lexemes int
}

type documentListContent struct {
	Documents []*documentView
}

// analysisContent is the shared body of the detail and playground pages.
type analysisContent struct {
	Source     string
	Unwrap     bool
	Lexemes    []analysis.Lexeme
	Result     *analysis.Result
	Diagnostic *analysis.Diagnostic
	Excerpt    string
	Caret      string
}

type documentDetailContent struct {
	Document *store.Document
	Analysis *analysisContent
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	views := h.documentViews()

	sort.Slice(views, func(i, j int) bool {
		return views[i].UpdateTime.After(views[j].UpdateTime)
	})

	content := dashboardContent{Documents: views}
	for _, v := range views {
		if v.Valid {
			content.ValidCount++
		} else {
			content.InvalidCount++
		}
		content.LexemeCount += v.Lexemes
	}
	if len(content.Documents) > 10 {
		content.Documents = content.Documents[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", content)
}

func (h *Handler) documentList(c *fiber.Ctx) error {
	return h.render(c, "document_list.html", "documents", documentListContent{
		Documents: h.documentViews(),
	})
}

func (h *Handler) documentDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	doc, err := h.store.Get(id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Document '%s' not found", id),
		})
	}

	return h.render(c, "document_detail.html", "documents", documentDetailContent{
		Document: doc,
		Analysis: h.analyze(doc.Source, c.Query("unwrap") == "true"),
	})
}

func (h *Handler) playground(c *fiber.Ctx) error {
	source := c.Query("source")
	if source == "" {
		return h.render(c, "playground.html", "playground", &analysisContent{})
	}
	return h.render(c, "playground.html", "playground", h.analyze(source, c.Query("unwrap") == "true"))
}

func (h *Handler) analyze(source string, unwrap bool) *analysisContent {
	a := &analysisContent{
		Source:  source,
		Unwrap:  unwrap,
		Lexemes: analysis.Scan(source, true),
	}
	res, err := analysis.Parse(source, unwrap, h.opts...)
	if err != nil {
		if d, ok := analysis.Diagnose(source, err); ok {
			a.Diagnostic = d
			a.Excerpt, a.Caret = d.Excerpt(source)
		}
		return a
	}
	a.Result = res
	return a
}

func (h *Handler) documentViews() []*documentView {
	docs := h.store.List()
	views := make([]*documentView, 0, len(docs))
	for _, d := range docs {
		_, err := analysis.Parse(d.Source, false, h.opts...)
		views = append(views, &documentView{
			Document: d,
			Valid:    err == nil,
			Lexemes:  len(analysis.Scan(d.Source, false)),
		})
	}
	return views
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// kindClass picks the CSS class used to color a lexeme kind.
func kindClass(l analysis.Lexeme) string {
	switch {
	case l.Invalid():
		return "lex-invalid"
	case l.Kind == "COMMENT":
		return "lex-comment"
	case l.Kind == "INT" || l.Kind == "FLOAT" || l.Kind == "STRING":
		return "lex-literal"
	case l.Kind == "IDENT":
		return "lex-ident"
	case strings.ToLower(l.Kind) == l.Text:
		return "lex-keyword"
	default:
		return "lex-punct"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
