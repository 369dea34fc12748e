// Package api implements the kitty REST API: stateless scan and parse
// endpoints plus CRUD over stored source documents.
package api

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
	"github.com/lemonberrylabs/kitty/pkg/parser"
	"github.com/lemonberrylabs/kitty/pkg/store"
)

// SourceExt is the file extension LoadDir picks up.
const SourceExt = ".kitty"

// Server is the kitty API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	opts  []parser.Option

	mu     sync.RWMutex
	parsed map[string]parsedEntry // keyed by document ID
}

// parsedEntry is a cached parse of one document revision. The store is
// shared with other surfaces, so an entry is only valid while its revision
// is the document's current one.
type parsedEntry struct {
	revision string
	result   *analysis.Result
}

// New creates a new API server. opts apply to every parse it performs.
func New(s *store.Store, opts ...parser.Option) *Server {
	srv := &Server{
		store:  s,
		opts:   opts,
		parsed: make(map[string]parsedEntry),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/scan", srv.scan)
	app.Post("/v1/parse", srv.parse)

	app.Post("/v1/documents", srv.createDocument)
	app.Get("/v1/documents", srv.listDocuments)
	app.Get("/v1/documents/:document", srv.getDocument)
	app.Patch("/v1/documents/:document", srv.updateDocument)
	app.Delete("/v1/documents/:document", srv.deleteDocument)
	app.Get("/v1/documents/:document/tree", srv.documentTree)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves HTTP on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ShutdownWithTimeout shuts down the server, closing open connections
// after timeout.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Parsed returns the parse result for the current revision of a document,
// parsing and caching it when the cached entry is missing or stale.
func (s *Server) Parsed(id string) (*analysis.Result, *store.Document, error) {
	doc, err := s.store.Get(id)
	if err != nil {
		s.setParsed(id, "", nil)
		return nil, nil, err
	}

	s.mu.RLock()
	entry, ok := s.parsed[id]
	s.mu.RUnlock()
	if ok && entry.revision == doc.RevisionID {
		return entry.result, doc, nil
	}

	res, err := analysis.Parse(doc.Source, false, s.opts...)
	if err != nil {
		return nil, doc, fmt.Errorf("document '%s': %w", id, err)
	}
	s.setParsed(id, doc.RevisionID, res)
	return res, doc, nil
}

// setParsed caches res as the parse of revision. A nil res drops the entry.
func (s *Server) setParsed(id, revision string, res *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res == nil {
		delete(s.parsed, id)
		return
	}
	s.parsed[id] = parsedEntry{revision: revision, result: res}
}

// --- Stateless Handlers ---

type scanRequest struct {
	Source          string `json:"source"`
	IncludeComments bool   `json:"includeComments"`
}

func (s *Server) scan(c *fiber.Ctx) error {
	var req scanRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	lexemes := analysis.Scan(req.Source, req.IncludeComments)
	invalid := 0
	for _, l := range lexemes {
		if l.Invalid() {
			invalid++
		}
	}
	if lexemes == nil {
		lexemes = []analysis.Lexeme{}
	}

	return c.JSON(fiber.Map{
		"lexemes": lexemes,
		"invalid": invalid,
	})
}

type parseRequest struct {
	Source       string `json:"source"`
	UnwrapGroups bool   `json:"unwrapGroups"`
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	res, err := analysis.Parse(req.Source, req.UnwrapGroups, s.opts...)
	if err != nil {
		return parseErrorJSON(c, req.Source, err)
	}
	return c.JSON(res)
}

// --- Document Handlers ---

type documentRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
	Etag        string `json:"etag"`
}

func (s *Server) createDocument(c *fiber.Ctx) error {
	id := c.Query("documentId")

	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Source == "" {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "source is required")
	}

	// Validate by parsing the source
	res, err := analysis.Parse(req.Source, false, s.opts...)
	if err != nil {
		return parseErrorJSON(c, req.Source, err)
	}

	doc, err := s.store.Create(id, req.Source, req.Description)
	if err != nil {
		return storeErrorJSON(c, err)
	}

	s.setParsed(doc.ID, doc.RevisionID, res)
	return c.Status(fiber.StatusOK).JSON(doc)
}

func (s *Server) getDocument(c *fiber.Ctx) error {
	doc, err := s.store.Get(c.Params("document"))
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(doc)
}

func (s *Server) listDocuments(c *fiber.Ctx) error {
	docs := s.store.List()
	return c.JSON(fiber.Map{
		"documents": docs,
	})
}

func (s *Server) updateDocument(c *fiber.Ctx) error {
	id := c.Params("document")

	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	source := req.Source
	if source == "" {
		current, err := s.store.Get(id)
		if err != nil {
			return storeErrorJSON(c, err)
		}
		source = current.Source
	}

	res, err := analysis.Parse(source, false, s.opts...)
	if err != nil {
		return parseErrorJSON(c, source, err)
	}

	doc, err := s.store.Update(id, source, req.Description, req.Etag)
	if err != nil {
		return storeErrorJSON(c, err)
	}

	s.setParsed(id, doc.RevisionID, res)
	return c.JSON(doc)
}

func (s *Server) deleteDocument(c *fiber.Ctx) error {
	id := c.Params("document")

	if err := s.store.Delete(id); err != nil {
		return storeErrorJSON(c, err)
	}
	s.setParsed(id, "", nil)

	return c.JSON(fiber.Map{
		"id":      id,
		"deleted": true,
	})
}

func (s *Server) documentTree(c *fiber.Ctx) error {
	res, doc, err := s.Parsed(c.Params("document"))
	if err != nil {
		if doc != nil {
			return parseErrorJSON(c, doc.Source, err)
		}
		return storeErrorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"id":         doc.ID,
		"revisionId": doc.RevisionID,
		"result":     res,
	})
}

// --- Directory Loading ---

// LoadDir stores every *.kitty file in dir as a document. The file name
// without extension, lowercased, becomes the document ID. Files that cannot
// be read or parsed are skipped with a warning.
func (s *Server) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading documents directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != SourceExt {
			continue
		}

		base := strings.TrimSuffix(name, SourceExt)
		id := strings.ToLower(base)
		if id != base {
			log.Printf("Warning: lowercased document ID %q (from file %q)", id, name)
		}
		if err := store.ValidateID(id); err != nil {
			log.Printf("Warning: skipping file %q: %v", name, err)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}

		res, err := analysis.Parse(string(data), false, s.opts...)
		if err != nil {
			log.Printf("Warning: could not parse %q: %v", name, err)
			continue
		}

		doc, err := s.store.Create(id, string(data), "loaded from "+name)
		if err != nil {
			log.Printf("Warning: could not store %q: %v", name, err)
			continue
		}

		s.setParsed(doc.ID, doc.RevisionID, res)
		loaded++
		log.Printf("Loaded document %q from %s", doc.ID, name)
	}

	log.Printf("Loaded %d document(s) from %s", loaded, dir)
	return loaded, nil
}

// --- Helpers ---

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// parseErrorJSON reports a parse failure as INVALID_ARGUMENT, with the
// position details when err is a syntax error.
func parseErrorJSON(c *fiber.Ctx, source string, err error) error {
	d, ok := analysis.Diagnose(source, err)
	if !ok {
		return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusBadRequest,
			"message": err.Error(),
			"status":  "INVALID_ARGUMENT",
			"details": d,
		},
	})
}

func storeErrorJSON(c *fiber.Ctx, err error) error {
	var conflict *store.ConflictError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return errorJSON(c, fiber.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, store.ErrInvalidID):
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.As(err, &conflict):
		return errorJSON(c, fiber.StatusConflict, "ABORTED", err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
