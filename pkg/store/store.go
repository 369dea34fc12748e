// Package store provides in-memory storage for kitty source documents.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no document has the requested ID.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a document whose ID is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidID is returned for IDs that cannot be used in a URL path.
	ErrInvalidID = errors.New("invalid document id")
)

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// Document is a named kitty source kept by the store.
type Document struct {
	ID          string    `json:"id" yaml:"id"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string    `json:"source" yaml:"source"`
	RevisionID  string    `json:"revisionId" yaml:"revisionId"`
	Etag        string    `json:"etag" yaml:"etag"`
	CreateTime  time.Time `json:"createTime" yaml:"createTime"`
	UpdateTime  time.Time `json:"updateTime" yaml:"updateTime"`
}

// Store is a thread-safe in-memory document store. Returned documents are
// copies; changes go through Create, Update and Delete.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*Document

	revCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		documents: make(map[string]*Document),
	}
}

// ValidateID reports whether id can name a document: a lowercase letter
// followed by up to 62 lowercase letters, digits, '-' or '_'.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

// NewID returns a generated document ID.
func NewID() string {
	return "doc-" + uuid.NewString()[:8]
}

// Create stores a new document. An empty id is replaced by a generated one.
func (s *Store) Create(id, source, description string) (*Document, error) {
	if id == "" {
		id = NewID()
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[id]; exists {
		return nil, fmt.Errorf("document '%s' %w", id, ErrAlreadyExists)
	}

	now := time.Now()
	doc := &Document{
		ID:          id,
		Description: description,
		Source:      source,
		CreateTime:  now,
	}
	s.stamp(doc, now)
	s.documents[id] = doc
	return doc.clone(), nil
}

// Get retrieves a document by ID.
func (s *Store) Get(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document '%s' %w", id, ErrNotFound)
	}
	return doc.clone(), nil
}

// List returns all documents ordered by ID.
func (s *Store) List() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Update replaces a document's source. An empty description keeps the
// current one. If etag is non-empty it must match the stored etag.
func (s *Store) Update(id, source, description, etag string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document '%s' %w", id, ErrNotFound)
	}
	if etag != "" && etag != doc.Etag {
		return nil, &ConflictError{ID: id, Etag: doc.Etag}
	}

	doc.Source = source
	if description != "" {
		doc.Description = description
	}
	s.stamp(doc, time.Now())
	return doc.clone(), nil
}

// Delete removes a document.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document '%s' %w", id, ErrNotFound)
	}
	delete(s.documents, id)
	return nil
}

// stamp assigns a new revision and etag. Callers hold s.mu.
func (s *Store) stamp(doc *Document, now time.Time) {
	s.revCounter++
	doc.RevisionID = fmt.Sprintf("%06d-%s", s.revCounter, uuid.NewString()[:3])
	doc.Etag = uuid.NewString()
	doc.UpdateTime = now
}

func (d *Document) clone() *Document {
	c := *d
	return &c
}

// ConflictError is returned by Update when the caller's etag is stale.
type ConflictError struct {
	ID   string
	Etag string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document '%s' was modified (current etag %s)", e.ID, e.Etag)
}
