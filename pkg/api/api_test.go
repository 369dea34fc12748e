package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lemonberrylabs/kitty/pkg/parser"
	"github.com/lemonberrylabs/kitty/pkg/store"
)

func setupTestServer(t *testing.T, opts ...parser.Option) (*Server, *store.Store) {
	t.Helper()
	s := store.New()
	return New(s, opts...), s
}

// doJSON sends body (if non-nil) as JSON and decodes the JSON response.
func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode response %q: %v", raw, err)
	}
	return resp.StatusCode, result
}

func errorStatus(t *testing.T, result map[string]interface{}) (string, map[string]interface{}) {
	t.Helper()
	e, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", result)
	}
	status, _ := e["status"].(string)
	return status, e
}

func TestScan(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, result := doJSON(t, srv, "POST", "/v1/scan", map[string]interface{}{
		"source": "1 + ~ // c",
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, result)
	}

	lexemes, ok := result["lexemes"].([]interface{})
	if !ok || len(lexemes) != 3 {
		t.Fatalf("expected 3 lexemes, got %v", result["lexemes"])
	}
	first := lexemes[0].(map[string]interface{})
	if first["kind"] != "INT" || first["text"] != "1" {
		t.Errorf("unexpected first lexeme %v", first)
	}
	if result["invalid"] != float64(1) {
		t.Errorf("expected 1 invalid lexeme, got %v", result["invalid"])
	}

	_, result = doJSON(t, srv, "POST", "/v1/scan", map[string]interface{}{
		"source":          "1 + ~ // c",
		"includeComments": true,
	})
	if n := len(result["lexemes"].([]interface{})); n != 4 {
		t.Errorf("expected 4 lexemes with comments, got %d", n)
	}
}

func TestScanEmpty(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, result := doJSON(t, srv, "POST", "/v1/scan", map[string]interface{}{"source": ""})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	lexemes, ok := result["lexemes"].([]interface{})
	if !ok || len(lexemes) != 0 {
		t.Errorf("expected empty lexeme list, got %v", result["lexemes"])
	}
}

func TestParse(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		source string
		unwrap bool
		want   string
	}{
		{"1 + 2 * 3", false, "(+ 1 (* 2 3))"},
		{"-2 * 3", false, "(* (- 2) 3)"},
		{"(1 + 2) * 3", true, "(* (+ 1 2) 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			code, result := doJSON(t, srv, "POST", "/v1/parse", map[string]interface{}{
				"source":       tt.source,
				"unwrapGroups": tt.unwrap,
			})
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %v", code, result)
			}
			if result["sexpr"] != tt.want {
				t.Errorf("sexpr = %v, want %s", result["sexpr"], tt.want)
			}
			if _, ok := result["tree"].(map[string]interface{}); !ok {
				t.Errorf("expected tree object, got %v", result["tree"])
			}
		})
	}
}

func TestParseError(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, result := doJSON(t, srv, "POST", "/v1/parse", map[string]interface{}{
		"source": "(1 + 2",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	status, e := errorStatus(t, result)
	if status != "INVALID_ARGUMENT" {
		t.Errorf("status = %s", status)
	}
	details, ok := e["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected details, got %v", e)
	}
	if details["code"] != "unclosed_group" || details["offset"] != float64(6) {
		t.Errorf("unexpected details %v", details)
	}
}

func TestParseSizeLimit(t *testing.T) {
	srv, _ := setupTestServer(t, parser.WithMaxSourceSize(4))

	code, result := doJSON(t, srv, "POST", "/v1/parse", map[string]interface{}{
		"source": "1 + 2 + 3",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", code, result)
	}
}

func TestInvalidBody(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest("POST", "/v1/parse", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	srv, _ := setupTestServer(t)

	// Create
	code, doc := doJSON(t, srv, "POST", "/v1/documents?documentId=sum", map[string]interface{}{
		"source":      "1 + 2",
		"description": "adds",
	})
	if code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %v", code, doc)
	}
	if doc["id"] != "sum" || doc["source"] != "1 + 2" {
		t.Errorf("unexpected document %v", doc)
	}
	etag, _ := doc["etag"].(string)

	// Get
	code, got := doJSON(t, srv, "GET", "/v1/documents/sum", nil)
	if code != http.StatusOK || got["description"] != "adds" {
		t.Fatalf("get: %d %v", code, got)
	}

	// Tree
	code, tree := doJSON(t, srv, "GET", "/v1/documents/sum/tree", nil)
	if code != http.StatusOK {
		t.Fatalf("tree: expected 200, got %d: %v", code, tree)
	}
	res := tree["result"].(map[string]interface{})
	if res["sexpr"] != "(+ 1 2)" {
		t.Errorf("tree sexpr = %v", res["sexpr"])
	}

	// Update
	code, updated := doJSON(t, srv, "PATCH", "/v1/documents/sum", map[string]interface{}{
		"source": "1 + 2 * 3",
		"etag":   etag,
	})
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %v", code, updated)
	}
	if updated["revisionId"] == doc["revisionId"] {
		t.Error("update did not change revision")
	}

	_, tree = doJSON(t, srv, "GET", "/v1/documents/sum/tree", nil)
	if got := tree["result"].(map[string]interface{})["sexpr"]; got != "(+ 1 (* 2 3))" {
		t.Errorf("tree after update = %v", got)
	}

	// Stale etag
	code, result := doJSON(t, srv, "PATCH", "/v1/documents/sum", map[string]interface{}{
		"source": "1",
		"etag":   etag,
	})
	if code != http.StatusConflict {
		t.Errorf("stale etag: expected 409, got %d: %v", code, result)
	}

	// List
	code, list := doJSON(t, srv, "GET", "/v1/documents", nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if docs, ok := list["documents"].([]interface{}); !ok || len(docs) != 1 {
		t.Errorf("expected 1 document, got %v", list["documents"])
	}

	// Delete
	code, _ = doJSON(t, srv, "DELETE", "/v1/documents/sum", nil)
	if code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	code, result = doJSON(t, srv, "GET", "/v1/documents/sum/tree", nil)
	if code != http.StatusNotFound {
		t.Errorf("tree after delete: expected 404, got %d: %v", code, result)
	}
}

func TestTreeFollowsSharedStoreWrites(t *testing.T) {
	srv, s := setupTestServer(t)

	code, _ := doJSON(t, srv, "POST", "/v1/documents?documentId=calc", map[string]interface{}{
		"source": "1 + 2",
	})
	if code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", code)
	}
	if _, tree := doJSON(t, srv, "GET", "/v1/documents/calc/tree", nil); tree["result"].(map[string]interface{})["sexpr"] != "(+ 1 2)" {
		t.Fatalf("unexpected initial tree %v", tree)
	}

	// Replace the document behind the API's back, as the gRPC service does.
	if err := s.Delete("calc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	recreated, err := s.Create("calc", "3 * 4", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	code, tree := doJSON(t, srv, "GET", "/v1/documents/calc/tree", nil)
	if code != http.StatusOK {
		t.Fatalf("tree: expected 200, got %d: %v", code, tree)
	}
	if got := tree["result"].(map[string]interface{})["sexpr"]; got != "(* 3 4)" {
		t.Errorf("tree after recreate = %v, want (* 3 4)", got)
	}
	if tree["revisionId"] != recreated.RevisionID {
		t.Errorf("revisionId = %v, want %s", tree["revisionId"], recreated.RevisionID)
	}

	updated, err := s.Update("calc", "not true", "", recreated.Etag)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	_, tree = doJSON(t, srv, "GET", "/v1/documents/calc/tree", nil)
	if got := tree["result"].(map[string]interface{})["sexpr"]; got != "(not true)" {
		t.Errorf("tree after update = %v, want (not true)", got)
	}
	if tree["revisionId"] != updated.RevisionID {
		t.Errorf("revisionId = %v, want %s", tree["revisionId"], updated.RevisionID)
	}
}

func TestDocumentErrors(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
		status string
	}{
		{"missing source", "POST", "/v1/documents?documentId=a", map[string]interface{}{}, 400, "INVALID_ARGUMENT"},
		{"syntax error", "POST", "/v1/documents?documentId=a", map[string]interface{}{"source": "1 +"}, 400, "INVALID_ARGUMENT"},
		{"bad id", "POST", "/v1/documents?documentId=Bad", map[string]interface{}{"source": "1"}, 400, "INVALID_ARGUMENT"},
		{"get missing", "GET", "/v1/documents/nope", nil, 404, "NOT_FOUND"},
		{"update missing", "PATCH", "/v1/documents/nope", map[string]interface{}{"source": "1"}, 404, "NOT_FOUND"},
		{"delete missing", "DELETE", "/v1/documents/nope", nil, 404, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, result := doJSON(t, srv, tt.method, tt.path, tt.body)
			if code != tt.code {
				t.Fatalf("expected %d, got %d: %v", tt.code, code, result)
			}
			if status, _ := errorStatus(t, result); status != tt.status {
				t.Errorf("status = %s, want %s", status, tt.status)
			}
		})
	}
}

func TestCreateDuplicateDocument(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := map[string]interface{}{"source": "1"}
	if code, result := doJSON(t, srv, "POST", "/v1/documents?documentId=dup", body); code != http.StatusOK {
		t.Fatalf("create: %d %v", code, result)
	}
	code, result := doJSON(t, srv, "POST", "/v1/documents?documentId=dup", body)
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if status, _ := errorStatus(t, result); status != "ALREADY_EXISTS" {
		t.Errorf("status = %s", status)
	}
}

func TestCreateGeneratesID(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, doc := doJSON(t, srv, "POST", "/v1/documents", map[string]interface{}{"source": "true"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, doc)
	}
	if id, _ := doc["id"].(string); id == "" {
		t.Error("expected generated id")
	}
}

func TestTreeOfStoredInvalidSource(t *testing.T) {
	srv, s := setupTestServer(t)

	// Documents written straight to the store bypass API validation.
	if _, err := s.Create("broken", "(1", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	code, result := doJSON(t, srv, "GET", "/v1/documents/broken/tree", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", code, result)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"Sum.kitty":    "1 + 2",
		"broken.kitty": "(1",
		"notes.txt":    "ignored",
		"bad id.kitty": "1",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	srv, s := setupTestServer(t)
	n, err := srv.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document loaded, got %d", n)
	}
	if _, err := s.Get("sum"); err != nil {
		t.Errorf("expected document 'sum': %v", err)
	}

	if _, err := srv.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
