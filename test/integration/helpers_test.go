package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/lemonberrylabs/kitty/pkg/api"
	grpcapi "github.com/lemonberrylabs/kitty/pkg/api/grpc"
	"github.com/lemonberrylabs/kitty/pkg/store"
	"github.com/lemonberrylabs/kitty/web"
)

// testServer is the base URL of the REST API and web UI under test.
var testServer string

// grpcAddr is the address of the gRPC service under test.
var grpcAddr string

// inProcess is set when the suite started its own servers.
var inProcess bool

// TestMain runs the suite against KITTY_URL and KITTY_GRPC_ADDR when set,
// and otherwise against an in-process server on ephemeral ports.
func TestMain(m *testing.M) {
	testServer = os.Getenv("KITTY_URL")
	grpcAddr = os.Getenv("KITTY_GRPC_ADDR")
	if testServer != "" {
		if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
			testServer = "http://" + testServer
		}
		os.Exit(m.Run())
	}

	stop, err := startServers()
	if err != nil {
		log.Fatalf("starting servers: %v", err)
	}
	inProcess = true
	code := m.Run()
	stop()
	os.Exit(code)
}

func startServers() (func(), error) {
	s := store.New()

	server := api.New(s)
	if _, err := server.LoadDir("testdata/documents"); err != nil {
		return nil, err
	}
	ui, err := web.New(s)
	if err != nil {
		return nil, err
	}
	ui.Register(server.App())

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	grpcLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		httpLn.Close()
		return nil, err
	}

	grpcServer := grpcapi.New(s)
	go func() { _ = server.Serve(httpLn) }()
	go func() { _ = grpcServer.ServeListener(grpcLn) }()

	testServer = "http://" + httpLn.Addr().String()
	grpcAddr = grpcLn.Addr().String()

	return func() {
		grpcServer.GracefulStop()
		_ = server.Shutdown()
	}, nil
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

// uniqueID returns a document ID that will not collide across test runs
// against a shared server.
func uniqueID(t *testing.T, prefix string) string {
	t.Helper()
	return fmt.Sprintf("%s-%d", prefix, os.Getpid())
}

// doRequest sends a JSON request and returns the status code and the
// decoded response body.
func doRequest(t *testing.T, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var result map[string]interface{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			t.Fatalf("failed to decode response %q: %v", string(respBody), err)
		}
	}
	return resp.StatusCode, result
}

// createDocument stores a document and registers its deletion on cleanup.
func createDocument(t *testing.T, id, source string) map[string]interface{} {
	t.Helper()

	status, body := doRequest(t, http.MethodPost, apiURL("documents?documentId="+id), map[string]interface{}{
		"source": source,
	})
	if status != http.StatusOK {
		t.Fatalf("create document %s: status %d: %v", id, status, body)
	}
	t.Cleanup(func() {
		req, _ := http.NewRequest(http.MethodDelete, apiURL("documents/"+id), nil)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
		}
	})
	return body
}

// errorStatus extracts error.status from an error envelope.
func errorStatus(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	s, _ := e["status"].(string)
	return s
}

// getPage fetches a web UI page and returns its status and HTML.
func getPage(t *testing.T, path string) (int, string) {
	t.Helper()

	resp, err := http.Get(strings.TrimRight(testServer, "/") + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(data)
}
