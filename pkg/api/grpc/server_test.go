package grpcapi

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/kitty/pkg/store"
)

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()
	s := store.New()
	srv := New(s)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func TestScan(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewClient(conn)
	resp, err := client.Scan(context.Background(), "0.3 -3.1   21   -1", false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	lexemes := resp.GetFields()["lexemes"].GetListValue().GetValues()
	if len(lexemes) != 4 {
		t.Fatalf("expected 4 lexemes, got %d", len(lexemes))
	}
	want := []struct {
		kind          string
		start, length float64
	}{
		{"FLOAT", 0, 3},
		{"FLOAT", 4, 4},
		{"INT", 11, 2},
		{"INT", 16, 2},
	}
	for i, w := range want {
		f := lexemes[i].GetStructValue().GetFields()
		if f["kind"].GetStringValue() != w.kind || f["start"].GetNumberValue() != w.start || f["length"].GetNumberValue() != w.length {
			t.Errorf("lexeme %d = %v, want %+v", i, f, w)
		}
	}
}

func TestParse(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewClient(conn)
	resp, err := client.Parse(context.Background(), "-123 * (45.67)", false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := resp.GetFields()["sexpr"].GetStringValue(); got != "(* (- 123) (group 45.67))" {
		t.Errorf("sexpr = %s", got)
	}
	if got := resp.GetFields()["nodes"].GetNumberValue(); got != 5 {
		t.Errorf("nodes = %v, want 5", got)
	}
}

func TestParseErrorStatus(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	_, err := NewClient(conn).Parse(context.Background(), "(1 + 2", false)
	if err == nil {
		t.Fatal("expected error")
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(details))
	}
	d, ok := details[0].(*structpb.Struct)
	if !ok {
		t.Fatalf("detail is %T, want *structpb.Struct", details[0])
	}
	if got := d.GetFields()["code"].GetStringValue(); got != "unclosed_group" {
		t.Errorf("detail code = %s", got)
	}
	if got := d.GetFields()["offset"].GetNumberValue(); got != 6 {
		t.Errorf("detail offset = %v, want 6", got)
	}
}

func TestDocuments(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewClient(conn)
	ctx := context.Background()

	// Create
	doc, err := client.Call(ctx, "CreateDocument", mustStruct(t, map[string]interface{}{
		"documentId":  "sum",
		"source":      "1 + 2",
		"description": "adds",
	}))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.GetFields()["id"].GetStringValue() != "sum" {
		t.Fatalf("unexpected document %v", doc)
	}

	// Duplicate
	_, err = client.Call(ctx, "CreateDocument", mustStruct(t, map[string]interface{}{
		"documentId": "sum",
		"source":     "1",
	}))
	if status.Code(err) != codes.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}

	// Invalid source
	_, err = client.Call(ctx, "CreateDocument", mustStruct(t, map[string]interface{}{
		"documentId": "bad",
		"source":     "1 +",
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}

	// Get
	got, err := client.Call(ctx, "GetDocument", mustStruct(t, map[string]interface{}{"id": "sum"}))
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.GetFields()["source"].GetStringValue() != "1 + 2" {
		t.Errorf("unexpected source in %v", got)
	}

	// List
	list, err := client.Call(ctx, "ListDocuments", &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if n := len(list.GetFields()["documents"].GetListValue().GetValues()); n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}

	// Delete
	if _, err := client.Call(ctx, "DeleteDocument", mustStruct(t, map[string]interface{}{"id": "sum"})); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	_, err = client.Call(ctx, "GetDocument", mustStruct(t, map[string]interface{}{"id": "sum"}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestUnknownMethod(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	_, err := NewClient(conn).Call(context.Background(), "Evaluate", &structpb.Struct{})
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("expected Unimplemented, got %v", err)
	}
}
