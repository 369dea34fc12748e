// Package grpcapi implements the kitty.v1.Syntax gRPC service. Requests and
// responses are google.protobuf.Struct messages carrying the same fields as
// the REST API, so no generated code is needed.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
	"github.com/lemonberrylabs/kitty/pkg/parser"
	"github.com/lemonberrylabs/kitty/pkg/store"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kitty.v1.Syntax"

// SyntaxServer is the server API for the kitty.v1.Syntax service.
type SyntaxServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SyntaxServiceDesc describes kitty.v1.Syntax for grpc.Server.RegisterService.
var SyntaxServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SyntaxServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Scan", SyntaxServer.Scan),
		unary("Parse", SyntaxServer.Parse),
		unary("CreateDocument", SyntaxServer.CreateDocument),
		unary("GetDocument", SyntaxServer.GetDocument),
		unary("ListDocuments", SyntaxServer.ListDocuments),
		unary("DeleteDocument", SyntaxServer.DeleteDocument),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kitty/v1/syntax.proto",
}

type unaryMethod func(SyntaxServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SyntaxServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(SyntaxServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// Server implements the Syntax service.
type Server struct {
	store *store.Store
	opts  []parser.Option
	grpc  *grpc.Server
}

// New creates a new gRPC server wrapping the given store. opts apply to
// every parse it performs.
func New(s *store.Store, opts ...parser.Option) *Server {
	srv := &Server{
		store: s,
		opts:  opts,
	}

	gs := grpc.NewServer()
	gs.RegisterService(&SyntaxServiceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// --- Stateless Methods ---

func (s *Server) Scan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	lexemes := analysis.Scan(stringField(req, "source"), boolField(req, "includeComments"))
	if lexemes == nil {
		lexemes = []analysis.Lexeme{}
	}
	return toStruct(map[string]interface{}{"lexemes": lexemes})
}

func (s *Server) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := stringField(req, "source")
	res, err := analysis.Parse(source, boolField(req, "unwrapGroups"), s.opts...)
	if err != nil {
		return nil, parseStatus(source, err)
	}
	return toStruct(res)
}

// --- Document Methods ---

func (s *Server) CreateDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := stringField(req, "source")
	if source == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}

	// Validate by parsing
	if _, err := analysis.Parse(source, false, s.opts...); err != nil {
		return nil, parseStatus(source, err)
	}

	doc, err := s.store.Create(stringField(req, "documentId"), source, stringField(req, "description"))
	if err != nil {
		return nil, storeStatus(err)
	}
	return toStruct(doc)
}

func (s *Server) GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := s.store.Get(stringField(req, "id"))
	if err != nil {
		return nil, storeStatus(err)
	}
	return toStruct(doc)
}

func (s *Server) ListDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"documents": s.store.List()})
}

func (s *Server) DeleteDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "id")
	if err := s.store.Delete(id); err != nil {
		return nil, storeStatus(err)
	}
	return toStruct(map[string]interface{}{"id": id, "deleted": true})
}

// --- Helpers ---

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func boolField(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return st, nil
}

// parseStatus maps a parse failure to InvalidArgument, attaching the
// diagnostic as a Struct detail.
func parseStatus(source string, err error) error {
	d, ok := analysis.Diagnose(source, err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	st := status.New(codes.InvalidArgument, err.Error())
	detail, convErr := toStruct(d)
	if convErr != nil {
		return st.Err()
	}
	if withDetail, detailErr := st.WithDetails(detail); detailErr == nil {
		st = withDetail
	}
	return st.Err()
}

func storeStatus(err error) error {
	var conflict *store.ConflictError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, store.ErrInvalidID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &conflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
