package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls kitty.v1.Syntax over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req, e.g. Call(ctx, "Scan", req).
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Scan scans source on the server.
func (c *Client) Scan(ctx context.Context, source string, includeComments bool) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"source":          source,
		"includeComments": includeComments,
	})
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, "Scan", req)
}

// Parse parses source on the server.
func (c *Client) Parse(ctx context.Context, source string, unwrapGroups bool) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"source":       source,
		"unwrapGroups": unwrapGroups,
	})
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, "Parse", req)
}
