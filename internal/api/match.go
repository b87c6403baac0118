package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MatchServiceServer ranks running partners for a user.
type MatchServiceServer interface {
	FindMatches(context.Context, *FindMatchesRequest) (*FindMatchesResponse, error)
}

// UnimplementedMatchServiceServer can be embedded for forward compatibility.
type UnimplementedMatchServiceServer struct{}

func (UnimplementedMatchServiceServer) FindMatches(context.Context, *FindMatchesRequest) (*FindMatchesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FindMatches not implemented")
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchServiceName, "FindMatches", MatchServiceServer.FindMatches),
	},
	Metadata: "runtogether/v1/match",
}

func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}

type MatchServiceClient interface {
	FindMatches(ctx context.Context, in *FindMatchesRequest, opts ...grpc.CallOption) (*FindMatchesResponse, error)
}

type matchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchServiceClient(cc grpc.ClientConnInterface) MatchServiceClient {
	return &matchServiceClient{cc: cc}
}

func (c *matchServiceClient) FindMatches(ctx context.Context, in *FindMatchesRequest, opts ...grpc.CallOption) (*FindMatchesResponse, error) {
	return invoke[FindMatchesResponse](ctx, c.cc, MatchServiceName, "FindMatches", in, opts)
}
