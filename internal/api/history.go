package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HistoryServiceServer stores and lists completed runs.
type HistoryServiceServer interface {
	AddRun(context.Context, *AddRunRequest) (*Run, error)
	ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error)
}

type UnimplementedHistoryServiceServer struct{}

func (UnimplementedHistoryServiceServer) AddRun(context.Context, *AddRunRequest) (*Run, error) {
	return nil, status.Error(codes.Unimplemented, "method AddRun not implemented")
}

func (UnimplementedHistoryServiceServer) ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRuns not implemented")
}

var HistoryServiceDesc = grpc.ServiceDesc{
	ServiceName: HistoryServiceName,
	HandlerType: (*HistoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(HistoryServiceName, "AddRun", HistoryServiceServer.AddRun),
		unary(HistoryServiceName, "ListRuns", HistoryServiceServer.ListRuns),
	},
	Metadata: "runtogether/v1/history",
}

func RegisterHistoryServiceServer(s grpc.ServiceRegistrar, srv HistoryServiceServer) {
	s.RegisterService(&HistoryServiceDesc, srv)
}

type HistoryServiceClient interface {
	AddRun(ctx context.Context, in *AddRunRequest, opts ...grpc.CallOption) (*Run, error)
	ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error)
}

type historyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewHistoryServiceClient(cc grpc.ClientConnInterface) HistoryServiceClient {
	return &historyServiceClient{cc: cc}
}

func (c *historyServiceClient) AddRun(ctx context.Context, in *AddRunRequest, opts ...grpc.CallOption) (*Run, error) {
	return invoke[Run](ctx, c.cc, HistoryServiceName, "AddRun", in, opts)
}

func (c *historyServiceClient) ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error) {
	return invoke[ListRunsResponse](ctx, c.cc, HistoryServiceName, "ListRuns", in, opts)
}
