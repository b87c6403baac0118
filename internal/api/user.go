package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UserServiceServer covers runner registration and profile maintenance.
type UserServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetUser(context.Context, *GetUserRequest) (*User, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*User, error)
	IncrementRunsCount(context.Context, *IncrementRunsCountRequest) (*IncrementRunsCountResponse, error)
}

type UnimplementedUserServiceServer struct{}

func (UnimplementedUserServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

func (UnimplementedUserServiceServer) GetUser(context.Context, *GetUserRequest) (*User, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
}

func (UnimplementedUserServiceServer) UpdateUser(context.Context, *UpdateUserRequest) (*User, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateUser not implemented")
}

func (UnimplementedUserServiceServer) IncrementRunsCount(context.Context, *IncrementRunsCountRequest) (*IncrementRunsCountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IncrementRunsCount not implemented")
}

var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(UserServiceName, "Register", UserServiceServer.Register),
		unary(UserServiceName, "GetUser", UserServiceServer.GetUser),
		unary(UserServiceName, "UpdateUser", UserServiceServer.UpdateUser),
		unary(UserServiceName, "IncrementRunsCount", UserServiceServer.IncrementRunsCount),
	},
	Metadata: "runtogether/v1/user",
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

type UserServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error)
	UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*User, error)
	IncrementRunsCount(ctx context.Context, in *IncrementRunsCountRequest, opts ...grpc.CallOption) (*IncrementRunsCountResponse, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc: cc}
}

func (c *userServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, UserServiceName, "Register", in, opts)
}

func (c *userServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, UserServiceName, "GetUser", in, opts)
}

func (c *userServiceClient) UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, UserServiceName, "UpdateUser", in, opts)
}

func (c *userServiceClient) IncrementRunsCount(ctx context.Context, in *IncrementRunsCountRequest, opts ...grpc.CallOption) (*IncrementRunsCountResponse, error) {
	return invoke[IncrementRunsCountResponse](ctx, c.cc, UserServiceName, "IncrementRunsCount", in, opts)
}
