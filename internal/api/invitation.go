package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InvitationServiceServer manages run invitations and their lifecycle.
type InvitationServiceServer interface {
	CreateInvitation(context.Context, *CreateInvitationRequest) (*CreateInvitationResponse, error)
	SetInvitationStatus(context.Context, *SetInvitationStatusRequest) (*SetInvitationStatusResponse, error)
	ListPendingBySender(context.Context, *ListPendingBySenderRequest) (*ListPendingBySenderResponse, error)
	ListPendingByReceiver(context.Context, *ListPendingByReceiverRequest) (*ListPendingByReceiverResponse, error)
	GetPartnerCount(context.Context, *GetPartnerCountRequest) (*GetPartnerCountResponse, error)
}

type UnimplementedInvitationServiceServer struct{}

func (UnimplementedInvitationServiceServer) CreateInvitation(context.Context, *CreateInvitationRequest) (*CreateInvitationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateInvitation not implemented")
}

func (UnimplementedInvitationServiceServer) SetInvitationStatus(context.Context, *SetInvitationStatusRequest) (*SetInvitationStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetInvitationStatus not implemented")
}

func (UnimplementedInvitationServiceServer) ListPendingBySender(context.Context, *ListPendingBySenderRequest) (*ListPendingBySenderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPendingBySender not implemented")
}

func (UnimplementedInvitationServiceServer) ListPendingByReceiver(context.Context, *ListPendingByReceiverRequest) (*ListPendingByReceiverResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPendingByReceiver not implemented")
}

func (UnimplementedInvitationServiceServer) GetPartnerCount(context.Context, *GetPartnerCountRequest) (*GetPartnerCountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPartnerCount not implemented")
}

var InvitationServiceDesc = grpc.ServiceDesc{
	ServiceName: InvitationServiceName,
	HandlerType: (*InvitationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(InvitationServiceName, "CreateInvitation", InvitationServiceServer.CreateInvitation),
		unary(InvitationServiceName, "SetInvitationStatus", InvitationServiceServer.SetInvitationStatus),
		unary(InvitationServiceName, "ListPendingBySender", InvitationServiceServer.ListPendingBySender),
		unary(InvitationServiceName, "ListPendingByReceiver", InvitationServiceServer.ListPendingByReceiver),
		unary(InvitationServiceName, "GetPartnerCount", InvitationServiceServer.GetPartnerCount),
	},
	Metadata: "runtogether/v1/invitation",
}

func RegisterInvitationServiceServer(s grpc.ServiceRegistrar, srv InvitationServiceServer) {
	s.RegisterService(&InvitationServiceDesc, srv)
}

type InvitationServiceClient interface {
	CreateInvitation(ctx context.Context, in *CreateInvitationRequest, opts ...grpc.CallOption) (*CreateInvitationResponse, error)
	SetInvitationStatus(ctx context.Context, in *SetInvitationStatusRequest, opts ...grpc.CallOption) (*SetInvitationStatusResponse, error)
	ListPendingBySender(ctx context.Context, in *ListPendingBySenderRequest, opts ...grpc.CallOption) (*ListPendingBySenderResponse, error)
	ListPendingByReceiver(ctx context.Context, in *ListPendingByReceiverRequest, opts ...grpc.CallOption) (*ListPendingByReceiverResponse, error)
	GetPartnerCount(ctx context.Context, in *GetPartnerCountRequest, opts ...grpc.CallOption) (*GetPartnerCountResponse, error)
}

type invitationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInvitationServiceClient(cc grpc.ClientConnInterface) InvitationServiceClient {
	return &invitationServiceClient{cc: cc}
}

func (c *invitationServiceClient) CreateInvitation(ctx context.Context, in *CreateInvitationRequest, opts ...grpc.CallOption) (*CreateInvitationResponse, error) {
	return invoke[CreateInvitationResponse](ctx, c.cc, InvitationServiceName, "CreateInvitation", in, opts)
}

func (c *invitationServiceClient) SetInvitationStatus(ctx context.Context, in *SetInvitationStatusRequest, opts ...grpc.CallOption) (*SetInvitationStatusResponse, error) {
	return invoke[SetInvitationStatusResponse](ctx, c.cc, InvitationServiceName, "SetInvitationStatus", in, opts)
}

func (c *invitationServiceClient) ListPendingBySender(ctx context.Context, in *ListPendingBySenderRequest, opts ...grpc.CallOption) (*ListPendingBySenderResponse, error) {
	return invoke[ListPendingBySenderResponse](ctx, c.cc, InvitationServiceName, "ListPendingBySender", in, opts)
}

func (c *invitationServiceClient) ListPendingByReceiver(ctx context.Context, in *ListPendingByReceiverRequest, opts ...grpc.CallOption) (*ListPendingByReceiverResponse, error) {
	return invoke[ListPendingByReceiverResponse](ctx, c.cc, InvitationServiceName, "ListPendingByReceiver", in, opts)
}

func (c *invitationServiceClient) GetPartnerCount(ctx context.Context, in *GetPartnerCountRequest, opts ...grpc.CallOption) (*GetPartnerCountResponse, error) {
	return invoke[GetPartnerCountResponse](ctx, c.cc, InvitationServiceName, "GetPartnerCount", in, opts)
}
