package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	MatchServiceName      = "runtogether.v1.MatchService"
	InvitationServiceName = "runtogether.v1.InvitationService"
	UserServiceName       = "runtogether.v1.UserService"
	HistoryServiceName    = "runtogether.v1.HistoryService"
)

// FullMethod builds the "/service/method" name used on the wire.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// unary adapts a typed service method into a grpc.MethodHandler, running
// the server interceptor chain when one is installed.
func unary[S any, Req any, Resp any](
	service, method string,
	call func(srv S, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// invoke performs a unary call with the JSON content subtype forced.
func invoke[Resp any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	service, method string,
	in any,
	opts []grpc.CallOption,
) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(service, method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
