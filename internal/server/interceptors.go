package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/metrics"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "x-request-id"

// requestIDMaxLen caps caller-supplied ids so they cannot flood the logs.
const requestIDMaxLen = 64

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by RequestIDInterceptor.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDInterceptor reuses a valid incoming x-request-id or mints a UUID,
// echoes it back as a response header and stores a request-scoped logger.
func RequestIDInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := incomingRequestID(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		ctx = context.WithValue(ctx, requestIDKey{}, id)
		ctx = logger.IntoContext(ctx, base.With("request_id", id, "method", info.FullMethod))
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs and times every unary call.
func LoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		metrics.RecordRPC(info.FullMethod, code.String(), elapsed)

		log := logger.FromContext(ctx, base)
		switch code {
		case codes.OK:
			log.Info("rpc completed", "code", code.String(), "duration", elapsed)
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			log.Error("rpc failed", "code", code.String(), "duration", elapsed, "err", err)
		default:
			log.Info("rpc rejected", "code", code.String(), "duration", elapsed, "err", err)
		}
		return resp, err
	}
}

// RecoveryInterceptor turns a handler panic into an Internal error.
func RecoveryInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx, base).Error("panic in handler", "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(RequestIDHeader)
	if len(vals) == 0 {
		return ""
	}
	id := vals[0]
	if id == "" || len(id) > requestIDMaxLen {
		return ""
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return ""
		}
	}
	return id
}
