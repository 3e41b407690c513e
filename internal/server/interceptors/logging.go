package interceptors

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that logs each RPC with its
// status code, duration, and client IP. skipMethods is the set of full method
// names to not log (e.g. health checks).
func LoggingUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		log.Printf("grpc: %s code=%s duration=%s ip=%s",
			info.FullMethod, status.Code(err), time.Since(start).Round(time.Millisecond), ClientIP(ctx))
		return resp, err
	}
}
