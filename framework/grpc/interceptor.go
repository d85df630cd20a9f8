// Package jwtgrpc provides gRPC server interceptors that authenticate calls
// with a jwtmanager.Middleware.
package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jwtmanager "github.com/tokenkit/go-jwt-manager"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// Interceptor authenticates gRPC calls.
type Interceptor struct {
	middleware       *jwtmanager.Middleware
	tokenExtractor   TokenExtractor
	exclusionChecker func(method string) bool
	logger           logging.Logger
}

// New creates an Interceptor. Optional credentials and verify options come
// from mw.
func New(mw *jwtmanager.Middleware, opts ...Option) *Interceptor {
	i := &Interceptor{
		middleware:     mw,
		tokenExtractor: MetadataTokenExtractor,
		logger:         logging.Noop,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// authenticate returns ctx with the verified claims, or a status error.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		i.logger.Debugf("method %s excluded from JWT verification", method)
		return ctx, nil
	}

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		i.logger.Errorf("error extracting token for %s: %v", method, err)
		return nil, status.Errorf(codes.Unauthenticated, "error extracting token: %v", err)
	}

	claims, err := i.middleware.Authenticate(ctx, token)
	if err != nil {
		i.logger.Warnf("JWT verification failed for %s: %v", method, err)
		return nil, statusError(err)
	}
	if claims == nil {
		return ctx, nil
	}
	return jwtmanager.SetClaims(ctx, claims), nil
}

// statusError maps verification errors to gRPC codes the way
// jwtmanager.DefaultErrorHandler maps them to HTTP statuses.
func statusError(err error) error {
	switch {
	case errors.Is(err, jwtmanager.ErrJWTMissing):
		return status.Error(codes.Unauthenticated, "JWT is missing")
	case errors.Is(err, jwtmanager.ErrJWTInvalid):
		return status.Errorf(codes.Unauthenticated, "invalid JWT: %v", err)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "checking JWT: %v", err)
	}
}

// UnaryServerInterceptor returns a gRPC unary server interceptor for JWT authentication.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor for JWT authentication.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
