package jwtgrpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// TokenExtractor extracts a token from an incoming gRPC context. An empty
// token with a nil error means no token was sent.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor returns the "authorization" metadata value as is.
// The Bearer scheme is checked during verification.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	return MetadataFieldTokenExtractor("authorization")(ctx)
}

// MetadataFieldTokenExtractor extracts the token from a specified metadata field.
func MetadataFieldTokenExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil // No metadata, so no JWT.
		}

		values := md.Get(field)
		if len(values) == 0 {
			return "", nil // No JWT provided.
		}
		return values[0], nil
	}
}

// MultiTokenExtractor runs multiple TokenExtractors and returns the first
// non empty token. If a TokenExtractor returns an error that error is
// immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
