package jwtgrpc

import (
	"github.com/tokenkit/go-jwt-manager/logging"
)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithTokenExtractor sets how the token is read from the incoming context.
//
// Default: MetadataTokenExtractor
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) {
		i.tokenExtractor = extractor
	}
}

// WithExcludedMethods skips verification for the given full method names.
func WithExcludedMethods(methods ...string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return WithExclusionChecker(func(method string) bool {
		_, ok := methodSet[method]
		return ok
	})
}

// WithExclusionChecker skips verification for methods checker accepts.
func WithExclusionChecker(checker func(method string) bool) Option {
	return func(i *Interceptor) {
		i.exclusionChecker = checker
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logging.OrNoop(l)
	}
}
