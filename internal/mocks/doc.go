// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout the application,
// facilitating consistent and DRY testing across the codebase. Instead of defining
// inline mocks in individual test files, these standardized mock implementations
// can be reused.
//
// Most mocks follow the same shape: a function field per interface method
// that, when set, fully controls the behavior, and simple default values used
// otherwise. InMemoryTaskStore and MockUserStore additionally keep state so
// service tests can exercise real ownership and filtering semantics.
//
// Usage:
//
//	import "github.com/phrazzld/tasktrack-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    jwtService := &mocks.MockJWTService{
//	        ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
//	            return &auth.Claims{UserID: userID}, nil
//	        },
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
