package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// MockAccessService implements service.AccessService for testing
type MockAccessService struct {
	// Custom behavior functions
	ResolveIdentityFn func(ctx context.Context, token string) (uuid.UUID, error)
	RegisterFn        func(ctx context.Context, email, password string) (*domain.User, error)
	LoginFn           func(ctx context.Context, email, password string) (*service.TokenResult, error)

	// Default return values
	UserID       uuid.UUID
	User         *domain.User
	TokenResult  *service.TokenResult
	DefaultError error

	// ResolveIdentityCalls records the tokens passed to ResolveIdentity
	ResolveIdentityCalls struct {
		mu     sync.Mutex
		Count  int
		Tokens []string
	}
}

// ResolveIdentity implements the AccessService.ResolveIdentity method
func (m *MockAccessService) ResolveIdentity(ctx context.Context, token string) (uuid.UUID, error) {
	m.ResolveIdentityCalls.mu.Lock()
	m.ResolveIdentityCalls.Count++
	m.ResolveIdentityCalls.Tokens = append(m.ResolveIdentityCalls.Tokens, token)
	m.ResolveIdentityCalls.mu.Unlock()

	if m.ResolveIdentityFn != nil {
		return m.ResolveIdentityFn(ctx, token)
	}
	return m.UserID, m.DefaultError
}

// Register implements the AccessService.Register method
func (m *MockAccessService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, email, password)
	}
	return m.User, m.DefaultError
}

// Login implements the AccessService.Login method
func (m *MockAccessService) Login(ctx context.Context, email, password string) (*service.TokenResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	return m.TokenResult, m.DefaultError
}
