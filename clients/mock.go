package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProviderClient is a mock implementation of ProviderClient
type MockProviderClient struct {
	mock.Mock
}

func NewMockProviderClient() *MockProviderClient {
	return &MockProviderClient{}
}

func (m *MockProviderClient) ExchangeCode(ctx context.Context, code string) (*OAuthTokens, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OAuthTokens), args.Error(1)
}

func (m *MockProviderClient) RefreshTokens(ctx context.Context, refreshToken string) (*OAuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OAuthTokens), args.Error(1)
}

func (m *MockProviderClient) RevokeToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockProviderClient) FetchExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockProviderClient) Do(
	ctx context.Context,
	accessToken string,
	req ResourceRequest,
) (*ResourceResponse, error) {
	args := m.Called(ctx, accessToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ResourceResponse), args.Error(1)
}

// WithExchangeResponse configures mock to return specific tokens on ExchangeCode
func (m *MockProviderClient) WithExchangeResponse(tokens *OAuthTokens) *MockProviderClient {
	m.On("ExchangeCode", mock.Anything, mock.Anything).Return(tokens, nil)
	return m
}

// WithRefreshResponse configures mock to return specific tokens on RefreshTokens
func (m *MockProviderClient) WithRefreshResponse(tokens *OAuthTokens) *MockProviderClient {
	m.On("RefreshTokens", mock.Anything, mock.Anything).Return(tokens, nil)
	return m
}

// CreateTestTokens creates sample OAuthTokens for testing
func CreateTestTokens() *OAuthTokens {
	return &OAuthTokens{
		AccessToken:  "test-access-token-123",
		RefreshToken: "test-refresh-token-456",
		ExpiresIn:    3600,
		Scope:        "com.intuit.quickbooks.accounting",
	}
}

// CreateRefreshedTestTokens creates new sample OAuthTokens for refresh scenarios
func CreateRefreshedTestTokens() *OAuthTokens {
	return &OAuthTokens{
		AccessToken:  "refreshed-access-token-789",
		RefreshToken: "refreshed-refresh-token-abc",
		ExpiresIn:    3600,
	}
}
