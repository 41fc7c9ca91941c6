package quickbooks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gbbackend/clients"
)

const (
	prodAPIBaseURL    = "https://quickbooks.api.intuit.com"
	sandboxAPIBaseURL = "https://sandbox-quickbooks.api.intuit.com"
	defaultTokenURL   = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	defaultRevokeURL  = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"
)

// QuickBooksClient implements the clients.ProviderClient interface for
// QuickBooks Online.
type QuickBooksClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	revokeURL    string
	apiBaseURL   string
}

// tokenResponse represents the Intuit OAuth token endpoint response
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// NewQuickBooksClient creates a new QuickBooks OAuth client. Environment is
// either "production" or "sandbox" and selects the resource API host.
func NewQuickBooksClient(clientID, clientSecret, redirectURI, environment string) clients.ProviderClient {
	apiBaseURL := prodAPIBaseURL
	if environment == "sandbox" {
		apiBaseURL = sandboxAPIBaseURL
	}

	return &QuickBooksClient{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     defaultTokenURL,
		revokeURL:    defaultRevokeURL,
		apiBaseURL:   apiBaseURL,
	}
}

// ExchangeCode exchanges an OAuth authorization code for access and refresh tokens
func (c *QuickBooksClient) ExchangeCode(ctx context.Context, code string) (*clients.OAuthTokens, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.redirectURI},
	}

	tokens, err := c.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, fmt.Errorf("missing tokens in response")
	}

	return tokens, nil
}

// RefreshTokens refreshes an expired access token using a refresh token.
// Intuit rotates the refresh token on most responses but not all - an empty
// RefreshToken in the result means the prior one is still current.
func (c *QuickBooksClient) RefreshTokens(ctx context.Context, refreshToken string) (*clients.OAuthTokens, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	tokens, err := c.postTokenEndpoint(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("missing access token in response")
	}

	return tokens, nil
}

// RevokeToken asks Intuit to revoke the refresh token and every access token
// minted from it.
func (c *QuickBooksClient) RevokeToken(ctx context.Context, refreshToken string) error {
	reqBody, err := json.Marshal(map[string]string{"token": refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.revokeURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+c.basicAuth())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("token revocation failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// FetchExternalAccountID is not supported for QuickBooks - the realm id is
// delivered as a query parameter on the OAuth callback, not via the API.
func (c *QuickBooksClient) FetchExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	return "", fmt.Errorf("quickbooks realm id is delivered on the OAuth callback")
}

// Do issues an authenticated resource call against the QuickBooks API
func (c *QuickBooksClient) Do(
	ctx context.Context,
	accessToken string,
	r clients.ResourceRequest,
) (*clients.ResourceResponse, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewBuffer(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.apiBaseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call QuickBooks API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &clients.ResourceResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// postTokenEndpoint posts a form-encoded request to the Intuit token
// endpoint with basic auth client credentials.
func (c *QuickBooksClient) postTokenEndpoint(ctx context.Context, data url.Values) (*clients.OAuthTokens, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+c.basicAuth())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token endpoint returned status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &clients.OAuthTokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

func (c *QuickBooksClient) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
}
