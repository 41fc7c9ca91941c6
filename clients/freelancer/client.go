package freelancer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gbbackend/clients"
)

const (
	defaultTokenURL   = "https://accounts.freelancer.com/oauth/token"
	defaultAPIBaseURL = "https://www.freelancer.com/api"

	// authHeader is Freelancer's non-standard bearer header
	authHeader = "freelancer-oauth-v1"
)

// FreelancerClient implements the clients.ProviderClient interface for
// Freelancer.com.
type FreelancerClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	apiBaseURL   string
}

// tokenResponse represents the Freelancer OAuth token endpoint response
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// NewFreelancerClient creates a new Freelancer.com OAuth client
func NewFreelancerClient(clientID, clientSecret, redirectURI string) clients.ProviderClient {
	return &FreelancerClient{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     defaultTokenURL,
		apiBaseURL:   defaultAPIBaseURL,
	}
}

// ExchangeCode exchanges an OAuth authorization code for access and refresh tokens
func (c *FreelancerClient) ExchangeCode(ctx context.Context, code string) (*clients.OAuthTokens, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
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

// RefreshTokens refreshes an expired access token using a refresh token
func (c *FreelancerClient) RefreshTokens(ctx context.Context, refreshToken string) (*clients.OAuthTokens, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
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

// RevokeToken is a no-op: Freelancer.com exposes no revocation endpoint, so
// disconnected tokens simply expire naturally.
func (c *FreelancerClient) RevokeToken(ctx context.Context, refreshToken string) error {
	log.Printf("⚠️ Freelancer has no token revocation endpoint - tokens will expire naturally")
	return nil
}

// FetchExternalAccountID resolves the Freelancer user id behind the token
func (c *FreelancerClient) FetchExternalAccountID(ctx context.Context, accessToken string) (string, error) {
	resp, err := c.Do(ctx, accessToken, clients.ResourceRequest{
		Method: "GET",
		Path:   "/users/0.1/self/",
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch self profile: %w", err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("self profile request failed: status %d, body: %s", resp.StatusCode, string(resp.Body))
	}

	var selfResp struct {
		Result struct {
			ID int64 `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &selfResp); err != nil {
		return "", fmt.Errorf("failed to decode self profile: %w", err)
	}
	if selfResp.Result.ID == 0 {
		return "", fmt.Errorf("no user id in self profile response")
	}

	return strconv.FormatInt(selfResp.Result.ID, 10), nil
}

// Do issues an authenticated resource call against the Freelancer API
func (c *FreelancerClient) Do(
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

	req.Header.Set(authHeader, accessToken)
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Freelancer API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &clients.ResourceResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func (c *FreelancerClient) postTokenEndpoint(ctx context.Context, data url.Values) (*clients.OAuthTokens, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

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
		Scope:        tokenResp.Scope,
	}, nil
}
