package quickbooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbbackend/clients"
)

func newTestClient(tokenURL, revokeURL, apiBaseURL string) *QuickBooksClient {
	client := NewQuickBooksClient("test-client-id", "test-client-secret", "https://app.example.com/callback", "production").(*QuickBooksClient)
	if tokenURL != "" {
		client.tokenURL = tokenURL
	}
	if revokeURL != "" {
		client.revokeURL = revokeURL
	}
	if apiBaseURL != "" {
		client.apiBaseURL = apiBaseURL
	}
	return client
}

func TestQuickBooksClient_ExchangeCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "auth-code-123", r.PostForm.Get("code"))
			assert.Equal(t, "https://app.example.com/callback", r.PostForm.Get("redirect_uri"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "new-access-token",
				"refresh_token": "new-refresh-token",
				"expires_in":    3600,
				"token_type":    "bearer",
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", "")
		tokens, err := client.ExchangeCode(context.Background(), "auth-code-123")

		require.NoError(t, err)
		assert.Equal(t, "new-access-token", tokens.AccessToken)
		assert.Equal(t, "new-refresh-token", tokens.RefreshToken)
		assert.Equal(t, 3600, tokens.ExpiresIn)
	})

	t.Run("token endpoint rejects the code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", "")
		_, err := client.ExchangeCode(context.Background(), "expired-code")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_grant")
	})
}

func TestQuickBooksClient_RefreshTokens(t *testing.T) {
	t.Run("success with rotated refresh token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "old-refresh-token", r.PostForm.Get("refresh_token"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "rotated-access-token",
				"refresh_token": "rotated-refresh-token",
				"expires_in":    3600,
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", "")
		tokens, err := client.RefreshTokens(context.Background(), "old-refresh-token")

		require.NoError(t, err)
		assert.Equal(t, "rotated-access-token", tokens.AccessToken)
		assert.Equal(t, "rotated-refresh-token", tokens.RefreshToken)
	})

	t.Run("response without rotated refresh token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "rotated-access-token",
				"expires_in":   3600,
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", "")
		tokens, err := client.RefreshTokens(context.Background(), "old-refresh-token")

		require.NoError(t, err)
		assert.Equal(t, "rotated-access-token", tokens.AccessToken)
		// Empty means "not rotated" - the caller keeps the prior one
		assert.Empty(t, tokens.RefreshToken)
	})

	t.Run("missing access token in response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", "")
		_, err := client.RefreshTokens(context.Background(), "old-refresh-token")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing access token")
	})
}

func TestQuickBooksClient_RevokeToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-token-to-revoke", body["token"])

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient("", server.URL, "")
		err := client.RevokeToken(context.Background(), "refresh-token-to-revoke")

		require.NoError(t, err)
	})

	t.Run("revocation rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := newTestClient("", server.URL, "")
		err := client.RevokeToken(context.Background(), "refresh-token-to-revoke")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "revocation failed")
	})
}

func TestQuickBooksClient_Do(t *testing.T) {
	t.Run("attaches bearer token and returns error statuses in the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer the-access-token", r.Header.Get("Authorization"))
			assert.Equal(t, "/v3/company/123/invoice", r.URL.Path)

			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"fault":"AuthenticationFault"}`))
		}))
		defer server.Close()

		client := newTestClient("", "", server.URL)
		resp, err := client.Do(context.Background(), "the-access-token", clients.ResourceRequest{
			Method: "POST",
			Path:   "/v3/company/123/invoice",
			Body:   []byte(`{}`),
		})

		// A 401 is data, not an error - the orchestrator decides what to do
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, resp.OK())
	})
}

func TestQuickBooksClient_FetchExternalAccountID(t *testing.T) {
	client := newTestClient("", "", "")

	_, err := client.FetchExternalAccountID(context.Background(), "token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OAuth callback")
}
