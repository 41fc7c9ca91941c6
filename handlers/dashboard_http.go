package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gbbackend/appctx"
	"gbbackend/core"
	"gbbackend/middleware"
	"gbbackend/models"
	"gbbackend/models/api"
)

type DashboardHTTPHandler struct {
	handler *DashboardAPIHandler
}

func NewDashboardHTTPHandler(handler *DashboardAPIHandler) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		handler: handler,
	}
}

type ConnectProviderRequest struct {
	Code string `json:"code"`
	// RealmID carries the QuickBooks company id delivered on the OAuth
	// callback. Other providers leave it empty.
	RealmID *string `json:"realm_id,omitempty"`
}

func (h *DashboardHTTPHandler) HandleUserAuthenticate(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 User authentication request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	log.Printf("✅ User data retrieved from context: %s", user.ID)

	// Convert domain user to API model
	apiUser := api.DomainUserToAPIUser(user)

	h.writeJSONResponse(w, http.StatusOK, apiUser)
}

func (h *DashboardHTTPHandler) HandleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	log.Printf("👤 Get user profile request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	log.Printf("✅ User profile retrieved from context: %s", user.ID)

	apiUser := api.DomainUserToAPIUser(user)

	h.writeJSONResponse(w, http.StatusOK, apiUser)
}

func (h *DashboardHTTPHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Delete account request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.handler.DeleteAccount(r.Context(), user); err != nil {
		log.Printf("❌ Failed to delete account: %v", err)
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
		} else {
			http.Error(w, "failed to delete account", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("✅ Account deleted successfully: %s", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List connections request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	connections, err := h.handler.ListConnections(r.Context(), user)
	if err != nil {
		log.Printf("❌ Failed to list connections: %v", err)
		http.Error(w, "failed to list connections", http.StatusInternalServerError)
		return
	}

	// Convert domain connections to API models
	apiConnections := api.DomainConnectionsToAPIConnections(connections, time.Now())

	h.writeJSONResponse(w, http.StatusOK, apiConnections)
}

func (h *DashboardHTTPHandler) HandleConnectProvider(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Connect provider request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	provider, ok := h.providerFromPath(w, r)
	if !ok {
		return
	}

	// Parse request body
	var req ConnectProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		log.Printf("❌ Missing code in request")
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	connection, err := h.handler.ConnectProvider(r.Context(), user, provider, req.Code, req.RealmID)
	if err != nil {
		log.Printf("❌ Failed to connect provider: %v", err)
		var exchangeErr *core.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			http.Error(w, "failed to exchange authorization code", http.StatusUnauthorized)
		} else {
			http.Error(w, "failed to connect provider", http.StatusInternalServerError)
		}
		return
	}

	apiConnection := api.DomainConnectionToAPIConnection(connection, time.Now())

	log.Printf("✅ Provider connected successfully: %s (%s)", connection.ID, provider)
	h.writeJSONResponse(w, http.StatusCreated, apiConnection)
}

func (h *DashboardHTTPHandler) HandleDisconnectProvider(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Disconnect provider request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	provider, ok := h.providerFromPath(w, r)
	if !ok {
		return
	}

	if err := h.handler.DisconnectProvider(r.Context(), user, provider); err != nil {
		log.Printf("❌ Failed to disconnect provider: %v", err)
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "connection not found", http.StatusNotFound)
		} else {
			http.Error(w, "failed to disconnect provider", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("✅ Provider disconnected successfully: %s for user %s", provider, user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleSyncEarnings(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔄 Sync earnings request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.handler.SyncEarnings(r.Context(), user)
	if err != nil {
		log.Printf("❌ Failed to sync earnings: %v", err)
		if errors.Is(err, core.ErrAuthorizationRequired) {
			http.Error(w, "provider reauthorization required", http.StatusConflict)
		} else {
			http.Error(w, "failed to sync earnings", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("✅ Earnings synced successfully for user %s: %d invoices", user.ID, result.InvoicesCreated)
	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *DashboardHTTPHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List invoices request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	invoices, err := h.handler.ListInvoices(r.Context(), user)
	if err != nil {
		log.Printf("❌ Failed to list invoices: %v", err)
		if errors.Is(err, core.ErrAuthorizationRequired) {
			http.Error(w, "provider reauthorization required", http.StatusConflict)
		} else {
			http.Error(w, "failed to list invoices", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, invoices)
}

func (h *DashboardHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering dashboard API endpoints")

	// User endpoints
	router.HandleFunc("/users/authenticate", authMiddleware.WithAuth(h.HandleUserAuthenticate)).Methods("POST")
	log.Printf("✅ POST /users/authenticate endpoint registered")

	router.HandleFunc("/users/profile", authMiddleware.WithAuth(h.HandleGetUserProfile)).Methods("GET")
	log.Printf("✅ GET /users/profile endpoint registered")

	router.HandleFunc("/users/me", authMiddleware.WithAuth(h.HandleDeleteAccount)).Methods("DELETE")
	log.Printf("✅ DELETE /users/me endpoint registered")

	// Provider connection endpoints
	router.HandleFunc("/connections", authMiddleware.WithAuth(h.HandleListConnections)).Methods("GET")
	log.Printf("✅ GET /connections endpoint registered")

	router.HandleFunc("/connections/{provider}", authMiddleware.WithAuth(h.HandleConnectProvider)).Methods("POST")
	log.Printf("✅ POST /connections/{provider} endpoint registered")

	router.HandleFunc("/connections/{provider}", authMiddleware.WithAuth(h.HandleDisconnectProvider)).
		Methods("DELETE")
	log.Printf("✅ DELETE /connections/{provider} endpoint registered")

	// Earnings sync endpoints
	router.HandleFunc("/sync/earnings", authMiddleware.WithAuth(h.HandleSyncEarnings)).Methods("POST")
	log.Printf("✅ POST /sync/earnings endpoint registered")

	router.HandleFunc("/invoices", authMiddleware.WithAuth(h.HandleListInvoices)).Methods("GET")
	log.Printf("✅ GET /invoices endpoint registered")

	log.Printf("✅ All dashboard API endpoints registered successfully")
}

// providerFromPath extracts and validates the {provider} path variable,
// writing the error response itself when the value is missing or unknown.
func (h *DashboardHTTPHandler) providerFromPath(w http.ResponseWriter, r *http.Request) (models.Provider, bool) {
	vars := mux.Vars(r)
	providerStr, ok := vars["provider"]
	if !ok {
		log.Printf("❌ Missing provider in URL path")
		http.Error(w, "provider is required", http.StatusBadRequest)
		return "", false
	}

	provider, err := models.ParseProvider(providerStr)
	if err != nil {
		log.Printf("❌ Unknown provider in URL path: %s", providerStr)
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return "", false
	}

	return provider, true
}

func (h *DashboardHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
