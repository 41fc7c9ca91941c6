package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"gbbackend/clients"
	"gbbackend/clients/freelancer"
	"gbbackend/clients/quickbooks"
	"gbbackend/config"
	"gbbackend/db"
	"gbbackend/handlers"
	"gbbackend/middleware"
	"gbbackend/models"
	"gbbackend/reauthnotif"
	"gbbackend/services/connections"
	"gbbackend/services/txmanager"
	"gbbackend/services/users"
	"gbbackend/usecases/sync"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	connectionsRepo := db.NewPostgresProviderConnectionsRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// Provider OAuth clients
	providerClients := map[models.Provider]clients.ProviderClient{
		models.ProviderQuickBooks: quickbooks.NewQuickBooksClient(
			cfg.QuickBooksConfig.ClientID,
			cfg.QuickBooksConfig.ClientSecret,
			cfg.QuickBooksConfig.RedirectURI,
			cfg.QuickBooksConfig.Environment,
		),
		models.ProviderFreelancer: freelancer.NewFreelancerClient(
			cfg.FreelancerConfig.ClientID,
			cfg.FreelancerConfig.ClientSecret,
			cfg.FreelancerConfig.RedirectURI,
		),
	}

	notifier := reauthnotif.NewNotifier(cfg.ReauthWebhookURL, cfg.Environment)
	connectionsService := connections.NewConnectionsService(connectionsRepo, providerClients, notifier)
	usersService := users.NewUsersService(usersRepo, connectionsService, txManager)
	syncUseCase := sync.NewSyncUseCase(connectionsService)

	dashboardHandler := handlers.NewDashboardAPIHandler(usersService, connectionsService, syncUseCase)
	dashboardHTTPHandler := handlers.NewDashboardHTTPHandler(dashboardHandler)
	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)

	// Create a new router
	router := mux.NewRouter()
	dashboardHTTPHandler.SetupEndpoints(router, authMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Daily in-process sweep of expiring provider tokens. The
	// cmd/refreshtokens binary runs the same sweep from cron.
	sweepTicker := time.NewTicker(24 * time.Hour)
	go func() {
		for range sweepTicker.C {
			if _, err := connectionsService.SweepExpiringTokens(context.Background()); err != nil {
				log.Printf("❌ Scheduled token sweep failed: %v", err)
			}
		}
	}()
	defer sweepTicker.Stop()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
