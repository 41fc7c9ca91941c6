package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"gbbackend/clients"
	"gbbackend/clients/freelancer"
	"gbbackend/clients/quickbooks"
	"gbbackend/config"
	"gbbackend/db"
	"gbbackend/models"
	"gbbackend/reauthnotif"
	"gbbackend/services/connections"
)

// Standalone sweep entry point, intended for an external cron. The server
// also runs the same sweep on a daily ticker; both go through
// SweepExpiringTokens so the semantics are identical.
func main() {
	log.Printf("🔄 Starting provider token refresh sweep...")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Create database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	// Initialize services
	connectionsRepo := db.NewPostgresProviderConnectionsRepository(dbConn, cfg.DatabaseSchema)
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

	summary, err := connectionsService.SweepExpiringTokens(context.Background())
	if err != nil {
		log.Fatalf("❌ Token refresh sweep failed: %v", err)
	}

	// Print summary
	log.Printf("✅ Token refresh sweep completed!")
	log.Printf("📊 Summary:")
	log.Printf("   - Connections scanned: %d", summary.Scanned)
	log.Printf("   - Tokens refreshed successfully: %d", summary.Refreshed)
	log.Printf("   - Refresh failures: %d", summary.Failed)
	log.Printf("   - Connections requiring reauthorization: %d", summary.ReauthRequired)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
