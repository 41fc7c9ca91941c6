package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type QuickBooksConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Environment  string // "production" or "sandbox"
}

// IsConfigured returns true if all required QuickBooks configuration is present
func (c QuickBooksConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.RedirectURI != ""
	// Note: Environment is optional and defaults to production
}

type FreelancerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// IsConfigured returns true if all required Freelancer configuration is present
func (c FreelancerConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.RedirectURI != ""
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ReauthWebhookURL   string // Optional; reauth notifications disabled when empty
	UseStrictConfig    bool   // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	QuickBooksConfig QuickBooksConfig
	FreelancerConfig FreelancerConfig
	ClerkConfig      ClerkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ReauthWebhookURL:   getEnvWithDefault("REAUTH_SLACK_WEBHOOK_URL", ""),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		// QuickBooks configuration (optional)
		QuickBooksConfig: QuickBooksConfig{
			ClientID:     os.Getenv("QUICKBOOKS_CLIENT_ID"),
			ClientSecret: os.Getenv("QUICKBOOKS_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("QUICKBOOKS_REDIRECT_URI"),
			Environment:  getEnvWithDefault("QUICKBOOKS_ENVIRONMENT", "production"),
		},

		// Freelancer configuration (optional)
		FreelancerConfig: FreelancerConfig{
			ClientID:     os.Getenv("FREELANCER_CLIENT_ID"),
			ClientSecret: os.Getenv("FREELANCER_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("FREELANCER_REDIRECT_URI"),
		},

		// Clerk configuration (optional)
		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
	}

	// Log which integrations are configured
	if config.QuickBooksConfig.IsConfigured() {
		log.Printf("✅ QuickBooks integration configured")
	} else {
		log.Printf("⚠️ QuickBooks integration not configured - QuickBooks features will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("quickbooks integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.FreelancerConfig.IsConfigured() {
		log.Printf("✅ Freelancer integration configured")
	} else {
		log.Printf("⚠️ Freelancer integration not configured - Freelancer features will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("freelancer integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - Dashboard authentication will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
