package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	JWTSecret         string
	AccessTokenExpiry time.Duration

	AdminUsername     string
	AdminPasswordHash string

	HotmartClientID     string
	HotmartClientSecret string
	HotmartTokenURL     string
	HotmartSalesURL     string
	HotmartHTTPTimeout  time.Duration

	ProductMapPath   string
	DefaultStartDate string

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string

	AlertRecipient string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "60m")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 60m. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 60 * time.Minute
	}

	hotmartTimeoutStr := getEnv("HOTMART_HTTP_TIMEOUT", "20s")
	hotmartTimeout, err := time.ParseDuration(hotmartTimeoutStr)
	if err != nil {
		log.Printf("WARNING: Invalid HOTMART_HTTP_TIMEOUT format '%s'. Using default 20s. Error: %v", hotmartTimeoutStr, err)
		hotmartTimeout = 20 * time.Second
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./transacoes.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:         jwtSecret,
		AccessTokenExpiry: accessTokenExpiry,

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		HotmartClientID:     getEnv("HOTMART_CLIENT_ID", ""),
		HotmartClientSecret: getEnv("HOTMART_CLIENT_SECRET", ""),
		HotmartTokenURL:     getEnv("HOTMART_TOKEN_URL", "https://api-sec-vlc.hotmart.com/security/oauth/token"),
		HotmartSalesURL:     getEnv("HOTMART_SALES_URL", "https://developers.hotmart.com/payments/api/v1/sales/history"),
		HotmartHTTPTimeout:  hotmartTimeout,

		ProductMapPath:   getEnv("PRODUCT_MAP_PATH", "data/product_map.json"),
		DefaultStartDate: getEnv("DEFAULT_START_DATE", "2024-01-01"),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "VendasBanco"),

		AlertRecipient: getEnv("ALERT_RECIPIENT", ""),
	}

	if Cfg.HotmartClientID == "" || Cfg.HotmartClientSecret == "" {
		log.Println("WARNING: HOTMART_CLIENT_ID/HOTMART_CLIENT_SECRET not set. Upstream sync will fail until they are configured.")
	}
	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.EmailServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
