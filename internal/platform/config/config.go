package config

import (
	"os"
	"strings"
	"time"
)

// CredentialTTL is the fixed validity window for issued bearer credentials.
// There is no refresh and no revocation list; expiry terminates the credential.
var CredentialTTL = 30 * 24 * time.Hour

// Server captures process-level configuration.
type Server struct {
	Addr       string
	AdminToken string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// PostgresURL selects the postgres-backed stores when set. RedisURL is
	// the fallback shared store; with neither set the process runs on
	// in-memory stores.
	PostgresURL string
	RedisURL    string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// MediaUploadURL points at the blob host that document uploads go to.
	MediaUploadURL string
	MediaAPIKey    string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:           envOr("CARVEST_ADDR", ":8080"),
		AdminToken:     os.Getenv("CARVEST_ADMIN_TOKEN"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "carvest"),
		JWTAudience:    envOr("JWT_AUDIENCE", "carvest-app"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AuditTopic:     envOr("AUDIT_TOPIC", "carvest.audit"),
		MediaUploadURL: os.Getenv("MEDIA_UPLOAD_URL"),
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
