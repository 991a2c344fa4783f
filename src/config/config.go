package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := getEnv("DATABASE_HOST", "localhost")
	DATABASE_PORT := getEnv("DATABASE_PORT", "5432")
	DATABASE_SSLMODE := getEnv("DATABASE_SSLMODE", "disable")
	DATABASE_TIMEZONE := getEnv("DATABASE_TIMEZONE", "UTC")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// App holds the runtime configuration read from the environment.
type App struct {
	Env        string
	Port       string
	AppHost    string
	JWTSecret  string
	LogDir     string
	AssetStore string
	AssetDir   string
	S3Bucket   string

	// QR ticket signing. Secrets are tried in order: QRSecret, QRPreviousSecrets,
	// then QRLegacySecret when set.
	QRSecret          string
	QRPreviousSecrets []string
	QRLegacySecret    string
	QRSecretsID       string
	QRMaxAge          time.Duration

	Gateway              string
	GatewayBaseURL       string
	GatewayKeyID         string
	GatewayKeySecret     string
	GatewayWebhookSecret string
	GatewayTimeout       time.Duration
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	Currency             string

	RedisURL        string
	ScanSessionTTL  time.Duration
	SweepInterval   time.Duration
	Mailer          string
	MailFrom        string
	MailFromName    string
	EmailQueue      string
	EmailWorker     bool
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	MetricsToken    string
	MaintenanceMode bool
}

func Load() App {
	return App{
		Env:        getEnv("API_ENV", "local"),
		Port:       getEnv("PORT", "8080"),
		AppHost:    os.Getenv("APP_HOST"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		LogDir:     getEnv("LOG_DIR", "logs"),
		AssetStore: getEnv("ASSET_STORE", "local"),
		AssetDir:   getEnv("TEMP_DIR", "tmp"),
		S3Bucket:   os.Getenv("S3_ASSETS_BUCKET"),

		QRSecret:          os.Getenv("QR_SIGNING_SECRET"),
		QRPreviousSecrets: csvEnv("QR_PREVIOUS_SECRETS"),
		QRLegacySecret:    os.Getenv("QR_LEGACY_SECRET"),
		QRSecretsID:       os.Getenv("QR_SECRETS_ID"),
		QRMaxAge:          durationEnv("QR_MAX_AGE", 24*time.Hour),

		Gateway:              getEnv("PAYMENT_GATEWAY", "razorpay"),
		GatewayBaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:         os.Getenv("GATEWAY_KEY_ID"),
		GatewayKeySecret:     os.Getenv("GATEWAY_KEY_SECRET"),
		GatewayWebhookSecret: os.Getenv("GATEWAY_WEBHOOK_SECRET"),
		GatewayTimeout:       durationEnv("GATEWAY_TIMEOUT", 10*time.Second),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:             getEnv("PAYMENT_CURRENCY", "INR"),

		RedisURL:        os.Getenv("REDIS_HOST"),
		ScanSessionTTL:  durationEnv("SCAN_SESSION_TTL", 5*time.Minute),
		SweepInterval:   durationEnv("ABSENT_SWEEP_INTERVAL", 30*time.Minute),
		Mailer:          getEnv("MAILER", "none"),
		MailFrom:        os.Getenv("MAIL_FROM"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Campus Events"),
		EmailQueue:      getEnv("EMAIL_QUEUE", "EmailsToSend"),
		EmailWorker:     boolEnv("EMAIL_WORKER", false),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        intEnv("SMTP_PORT", 587),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		MetricsToken:    os.Getenv("METRICS_TOKEN"),
		MaintenanceMode: boolEnv("MAINTENANCE_MODE", false),
	}
}

// QRSecrets returns the ordered candidate list used to verify ticket tokens.
func (a App) QRSecrets() []string {
	secrets := make([]string, 0, len(a.QRPreviousSecrets)+2)
	if a.QRSecret != "" {
		secrets = append(secrets, a.QRSecret)
	}
	secrets = append(secrets, a.QRPreviousSecrets...)
	if a.QRLegacySecret != "" {
		secrets = append(secrets, a.QRLegacySecret)
	}
	return secrets
}

func (a App) IsProd() bool {
	return a.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func csvEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid bool for %s, using fallback %v", key, fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s, using fallback %d", key, fallback)
			return fallback
		}
		return n
	}
	return fallback
}
