package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBName      string
	DBUser      string
	DBPassword  string
	DBSSLMode   string
	DBTimeZone  string

	SecretKey    string
	SessionTTL   time.Duration
	CookieSecure bool

	FrontendURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailFromName string
	SMTPTimeout  time.Duration

	CertificatesDir    string
	InternCodePrefix   string
	CompletionSchedule string
	TimeZone           string
	RendererPoolSize   int
	RenderTimeout      time.Duration
	ChromePath         string

	AdminEmail    string
	AdminPassword string

	FirebaseCredentials string

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	CloudinaryURL string

	RedisAddr     string
	RedisPassword string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "intern_certify"),
		DBUser:      firstEnv("postgres", "DB_UNME", "DB_USER"),
		DBPassword:  firstEnv("", "DB_PWRD", "DB_PASSWORD"),
		DBSSLMode:   firstEnv("disable", "DB_SSLM", "DB_SSLMODE"),
		DBTimeZone:  firstEnv("UTC", "DB_TMEZ", "DB_TIMEZONE"),

		SecretKey:    firstEnv("", "SECRET_KEY", "JWT_SECRET"),
		SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		CookieSecure: getEnvBool("COOKIE_SECURE", true),

		FrontendURL: strings.TrimRight(firstEnv("http://localhost:3000", "FRONTEND_URL", "CLIENT_URL"), "/"),

		SMTPHost:     firstEnv("smtp.gmail.com", "SMTP_HOST", "EMAIL_HOST"),
		SMTPPort:     firstEnv("587", "SMTP_PORT", "EMAIL_PORT"),
		SMTPUser:     firstEnv("", "SMTP_USER", "EMAIL_USER", "EMAIL_ADDRESS"),
		SMTPPassword: firstEnv("", "SMTP_PASS", "EMAIL_PASS", "EMAIL_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", ""),
		MailFromName: getEnv("MAIL_FROM_NAME", "Internship Office"),
		SMTPTimeout:  time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 30)) * time.Second,

		CertificatesDir:    getEnv("CERTIFICATES_DIR", "certificates"),
		InternCodePrefix:   strings.ToUpper(getEnv("INTERN_CODE_PREFIX", "INT")),
		CompletionSchedule: getEnv("COMPLETION_SCHEDULE", "0 2 * * *"),
		TimeZone:           getEnv("TIMEZONE", "Local"),
		RendererPoolSize:   getEnvInt("RENDERER_POOL_SIZE", 2),
		RenderTimeout:      time.Duration(getEnvInt("RENDER_TIMEOUT_SECONDS", 60)) * time.Second,
		ChromePath:         getEnv("CHROME_PATH", ""),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		KafkaBroker:   getEnv("KAFKA_BROKER", ""),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "certificate-events"),
		KafkaUsername: getEnv("KAFKA_USERNAME", ""),
		KafkaPassword: getEnv("KAFKA_PASSWORD", ""),

		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}
	if cfg.RendererPoolSize < 1 {
		cfg.RendererPoolSize = 1
	}

	if cfg.SecretKey == "" {
		log.Println("Warning: SECRET_KEY is not set. Sessions cannot be signed.")
	}
	if cfg.SMTPUser == "" {
		log.Println("Warning: SMTP credentials are not set. Certificate emails will fail.")
	}

	AppConfig = cfg
	return cfg
}

// DSN builds the postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode, c.DBTimeZone)
}

// SMTPAddr is host:port of the mail server.
func (c *Config) SMTPAddr() string {
	return c.SMTPHost + ":" + c.SMTPPort
}

// Location resolves TIMEZONE, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Warning: unknown TIMEZONE %q, using local time: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// firstEnv returns the first non-empty variable among keys. Older deployments
// still use the legacy names, so they are listed after the current ones.
func firstEnv(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}
