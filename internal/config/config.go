package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"os"       // os provides access to environment variables
	"strconv"  // strconv converts strings to other types
	"strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and connection parameters are required;
// everything that has a sensible default is read with the env* helpers.
type Config struct {
	Env            string // application environment (dev, test, production)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMaxOpenConns int    // connection pool size (DB_MAX_OPEN_CONNS, default 25)
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	LogLevel  string // DEBUG, INFO, WARN, ERROR
	LogFormat string // json or text

	CookieName     string   // cookie carrying the access token for browser clients
	CookieSecure   bool     // mark the auth cookie Secure
	AllowedOrigins []string // CORS origins for the front end

	MigrateOnBoot bool // run CREATE TABLE IF NOT EXISTS migrations at start-up

	// PreReservationHoldMin is how long a pay-first hold blocks its slot.
	PreReservationHoldMin int

	Payment       PaymentConfig
	Mail          MailConfig
	Redis         RedisConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	AuthRateLimit RateLimitConfig
	Queue         QueueConfig
}

// PaymentConfig selects the payment gateway.  When StripeSecretKey is empty
// payments are recorded through the offline gateway.
type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

// MailConfig holds SMTP settings for alert and confirmation mails.  Mail is
// disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),             // environment (dev/test/production)
		Port:           must("APP_PORT"),            // port to bind the HTTP server
		DBUser:         must("DB_USER"),             // database user
		DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
		DBHost:         must("DB_HOST"),             // database host
		DBPort:         must("DB_PORT"),             // database port
		DBName:         must("DB_NAME"),             // database name
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
		JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),      // bcrypt cost factor

		LogLevel:  envStr("LOG_LEVEL", "INFO"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		CookieName:     envStr("AUTH_COOKIE_NAME", "token"),
		CookieSecure:   envBool("AUTH_COOKIE_SECURE", false),
		AllowedOrigins: splitList(envStr("CORS_ORIGINS", "http://localhost:5173")),

		MigrateOnBoot: envBool("DB_MIGRATE", true),

		PreReservationHoldMin: envInt("PRE_RESERVATION_HOLD_MIN", 30),

		Payment: PaymentConfig{
			StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
			Currency:        strings.ToLower(envStr("PAYMENT_CURRENCY", "mxn")),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("SMTP_FROM", "no-reply@localhost"),
			FromName: envStr("SMTP_FROM_NAME", "Salón de fiestas"),
		},
		Redis:         loadRedis(),
		Cache:         loadCache(),
		RateLimit:     loadRateLimit(),
		AuthRateLimit: loadAuthRateLimit(),
		Queue:         loadQueue(),
	}
}

// IsProduction reports whether stack traces must be hidden from clients.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
