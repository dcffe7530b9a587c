package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	OTP      OTPConfig      `env:",prefix=OTP_"`
	Mailer   MailerConfig   `env:",prefix=OTP_MAILER_"`
	Google   GoogleConfig   `env:",prefix=GOOGLE_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host           string `env:"HOST,default=localhost"`
	Port           string `env:"PORT,default=5432"`
	User           string `env:"USER,default=auth_service"`
	Password       string `env:"PASSWORD,default=auth_service_password"`
	DBName         string `env:"DB,default=auth_service_db"`
	SSLMode        string `env:"SSLMODE,default=disable"`
	MigrationsPath string `env:"MIGRATIONS_PATH,default="`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=1d"`
	RememberMeExpiry   Duration `env:"REMEMBER_ME_EXPIRY,default=30d"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	LoginMaxFailures  int      `env:"LOGIN_MAX_FAILURES,default=5"`
	LoginWindow       Duration `env:"LOGIN_WINDOW,default=15m"`
}

type OTPConfig struct {
	RegistrationTTL Duration `env:"REGISTRATION_TTL,default=5m"`
	ResetTTL        Duration `env:"RESET_TTL,default=10m"`
	ResendCooldown  Duration `env:"RESEND_COOLDOWN,default=30s"`
	ResetSessionTTL Duration `env:"RESET_SESSION_TTL,default=15m"`
}

type MailerConfig struct {
	URL     string   `env:"URL,default=http://localhost:3001/api/otp/send"`
	Timeout Duration `env:"TIMEOUT,default=10s"`
}

type GoogleConfig struct {
	ClientID     string   `env:"OAUTH_CLIENT_ID,default="`
	TokenInfoURL string   `env:"TOKENINFO_URL,default=https://oauth2.googleapis.com/tokeninfo"`
	Timeout      Duration `env:"TIMEOUT,default=10s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate JWT secret length
	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
