package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type DBConfig struct {
	Url string `envconfig:"URL"`
}

type JwtConfig struct {
	Secret string        `envconfig:"SECRET_KEY" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type RateLimitConfig struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Stripe configures the payment processor client, the webhook verification
// secret and the redirect URLs for onboarding and checkout.
type Stripe struct {
	ApiKey               string `envconfig:"API_KEY"`
	SigningSecret        string `envconfig:"SIGNING_SECRET"`
	OnboardingRefreshURL string `envconfig:"ONBOARDING_REFRESH_URL"`
	OnboardingReturnURL  string `envconfig:"ONBOARDING_RETURN_URL"`
	CheckoutSuccessURL   string `envconfig:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL    string `envconfig:"CHECKOUT_CANCEL_URL"`
}

// S3 configures the object storage collaborator.
type S3 struct {
	Bucket       string        `envconfig:"BUCKET"`
	Region       string        `envconfig:"REGION" default:"eu-west-3"`
	PresignTTL   time.Duration `envconfig:"PRESIGN_TTL" default:"15m"`
	PublicPrefix string        `envconfig:"PUBLIC_PREFIX"`
}

type AppConfig struct {
	Env       string          `envconfig:"APP_ENV" default:"development"`
	Host      string          `envconfig:"APP_HOST" default:"localhost"`
	Port      int             `envconfig:"APP_PORT" default:"3000"`
	DB        DBConfig        `envconfig:"DATABASE"`
	Jwt       JwtConfig       `envconfig:"JWT"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Stripe    Stripe          `envconfig:"STRIPE"`
	S3        S3              `envconfig:"S3"`
}

func maskApiKey(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// LoadAppConfig loads configuration from the environment, optionally seeded
// from a .env file.
func LoadAppConfig(logger *slog.Logger, envFilePath ...string) (*AppConfig, error) {
	var err error
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		err = godotenv.Load(envFilePath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logger.Warn("No .env file found or specified, using system environment variables")
	} else {
		logger.Info("Environment variables loaded from .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	logger.Info("App config loaded",
		"env", cfg.Env,
		"db", cfg.DB.Url,
		"jwt_expiry", cfg.Jwt.Expiry,
		"stripe_api_key", maskApiKey(cfg.Stripe.ApiKey),
		"s3_bucket", cfg.S3.Bucket,
	)
	return &cfg, nil
}
