package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
)

// ProviderConfig carries the OAuth client settings for one external platform.
// Values are resolved once at startup and passed into the adapters explicitly
// rather than read from ambient globals.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Extra        map[string]string
}

// Config contains runtime configuration values.
type Config struct {
	Environment        string
	HTTPPort           string
	PublicBaseURL      string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	AttemptTTL         time.Duration
	ServiceName        string
	RateLimitRPM       int
	TelemetryEndpoint  string
	TelemetryInsecure  bool
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	Providers          map[integration.Provider]ProviderConfig
}

// Load reads configuration from environment variables with sane defaults.
// A provider is enabled when its client id is present; at least one must be.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8000"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),
		RedisAddr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		AttemptTTL:         getDuration("OAUTH_ATTEMPT_TTL", 600*time.Second),
		ServiceName:        getEnv("SERVICE_NAME", "valora-connect"),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods: getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders: getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		Providers:          map[integration.Provider]ProviderConfig{},
	}

	loadProvider(&cfg, integration.ProviderHubSpot, "HUBSPOT",
		[]string{"oauth", "crm.objects.contacts.read", "crm.objects.companies.read", "crm.objects.deals.read", "tickets"}, nil)
	loadProvider(&cfg, integration.ProviderNotion, "NOTION",
		nil, map[string]string{"owner": "user"})
	loadProvider(&cfg, integration.ProviderAirtable, "AIRTABLE",
		[]string{"data.records:read", "data.records:write", "schema.bases:read"}, nil)

	if len(cfg.Providers) == 0 {
		return Config{}, fmt.Errorf("no provider configured: set at least one of HUBSPOT_CLIENT_ID, NOTION_CLIENT_ID, AIRTABLE_CLIENT_ID")
	}

	return cfg, nil
}

func loadProvider(cfg *Config, provider integration.Provider, prefix string, defaultScopes []string, extra map[string]string) {
	clientID := strings.TrimSpace(os.Getenv(prefix + "_CLIENT_ID"))
	if clientID == "" {
		return
	}
	redirect := getEnv(prefix+"_REDIRECT_URI",
		fmt.Sprintf("%s/integrations/%s/oauth2callback", cfg.PublicBaseURL, provider))
	cfg.Providers[provider] = ProviderConfig{
		ClientID:     clientID,
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		RedirectURI:  redirect,
		Scopes:       getList(prefix+"_SCOPES", defaultScopes),
		Extra:        extra,
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
