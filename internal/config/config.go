package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultYTAPIBase is the YouTube Data API v3 root used by the channel resolver.
const DefaultYTAPIBase = "https://www.googleapis.com/youtube/v3"

// Config holds catalog, site server and resolver settings.
// Load from env; subcommand flags override individual fields.
type Config struct {
	// Paths
	CatalogPath string // categories.json read by serve/render and rewritten by resolve
	SiteDir     string // static page tree served by serve (index.html, assets/, sites/)
	ProfilePath string // optional site profile YAML; "" = built-in defaults
	LedgerPath  string // optional sqlite merge ledger; "" = disabled

	// Site server
	Addr string // e.g. :8080

	// Metadata API
	YTAPIKey  string // runtime key; also published at /assets/config.json by serve
	YTAPIBase string
	APIRPS    float64 // outbound metadata API request rate; <= 0 disables limiting

	// Outbound HTTP
	FetchTimeout time.Duration
	UserAgent    string // "" = httpclient.UserAgent
}

// Load reads config from environment. Call LoadEnvFile(".env") before Load() to use a .env file.
func Load() *Config {
	c := &Config{
		CatalogPath:  getEnv("VIDCAT_CATALOG", "./categories.json"),
		SiteDir:      getEnv("VIDCAT_SITE_DIR", "./out"),
		ProfilePath:  os.Getenv("VIDCAT_PROFILE"),
		LedgerPath:   os.Getenv("VIDCAT_LEDGER"),
		Addr:         getEnv("VIDCAT_ADDR", ":8080"),
		YTAPIKey:     strings.TrimSpace(os.Getenv("VIDCAT_YT_API_KEY")),
		YTAPIBase:    strings.TrimSuffix(getEnv("VIDCAT_YT_API_BASE", DefaultYTAPIBase), "/"),
		APIRPS:       getEnvFloat("VIDCAT_API_RPS", 2),
		FetchTimeout: getEnvDuration("VIDCAT_FETCH_TIMEOUT", 20*time.Second),
		UserAgent:    os.Getenv("VIDCAT_USER_AGENT"),
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 20 * time.Second
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
