package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the server settings. Every field can be overridden by the
// environment variable of the same upper-case name.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	SessionName   string
	LogLevel      string
	LogFile       string
	GinMode       string

	PlaceCacheTTL       time.Duration
	RankBatchSize       int
	RankFlushInterval   time.Duration
	RankRefreshInterval time.Duration
}

// Client holds the settings of the command line client.
type Client struct {
	ServerURL   string
	Session     string
	SessionName string
	LogLevel    string
}

func newViper() *viper.Viper {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, finding env vars from system")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=agora port=5432 sslmode=disable")
	v.SetDefault("SESSION_SECRET", "secret_key_change_me")
	v.SetDefault("SESSION_NAME", "agora_session")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "agora.log")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("PLACE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("RANK_BATCH_SIZE", 50)
	v.SetDefault("RANK_FLUSH_INTERVAL", 500*time.Millisecond)
	v.SetDefault("RANK_REFRESH_INTERVAL", 10*time.Minute)
	v.SetDefault("AGORA_URL", "http://localhost:8080")
	v.SetDefault("AGORA_SESSION", "")
	v.SetDefault("AGORA_LOG_LEVEL", "warn")
	return v
}

// Load reads the server configuration.
func Load() *Config {
	v := newViper()
	return &Config{
		Port:                v.GetString("PORT"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		SessionName:         v.GetString("SESSION_NAME"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFile:             v.GetString("LOG_FILE"),
		GinMode:             v.GetString("GIN_MODE"),
		PlaceCacheTTL:       v.GetDuration("PLACE_CACHE_TTL"),
		RankBatchSize:       v.GetInt("RANK_BATCH_SIZE"),
		RankFlushInterval:   v.GetDuration("RANK_FLUSH_INTERVAL"),
		RankRefreshInterval: v.GetDuration("RANK_REFRESH_INTERVAL"),
	}
}

// LoadClient reads the command line client configuration.
func LoadClient() *Client {
	v := newViper()
	return &Client{
		ServerURL:   v.GetString("AGORA_URL"),
		Session:     v.GetString("AGORA_SESSION"),
		SessionName: v.GetString("SESSION_NAME"),
		LogLevel:    v.GetString("AGORA_LOG_LEVEL"),
	}
}
