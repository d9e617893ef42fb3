package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress      = "localhost:8080"
	defaultUpstreamTimeout = 30 * time.Second
	defaultStaleAfterDays  = 90
)

type Config struct {
	Env      string
	DB       db
	Server   server
	Upstream upstream
	Sessions sessions
	Logger   logger
}

type defaultConfig struct {
	RunAddress      string
	DatabaseURI     string
	Migrations      string
	UpstreamBaseURL string
	EncryptionKey   string
	LogLevel        string
	Env             string
	StaleAfterDays  int
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type upstream struct {
	BaseURL string `env:"UPSTREAM_BASE_URL"`
	Timeout time.Duration
}

type sessions struct {
	// EncryptionKey protects upstream credentials at rest; hex, 32 bytes.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`
	StaleAfter    time.Duration
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("run_address", defaultRunAddress)
	viper.SetDefault("session_stale_days", defaultStaleAfterDays)

	d := defaultConfig{
		RunAddress:      viper.GetString("run_address"),
		DatabaseURI:     viper.GetString("database_uri"),
		Migrations:      viper.GetString("migrations_path"),
		UpstreamBaseURL: viper.GetString("upstream_base_url"),
		EncryptionKey:   viper.GetString("session_encryption_key"),
		LogLevel:        viper.GetString("log_level"),
		Env:             viper.GetString("app_env"),
		StaleAfterDays:  viper.GetInt("session_stale_days"),
	}

	config := Config{
		Env: d.Env,
		DB: db{
			DatabaseURI: d.DatabaseURI,
			Migrations:  d.Migrations,
		},
		Server: server{RunAddress: d.RunAddress},
		Upstream: upstream{
			BaseURL: d.UpstreamBaseURL,
			Timeout: defaultUpstreamTimeout,
		},
		Sessions: sessions{
			EncryptionKey: d.EncryptionKey,
			StaleAfter:    time.Duration(d.StaleAfterDays) * 24 * time.Hour,
		},
		Logger: logger{LogLevel: d.LogLevel},
	}

	return &config
}
