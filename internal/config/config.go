package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig captures all tunable parameters for the dispatch API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string
	ThemeKey      string

	KafkaBrokers []string
	KafkaTopic   string

	GenAIAPIKey   string
	GenAIModel    string
	GenAIEndpoint string

	FCMEndpoint string
	FCMKey      string

	OfferSeedCount int
	// MinuteUnit is the wall-clock length of one simulated ETA minute; the
	// demo runs a compressed clock so a 12-minute ETA arrives in 12 seconds.
	MinuteUnit    time.Duration
	CompleteDelay time.Duration

	DefaultTheme string

	LogLevel string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RedisGeoKey:     "offers_geo",
		ThemeKey:        "gatiyaan:theme",
		KafkaTopic:      "booking-events",
		GenAIModel:      "gemini-2.5-flash",
		OfferSeedCount:  5,
		MinuteUnit:      time.Second,
		CompleteDelay:   3 * time.Second,
		DefaultTheme:    "light",
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	// .env is a local convenience; absence is not an error
	_ = godotenv.Load()

	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")
	setStringFromEnv(&cfg.ThemeKey, "THEME_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.GenAIAPIKey = strings.TrimSpace(os.Getenv("GENAI_API_KEY"))
	setStringFromEnv(&cfg.GenAIModel, "GENAI_MODEL")
	setStringFromEnv(&cfg.GenAIEndpoint, "GENAI_ENDPOINT")

	cfg.FCMEndpoint = strings.TrimSpace(os.Getenv("FCM_ENDPOINT"))
	cfg.FCMKey = os.Getenv("FCM_KEY")

	setIntFromEnv(&cfg.OfferSeedCount, "OFFER_SEED_COUNT", &errs)
	setDurationFromEnv(&cfg.MinuteUnit, "SIM_MINUTE_UNIT", &errs)
	setDurationFromEnv(&cfg.CompleteDelay, "SIM_COMPLETE_DELAY", &errs)

	setStringFromEnv(&cfg.DefaultTheme, "DEFAULT_THEME")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.OfferSeedCount <= 0 {
		errs = append(errs, fmt.Errorf("OFFER_SEED_COUNT must be > 0"))
	}
	if cfg.MinuteUnit <= 0 {
		errs = append(errs, fmt.Errorf("SIM_MINUTE_UNIT must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
