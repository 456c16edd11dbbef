// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the bot configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	LogColor         bool
	AllowedUsers     []int64
	APIBaseURL       string
	NotifyInterval   time.Duration
	NotifySendDelay  time.Duration
	LocalMediaRoot   string
	ChannelURL       string
	ContactURL       string
}

// APIConfig holds the listing service configuration.
type APIConfig struct {
	ListenAddr    string
	DatabasePath  string
	MediaRoot     string
	PublicBaseURL string
	PageSize      int
	CORSOrigins   []string
	LogLevel      string
	LogColor      bool
}

// LoadDotEnv seeds the environment from a .env file. Variables already set
// win, and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the bot configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	interval, err := durationEnv("NOTIFY_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	delay, err := durationEnv("NOTIFY_SEND_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	logColor, err := boolEnv("LOG_COLOR")
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogColor:         logColor,
		AllowedUsers:     allowedUsers,
		APIBaseURL:       strings.TrimSuffix(envOrDefault("API_BASE_URL", "http://localhost:8000/api"), "/"),
		NotifyInterval:   interval,
		NotifySendDelay:  delay,
		LocalMediaRoot:   os.Getenv("LOCAL_MEDIA_ROOT"),
		ChannelURL:       os.Getenv("CHANNEL_URL"),
		ContactURL:       os.Getenv("CONTACT_URL"),
	}, nil
}

// LoadAPI reads the listing service configuration from environment variables.
func LoadAPI() (*APIConfig, error) {
	pageSize := 10
	if raw := os.Getenv("PAGE_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PAGE_SIZE %q", raw)
		}
		pageSize = n
	}
	logColor, err := boolEnv("LOG_COLOR")
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &APIConfig{
		ListenAddr:    envOrDefault("LISTEN_ADDR", ":8000"),
		DatabasePath:  envOrDefault("DATABASE_PATH", "./data/estate.db"),
		MediaRoot:     envOrDefault("MEDIA_ROOT", "./data/media"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		PageSize:      pageSize,
		CORSOrigins:   origins,
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		LogColor:      logColor,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	return len(c.AllowedUsers) == 0 || slices.Contains(c.AllowedUsers, userID)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}

func boolEnv(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
