package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr     string
	DataDir      string
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string
	ServiceName  string

	BotToken      string
	GroupChatID   int64
	TelegramAPI   string
	BotPolling    bool
	AdminIDs      []int64
	NotifyTimeout time.Duration
	SessionTTL    time.Duration
	TimeZone      string
	ScheduleFile  string
	LogLevel      string
	LogFormat     string
	Schedule      Schedule
}

// Load reads the environment and, when SCHEDULE_FILE is set, the schedule
// YAML. SCHEDULE_* variables override the file.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8000"),
		DataDir:      getenv("DATA_DIR", "./data"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:  getenv("SERVICE_NAME", "shop-api"),
		BotToken:     os.Getenv("BOT_TOKEN"),
		TelegramAPI:  getenv("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s"),
		TimeZone:     getenv("TZ_NAME", "Asia/Tashkent"),
		ScheduleFile: os.Getenv("SCHEDULE_FILE"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),
		Schedule:     DefaultSchedule(),
	}

	var err error
	if cfg.GroupChatID, err = getInt64("GROUP_CHAT_ID", 0); err != nil {
		return cfg, err
	}
	if cfg.BotPolling, err = getBool("BOT_POLLING", true); err != nil {
		return cfg, err
	}
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	for _, s := range splitCSV(os.Getenv("ADMIN_IDS")) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("ADMIN_IDS: %q is not an id", s)
		}
		cfg.AdminIDs = append(cfg.AdminIDs, id)
	}

	if cfg.ScheduleFile != "" {
		if cfg.Schedule, err = LoadSchedule(cfg.ScheduleFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Schedule.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves TimeZone, falling back to the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TZ_NAME: %w", err)
	}
	return loc, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt64(k string, def int64) (int64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
