package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken string           `yaml:"discord_token"`
	DataDir      string           `yaml:"data_dir"`
	LogLevel     string           `yaml:"log_level"`
	Health       HealthConfig     `yaml:"health"`
	Moderation   ModerationConfig `yaml:"moderation"`
	Sweeps       SweepConfig      `yaml:"sweeps"`
	Tickets      TicketConfig     `yaml:"tickets"`
	Dashboard    DashboardConfig  `yaml:"dashboard"`
	EmbedColors  EmbedColors      `yaml:"embed_colors"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ModerationConfig holds the process-wide pipeline thresholds. Per-guild
// switches and the auto-ban threshold live in the guild config documents.
type ModerationConfig struct {
	BlacklistStrikes        int `yaml:"blacklist_strikes"`
	SpamMessages            int `yaml:"spam_messages"`
	SpamWindowSeconds       int `yaml:"spam_window_seconds"`
	SpamWarnCooldownSeconds int `yaml:"spam_warn_cooldown_seconds"`
	StrikeNoticeSeconds     int `yaml:"strike_notice_seconds"`
	WarningNoticeSeconds    int `yaml:"warning_notice_seconds"`
	MaxTimeoutDays          int `yaml:"max_timeout_days"`
	MaxPurgeMessages        int `yaml:"max_purge_messages"`
}

type SweepConfig struct {
	TempBanIntervalMinutes int    `yaml:"temp_ban_interval_minutes"`
	WeeklyResetCheckHours  int    `yaml:"weekly_reset_check_hours"`
	WeeklyResetDay         string `yaml:"weekly_reset_day"`
	CleanupIntervalMinutes int    `yaml:"cleanup_interval_minutes"`
	UnbansPerSecond        int    `yaml:"unbans_per_second"`
}

type TicketConfig struct {
	MaxOpenPerUser    int `yaml:"max_open_per_user"`
	CloseDelaySeconds int `yaml:"close_delay_seconds"`
	MaxPanelButtons   int `yaml:"max_panel_buttons"`
}

type DashboardConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Addr           string  `yaml:"addr"`
	PublicURL      string  `yaml:"public_url"`
	ClientID       string  `yaml:"client_id"`
	ClientSecret   string  `yaml:"client_secret"`
	RedirectURL    string  `yaml:"redirect_url"`
	SessionKey     string  `yaml:"session_key"`
	RequestsPerSec float64 `yaml:"requests_per_second"`
	GuildCacheTTL  int     `yaml:"guild_cache_seconds"`
	DiscordAPIBase string  `yaml:"discord_api_base"`
}

type EmbedColors struct {
	Info    int `yaml:"info"`
	Success int `yaml:"success"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		LogLevel: "info",
		Health:   HealthConfig{Enabled: false, Addr: ":8080"},
		Moderation: ModerationConfig{
			BlacklistStrikes:        3,
			SpamMessages:            5,
			SpamWindowSeconds:       5,
			SpamWarnCooldownSeconds: 30,
			StrikeNoticeSeconds:     5,
			WarningNoticeSeconds:    10,
			MaxTimeoutDays:          28,
			MaxPurgeMessages:        100,
		},
		Sweeps: SweepConfig{
			TempBanIntervalMinutes: 60,
			WeeklyResetCheckHours:  24,
			WeeklyResetDay:         "sunday",
			CleanupIntervalMinutes: 30,
			UnbansPerSecond:        2,
		},
		Tickets: TicketConfig{
			MaxOpenPerUser:    3,
			CloseDelaySeconds: 10,
			MaxPanelButtons:   5,
		},
		Dashboard: DashboardConfig{
			Enabled:        false,
			Addr:           ":13526",
			RequestsPerSec: 5,
			GuildCacheTTL:  300,
			DiscordAPIBase: "https://discord.com/api/v10",
		},
		EmbedColors: EmbedColors{
			Info:    0x00AAFF,
			Success: 0x2ECC71,
			Warning: 0xE67E22,
			Error:   0xE74C3C,
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.Dashboard.Enabled && cfg.Dashboard.SessionKey == "" {
		return Config{}, errors.New("DASHBOARD_SESSION_KEY is required when the dashboard is enabled")
	}
	normalize(&cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Moderation.BlacklistStrikes = envInt("BLACKLIST_STRIKES", cfg.Moderation.BlacklistStrikes)
	cfg.Moderation.SpamMessages = envInt("SPAM_MESSAGES", cfg.Moderation.SpamMessages)
	cfg.Moderation.SpamWindowSeconds = envInt("SPAM_WINDOW_SECONDS", cfg.Moderation.SpamWindowSeconds)
	cfg.Moderation.SpamWarnCooldownSeconds = envInt("SPAM_WARN_COOLDOWN_SECONDS", cfg.Moderation.SpamWarnCooldownSeconds)
	cfg.Sweeps.TempBanIntervalMinutes = envInt("TEMPBAN_INTERVAL_MINUTES", cfg.Sweeps.TempBanIntervalMinutes)
	cfg.Sweeps.WeeklyResetDay = envString("WEEKLY_RESET_DAY", cfg.Sweeps.WeeklyResetDay)
	cfg.Sweeps.CleanupIntervalMinutes = envInt("CLEANUP_INTERVAL_MINUTES", cfg.Sweeps.CleanupIntervalMinutes)
	cfg.Tickets.MaxOpenPerUser = envInt("TICKETS_MAX_OPEN", cfg.Tickets.MaxOpenPerUser)
	cfg.Tickets.CloseDelaySeconds = envInt("TICKETS_CLOSE_DELAY_SECONDS", cfg.Tickets.CloseDelaySeconds)
	cfg.Dashboard.Enabled = envBool("DASHBOARD_ENABLED", cfg.Dashboard.Enabled)
	cfg.Dashboard.Addr = envString("DASHBOARD_ADDR", cfg.Dashboard.Addr)
	cfg.Dashboard.PublicURL = envString("DASHBOARD_PUBLIC_URL", cfg.Dashboard.PublicURL)
	cfg.Dashboard.ClientID = envString("DISCORD_CLIENT_ID", cfg.Dashboard.ClientID)
	cfg.Dashboard.ClientSecret = envString("DISCORD_CLIENT_SECRET", cfg.Dashboard.ClientSecret)
	cfg.Dashboard.RedirectURL = envString("DISCORD_REDIRECT_URI", cfg.Dashboard.RedirectURL)
	cfg.Dashboard.SessionKey = envString("DASHBOARD_SESSION_KEY", cfg.Dashboard.SessionKey)
}

func normalize(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Moderation.BlacklistStrikes <= 0 {
		cfg.Moderation.BlacklistStrikes = defaults.Moderation.BlacklistStrikes
	}
	if cfg.Moderation.SpamMessages <= 0 {
		cfg.Moderation.SpamMessages = defaults.Moderation.SpamMessages
	}
	if cfg.Moderation.SpamWindowSeconds <= 0 {
		cfg.Moderation.SpamWindowSeconds = defaults.Moderation.SpamWindowSeconds
	}
	if cfg.Moderation.SpamWarnCooldownSeconds < 0 {
		cfg.Moderation.SpamWarnCooldownSeconds = defaults.Moderation.SpamWarnCooldownSeconds
	}
	if cfg.Moderation.MaxPurgeMessages <= 0 || cfg.Moderation.MaxPurgeMessages > 100 {
		cfg.Moderation.MaxPurgeMessages = defaults.Moderation.MaxPurgeMessages
	}
	if cfg.Moderation.MaxTimeoutDays <= 0 || cfg.Moderation.MaxTimeoutDays > 28 {
		cfg.Moderation.MaxTimeoutDays = defaults.Moderation.MaxTimeoutDays
	}
	if cfg.Sweeps.UnbansPerSecond <= 0 {
		cfg.Sweeps.UnbansPerSecond = defaults.Sweeps.UnbansPerSecond
	}
	if _, ok := ParseWeekday(cfg.Sweeps.WeeklyResetDay); !ok {
		cfg.Sweeps.WeeklyResetDay = defaults.Sweeps.WeeklyResetDay
	}
	if cfg.Tickets.MaxOpenPerUser <= 0 {
		cfg.Tickets.MaxOpenPerUser = defaults.Tickets.MaxOpenPerUser
	}
	if cfg.Tickets.MaxPanelButtons <= 0 || cfg.Tickets.MaxPanelButtons > 5 {
		cfg.Tickets.MaxPanelButtons = defaults.Tickets.MaxPanelButtons
	}
}

func (m ModerationConfig) SpamWindow() time.Duration {
	return time.Duration(m.SpamWindowSeconds) * time.Second
}

func (m ModerationConfig) SpamWarnCooldown() time.Duration {
	return time.Duration(m.SpamWarnCooldownSeconds) * time.Second
}

func (s SweepConfig) ResetWeekday() time.Weekday {
	day, ok := ParseWeekday(s.WeeklyResetDay)
	if !ok {
		return time.Sunday
	}
	return day
}

func ParseWeekday(value string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	default:
		return time.Sunday, false
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
