package storage

import (
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultWelcomeMessage   = "Welcome {ping} to {server_name}! We now have {members} members."
	DefaultTicketMessage    = "Click a button below to create a ticket!"
	DefaultAutoBanThreshold = 5
	DefaultTempBanDays      = 7
)

var DefaultTicketCategories = []string{"Support", "Bug Report", "Feature Request", "Other"}

type GuildConfig struct {
	BlacklistedWords      []string `json:"blacklisted_words"`
	WarningSystemEnabled  bool     `json:"warning_system_enabled"`
	SpamProtectionEnabled bool     `json:"spam_protection_enabled"`
	AutoModEnabled        bool     `json:"auto_mod_enabled"`
	AutoBanThreshold      int      `json:"auto_ban_threshold"`
	TempBanDurationDays   int      `json:"temp_ban_duration_days"`
	WelcomeChannelID      string   `json:"welcome_channel_id"`
	JoinRoleID            string   `json:"join_role_id"`
	WelcomeMessage        string   `json:"welcome_message"`
	TicketCategories      []string `json:"ticket_categories"`
	TicketMessage         string   `json:"ticket_message"`
	SupportRoleID         string   `json:"support_role_id"`
	TicketLogsChannelID   string   `json:"ticket_logs_channel_id"`
	ModLogChannelID       string   `json:"mod_log_channel_id"`
}

func DefaultGuildConfig() GuildConfig {
	return GuildConfig{
		BlacklistedWords:      []string{},
		WarningSystemEnabled:  true,
		SpamProtectionEnabled: true,
		AutoModEnabled:        true,
		AutoBanThreshold:      DefaultAutoBanThreshold,
		TempBanDurationDays:   DefaultTempBanDays,
		WelcomeMessage:        DefaultWelcomeMessage,
		TicketCategories:      append([]string(nil), DefaultTicketCategories...),
		TicketMessage:         DefaultTicketMessage,
	}
}

// Normalize repairs values a hand-edited or dashboard-written document may
// carry: non-positive thresholds, empty category lists and blacklist words
// that differ only by case or surrounding space.
func (c *GuildConfig) Normalize() {
	defaults := DefaultGuildConfig()
	if c.AutoBanThreshold <= 0 {
		c.AutoBanThreshold = defaults.AutoBanThreshold
	}
	if c.TempBanDurationDays <= 0 {
		c.TempBanDurationDays = defaults.TempBanDurationDays
	}
	if strings.TrimSpace(c.WelcomeMessage) == "" {
		c.WelcomeMessage = defaults.WelcomeMessage
	}
	if strings.TrimSpace(c.TicketMessage) == "" {
		c.TicketMessage = defaults.TicketMessage
	}

	categories := make([]string, 0, len(c.TicketCategories))
	seen := make(map[string]bool)
	for _, category := range c.TicketCategories {
		category = strings.TrimSpace(category)
		key := strings.ToLower(category)
		if category == "" || seen[key] {
			continue
		}
		seen[key] = true
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		categories = defaults.TicketCategories
	}
	c.TicketCategories = categories

	words := make([]string, 0, len(c.BlacklistedWords))
	seen = make(map[string]bool)
	for _, word := range c.BlacklistedWords {
		word = normalizeWord(word)
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}
	sort.Strings(words)
	c.BlacklistedWords = words
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func (c *GuildConfig) AddBlacklistedWord(word string) bool {
	word = normalizeWord(word)
	if word == "" || c.HasBlacklistedWord(word) {
		return false
	}
	c.BlacklistedWords = append(c.BlacklistedWords, word)
	sort.Strings(c.BlacklistedWords)
	return true
}

func (c *GuildConfig) RemoveBlacklistedWord(word string) bool {
	word = normalizeWord(word)
	for i, existing := range c.BlacklistedWords {
		if existing == word {
			c.BlacklistedWords = append(c.BlacklistedWords[:i], c.BlacklistedWords[i+1:]...)
			return true
		}
	}
	return false
}

func (c GuildConfig) HasBlacklistedWord(word string) bool {
	word = normalizeWord(word)
	for _, existing := range c.BlacklistedWords {
		if existing == word {
			return true
		}
	}
	return false
}

func (c GuildConfig) HasCategory(category string) bool {
	for _, existing := range c.TicketCategories {
		if existing == category {
			return true
		}
	}
	return false
}

// GuildConfig never fails: absent, unreadable or corrupt documents yield the
// defaults, and keys missing from the document keep their default value.
func (s *Store) GuildConfig(guildID string) GuildConfig {
	cfg := DefaultGuildConfig()
	if !ValidID(guildID) {
		return cfg
	}
	if !s.view(s.guildConfigPath(guildID), &cfg) {
		cfg = DefaultGuildConfig()
	}
	cfg.Normalize()
	return cfg
}

func (s *Store) SaveGuildConfig(guildID string, cfg GuildConfig) error {
	if !ValidID(guildID) {
		return ErrInvalidID
	}
	cfg.Normalize()
	path := s.guildConfigPath(guildID)
	return s.withLock(path, func() error {
		return s.writeDoc(path, cfg)
	})
}

// UpdateGuildConfig runs fn on the current document under the document lock
// and persists the result unless fn fails.
func (s *Store) UpdateGuildConfig(guildID string, fn func(*GuildConfig) error) (GuildConfig, error) {
	if !ValidID(guildID) {
		return GuildConfig{}, ErrInvalidID
	}
	path := s.guildConfigPath(guildID)
	var result GuildConfig
	err := s.withLock(path, func() error {
		cfg := DefaultGuildConfig()
		ok, err := s.readForUpdate(path, &cfg)
		if err != nil {
			return err
		}
		if !ok {
			cfg = DefaultGuildConfig()
		}
		cfg.Normalize()
		if err := fn(&cfg); err != nil {
			return err
		}
		cfg.Normalize()
		if err := s.writeDoc(path, cfg); err != nil {
			return fmt.Errorf("save guild config %s: %w", guildID, err)
		}
		result = cfg
		return nil
	})
	return result, err
}
