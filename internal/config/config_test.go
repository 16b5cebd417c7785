package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "log_level: debug\n"))
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing token to fail")
	}
}

func TestLoadOverlaysFileAndEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
data_dir: /srv/ssupport
moderation:
  spam_messages: 8
  max_purge_messages: 500
sweeps:
  weekly_reset_day: someday
`))
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("SPAM_WINDOW_SECONDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/ssupport" || cfg.Moderation.SpamMessages != 8 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.Moderation.SpamWindow() != 7*time.Second {
		t.Fatalf("expected env override, got %s", cfg.Moderation.SpamWindow())
	}
	if cfg.Moderation.SpamWarnCooldown() != 30*time.Second || cfg.Tickets.MaxOpenPerUser != 3 {
		t.Fatalf("expected defaults for unspecified keys")
	}
	if cfg.Moderation.MaxPurgeMessages != 100 {
		t.Fatalf("expected purge limit clamped, got %d", cfg.Moderation.MaxPurgeMessages)
	}
	if cfg.Sweeps.ResetWeekday() != time.Sunday {
		t.Fatalf("expected invalid weekday to fall back to sunday")
	}
}

func TestLoadDashboardNeedsSessionKey(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "dashboard:\n  enabled: true\n"))
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DASHBOARD_SESSION_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected dashboard without session key to fail")
	}
}

func TestParseWeekday(t *testing.T) {
	if day, ok := ParseWeekday(" Wed "); !ok || day != time.Wednesday {
		t.Fatalf("expected wednesday, got %v %v", day, ok)
	}
	if _, ok := ParseWeekday("funday"); ok {
		t.Fatalf("expected unknown weekday to be rejected")
	}
}
