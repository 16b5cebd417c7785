package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"ssupport/internal/analytics"
	"ssupport/internal/moderation"
	"ssupport/internal/storage"
	"ssupport/internal/tickets"
	"ssupport/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func TestTargetProblem(t *testing.T) {
	cases := []struct {
		name   string
		target *discordgo.User
		want   string
	}{
		{"missing", nil, "User not found."},
		{"self", &discordgo.User{ID: "actor"}, "You cannot warn yourself."},
		{"bot itself", &discordgo.User{ID: "me", Bot: true}, "You cannot warn me."},
		{"other bot", &discordgo.User{ID: "b", Bot: true}, "You cannot warn bots."},
		{"member", &discordgo.User{ID: "u"}, ""},
	}
	for _, tc := range cases {
		if got := targetProblem("actor", "me", tc.target, "warn"); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestParseToggle(t *testing.T) {
	for _, value := range []string{"on", "ON", " enable ", "true"} {
		if enabled, ok := parseToggle(value); !ok || !enabled {
			t.Fatalf("expected %q to enable", value)
		}
	}
	for _, value := range []string{"off", "Disabled", "no"} {
		if enabled, ok := parseToggle(value); !ok || enabled {
			t.Fatalf("expected %q to disable", value)
		}
	}
	if _, ok := parseToggle("maybe"); ok {
		t.Fatalf("expected unknown toggle to be rejected")
	}
}

func TestPurgeableSkipsOldMessages(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	messages := []*discordgo.Message{
		{ID: "new", Timestamp: now.Add(-time.Hour)},
		{ID: "edge", Timestamp: now.Add(-bulkDeleteMaxAge)},
		nil,
		{ID: "old", Timestamp: now.Add(-30 * 24 * time.Hour)},
		{ID: "recent", Timestamp: now.Add(-13 * 24 * time.Hour)},
	}
	got := purgeable(messages, now)
	if len(got) != 2 || got[0] != "new" || got[1] != "recent" {
		t.Fatalf("unexpected purge set %v", got)
	}
}

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      "g",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g", Position: 0},
			{ID: "mod", Position: 5},
			{ID: "helper", Position: 3},
			{ID: "admin", Position: 9},
		},
	}
}

func member(id string, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}, Roles: roles}
}

func TestOutranks(t *testing.T) {
	guild := testGuild()
	if !outranks(guild, member("a", "mod"), member("b", "helper")) {
		t.Fatalf("expected mod to outrank helper")
	}
	if outranks(guild, member("a", "mod"), member("b", "mod")) {
		t.Fatalf("expected equal roles to be refused")
	}
	if outranks(guild, member("a", "helper"), member("b", "admin", "helper")) {
		t.Fatalf("expected top role to decide")
	}
	if !outranks(guild, member("owner"), member("b", "admin")) {
		t.Fatalf("expected owner to outrank everyone")
	}
	if outranks(guild, member("a", "admin"), member("owner")) {
		t.Fatalf("expected owner to be untouchable")
	}
	if !outranks(guild, member("a", "helper"), nil) {
		t.Fatalf("expected any role to outrank a roleless target")
	}
	if outranks(nil, member("a", "admin"), member("b")) {
		t.Fatalf("expected unknown guild to be refused")
	}
}

func TestCanCloseTicket(t *testing.T) {
	ticket := storage.Ticket{ChannelID: "c", CreatorID: "creator"}
	if !canCloseTicket(member("creator"), ticket, "") {
		t.Fatalf("expected creator to close")
	}
	if canCloseTicket(member("other"), ticket, "support") {
		t.Fatalf("expected stranger to be refused")
	}
	if !canCloseTicket(member("other", "support"), ticket, "support") {
		t.Fatalf("expected support role to close")
	}
	staff := member("staff")
	staff.Permissions = discordgo.PermissionManageChannels
	if !canCloseTicket(staff, ticket, "") {
		t.Fatalf("expected channel managers to close")
	}
	if canCloseTicket(nil, ticket, "support") {
		t.Fatalf("expected missing member to be refused")
	}
}

func TestUserMessage(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("wrap: %w", tickets.ErrTooManyOpen): "You already have the maximum number of open tickets. Please close one before opening another.",
		tickets.ErrNotTicket:                           "This command can only be used in a ticket channel.",
		utils.ErrDurationTooLong:                       "That duration is too long.",
		errors.New("boom"):                             "Something went wrong. Please try again later.",
	}
	for err, want := range cases {
		if got := userMessage(err); got != want {
			t.Fatalf("%v: expected %q, got %q", err, want, got)
		}
	}
}

func TestMapError(t *testing.T) {
	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if !errors.Is(mapError(notFound), moderation.ErrNotFound) {
		t.Fatalf("expected 404 to map to ErrNotFound")
	}
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	if errors.Is(mapError(forbidden), moderation.ErrNotFound) {
		t.Fatalf("expected 403 to pass through")
	}
	if mapError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestApplyConfigOptions(t *testing.T) {
	cfg := storage.DefaultGuildConfig()
	applyConfigOptions(&cfg, commandOptions{
		"auto_ban_threshold": {Name: "auto_ban_threshold", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(5)},
		"mod_log":            {Name: "mod_log", Type: discordgo.ApplicationCommandOptionChannel, Value: "123"},
		"welcome_message":    {Name: "welcome_message", Type: discordgo.ApplicationCommandOptionString, Value: "hi {ping}"},
	})
	if cfg.AutoBanThreshold != 5 || cfg.ModLogChannelID != "123" || cfg.WelcomeMessage != "hi {ping}" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.JoinRoleID != "" {
		t.Fatalf("expected unset options to be left alone")
	}
}

func TestApplicationCommandsAreUnique(t *testing.T) {
	commands := applicationCommands(100)
	seen := make(map[string]bool, len(commands))
	for _, cmd := range commands {
		if seen[cmd.Name] {
			t.Fatalf("duplicate command %s", cmd.Name)
		}
		seen[cmd.Name] = true
	}
	for _, name := range []string{"warn", "warnings", "clearwarns", "kick", "ban", "unban", "timeout", "untimeout", "purge", "config", "blacklist", "ticketpanel", "ticket", "summary", "dashboard"} {
		if !seen[name] {
			t.Fatalf("missing command %s", name)
		}
	}
}

func TestDurationMessageUsesConfiguredLimit(t *testing.T) {
	limit := maxTimeout(7)
	if limit != 7*24*time.Hour {
		t.Fatalf("expected 7 day limit, got %s", limit)
	}
	_, err := utils.ParseDuration("10d", limit)
	if got := durationMessage(err, limit); got != "Timeout duration cannot exceed 7 days." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := durationMessage(utils.ErrInvalidDuration, limit); got != userMessage(utils.ErrInvalidDuration) {
		t.Fatalf("expected other errors to fall through, got %q", got)
	}
	if maxTimeout(0) != utils.MaxTimeoutDuration || maxTimeout(90) != utils.MaxTimeoutDuration {
		t.Fatalf("expected out-of-range limits to clamp to the platform maximum")
	}
}

func TestTopCounts(t *testing.T) {
	got := topCounts(map[string]int{"AutoMod": 4, "alice": 2, "bob": 2, "carol": 1}, 3)
	if got != "AutoMod (4), alice (2), bob (2)" {
		t.Fatalf("unexpected ranking %q", got)
	}
	if topCounts(nil, 3) != "None" {
		t.Fatalf("expected None for no moderators")
	}
}

func TestSummaryFields(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	next := now.Add(48 * time.Hour)
	report := analytics.Report{
		WarnedUsers:     2,
		ActiveWarnings:  1500,
		RecentWarnings:  3,
		PendingTempBans: 1,
		NextUnban:       &next,
		OpenTickets:     4,
		ClosedTickets:   9,
		ByModerator:     map[string]int{"AutoMod": 3},
	}
	fields := summaryFields(report, 30, now)
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field.Name] = field.Value
	}
	if values["Active Warnings"] != "1,500" {
		t.Fatalf("expected comma grouping, got %q", values["Active Warnings"])
	}
	if values["Warnings (last 30 days)"] != "3" {
		t.Fatalf("unexpected recent warnings %q", values["Warnings (last 30 days)"])
	}
	if values["Next Unban"] != "2 days from now" {
		t.Fatalf("unexpected next unban %q", values["Next Unban"])
	}
	if values["Tickets"] != "4 open, 9 closed" {
		t.Fatalf("unexpected tickets %q", values["Tickets"])
	}
}

func TestCloseHonoursContext(t *testing.T) {
	session, err := discordgo.New("Bot test")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	b := &Bot{session: session, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		b.Close(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Close to return once the context is done")
	}

	(&Bot{logger: zap.NewNop()}).Close(context.Background())
}
