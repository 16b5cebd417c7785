package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ssupport/internal/config"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type fakeActions struct {
	mu        sync.Mutex
	deleted   []string
	notices   []*discordgo.MessageEmbed
	embeds    []string
	dms       []string
	bans      []string
	unbans    []string
	banErr    error
	deleteErr error
}

func (f *fakeActions) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return f.deleteErr
}

func (f *fakeActions) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, channelID)
	return nil
}

func (f *fakeActions) SendTransient(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, embed)
	return nil
}

func (f *fakeActions) DirectMessage(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, userID)
	return errors.New("dms closed")
}

func (f *fakeActions) Ban(ctx context.Context, guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, guildID+":"+userID)
	return nil
}

func (f *fakeActions) Unban(ctx context.Context, guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbans = append(f.unbans, guildID+":"+userID)
	return nil
}

func (f *fakeActions) GuildName(ctx context.Context, guildID string) string {
	return "Test Guild"
}

type fixture struct {
	pipeline *Pipeline
	store    *storage.Store
	actions  *fakeActions
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cfg := config.DefaultConfig()
	state := NewState(StateConfig{
		SpamWindow:   cfg.Moderation.SpamWindow(),
		SpamCooldown: cfg.Moderation.SpamWarnCooldown(),
	})
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	state.WithClock(clock)
	actions := &fakeActions{}
	pipeline := NewPipeline(cfg, store, state, actions, audit.NewLogger(zap.NewNop()), zap.NewNop())
	return &fixture{pipeline: pipeline, store: store, actions: actions, clock: clock}
}

func (f *fixture) send(content string) Result {
	f.clock.Advance(10 * time.Second)
	return f.pipeline.Handle(context.Background(), Message{
		ID:        fmt.Sprintf("m%d", f.clock.now.UnixNano()),
		ChannelID: "500",
		GuildID:   "100",
		AuthorID:  "200",
		Content:   content,
	})
}

func (f *fixture) setWords(t *testing.T, words ...string) {
	t.Helper()
	_, err := f.store.UpdateGuildConfig("100", func(cfg *storage.GuildConfig) error {
		for _, word := range words {
			cfg.AddBlacklistedWord(word)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
}

func TestBlacklistThreeStrikes(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "heck")

	for i := 1; i <= 2; i++ {
		result := f.send("what the HECK")
		if !result.Blacklisted || result.Violations != i || result.Warnings != 0 {
			t.Fatalf("strike %d: unexpected result %+v", i, result)
		}
	}
	if len(f.store.Warnings("100", "200")) != 0 {
		t.Fatalf("expected no warning before the third strike")
	}

	result := f.send("heck!")
	if result.Warnings != 1 || result.Violations != 0 {
		t.Fatalf("third strike: unexpected result %+v", result)
	}
	if f.pipeline.State().Violations("100", "200") != 0 {
		t.Fatalf("expected counter reset after warning")
	}
	warns := f.store.Warnings("100", "200")
	if len(warns) != 1 || warns[0].Moderator != AutoModerator {
		t.Fatalf("expected exactly one warning, got %+v", warns)
	}
	if len(f.actions.deleted) != 3 {
		t.Fatalf("expected 3 deletions, got %d", len(f.actions.deleted))
	}
}

func TestBlacklistWholeWordOnly(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "ass")

	if result := f.send("a classic pass"); result.Blacklisted {
		t.Fatalf("expected substring not to match")
	}
	if result := f.send("you ÀSS"); !result.Blacklisted {
		t.Fatalf("expected accented upper-case word to match")
	}
}

func TestBlacklistMatchesNonLatinWords(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "дурак")

	if result := f.send("ты дураки"); result.Blacklisted {
		t.Fatalf("expected longer cyrillic word not to match")
	}
	result := f.send("ты ДУРАК!")
	if !result.Blacklisted || result.Violations != 1 {
		t.Fatalf("expected cyrillic word to count as a strike, got %+v", result)
	}
	if len(f.actions.deleted) != 1 {
		t.Fatalf("expected the message deleted, got %v", f.actions.deleted)
	}
}

func TestBlacklistContinuesWhenDeleteFails(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "heck")
	f.actions.deleteErr = errors.New("missing permissions")

	for i := 0; i < 3; i++ {
		f.send("heck")
	}
	if len(f.store.Warnings("100", "200")) != 1 {
		t.Fatalf("expected warning despite failed deletes")
	}
}

func TestSpamWarningAndCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := Message{ID: "m", ChannelID: "500", GuildID: "100", AuthorID: "200", Content: "hi"}

	warnings := 0
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
		warnings += f.pipeline.Handle(ctx, msg).Warnings
	}
	if warnings != 1 {
		t.Fatalf("expected exactly one warning for the burst, got %d", warnings)
	}

	f.clock.Advance(time.Second)
	if result := f.pipeline.Handle(ctx, msg); result.Warnings != 0 || result.Spam {
		t.Fatalf("expected no second warning within cooldown, got %+v", result)
	}
	for i := 0; i < 4; i++ {
		f.clock.Advance(time.Second)
		if result := f.pipeline.Handle(ctx, msg); result.Warnings != 0 {
			t.Fatalf("expected cooldown to suppress warning, got %+v", result)
		}
	}

	f.clock.Advance(30 * time.Second)
	warnings = 0
	for i := 0; i < 5; i++ {
		f.clock.Advance(500 * time.Millisecond)
		warnings += f.pipeline.Handle(ctx, msg).Warnings
	}
	if warnings != 1 {
		t.Fatalf("expected a new warning after cooldown, got %d", warnings)
	}
	if got := len(f.store.Warnings("100", "200")); got != 2 {
		t.Fatalf("expected 2 stored warnings, got %d", got)
	}
}

func TestWarningSystemDisabledSkipsWarnings(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "heck")
	_, _ = f.store.UpdateGuildConfig("100", func(cfg *storage.GuildConfig) error {
		cfg.WarningSystemEnabled = false
		return nil
	})
	for i := 0; i < 3; i++ {
		f.send("heck")
	}
	if len(f.store.Warnings("100", "200")) != 0 {
		t.Fatalf("expected no warnings while the warning system is off")
	}
	if f.pipeline.State().Violations("100", "200") != 0 {
		t.Fatalf("expected counter reset even without warning")
	}
}

func TestIgnoresBotsAndDirectMessages(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "heck")
	ctx := context.Background()
	if result := f.pipeline.Handle(ctx, Message{ID: "1", ChannelID: "5", GuildID: "100", AuthorID: "9", Bot: true, Content: "heck"}); result.Blacklisted {
		t.Fatalf("expected bot message ignored")
	}
	if result := f.pipeline.Handle(ctx, Message{ID: "2", ChannelID: "5", AuthorID: "9", Content: "heck"}); result.Blacklisted {
		t.Fatalf("expected direct message ignored")
	}
}

func TestAutoBanClearsWarnings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.store.GuildConfig("100")

	for i := 0; i < 4; i++ {
		count, err := f.pipeline.IssueWarning(ctx, "100", "200", "manual", "mod", SourceManual)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if f.pipeline.CheckAutoBan(ctx, "100", "200", "500", count, cfg) {
			t.Fatalf("unexpected ban at %d warnings", count)
		}
	}
	count, _ := f.pipeline.IssueWarning(ctx, "100", "200", "manual", "mod", SourceManual)
	if count != 5 {
		t.Fatalf("expected 5 warnings, got %d", count)
	}
	if !f.pipeline.CheckAutoBan(ctx, "100", "200", "500", count, cfg) {
		t.Fatalf("expected ban at threshold")
	}
	if len(f.store.Warnings("100", "200")) != 0 {
		t.Fatalf("expected warnings cleared after ban")
	}
	state := f.store.WarningState("100", "200")
	if len(state.TempBans) != 1 {
		t.Fatalf("expected one temp ban, got %+v", state.TempBans)
	}
	want := f.clock.now.Add(7 * 24 * time.Hour)
	if !state.TempBans[0].Time().Equal(want) {
		t.Fatalf("expected unban at %v, got %v", want, state.TempBans[0].Time())
	}
	if len(f.actions.bans) != 1 || len(f.actions.embeds) != 1 {
		t.Fatalf("expected one ban and one notice, got %v %v", f.actions.bans, f.actions.embeds)
	}
}

func TestAutoBanFailureKeepsWarnings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.actions.banErr = errors.New("missing permissions")
	cfg := f.store.GuildConfig("100")
	cfg.AutoBanThreshold = 1

	count, _ := f.pipeline.IssueWarning(ctx, "100", "200", "manual", "mod", SourceManual)
	if f.pipeline.CheckAutoBan(ctx, "100", "200", "500", count, cfg) {
		t.Fatalf("expected failed ban to report false")
	}
	if len(f.store.Warnings("100", "200")) != 1 {
		t.Fatalf("expected warnings kept after failed ban")
	}
	if bans := f.store.WarningState("100", "200").TempBans; len(bans) != 0 {
		t.Fatalf("expected temp ban rolled back, got %+v", bans)
	}
}

func TestBlacklistEscalatesToBan(t *testing.T) {
	f := newFixture(t)
	f.setWords(t, "heck")
	_, _ = f.store.UpdateGuildConfig("100", func(cfg *storage.GuildConfig) error {
		cfg.AutoBanThreshold = 1
		return nil
	})
	var last Result
	for i := 0; i < 3; i++ {
		last = f.send("heck")
	}
	if !last.Banned {
		t.Fatalf("expected ban on first warning with threshold 1, got %+v", last)
	}
}
