package tickets

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ssupport/internal/config"
	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeTimer struct {
	fn func()
}

func (t *fakeTimer) Stop() bool { return true }

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	delays []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	f.delays = append(f.delays, d)
	return t
}

func (f *fakeClock) Fire() {
	f.mu.Lock()
	pending := append([]*fakeTimer{}, f.timers...)
	f.timers = nil
	f.mu.Unlock()
	for _, timer := range pending {
		timer.fn()
	}
}

type fakeChannels struct {
	mu      sync.Mutex
	next    int
	created []ChannelRequest
	deleted []string
	sent    []string
	editErr error
	edited  []string
}

func (f *fakeChannels) CreateTicketChannel(ctx context.Context, req ChannelRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.created = append(f.created, req)
	return fmt.Sprintf("%d", 9000+f.next), nil
}

func (f *fakeChannels) DeleteChannel(ctx context.Context, channelID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeChannels) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID)
	return "msg-" + channelID, nil
}

func (f *fakeChannels) EditMessage(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, messageID)
	return f.editErr
}

func newManager(t *testing.T) (*Manager, *storage.Store, *fakeChannels, *fakeClock) {
	t.Helper()
	store, err := storage.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	channels := &fakeChannels{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	manager := New(config.DefaultConfig(), store, channels, audit.NewLogger(zap.NewNop()), zap.NewNop())
	manager.WithClock(clock)
	return manager, store, channels, clock
}

func TestCreateAllocatesNumbers(t *testing.T) {
	manager, _, channels, _ := newManager(t)
	ctx := context.Background()

	first, err := manager.Create(ctx, "1", "10", "Bug Report")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := manager.Create(ctx, "1", "11", "Bug Report")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Number != 1 || second.Number != 2 {
		t.Fatalf("unexpected numbers %d %d", first.Number, second.Number)
	}
	if channels.created[1].Name != "bug-report-0002" {
		t.Fatalf("unexpected channel name %q", channels.created[1].Name)
	}
	other, _ := manager.Create(ctx, "1", "10", "Support")
	if other.Number != 1 {
		t.Fatalf("expected per-category numbering, got %d", other.Number)
	}
}

func TestCreateRejectsFourthOpenTicket(t *testing.T) {
	manager, store, channels, _ := newManager(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := manager.Create(ctx, "1", "10", "Support"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	before := len(store.GuildTickets("1"))
	if _, err := manager.Create(ctx, "1", "10", "Other"); err != ErrTooManyOpen {
		t.Fatalf("expected ErrTooManyOpen, got %v", err)
	}
	if after := len(store.GuildTickets("1")); after != before {
		t.Fatalf("expected no mutation, had %d now %d", before, after)
	}
	if len(channels.created) != 3 {
		t.Fatalf("expected no channel for the rejected ticket")
	}
	if _, err := manager.Create(ctx, "1", "11", "Support"); err != nil {
		t.Fatalf("expected other user unaffected, got %v", err)
	}
}

func TestCreateUnknownCategory(t *testing.T) {
	manager, _, _, _ := newManager(t)
	if _, err := manager.Create(context.Background(), "1", "10", "Refunds"); err != ErrUnknownCategory {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCloseSchedulesDeletion(t *testing.T) {
	manager, store, channels, clock := newManager(t)
	ctx := context.Background()
	ticket, _ := manager.Create(ctx, "1", "10", "Support")

	closed, err := manager.Close(ctx, "1", ticket.ChannelID, "20", "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != storage.TicketClosed || closed.CloseReason != "No reason provided" {
		t.Fatalf("unexpected closed ticket %+v", closed)
	}
	if len(channels.deleted) != 0 {
		t.Fatalf("expected deletion to wait for the grace delay")
	}
	if len(clock.delays) != 1 || clock.delays[0] != 10*time.Second {
		t.Fatalf("expected a 10s deletion timer, got %v", clock.delays)
	}
	clock.Fire()
	if len(channels.deleted) != 1 || channels.deleted[0] != ticket.ChannelID {
		t.Fatalf("expected channel deleted, got %v", channels.deleted)
	}

	if _, err := manager.Close(ctx, "1", ticket.ChannelID, "20", ""); err != ErrAlreadyClosed {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := manager.Close(ctx, "1", "nope", "20", ""); err != ErrNotTicket {
		t.Fatalf("expected ErrNotTicket, got %v", err)
	}
	if open := store.OpenTicketsBy("1", "10"); len(open) != 0 {
		t.Fatalf("expected closed ticket to free a slot")
	}
}

func TestRestorePanelsForgetsMissing(t *testing.T) {
	manager, store, channels, _ := newManager(t)
	ctx := context.Background()
	if _, err := manager.PublishPanel(ctx, "1", "55", "20", ""); err != nil {
		t.Fatalf("publish: %v", err)
	}
	refreshed, forgotten := manager.RestorePanels(ctx)
	if refreshed != 1 || forgotten != 0 {
		t.Fatalf("unexpected restore %d/%d", refreshed, forgotten)
	}

	channels.editErr = moderation.ErrNotFound
	refreshed, forgotten = manager.RestorePanels(ctx)
	if refreshed != 0 || forgotten != 1 {
		t.Fatalf("unexpected restore %d/%d", refreshed, forgotten)
	}
	if _, ok := store.Panel("1"); ok {
		t.Fatalf("expected missing panel forgotten")
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("Feature Request", 7); got != "feature-request-0007" {
		t.Fatalf("unexpected %q", got)
	}
	if got := ChannelName("!!!", 12); got != "ticket-0012" {
		t.Fatalf("unexpected %q", got)
	}
}
