package analytics

import (
	"testing"
	"time"

	"ssupport/internal/storage"

	"go.uber.org/zap"
)

func TestReport(t *testing.T) {
	store, err := storage.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	now := time.Unix(1700000000, 0)
	_, _ = store.AppendWarning("1", "10", storage.NewWarning("1", "old", "AutoMod", now.Add(-30*24*time.Hour)))
	_, _ = store.AppendWarning("1", "10", storage.NewWarning("1", "new", "mod", now))
	_, _ = store.AppendWarning("2", "10", storage.NewWarning("2", "elsewhere", "mod", now))
	_ = store.AddTempBan("1", "11", storage.NewTempBan("auto", now.Add(time.Hour)))
	_ = store.AddTicket("1", storage.Ticket{Number: 1, ChannelID: "c", CreatorID: "10", Category: "Support", CreatedAt: now})

	report := New(store).Report("1", now.Add(-7*24*time.Hour))
	if report.WarnedUsers != 1 || report.ActiveWarnings != 2 || report.RecentWarnings != 1 {
		t.Fatalf("unexpected warning stats %+v", report)
	}
	if report.ByModerator["AutoMod"] != 1 || report.ByModerator["mod"] != 1 {
		t.Fatalf("unexpected moderator split %v", report.ByModerator)
	}
	if report.PendingTempBans != 1 || report.NextUnban == nil || !report.NextUnban.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected temp ban stats %+v", report)
	}
	if report.OpenTickets != 1 || report.TicketsByCategory["Support"] != 1 {
		t.Fatalf("unexpected ticket stats %+v", report)
	}
}
