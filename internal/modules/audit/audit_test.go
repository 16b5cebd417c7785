package audit

import (
	"context"
	"testing"
)

func TestLogCallsNotifier(t *testing.T) {
	logger := NewLogger(nil)
	var got []Entry
	logger.SetNotifier(func(ctx context.Context, entry Entry) {
		got = append(got, entry)
	})

	logger.Log(context.Background(), LevelWarn, "g1", "u1", "kick", "Kicked by mod: spam")

	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	entry := got[0]
	if entry.GuildID != "g1" || entry.UserID != "u1" || entry.Event != "kick" || entry.Level != LevelWarn {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Log(context.Background(), LevelInfo, "g", "u", "noop", "")
}
