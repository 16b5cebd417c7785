package moderation

import (
	"testing"
	"time"
)

func TestStateCleanupDecaysIdleCounters(t *testing.T) {
	state := NewState(StateConfig{SpamWindow: 5 * time.Second, SpamCooldown: 30 * time.Second})
	now := time.Unix(1000, 0)

	state.Touch("u1", now)
	state.RecordMessage("u1", now)
	state.AddViolation("g", "u1")
	state.AddViolation("g", "u1")
	state.Touch("u2", now)
	state.AddViolation("g", "u2")

	state.Touch("u2", now.Add(8*time.Second))
	stats := state.Cleanup(now.Add(11 * time.Second))
	if stats.WindowsDropped != 1 {
		t.Fatalf("expected stale window dropped, got %+v", stats)
	}
	if got := state.Violations("g", "u1"); got != 1 {
		t.Fatalf("expected idle counter decayed to 1, got %d", got)
	}
	if got := state.Violations("g", "u2"); got != 1 {
		t.Fatalf("expected active counter untouched, got %d", got)
	}

	state.Cleanup(now.Add(time.Hour))
	windows, counters := state.size()
	if windows != 0 || counters != 0 {
		t.Fatalf("expected everything dropped, got %d windows %d counters", windows, counters)
	}
}

func TestMatcherFold(t *testing.T) {
	matcher := NewMatcher()
	if _, ok := matcher.Match("Nice CAFÉ here", []string{"cafe"}); !ok {
		t.Fatalf("expected folded match")
	}
	if _, ok := matcher.Match("cafeteria", []string{"cafe"}); ok {
		t.Fatalf("expected no partial-word match")
	}
	if word, ok := matcher.Match("a.b matches", []string{"x", "a.b"}); !ok || word != "a.b" {
		t.Fatalf("expected literal match of a.b, got %q", word)
	}
	if _, ok := matcher.Match("axb", []string{"a.b"}); ok {
		t.Fatalf("expected regex metacharacters quoted")
	}
}

func TestMatcherUnicodeWordBounds(t *testing.T) {
	matcher := NewMatcher()
	cases := []struct {
		content string
		word    string
		want    bool
	}{
		{"ты дурак", "дурак", true},
		{"дурак.", "дурак", true},
		{"придурак", "дурак", false},
		{"είσαι ΗΛΙΘΙΟΣ", "ηλίθιος", true},
		{"ηλιθιοσ", "ηλίθιος", true},
		{"du bist blöd heute", "blöd", true},
		{"blödsinn", "blöd", false},
		{"word_suffix", "word", false},
		{"word2", "word", false},
	}
	for _, tc := range cases {
		if _, got := matcher.Match(tc.content, []string{tc.word}); got != tc.want {
			t.Fatalf("%q in %q: expected %v, got %v", tc.word, tc.content, tc.want, got)
		}
	}
}
