package moderation

import (
	"sync"
	"time"

	"ssupport/internal/utils"
)

type StateConfig struct {
	SpamWindow   time.Duration
	SpamCooldown time.Duration
}

// State is the process-owned in-memory moderation state: per-user spam
// windows and spam-warning cooldowns, and per guild+user blacklist
// violation counters. None of it survives a restart.
//
// The mutex keeps the maps intact under concurrent handlers. A message's
// read-check-write sequence is not atomic, so two messages of one user
// racing each other may both see a count just below a threshold.
type State struct {
	mu         sync.Mutex
	cfg        StateConfig
	clock      Clock
	windows    map[string]*utils.SlidingWindow
	lastWarn   map[string]time.Time
	lastSeen   map[string]time.Time
	violations map[string]int
}

type CleanupStats struct {
	WindowsDropped  int
	CountersDecayed int
	CountersDropped int
}

func NewState(cfg StateConfig) *State {
	if cfg.SpamWindow <= 0 {
		cfg.SpamWindow = 5 * time.Second
	}
	return &State{
		cfg:        cfg,
		clock:      realClock{},
		windows:    make(map[string]*utils.SlidingWindow),
		lastWarn:   make(map[string]time.Time),
		lastSeen:   make(map[string]time.Time),
		violations: make(map[string]int),
	}
}

func (s *State) WithClock(clock Clock) {
	s.clock = clock
}

func (s *State) Now() time.Time {
	return s.clock.Now()
}

func violationKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func (s *State) Touch(userID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[userID] = now
}

func (s *State) AddViolation(guildID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := violationKey(guildID, userID)
	s.violations[key]++
	return s.violations[key]
}

func (s *State) Violations(guildID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations[violationKey(guildID, userID)]
}

func (s *State) ResetViolations(guildID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.violations, violationKey(guildID, userID))
}

// RecordMessage adds a message timestamp to the user's spam window and
// returns the number of messages currently inside it.
func (s *State) RecordMessage(userID string, now time.Time) int {
	return s.window(userID).Add(now)
}

func (s *State) SpamCooldownElapsed(userID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastWarn[userID]
	if !ok {
		return true
	}
	return now.Sub(last) >= s.cfg.SpamCooldown
}

// MarkSpamWarning starts the user's cooldown and empties their window.
func (s *State) MarkSpamWarning(userID string, now time.Time) {
	s.window(userID).Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWarn[userID] = now
}

func (s *State) window(userID string) *utils.SlidingWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.windows[userID]
	if window == nil {
		window = utils.NewSlidingWindow(s.cfg.SpamWindow)
		s.windows[userID] = window
	}
	return window
}

// Cleanup trims spam windows to twice the spam timeframe and drops empty
// ones, expires finished cooldowns, and decays the violation counter of
// every user not seen within that span by one.
func (s *State) Cleanup(now time.Time) CleanupStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats CleanupStats
	maxAge := 2 * s.cfg.SpamWindow
	for userID, window := range s.windows {
		if window.Trim(now, maxAge) == 0 {
			delete(s.windows, userID)
			stats.WindowsDropped++
		}
	}
	for userID, last := range s.lastWarn {
		if now.Sub(last) >= s.cfg.SpamCooldown {
			delete(s.lastWarn, userID)
		}
	}

	for userID, last := range s.lastSeen {
		if now.Sub(last) >= maxAge {
			delete(s.lastSeen, userID)
		}
	}
	for key, count := range s.violations {
		if _, active := s.lastSeen[userOf(key)]; active {
			continue
		}
		count--
		stats.CountersDecayed++
		if count <= 0 {
			delete(s.violations, key)
			stats.CountersDropped++
			continue
		}
		s.violations[key] = count
	}
	return stats
}

func (s *State) size() (windows, counters int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows), len(s.violations)
}

func userOf(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[i+1:]
		}
	}
	return key
}
