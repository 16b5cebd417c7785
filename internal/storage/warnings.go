package storage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWarningNotFound = errors.New("warning not found")

type WarningRecord struct {
	ID        string  `json:"id,omitempty"`
	Reason    string  `json:"reason"`
	Timestamp float64 `json:"timestamp"`
	Moderator string  `json:"moderator"`
	GuildID   string  `json:"guild_id"`
}

func (w WarningRecord) Time() time.Time {
	return fromUnix(w.Timestamp)
}

type TempBan struct {
	UnbanTime float64 `json:"unban_time"`
	Reason    string  `json:"reason"`
}

func (b TempBan) Due(now time.Time) bool {
	return b.UnbanTime <= toUnix(now)
}

func (b TempBan) Time() time.Time {
	return fromUnix(b.UnbanTime)
}

type UserWarningState struct {
	Warns    []WarningRecord `json:"warns"`
	TempBans []TempBan       `json:"tempbans,omitempty"`
	GuildID  string          `json:"guild_id"`
}

// Ledger is the decoded warnings.json document keyed by LedgerKey.
type Ledger map[string]*UserWarningState

type WarnedUser struct {
	UserID       string          `json:"user_id"`
	WarningCount int             `json:"warning_count"`
	Warnings     []WarningRecord `json:"warnings"`
}

func LedgerKey(guildID, userID string) string {
	return guildID + "_" + userID
}

func SplitLedgerKey(key string) (guildID, userID string, ok bool) {
	idx := strings.Index(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnix(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

func NewWarning(guildID, reason, moderator string, at time.Time) WarningRecord {
	return WarningRecord{
		ID:        uuid.NewString(),
		Reason:    reason,
		Timestamp: toUnix(at),
		Moderator: moderator,
		GuildID:   guildID,
	}
}

func NewTempBan(reason string, unbanAt time.Time) TempBan {
	return TempBan{UnbanTime: toUnix(unbanAt), Reason: reason}
}

func (s *Store) loadLedger(path string) Ledger {
	ledger := Ledger{}
	if s.readDoc(path, &ledger) != nil {
		ledger = Ledger{}
	}
	return ledger.compact()
}

func (s *Store) loadLedgerForUpdate(path string) (Ledger, error) {
	ledger := Ledger{}
	ok, err := s.readForUpdate(path, &ledger)
	if err != nil {
		return nil, err
	}
	if !ok {
		ledger = Ledger{}
	}
	return ledger.compact(), nil
}

func (l Ledger) compact() Ledger {
	for key, state := range l {
		if state == nil {
			delete(l, key)
		}
	}
	return l
}

// Ledger returns a snapshot of the whole warnings document.
func (s *Store) Ledger() Ledger {
	path := s.docPath(warningsFile)
	var ledger Ledger
	err := s.withLock(path, func() error {
		ledger = s.loadLedger(path)
		return nil
	})
	if err != nil || ledger == nil {
		return Ledger{}
	}
	return ledger
}

// UpdateLedger runs fn on the whole warnings document. fn reports whether it
// changed anything; the document is rewritten only when it did.
func (s *Store) UpdateLedger(fn func(Ledger) (bool, error)) error {
	path := s.docPath(warningsFile)
	return s.withLock(path, func() error {
		ledger, err := s.loadLedgerForUpdate(path)
		if err != nil {
			return err
		}
		changed, err := fn(ledger)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.writeDoc(path, ledger)
	})
}

func (s *Store) updateUser(guildID, userID string, fn func(*UserWarningState) bool) error {
	key := LedgerKey(guildID, userID)
	return s.UpdateLedger(func(ledger Ledger) (bool, error) {
		state := ledger[key]
		created := false
		if state == nil {
			state = &UserWarningState{Warns: []WarningRecord{}, GuildID: guildID}
			created = true
		}
		if !fn(state) {
			return false, nil
		}
		if created {
			ledger[key] = state
		}
		return true, nil
	})
}

func (s *Store) Warnings(guildID, userID string) []WarningRecord {
	ledger := s.Ledger()
	state := ledger[LedgerKey(guildID, userID)]
	if state == nil {
		return []WarningRecord{}
	}
	return append([]WarningRecord{}, state.Warns...)
}

func (s *Store) WarningState(guildID, userID string) UserWarningState {
	ledger := s.Ledger()
	state := ledger[LedgerKey(guildID, userID)]
	if state == nil {
		return UserWarningState{Warns: []WarningRecord{}, GuildID: guildID}
	}
	return *state
}

// AppendWarning stores record for the user and returns the new warning count.
func (s *Store) AppendWarning(guildID, userID string, record WarningRecord) (int, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.GuildID == "" {
		record.GuildID = guildID
	}
	count := 0
	err := s.updateUser(guildID, userID, func(state *UserWarningState) bool {
		state.Warns = append(state.Warns, record)
		count = len(state.Warns)
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("append warning: %w", err)
	}
	return count, nil
}

// ClearWarnings empties the user's warns and returns how many were removed.
func (s *Store) ClearWarnings(guildID, userID string) (int, error) {
	cleared := 0
	err := s.updateUser(guildID, userID, func(state *UserWarningState) bool {
		cleared = len(state.Warns)
		if cleared == 0 {
			return false
		}
		state.Warns = []WarningRecord{}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("clear warnings: %w", err)
	}
	return cleared, nil
}

func (s *Store) RemoveWarning(guildID, userID, warningID string) error {
	found := false
	err := s.updateUser(guildID, userID, func(state *UserWarningState) bool {
		for i, warn := range state.Warns {
			if warn.ID == warningID {
				state.Warns = append(state.Warns[:i], state.Warns[i+1:]...)
				found = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return fmt.Errorf("remove warning: %w", err)
	}
	if !found {
		return ErrWarningNotFound
	}
	return nil
}

func (s *Store) AddTempBan(guildID, userID string, ban TempBan) error {
	err := s.updateUser(guildID, userID, func(state *UserWarningState) bool {
		state.TempBans = append(state.TempBans, ban)
		return true
	})
	if err != nil {
		return fmt.Errorf("add temp ban: %w", err)
	}
	return nil
}

// RemoveTempBan drops the first temp-ban matching ban exactly.
func (s *Store) RemoveTempBan(guildID, userID string, ban TempBan) (bool, error) {
	removed := false
	err := s.updateUser(guildID, userID, func(state *UserWarningState) bool {
		for i, existing := range state.TempBans {
			if existing == ban {
				state.TempBans = append(state.TempBans[:i], state.TempBans[i+1:]...)
				removed = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return false, fmt.Errorf("remove temp ban: %w", err)
	}
	return removed, nil
}

// WarnedUsers lists users of guildID holding at least one warning, most
// warned first.
func (s *Store) WarnedUsers(guildID string) []WarnedUser {
	ledger := s.Ledger()
	users := make([]WarnedUser, 0)
	for key, state := range ledger {
		if len(state.Warns) == 0 {
			continue
		}
		keyGuild, userID, ok := SplitLedgerKey(key)
		if !ok || keyGuild != guildID {
			continue
		}
		users = append(users, WarnedUser{
			UserID:       userID,
			WarningCount: len(state.Warns),
			Warnings:     append([]WarningRecord{}, state.Warns...),
		})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].WarningCount != users[j].WarningCount {
			return users[i].WarningCount > users[j].WarningCount
		}
		return users[i].UserID < users[j].UserID
	})
	return users
}
