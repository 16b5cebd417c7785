package analytics

import (
	"time"

	"ssupport/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	GuildID           string         `json:"guild_id"`
	WarnedUsers       int            `json:"warned_users"`
	ActiveWarnings    int            `json:"active_warnings"`
	RecentWarnings    int            `json:"recent_warnings"`
	ByModerator       map[string]int `json:"warnings_by_moderator"`
	PendingTempBans   int            `json:"pending_temp_bans"`
	NextUnban         *time.Time     `json:"next_unban,omitempty"`
	OpenTickets       int            `json:"open_tickets"`
	ClosedTickets     int            `json:"closed_tickets"`
	TicketsByCategory map[string]int `json:"tickets_by_category"`
	BlacklistedWords  int            `json:"blacklisted_words"`
}

// Report summarises a guild's ledger and tickets. Warnings issued at or
// after since count as recent.
func (s *Service) Report(guildID string, since time.Time) Report {
	report := Report{
		GuildID:           guildID,
		ByModerator:       make(map[string]int),
		TicketsByCategory: make(map[string]int),
	}

	for key, state := range s.store.Ledger() {
		keyGuild, _, ok := storage.SplitLedgerKey(key)
		if !ok || keyGuild != guildID {
			continue
		}
		if len(state.Warns) > 0 {
			report.WarnedUsers++
		}
		for _, warn := range state.Warns {
			report.ActiveWarnings++
			report.ByModerator[warn.Moderator]++
			if !warn.Time().Before(since) {
				report.RecentWarnings++
			}
		}
		for _, ban := range state.TempBans {
			report.PendingTempBans++
			at := ban.Time()
			if report.NextUnban == nil || at.Before(*report.NextUnban) {
				report.NextUnban = &at
			}
		}
	}

	for _, ticket := range s.store.GuildTickets(guildID) {
		report.TicketsByCategory[ticket.Category]++
		if ticket.IsOpen() {
			report.OpenTickets++
		} else {
			report.ClosedTickets++
		}
	}

	report.BlacklistedWords = len(s.store.GuildConfig(guildID).BlacklistedWords)
	return report
}
