package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ssupport/internal/analytics"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

const (
	defaultSummaryDays = 7
	maxSummaryDays     = 365
)

func (b *Bot) handleSummary(session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	days := defaultSummaryDays
	if opt, ok := options["days"]; ok {
		days = int(opt.IntValue())
	}
	if days < 1 || days > maxSummaryDays {
		b.respondError(session, interaction, fmt.Sprintf("Days must be between 1 and %d.", maxSummaryDays))
		return
	}
	now := time.Now()
	report := b.analytics.Report(interaction.GuildID, now.Add(-time.Duration(days)*24*time.Hour))
	embed := b.commandEmbed("📊 Server Summary", "", b.cfg.EmbedColors.Info, summaryFields(report, days, now))
	b.respondEmbed(session, interaction, embed, true)
}

func summaryFields(report analytics.Report, days int, now time.Time) []*discordgo.MessageEmbedField {
	nextUnban := "None"
	if report.NextUnban != nil {
		nextUnban = humanize.RelTime(*report.NextUnban, now, "ago", "from now")
	}
	return []*discordgo.MessageEmbedField{
		{Name: "Warned Users", Value: humanize.Comma(int64(report.WarnedUsers)), Inline: true},
		{Name: "Active Warnings", Value: humanize.Comma(int64(report.ActiveWarnings)), Inline: true},
		{Name: fmt.Sprintf("Warnings (last %d days)", days), Value: humanize.Comma(int64(report.RecentWarnings)), Inline: true},
		{Name: "Pending Temp-Bans", Value: humanize.Comma(int64(report.PendingTempBans)), Inline: true},
		{Name: "Next Unban", Value: nextUnban, Inline: true},
		{Name: "Blacklisted Words", Value: humanize.Comma(int64(report.BlacklistedWords)), Inline: true},
		{Name: "Tickets", Value: fmt.Sprintf("%d open, %d closed", report.OpenTickets, report.ClosedTickets), Inline: true},
		{Name: "Top Moderators", Value: topCounts(report.ByModerator, 3)},
	}
}

// topCounts renders the n largest entries as "name (count)", ties by name.
func topCounts(counts map[string]int, n int) string {
	if len(counts) == 0 {
		return "None"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, counts[name]))
	}
	return strings.Join(parts, ", ")
}
