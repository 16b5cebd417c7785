package moderation

import (
	"context"
	"fmt"
	"time"

	"ssupport/internal/metrics"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"
	"ssupport/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// IssueWarning appends a warning to the ledger and returns the user's new
// warning count.
func (p *Pipeline) IssueWarning(ctx context.Context, guildID, userID, reason, moderator, source string) (int, error) {
	record := storage.NewWarning(guildID, reason, moderator, p.state.Now())
	count, err := p.store.AppendWarning(guildID, userID, record)
	if err != nil {
		return 0, err
	}
	metrics.WarningsIssued.WithLabelValues(source).Inc()
	p.audit.Log(ctx, audit.LevelWarn, guildID, userID, "warning_issued", fmt.Sprintf("%s (by %s, total %d)", reason, moderator, count))
	return count, nil
}

// CheckAutoBan bans the user for the guild's temp-ban duration once count
// reaches the guild's threshold. The temp-ban record is written before the
// ban so the sweep can always lift it; if the ban itself fails the record
// is rolled back and the warnings stay so the next warning retries.
// noticeChannel receives the guild notice when no mod-log channel is set.
func (p *Pipeline) CheckAutoBan(ctx context.Context, guildID, userID, noticeChannel string, count int, cfg storage.GuildConfig) bool {
	if count < cfg.AutoBanThreshold {
		return false
	}

	duration := time.Duration(cfg.TempBanDurationDays) * 24 * time.Hour
	unbanAt := p.state.Now().Add(duration)
	ban := storage.NewTempBan(fmt.Sprintf("Reached %d warnings", cfg.AutoBanThreshold), unbanAt)
	if err := p.store.AddTempBan(guildID, userID, ban); err != nil {
		metrics.AutoBans.WithLabelValues("store_failed").Inc()
		p.logger.Error("record temp ban failed", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
		return false
	}

	if err := p.actions.Ban(ctx, guildID, userID, fmt.Sprintf("Auto-ban: Reached %d warnings", cfg.AutoBanThreshold)); err != nil {
		metrics.AutoBans.WithLabelValues("failed").Inc()
		p.logger.Error("auto-ban failed", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
		if _, rerr := p.store.RemoveTempBan(guildID, userID, ban); rerr != nil {
			p.logger.Error("roll back temp ban failed", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(rerr))
		}
		return false
	}

	if _, err := p.store.ClearWarnings(guildID, userID); err != nil {
		p.logger.Error("clear warnings after ban failed", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
	}
	metrics.AutoBans.WithLabelValues("banned").Inc()
	p.audit.Log(ctx, audit.LevelCrit, guildID, userID, "auto_ban", fmt.Sprintf("banned for %s after %d warnings", utils.FormatDuration(duration), count))

	channelID := cfg.ModLogChannelID
	if channelID == "" {
		channelID = noticeChannel
	}
	if channelID != "" {
		embed := &discordgo.MessageEmbed{
			Title:       "Auto-Ban Issued",
			Description: fmt.Sprintf("<@%s> has been temporarily banned for %s.", userID, utils.FormatDuration(duration)),
			Color:       p.colors.Error,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Reason", Value: fmt.Sprintf("Reached %d warnings", cfg.AutoBanThreshold)},
				{Name: "Unban", Value: fmt.Sprintf("<t:%d:F>", unbanAt.Unix())},
			},
		}
		if err := p.actions.SendEmbed(ctx, channelID, embed); err != nil {
			p.logger.Warn("auto-ban notice failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}

	dm := &discordgo.MessageEmbed{
		Title: "Temporary Ban",
		Description: fmt.Sprintf("You have been temporarily banned from %s until %s for reaching %d warnings.",
			p.actions.GuildName(ctx, guildID), unbanAt.UTC().Format("2006-01-02 15:04:05 UTC"), cfg.AutoBanThreshold),
		Color: p.colors.Error,
	}
	if err := p.actions.DirectMessage(ctx, userID, dm); err != nil {
		p.logger.Debug("auto-ban dm failed", zap.String("user_id", userID), zap.Error(err))
	}
	return true
}
