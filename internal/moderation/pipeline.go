package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ssupport/internal/config"
	"ssupport/internal/metrics"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	SourceBlacklist = "blacklist"
	SourceSpam      = "spam"
	SourceManual    = "manual"

	AutoModerator = "AutoMod"
)

// Message is the platform-neutral view of an inbound chat message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Bot       bool
	Content   string
}

// Result reports what the pipeline did with one message.
type Result struct {
	Blacklisted bool
	Word        string
	Violations  int
	Spam        bool
	Warnings    int
	Banned      bool
}

type Pipeline struct {
	cfg     config.ModerationConfig
	colors  config.EmbedColors
	store   *storage.Store
	state   *State
	matcher *Matcher
	actions Actions
	audit   *audit.Logger
	logger  *zap.Logger
}

func NewPipeline(cfg config.Config, store *storage.Store, state *State, actions Actions, auditLogger *audit.Logger, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg.Moderation,
		colors:  cfg.EmbedColors,
		store:   store,
		state:   state,
		matcher: NewMatcher(),
		actions: actions,
		audit:   auditLogger,
		logger:  logger,
	}
}

func (p *Pipeline) State() *State {
	return p.state
}

// Handle runs the blacklist and spam stages for one message. The stages
// are independent: a failure or a hit in one does not skip the other.
func (p *Pipeline) Handle(ctx context.Context, msg Message) Result {
	var result Result
	if msg.GuildID == "" || msg.Bot || msg.AuthorID == "" {
		return result
	}
	metrics.MessagesChecked.Inc()

	cfg := p.store.GuildConfig(msg.GuildID)
	now := p.state.Now()
	p.state.Touch(msg.AuthorID, now)

	if cfg.AutoModEnabled {
		p.checkBlacklist(ctx, msg, cfg, &result)
	}
	if cfg.SpamProtectionEnabled {
		p.checkSpam(ctx, msg, cfg, now, &result)
	}
	return result
}

func (p *Pipeline) checkBlacklist(ctx context.Context, msg Message, cfg storage.GuildConfig, result *Result) {
	word, ok := p.matcher.Match(msg.Content, cfg.BlacklistedWords)
	if !ok {
		return
	}
	metrics.BlacklistHits.Inc()
	result.Blacklisted = true
	result.Word = word

	if err := p.actions.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil && !errors.Is(err, ErrNotFound) {
		p.logger.Warn("delete blacklisted message failed", zap.String("guild_id", msg.GuildID), zap.String("channel_id", msg.ChannelID), zap.Error(err))
	}

	strikes := p.cfg.BlacklistStrikes
	count := p.state.AddViolation(msg.GuildID, msg.AuthorID)
	result.Violations = count
	p.audit.Log(ctx, audit.LevelInfo, msg.GuildID, msg.AuthorID, "blacklist_violation", fmt.Sprintf("word %q, violation %d/%d", word, count, strikes))

	if count < strikes {
		p.notice(ctx, msg.ChannelID, &discordgo.MessageEmbed{
			Title:       "Blacklisted Word Detected",
			Description: fmt.Sprintf("<@%s>, your message contained a blacklisted word.", msg.AuthorID),
			Color:       p.colors.Warning,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Violations", Value: fmt.Sprintf("%d/%d before warning", count, strikes), Inline: true},
			},
		}, time.Duration(p.cfg.StrikeNoticeSeconds)*time.Second)
		return
	}

	p.state.ResetViolations(msg.GuildID, msg.AuthorID)
	result.Violations = 0
	if !cfg.WarningSystemEnabled {
		return
	}

	reason := fmt.Sprintf("Repeated use of blacklisted words (%d violations)", strikes)
	total, err := p.IssueWarning(ctx, msg.GuildID, msg.AuthorID, reason, AutoModerator, SourceBlacklist)
	if err != nil {
		p.logger.Error("issue blacklist warning failed", zap.String("guild_id", msg.GuildID), zap.String("user_id", msg.AuthorID), zap.Error(err))
		return
	}
	result.Warnings++
	p.notice(ctx, msg.ChannelID, &discordgo.MessageEmbed{
		Title:       "Warning Issued",
		Description: fmt.Sprintf("<@%s>, you have been warned for repeatedly using blacklisted words.", msg.AuthorID),
		Color:       p.colors.Error,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Warnings", Value: fmt.Sprintf("%d", total), Inline: true},
		},
	}, time.Duration(p.cfg.WarningNoticeSeconds)*time.Second)

	if p.CheckAutoBan(ctx, msg.GuildID, msg.AuthorID, msg.ChannelID, total, cfg) {
		result.Banned = true
	}
}

func (p *Pipeline) checkSpam(ctx context.Context, msg Message, cfg storage.GuildConfig, now time.Time, result *Result) {
	count := p.state.RecordMessage(msg.AuthorID, now)
	if count < p.cfg.SpamMessages {
		return
	}
	if !p.state.SpamCooldownElapsed(msg.AuthorID, now) {
		return
	}
	p.state.MarkSpamWarning(msg.AuthorID, now)
	result.Spam = true
	p.audit.Log(ctx, audit.LevelWarn, msg.GuildID, msg.AuthorID, "spam_detected", fmt.Sprintf("%d messages within %ds", count, p.cfg.SpamWindowSeconds))

	if !cfg.WarningSystemEnabled {
		return
	}
	total, err := p.IssueWarning(ctx, msg.GuildID, msg.AuthorID, "Spam detection", AutoModerator, SourceSpam)
	if err != nil {
		p.logger.Error("issue spam warning failed", zap.String("guild_id", msg.GuildID), zap.String("user_id", msg.AuthorID), zap.Error(err))
		return
	}
	result.Warnings++
	p.notice(ctx, msg.ChannelID, &discordgo.MessageEmbed{
		Title:       "Spam Detected",
		Description: fmt.Sprintf("<@%s>, please slow down. You have been warned for spamming.", msg.AuthorID),
		Color:       p.colors.Warning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Warnings", Value: fmt.Sprintf("%d", total), Inline: true},
		},
	}, time.Duration(p.cfg.WarningNoticeSeconds)*time.Second)

	if p.CheckAutoBan(ctx, msg.GuildID, msg.AuthorID, msg.ChannelID, total, cfg) {
		result.Banned = true
	}
}

func (p *Pipeline) notice(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, ttl time.Duration) {
	if err := p.actions.SendTransient(ctx, channelID, embed, ttl); err != nil {
		p.logger.Warn("send notice failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}
