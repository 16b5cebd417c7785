package bot

import (
	"context"
	"fmt"
	"time"

	"ssupport/internal/analytics"
	"ssupport/internal/config"
	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/modules/welcome"
	"ssupport/internal/storage"
	"ssupport/internal/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service
	session   *discordgo.Session
	platform  *Platform
	pipeline  *moderation.Pipeline
	tickets   *tickets.Manager
	welcome   *welcome.Module
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, state *moderation.State, auditLogger *audit.Logger, analyticsService *analytics.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	platform := NewPlatform(session, logger)
	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		audit:     auditLogger,
		analytics: analyticsService,
		session:   session,
		platform:  platform,
		pipeline:  moderation.NewPipeline(cfg, store, state, platform, auditLogger, logger),
		tickets:   tickets.New(cfg, store, platform, auditLogger, logger),
		welcome:   welcome.New(store, platform, auditLogger, logger),
	}
	if b.audit != nil {
		b.audit.SetNotifier(func(ctx context.Context, entry audit.Entry) {
			go b.notifyAudit(entry)
		})
	}
	return b, nil
}

// Platform exposes the session adapter to the sweeps and the dashboard.
func (b *Bot) Platform() *Platform {
	return b.platform
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	return b.registerCommands()
}

// Close disconnects from the gateway, giving up when ctx ends first.
func (b *Bot) Close(ctx context.Context) {
	if b.session == nil {
		return
	}
	done := make(chan error, 1)
	go func() {
		done <- b.session.Close()
	}()
	select {
	case err := <-done:
		if err != nil {
			b.logger.Warn("discord session close failed", zap.Error(err))
		}
	case <-ctx.Done():
		b.logger.Warn("discord session close abandoned", zap.Error(ctx.Err()))
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username), zap.Int("guilds", len(event.Guilds)))
	go func() {
		refreshed, forgotten := b.tickets.RestorePanels(context.Background())
		b.logger.Info("ticket panels restored", zap.Int("refreshed", refreshed), zap.Int("forgotten", forgotten))
	}()
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}
	result := b.pipeline.Handle(context.Background(), moderation.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		AuthorID:  msg.Author.ID,
		Bot:       msg.Author.Bot,
		Content:   msg.Content,
	})
	if result.Banned {
		b.logger.Info("member auto-banned", zap.String("guild_id", msg.GuildID), zap.String("user_id", msg.Author.ID))
	}
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.User == nil {
		return
	}
	member := welcome.Member{
		GuildID:  event.GuildID,
		UserID:   event.User.ID,
		Username: event.User.Username,
		Bot:      event.User.Bot,
	}
	if guild := b.platform.guild(event.GuildID); guild != nil {
		member.GuildName = guild.Name
		member.Members = guild.MemberCount
	}
	b.welcome.HandleJoin(context.Background(), member)
}

// notifyAudit mirrors warnings and critical events into the guild's
// mod-log channel. Auto-bans post their own notice.
func (b *Bot) notifyAudit(entry audit.Entry) {
	if entry.Level == audit.LevelInfo || entry.Event == "auto_ban" || entry.GuildID == "" {
		return
	}
	cfg := b.store.GuildConfig(entry.GuildID)
	if cfg.ModLogChannelID == "" {
		return
	}
	color := b.cfg.EmbedColors.Warning
	if entry.Level == audit.LevelCrit {
		color = b.cfg.EmbedColors.Error
	}
	fields := []*discordgo.MessageEmbedField{{Name: "Event", Value: entry.Event, Inline: true}}
	if entry.UserID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "User", Value: fmt.Sprintf("<@%s>", entry.UserID), Inline: true})
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Moderation Log",
		Description: entry.Details,
		Color:       color,
		Fields:      fields,
		Timestamp:   entry.CreatedAt.Format(time.RFC3339),
	}
	if _, err := b.session.ChannelMessageSendEmbed(cfg.ModLogChannelID, embed); err != nil {
		b.logger.Debug("mod log post failed", zap.String("guild_id", entry.GuildID), zap.Error(err))
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	}); err != nil {
		b.logger.Debug("interaction respond failed", zap.Error(err))
	}
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	}); err != nil {
		b.logger.Debug("interaction respond failed", zap.Error(err))
	}
}

// respondError answers ephemerally; validation failures never mutate state.
func (b *Bot) respondError(session *discordgo.Session, interaction *discordgo.InteractionCreate, message string) {
	b.respondEmbed(session, interaction, b.commandEmbed("❌ Error", message, b.cfg.EmbedColors.Error, nil), true)
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}
