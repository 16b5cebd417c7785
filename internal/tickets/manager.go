package tickets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"ssupport/internal/config"
	"ssupport/internal/metrics"
	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"
	"ssupport/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	ErrTooManyOpen     = errors.New("too many open tickets")
	ErrUnknownCategory = errors.New("unknown ticket category")
	ErrNotTicket       = errors.New("not a ticket channel")
	ErrAlreadyClosed   = errors.New("ticket already closed")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ChannelRequest describes the private channel a new ticket needs: visible
// to the creator, the bot and, when set, the support role.
type ChannelRequest struct {
	GuildID       string
	Name          string
	Topic         string
	ParentName    string
	CreatorID     string
	SupportRoleID string
}

// Channels is the platform side of the ticket system.
type Channels interface {
	CreateTicketChannel(ctx context.Context, req ChannelRequest) (string, error)
	DeleteChannel(ctx context.Context, channelID, reason string) error
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error
}

type Manager struct {
	mu       sync.Mutex
	cfg      config.TicketConfig
	colors   config.EmbedColors
	store    *storage.Store
	channels Channels
	audit    *audit.Logger
	logger   *zap.Logger
	clock    Clock
}

func New(cfg config.Config, store *storage.Store, channels Channels, auditLogger *audit.Logger, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg.Tickets,
		colors:   cfg.EmbedColors,
		store:    store,
		channels: channels,
		audit:    auditLogger,
		logger:   logger,
		clock:    realClock{},
	}
}

func (m *Manager) WithClock(clock Clock) {
	m.clock = clock
}

// ChannelName builds "<category-slug>-NNNN".
func ChannelName(category string, number int) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(category), "-"), "-")
	if slug == "" {
		slug = "ticket"
	}
	return fmt.Sprintf("%s-%04d", slug, number)
}

// Create opens a ticket for creator. Creation is serialized per process so
// the open-ticket cap and the number allocation see each other's writes.
func (m *Manager) Create(ctx context.Context, guildID, creatorID, category string) (storage.Ticket, error) {
	cfg := m.store.GuildConfig(guildID)
	if !cfg.HasCategory(category) {
		return storage.Ticket{}, ErrUnknownCategory
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if open := m.store.OpenTicketsBy(guildID, creatorID); len(open) >= m.cfg.MaxOpenPerUser {
		return storage.Ticket{}, ErrTooManyOpen
	}

	number := m.store.NextTicketNumber(guildID, category)
	channelID, err := m.channels.CreateTicketChannel(ctx, ChannelRequest{
		GuildID:       guildID,
		Name:          ChannelName(category, number),
		Topic:         fmt.Sprintf("%s ticket created by <@%s>", category, creatorID),
		ParentName:    "Tickets - " + category,
		CreatorID:     creatorID,
		SupportRoleID: cfg.SupportRoleID,
	})
	if err != nil {
		return storage.Ticket{}, fmt.Errorf("create ticket channel: %w", err)
	}

	ticket := storage.Ticket{
		Number:    number,
		ChannelID: channelID,
		CreatorID: creatorID,
		Category:  category,
		CreatedAt: m.clock.Now(),
		Status:    storage.TicketOpen,
	}
	if err := m.store.AddTicket(guildID, ticket); err != nil {
		if derr := m.channels.DeleteChannel(ctx, channelID, "Ticket could not be recorded"); derr != nil {
			m.logger.Warn("remove orphan ticket channel failed", zap.String("channel_id", channelID), zap.Error(derr))
		}
		return storage.Ticket{}, err
	}
	metrics.Tickets.WithLabelValues("created").Inc()
	m.audit.Log(ctx, audit.LevelInfo, guildID, creatorID, "ticket_created", fmt.Sprintf("%s #%04d", category, number))

	content := fmt.Sprintf("<@%s>", creatorID)
	if cfg.SupportRoleID != "" {
		content += fmt.Sprintf(" <@&%s>", cfg.SupportRoleID)
	}
	welcome := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎫 %s Ticket #%04d", category, number),
		Description: fmt.Sprintf("Welcome <@%s>! Thank you for creating a ticket.\n\n**Category:** %s\n**Created:** <t:%d:F>\n\nPlease describe your issue in detail. Support staff will be with you shortly!",
			creatorID, category, ticket.CreatedAt.Unix()),
		Color:  m.colors.Success,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Ticket ID: %d", number)},
	}
	if _, err := m.channels.SendMessage(ctx, channelID, &discordgo.MessageSend{
		Content:    content,
		Embeds:     []*discordgo.MessageEmbed{welcome},
		Components: CloseComponents(),
	}); err != nil {
		m.logger.Warn("ticket welcome message failed", zap.String("channel_id", channelID), zap.Error(err))
	}

	m.logTicket(ctx, cfg, &discordgo.MessageEmbed{
		Title: "📝 Ticket Created",
		Color: m.colors.Success,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("<@%s>", creatorID), Inline: true},
			{Name: "Category", Value: category, Inline: true},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", channelID), Inline: true},
			{Name: "Ticket ID", Value: fmt.Sprintf("#%04d", number), Inline: true},
		},
		Timestamp: ticket.CreatedAt.Format(time.RFC3339),
	})
	return ticket, nil
}

// Close marks the ticket bound to channelID closed, posts the closing
// notice and deletes the channel after the configured grace delay.
func (m *Manager) Close(ctx context.Context, guildID, channelID, closedBy, reason string) (storage.Ticket, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided"
	}
	now := m.clock.Now()
	ticket, err := m.store.CloseTicket(guildID, channelID, closedBy, reason, now)
	switch {
	case errors.Is(err, storage.ErrTicketNotFound):
		return storage.Ticket{}, ErrNotTicket
	case errors.Is(err, storage.ErrTicketClosed):
		return storage.Ticket{}, ErrAlreadyClosed
	case err != nil:
		return storage.Ticket{}, err
	}
	metrics.Tickets.WithLabelValues("closed").Inc()
	m.audit.Log(ctx, audit.LevelInfo, guildID, closedBy, "ticket_closed", fmt.Sprintf("%s #%04d: %s", ticket.Category, ticket.Number, reason))

	delay := time.Duration(m.cfg.CloseDelaySeconds) * time.Second
	open := now.Sub(ticket.CreatedAt)
	notice := &discordgo.MessageEmbed{
		Title:       "🔒 Ticket Closed",
		Description: fmt.Sprintf("This ticket has been closed by <@%s>.\n**Reason:** %s\n\nThis channel will be deleted in %s.", closedBy, reason, utils.FormatDuration(delay)),
		Color:       m.colors.Error,
	}
	if _, err := m.channels.SendMessage(ctx, channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{notice}}); err != nil {
		m.logger.Warn("ticket close notice failed", zap.String("channel_id", channelID), zap.Error(err))
	}

	cfg := m.store.GuildConfig(guildID)
	m.logTicket(ctx, cfg, &discordgo.MessageEmbed{
		Title: "🔒 Ticket Closed",
		Color: m.colors.Error,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ticket", Value: fmt.Sprintf("%s #%04d", ticket.Category, ticket.Number), Inline: true},
			{Name: "Opened By", Value: fmt.Sprintf("<@%s>", ticket.CreatorID), Inline: true},
			{Name: "Closed By", Value: fmt.Sprintf("<@%s>", closedBy), Inline: true},
			{Name: "Reason", Value: reason},
			{Name: "Duration", Value: utils.FormatDuration(open)},
		},
		Timestamp: now.Format(time.RFC3339),
	})

	m.clock.AfterFunc(delay, func() {
		if err := m.channels.DeleteChannel(context.Background(), channelID, "Ticket closed"); err != nil && !errors.Is(err, moderation.ErrNotFound) {
			m.logger.Warn("delete ticket channel failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
	return ticket, nil
}

func (m *Manager) logTicket(ctx context.Context, cfg storage.GuildConfig, embed *discordgo.MessageEmbed) {
	if cfg.TicketLogsChannelID == "" {
		return
	}
	if _, err := m.channels.SendMessage(ctx, cfg.TicketLogsChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}); err != nil {
		m.logger.Warn("ticket log failed", zap.String("channel_id", cfg.TicketLogsChannelID), zap.Error(err))
	}
}

// PublishPanel posts the guild's ticket panel into channelID and records it,
// replacing the previous panel of the guild.
func (m *Manager) PublishPanel(ctx context.Context, guildID, channelID, createdBy, title string) (storage.PanelMessage, error) {
	cfg := m.store.GuildConfig(guildID)
	messageID, err := m.channels.SendMessage(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{PanelEmbed(cfg, title, m.colors.Info)},
		Components: PanelComponents(cfg.TicketCategories, m.cfg.MaxPanelButtons),
	})
	if err != nil {
		return storage.PanelMessage{}, fmt.Errorf("send ticket panel: %w", err)
	}
	panel := storage.PanelMessage{
		ChannelID: channelID,
		MessageID: messageID,
		CreatedBy: createdBy,
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.SavePanel(guildID, panel); err != nil {
		return panel, err
	}
	m.audit.Log(ctx, audit.LevelInfo, guildID, createdBy, "ticket_panel", fmt.Sprintf("panel posted in %s", channelID))
	return panel, nil
}

// RestorePanels re-renders every recorded panel with the guild's current
// categories. Panels whose message no longer exists are forgotten.
func (m *Manager) RestorePanels(ctx context.Context) (refreshed, forgotten int) {
	for guildID, panel := range m.store.Panels() {
		cfg := m.store.GuildConfig(guildID)
		err := m.channels.EditMessage(ctx, panel.ChannelID, panel.MessageID,
			PanelEmbed(cfg, "", m.colors.Info), PanelComponents(cfg.TicketCategories, m.cfg.MaxPanelButtons))
		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, moderation.ErrNotFound):
			if derr := m.store.DeletePanel(guildID); derr != nil {
				m.logger.Warn("forget ticket panel failed", zap.String("guild_id", guildID), zap.Error(derr))
				continue
			}
			forgotten++
		default:
			m.logger.Warn("refresh ticket panel failed", zap.String("guild_id", guildID), zap.Error(err))
		}
	}
	return refreshed, forgotten
}

func (m *Manager) Ticket(guildID, channelID string) (storage.Ticket, bool) {
	return m.store.TicketByChannel(guildID, channelID)
}
