package bot

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"ssupport/internal/dashboard"
	"ssupport/internal/moderation"
	"ssupport/internal/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const version = "1.0.0"

// Platform adapts a discordgo session to the moderation, ticket, welcome
// and dashboard ports. REST 404s surface as moderation.ErrNotFound.
type Platform struct {
	session *discordgo.Session
	logger  *zap.Logger
	started time.Time

	parentMu sync.Mutex
}

func NewPlatform(session *discordgo.Session, logger *zap.Logger) *Platform {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Platform{session: session, logger: logger, started: time.Now()}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return moderation.ErrNotFound
	}
	return err
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return mapError(p.session.ChannelMessageDelete(channelID, messageID))
}

func (p *Platform) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := p.session.ChannelMessageSendEmbed(channelID, embed)
	return mapError(err)
}

func (p *Platform) SendTransient(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, ttl time.Duration) error {
	msg, err := p.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return mapError(err)
	}
	time.AfterFunc(ttl, func() {
		if err := p.session.ChannelMessageDelete(channelID, msg.ID); err != nil && mapError(err) != moderation.ErrNotFound {
			p.logger.Debug("transient message cleanup failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})
	return nil
}

func (p *Platform) DirectMessage(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error {
	channel, err := p.session.UserChannelCreate(userID)
	if err != nil {
		return mapError(err)
	}
	_, err = p.session.ChannelMessageSendEmbed(channel.ID, embed)
	return mapError(err)
}

func (p *Platform) Ban(ctx context.Context, guildID, userID, reason string) error {
	return mapError(p.session.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

func (p *Platform) Unban(ctx context.Context, guildID, userID, reason string) error {
	p.logger.Debug("unban", zap.String("guild_id", guildID), zap.String("user_id", userID), zap.String("reason", reason))
	return mapError(p.session.GuildBanDelete(guildID, userID))
}

func (p *Platform) GuildName(ctx context.Context, guildID string) string {
	if guild := p.guild(guildID); guild != nil && guild.Name != "" {
		return guild.Name
	}
	return "the server"
}

func (p *Platform) guild(guildID string) *discordgo.Guild {
	if p.session.State != nil {
		if guild, err := p.session.State.Guild(guildID); err == nil {
			return guild
		}
	}
	guild, err := p.session.Guild(guildID)
	if err != nil {
		return nil
	}
	return guild
}

func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return mapError(p.session.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (p *Platform) SendText(ctx context.Context, channelID, content string) error {
	_, err := p.session.ChannelMessageSend(channelID, content)
	return mapError(err)
}

// ticketParent finds the category channel named name, creating it when the
// guild has none.
func (p *Platform) ticketParent(guildID, name string) (string, error) {
	p.parentMu.Lock()
	defer p.parentMu.Unlock()

	channels, err := p.session.GuildChannels(guildID)
	if err != nil {
		return "", mapError(err)
	}
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(channel.Name, name) {
			return channel.ID, nil
		}
	}
	parent, err := p.session.GuildChannelCreate(guildID, name, discordgo.ChannelTypeGuildCategory)
	if err != nil {
		return "", mapError(err)
	}
	return parent.ID, nil
}

func (p *Platform) CreateTicketChannel(ctx context.Context, req tickets.ChannelRequest) (string, error) {
	parentID := ""
	if req.ParentName != "" {
		id, err := p.ticketParent(req.GuildID, req.ParentName)
		if err != nil {
			p.logger.Warn("ticket category unavailable", zap.String("guild_id", req.GuildID), zap.Error(err))
		} else {
			parentID = id
		}
	}

	const memberAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: req.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: req.CreatorID, Type: discordgo.PermissionOverwriteTypeMember, Allow: memberAllow},
	}
	if p.session.State != nil && p.session.State.User != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    p.session.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberAllow | discordgo.PermissionManageChannels | discordgo.PermissionManageMessages,
		})
	}
	if req.SupportRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    req.SupportRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberAllow | discordgo.PermissionManageMessages,
		})
	}

	channel, err := p.session.GuildChannelCreateComplex(req.GuildID, discordgo.GuildChannelCreateData{
		Name:                 req.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                req.Topic,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", mapError(err)
	}
	return channel.ID, nil
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID, reason string) error {
	p.logger.Debug("delete channel", zap.String("channel_id", channelID), zap.String("reason", reason))
	_, err := p.session.ChannelDelete(channelID)
	return mapError(err)
}

func (p *Platform) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error) {
	sent, err := p.session.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return "", mapError(err)
	}
	return sent.ID, nil
}

func (p *Platform) EditMessage(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := p.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	})
	return mapError(err)
}

// Guild reports a guild from the gateway state. Only guilds the bot is in
// are present there.
func (p *Platform) Guild(guildID string) (dashboard.GuildInfo, bool) {
	if p.session.State == nil {
		return dashboard.GuildInfo{}, false
	}
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return dashboard.GuildInfo{}, false
	}

	info := dashboard.GuildInfo{
		ID:          guild.ID,
		Name:        guild.Name,
		MemberCount: guild.MemberCount,
		Roles:       make([]dashboard.Option, 0, len(guild.Roles)),
		Channels:    make([]dashboard.Option, 0, len(guild.Channels)),
	}
	roles := append([]*discordgo.Role(nil), guild.Roles...)
	sort.Slice(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
	for _, role := range roles {
		if role.ID == guild.ID || role.Managed {
			continue
		}
		info.Roles = append(info.Roles, dashboard.Option{ID: role.ID, Name: role.Name})
	}
	channels := append([]*discordgo.Channel(nil), guild.Channels...)
	sort.Slice(channels, func(i, j int) bool { return channels[i].Position < channels[j].Position })
	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		info.Channels = append(info.Channels, dashboard.Option{ID: channel.ID, Name: "#" + channel.Name})
	}
	return info, true
}

func (p *Platform) Status() dashboard.BotStatus {
	status := dashboard.BotStatus{
		Status:  "online",
		Uptime:  strings.TrimSpace(humanize.RelTime(p.started, time.Now(), "", "")),
		Version: version,
	}
	if p.session.State == nil {
		status.Status = "starting"
		return status
	}
	p.session.State.RLock()
	defer p.session.State.RUnlock()
	status.GuildCount = len(p.session.State.Guilds)
	for _, guild := range p.session.State.Guilds {
		status.UserCount += guild.MemberCount
	}
	return status
}
