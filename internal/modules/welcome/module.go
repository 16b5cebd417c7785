package welcome

import (
	"context"
	"fmt"
	"strings"

	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"go.uber.org/zap"
)

// Member is the joining member as the welcome module needs it.
type Member struct {
	GuildID   string
	UserID    string
	Username  string
	Bot       bool
	GuildName string
	Members   int
}

type Platform interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	SendText(ctx context.Context, channelID, content string) error
}

type Module struct {
	store    *storage.Store
	platform Platform
	audit    *audit.Logger
	logger   *zap.Logger
}

func New(store *storage.Store, platform Platform, auditLogger *audit.Logger, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Module{store: store, platform: platform, audit: auditLogger, logger: logger}
}

// Format expands the {ping}, {user}, {server}, {server_name} and {members}
// placeholders of a welcome template.
func Format(template string, member Member) string {
	replacer := strings.NewReplacer(
		"{ping}", fmt.Sprintf("<@%s>", member.UserID),
		"{user}", member.Username,
		"{server}", member.GuildName,
		"{server_name}", member.GuildName,
		"{members}", fmt.Sprintf("%d", member.Members),
	)
	return replacer.Replace(template)
}

// HandleJoin gives the join role and posts the welcome message. Both steps
// are skipped when unconfigured and their failures are only logged.
func (m *Module) HandleJoin(ctx context.Context, member Member) {
	if member.Bot || member.GuildID == "" {
		return
	}
	cfg := m.store.GuildConfig(member.GuildID)

	if cfg.JoinRoleID != "" {
		if err := m.platform.AddRole(ctx, member.GuildID, member.UserID, cfg.JoinRoleID); err != nil {
			m.logger.Warn("join role failed", zap.String("guild_id", member.GuildID), zap.String("user_id", member.UserID), zap.Error(err))
		} else {
			m.audit.Log(ctx, audit.LevelInfo, member.GuildID, member.UserID, "join_role", cfg.JoinRoleID)
		}
	}

	if cfg.WelcomeChannelID == "" {
		return
	}
	if err := m.platform.SendText(ctx, cfg.WelcomeChannelID, Format(cfg.WelcomeMessage, member)); err != nil {
		m.logger.Warn("welcome message failed", zap.String("guild_id", member.GuildID), zap.String("channel_id", cfg.WelcomeChannelID), zap.Error(err))
	}
}
