package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"
	"ssupport/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type commandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(options []*discordgo.ApplicationCommandInteractionDataOption) commandOptions {
	out := make(commandOptions, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

func (o commandOptions) str(name, fallback string) string {
	if opt, ok := o[name]; ok {
		if value := strings.TrimSpace(opt.StringValue()); value != "" {
			return value
		}
	}
	return fallback
}

func (o commandOptions) id(name string) string {
	if opt, ok := o[name]; ok {
		if value, ok := opt.Value.(string); ok {
			return value
		}
	}
	return ""
}

func actorOf(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

// resolvedTarget returns the user and, when still in the guild, the member
// behind a user option.
func resolvedTarget(data discordgo.ApplicationCommandInteractionData, userID string) (*discordgo.User, *discordgo.Member) {
	if data.Resolved == nil || userID == "" {
		return nil, nil
	}
	user := data.Resolved.Users[userID]
	member := data.Resolved.Members[userID]
	if member != nil && member.User == nil {
		member.User = user
	}
	return user, member
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("interaction handler panic", zap.Any("panic", r))
		}
	}()
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(context.Background(), session, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(context.Background(), session, interaction)
	}
}

func (b *Bot) handleCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()
	if data.Name == "dashboard" {
		b.handleDashboardCommand(session, interaction)
		return
	}
	if interaction.GuildID == "" || actorOf(interaction) == nil {
		b.respondError(session, interaction, "This command can only be used in a server.")
		return
	}
	options := optionsOf(data.Options)

	switch data.Name {
	case "warn":
		b.handleWarn(ctx, session, interaction, data, options)
	case "warnings":
		b.handleWarnings(session, interaction, data, options)
	case "clearwarns":
		b.handleClearWarns(ctx, session, interaction, data, options)
	case "kick", "ban":
		b.handleRemoval(ctx, session, interaction, data, options)
	case "unban":
		b.handleUnban(ctx, session, interaction, options)
	case "timeout":
		b.handleTimeout(ctx, session, interaction, data, options)
	case "untimeout":
		b.handleUntimeout(ctx, session, interaction, data, options)
	case "purge":
		b.handlePurge(ctx, session, interaction, options)
	case "config":
		b.handleConfig(ctx, session, interaction, options)
	case "warningsystem", "spamprotection", "automod":
		b.handleToggle(ctx, session, interaction, data.Name, options)
	case "blacklist":
		b.handleBlacklist(ctx, session, interaction, data.Options)
	case "ticketpanel":
		b.handleTicketPanel(ctx, session, interaction, options)
	case "ticket":
		b.handleTicketCommand(ctx, session, interaction, data.Options)
	case "summary":
		b.handleSummary(session, interaction, options)
	default:
		b.respondError(session, interaction, "Unknown command.")
	}
}

func (b *Bot) botID() string {
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

func (b *Bot) handleWarn(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	actor := actorOf(interaction)
	target, _ := resolvedTarget(data, options.id("user"))
	if problem := targetProblem(actor.ID, b.botID(), target, "warn"); problem != "" {
		b.respondError(session, interaction, problem)
		return
	}
	cfg := b.store.GuildConfig(interaction.GuildID)
	if !cfg.WarningSystemEnabled {
		b.respondError(session, interaction, "Warning system is disabled in this server.")
		return
	}
	reason := options.str("reason", "No reason provided")

	count, err := b.pipeline.IssueWarning(ctx, interaction.GuildID, target.ID, reason, actor.Username, moderation.SourceManual)
	if err != nil {
		b.logger.Error("manual warning failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondError(session, interaction, "Failed to record the warning.")
		return
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s>", target.ID), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
		{Name: "Total Warnings", Value: fmt.Sprintf("%d/%d", count, cfg.AutoBanThreshold), Inline: true},
		{Name: "Reason", Value: reason},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("⚠️ Warning Issued", "", b.cfg.EmbedColors.Warning, fields), false)
	b.pipeline.CheckAutoBan(ctx, interaction.GuildID, target.ID, interaction.ChannelID, count, cfg)
}

func (b *Bot) handleWarnings(session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	target, _ := resolvedTarget(data, options.id("user"))
	if target == nil {
		b.respondError(session, interaction, "User not found.")
		return
	}
	state := b.store.WarningState(interaction.GuildID, target.ID)
	if len(state.Warns) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("Warnings", fmt.Sprintf("<@%s> has no warnings.", target.ID), b.cfg.EmbedColors.Success, nil), true)
		return
	}

	now := time.Now()
	fields := make([]*discordgo.MessageEmbedField, 0, len(state.Warns)+1)
	for i, warn := range state.Warns {
		// Embeds are capped at 25 fields.
		if i == 24 {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "…", Value: fmt.Sprintf("%d more", len(state.Warns)-i)})
			break
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Warning #%d (%s)", i+1, utils.Since(warn.Time(), now)),
			Value: fmt.Sprintf("**Reason:** %s\n**Moderator:** %s", warn.Reason, warn.Moderator),
		})
	}
	embed := b.commandEmbed(fmt.Sprintf("Warnings for %s", target.Username), "", b.cfg.EmbedColors.Warning, fields)
	footer := fmt.Sprintf("Total warnings: %d", len(state.Warns))
	if len(state.TempBans) > 0 {
		footer += fmt.Sprintf(" | Pending unbans: %d", len(state.TempBans))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) handleClearWarns(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	target, _ := resolvedTarget(data, options.id("user"))
	if target == nil {
		b.respondError(session, interaction, "User not found.")
		return
	}
	cleared, err := b.store.ClearWarnings(interaction.GuildID, target.ID)
	if err != nil {
		b.logger.Error("clear warnings failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondError(session, interaction, "Failed to clear warnings.")
		return
	}
	if cleared == 0 {
		b.respondError(session, interaction, fmt.Sprintf("<@%s> has no warnings to clear.", target.ID))
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, target.ID, "warnings_cleared", fmt.Sprintf("%d cleared by %s", cleared, actorOf(interaction).Username))
	b.respondEmbed(session, interaction, b.commandEmbed("Warnings Cleared", fmt.Sprintf("Cleared %d warning(s) for <@%s>", cleared, target.ID), b.cfg.EmbedColors.Success, nil), false)
}

// checkHierarchy rejects actions on members ranked at or above the actor.
func (b *Bot) checkHierarchy(session *discordgo.Session, interaction *discordgo.InteractionCreate, target *discordgo.Member, verb string) bool {
	if target == nil {
		return true
	}
	if !outranks(b.platform.guild(interaction.GuildID), interaction.Member, target) {
		b.respondError(session, interaction, fmt.Sprintf("You cannot %s someone with a higher or equal role.", verb))
		return false
	}
	return true
}

func (b *Bot) handleRemoval(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	verb := data.Name
	actor := actorOf(interaction)
	target, member := resolvedTarget(data, options.id("user"))
	if problem := targetProblem(actor.ID, b.botID(), target, verb); problem != "" {
		b.respondError(session, interaction, problem)
		return
	}
	if verb == "kick" && member == nil {
		b.respondError(session, interaction, "That user is not a member of this server.")
		return
	}
	if !b.checkHierarchy(session, interaction, member, verb) {
		return
	}
	reason := options.str("reason", "No reason provided")
	past, title := "Kicked", "Member Kicked"
	if verb == "ban" {
		past, title = "Banned", "Member Banned"
	}
	auditReason := fmt.Sprintf("%s by %s: %s", past, actor.Username, reason)

	var err error
	if verb == "ban" {
		err = session.GuildBanCreateWithReason(interaction.GuildID, target.ID, auditReason, 0)
	} else {
		err = session.GuildMemberDeleteWithReason(interaction.GuildID, target.ID, auditReason)
	}
	if err != nil {
		b.logger.Warn(verb+" failed", zap.String("guild_id", interaction.GuildID), zap.String("user_id", target.ID), zap.Error(err))
		b.respondError(session, interaction, fmt.Sprintf("Failed to %s %s.", verb, target.Username))
		return
	}
	b.audit.Log(ctx, audit.LevelWarn, interaction.GuildID, target.ID, verb, auditReason)
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: target.Username, Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
		{Name: "Reason", Value: reason},
	}
	b.respondEmbed(session, interaction, b.commandEmbed(title, "", b.cfg.EmbedColors.Error, fields), false)
}

func (b *Bot) handleUnban(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	actor := actorOf(interaction)
	userID := options.str("user_id", "")
	if !storage.ValidID(userID) {
		b.respondError(session, interaction, "Please provide a valid user id.")
		return
	}
	reason := options.str("reason", "No reason provided")
	err := b.platform.Unban(ctx, interaction.GuildID, userID, reason)
	if errors.Is(err, moderation.ErrNotFound) {
		b.respondError(session, interaction, "User not found or not banned.")
		return
	}
	if err != nil {
		b.logger.Warn("unban failed", zap.String("guild_id", interaction.GuildID), zap.String("user_id", userID), zap.Error(err))
		b.respondError(session, interaction, "Failed to unban user.")
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, userID, "unban", fmt.Sprintf("Unbanned by %s: %s", actor.Username, reason))
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s>", userID), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
		{Name: "Reason", Value: reason},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("User Unbanned", "", b.cfg.EmbedColors.Success, fields), false)
}

func (b *Bot) handleTimeout(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	actor := actorOf(interaction)
	target, member := resolvedTarget(data, options.id("user"))
	if problem := targetProblem(actor.ID, b.botID(), target, "timeout"); problem != "" {
		b.respondError(session, interaction, problem)
		return
	}
	if member == nil {
		b.respondError(session, interaction, "That user is not a member of this server.")
		return
	}
	if !b.checkHierarchy(session, interaction, member, "timeout") {
		return
	}
	limit := maxTimeout(b.cfg.Moderation.MaxTimeoutDays)
	duration, err := utils.ParseDuration(options.str("duration", ""), limit)
	if err != nil {
		b.respondError(session, interaction, durationMessage(err, limit))
		return
	}
	reason := options.str("reason", "No reason provided")

	until := time.Now().Add(duration)
	if err := session.GuildMemberTimeout(interaction.GuildID, target.ID, &until); err != nil {
		b.logger.Warn("timeout failed", zap.String("guild_id", interaction.GuildID), zap.String("user_id", target.ID), zap.Error(err))
		b.respondError(session, interaction, fmt.Sprintf("Failed to timeout %s.", target.Username))
		return
	}
	b.audit.Log(ctx, audit.LevelWarn, interaction.GuildID, target.ID, "timeout", fmt.Sprintf("%s by %s: %s", utils.FormatDuration(duration), actor.Username, reason))
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s>", target.ID), Inline: true},
		{Name: "Duration", Value: utils.FormatDuration(duration), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
		{Name: "Reason", Value: reason},
		{Name: "Until", Value: fmt.Sprintf("<t:%d:F>", until.Unix())},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Member Timed Out", "", b.cfg.EmbedColors.Warning, fields), false)
}

func (b *Bot) handleUntimeout(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options commandOptions) {
	actor := actorOf(interaction)
	target, member := resolvedTarget(data, options.id("user"))
	if target == nil || member == nil {
		b.respondError(session, interaction, "That user is not a member of this server.")
		return
	}
	reason := options.str("reason", "No reason provided")
	if err := session.GuildMemberTimeout(interaction.GuildID, target.ID, nil); err != nil {
		b.logger.Warn("untimeout failed", zap.String("guild_id", interaction.GuildID), zap.String("user_id", target.ID), zap.Error(err))
		b.respondError(session, interaction, fmt.Sprintf("Failed to remove timeout from %s.", target.Username))
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, target.ID, "untimeout", fmt.Sprintf("by %s: %s", actor.Username, reason))
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s>", target.ID), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("<@%s>", actor.ID), Inline: true},
		{Name: "Reason", Value: reason},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Timeout Removed", "", b.cfg.EmbedColors.Success, fields), false)
}

func (b *Bot) handlePurge(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	opt, ok := options["amount"]
	amount := 0
	if ok {
		amount = int(opt.IntValue())
	}
	if amount < 1 || amount > b.cfg.Moderation.MaxPurgeMessages {
		b.respondError(session, interaction, fmt.Sprintf("Amount must be between 1 and %d.", b.cfg.Moderation.MaxPurgeMessages))
		return
	}

	messages, err := session.ChannelMessages(interaction.ChannelID, amount, "", "", "")
	if err != nil {
		b.logger.Warn("purge fetch failed", zap.String("channel_id", interaction.ChannelID), zap.Error(err))
		b.respondError(session, interaction, "Failed to purge messages.")
		return
	}
	ids := purgeable(messages, time.Now())
	switch len(ids) {
	case 0:
	case 1:
		err = session.ChannelMessageDelete(interaction.ChannelID, ids[0])
	default:
		err = session.ChannelMessagesBulkDelete(interaction.ChannelID, ids)
	}
	if err != nil {
		b.logger.Warn("purge failed", zap.String("channel_id", interaction.ChannelID), zap.Error(err))
		b.respondError(session, interaction, "Failed to purge messages.")
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, actorOf(interaction).ID, "purge", fmt.Sprintf("%d messages in <#%s>", len(ids), interaction.ChannelID))
	description := fmt.Sprintf("Deleted %d messages", len(ids))
	if skipped := len(messages) - len(ids); skipped > 0 {
		description += fmt.Sprintf(" (%d older than 14 days skipped)", skipped)
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Messages Purged", description, b.cfg.EmbedColors.Info, nil), true)
}

func (b *Bot) handleConfig(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	cfg := b.store.GuildConfig(interaction.GuildID)
	if len(options) > 0 {
		if opt, ok := options["auto_ban_threshold"]; ok && opt.IntValue() < 1 {
			b.respondError(session, interaction, "The auto-ban threshold must be at least 1.")
			return
		}
		if opt, ok := options["temp_ban_days"]; ok && opt.IntValue() < 1 {
			b.respondError(session, interaction, "Temp-bans must last at least 1 day.")
			return
		}
		updated, err := b.store.UpdateGuildConfig(interaction.GuildID, func(cfg *storage.GuildConfig) error {
			applyConfigOptions(cfg, options)
			return nil
		})
		if err != nil {
			b.logger.Error("config update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondError(session, interaction, "Failed to save settings.")
			return
		}
		cfg = updated
		b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, actorOf(interaction).ID, "config_updated", fmt.Sprintf("%d settings", len(options)))
	}
	b.respondEmbed(session, interaction, b.configEmbed(cfg), true)
}

func applyConfigOptions(cfg *storage.GuildConfig, options commandOptions) {
	if opt, ok := options["auto_ban_threshold"]; ok {
		cfg.AutoBanThreshold = int(opt.IntValue())
	}
	if opt, ok := options["temp_ban_days"]; ok {
		cfg.TempBanDurationDays = int(opt.IntValue())
	}
	if id := options.id("mod_log"); id != "" {
		cfg.ModLogChannelID = id
	}
	if id := options.id("ticket_logs"); id != "" {
		cfg.TicketLogsChannelID = id
	}
	if id := options.id("welcome_channel"); id != "" {
		cfg.WelcomeChannelID = id
	}
	if id := options.id("join_role"); id != "" {
		cfg.JoinRoleID = id
	}
	if id := options.id("support_role"); id != "" {
		cfg.SupportRoleID = id
	}
	if message := options.str("welcome_message", ""); message != "" {
		cfg.WelcomeMessage = message
	}
}

func mention(prefix, id string) string {
	if id == "" {
		return "Not set"
	}
	return prefix + id + ">"
}

func (b *Bot) configEmbed(cfg storage.GuildConfig) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Warning System", Value: toggleLabel(cfg.WarningSystemEnabled), Inline: true},
		{Name: "Spam Protection", Value: toggleLabel(cfg.SpamProtectionEnabled), Inline: true},
		{Name: "Auto Mod", Value: toggleLabel(cfg.AutoModEnabled), Inline: true},
		{Name: "Auto-Ban Threshold", Value: fmt.Sprintf("%d warnings", cfg.AutoBanThreshold), Inline: true},
		{Name: "Temp-Ban Duration", Value: utils.FormatDuration(time.Duration(cfg.TempBanDurationDays) * 24 * time.Hour), Inline: true},
		{Name: "Blacklisted Words", Value: fmt.Sprintf("%d", len(cfg.BlacklistedWords)), Inline: true},
		{Name: "Mod Log", Value: mention("<#", cfg.ModLogChannelID), Inline: true},
		{Name: "Ticket Logs", Value: mention("<#", cfg.TicketLogsChannelID), Inline: true},
		{Name: "Welcome Channel", Value: mention("<#", cfg.WelcomeChannelID), Inline: true},
		{Name: "Join Role", Value: mention("<@&", cfg.JoinRoleID), Inline: true},
		{Name: "Support Role", Value: mention("<@&", cfg.SupportRoleID), Inline: true},
		{Name: "Ticket Categories", Value: strings.Join(cfg.TicketCategories, ", ")},
	}
	return b.commandEmbed("⚙️ Server Configuration", "", b.cfg.EmbedColors.Info, fields)
}

func (b *Bot) handleToggle(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, name string, options commandOptions) {
	enabled, ok := parseToggle(options.str("state", ""))
	if !ok {
		b.respondError(session, interaction, "Use `on` or `off`.")
		return
	}
	labels := map[string]string{
		"warningsystem":  "Warning system",
		"spamprotection": "Spam protection",
		"automod":        "Auto moderation",
	}
	_, err := b.store.UpdateGuildConfig(interaction.GuildID, func(cfg *storage.GuildConfig) error {
		switch name {
		case "warningsystem":
			cfg.WarningSystemEnabled = enabled
		case "spamprotection":
			cfg.SpamProtectionEnabled = enabled
		case "automod":
			cfg.AutoModEnabled = enabled
		}
		return nil
	})
	if err != nil {
		b.logger.Error("toggle update failed", zap.String("guild_id", interaction.GuildID), zap.String("setting", name), zap.Error(err))
		b.respondError(session, interaction, "Failed to save settings.")
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, actorOf(interaction).ID, name, toggleLabel(enabled))
	color := b.cfg.EmbedColors.Success
	if !enabled {
		color = b.cfg.EmbedColors.Error
	}
	b.respondEmbed(session, interaction, b.commandEmbed(labels[name], fmt.Sprintf("%s has been **%s**.", labels[name], toggleLabel(enabled)), color, nil), false)
}

func (b *Bot) handleBlacklist(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respondError(session, interaction, "Choose add, remove or list.")
		return
	}
	sub := options[0]
	word := strings.ToLower(optionsOf(sub.Options).str("word", ""))

	switch sub.Name {
	case "list":
		cfg := b.store.GuildConfig(interaction.GuildID)
		description := "No words are blacklisted."
		if len(cfg.BlacklistedWords) > 0 {
			description = "||" + strings.Join(cfg.BlacklistedWords, ", ") + "||"
		}
		b.respondEmbed(session, interaction, b.commandEmbed("Blacklisted Words", description, b.cfg.EmbedColors.Info, nil), true)
		return
	case "add", "remove":
	default:
		b.respondError(session, interaction, "Choose add, remove or list.")
		return
	}
	if word == "" {
		b.respondError(session, interaction, "Please provide a word.")
		return
	}

	changed := false
	_, err := b.store.UpdateGuildConfig(interaction.GuildID, func(cfg *storage.GuildConfig) error {
		if sub.Name == "add" {
			changed = cfg.AddBlacklistedWord(word)
		} else {
			changed = cfg.RemoveBlacklistedWord(word)
		}
		return nil
	})
	if err != nil {
		b.logger.Error("blacklist update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondError(session, interaction, "Failed to save the blacklist.")
		return
	}
	if !changed {
		if sub.Name == "add" {
			b.respondError(session, interaction, "That word is already blacklisted.")
		} else {
			b.respondError(session, interaction, "That word is not blacklisted.")
		}
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, actorOf(interaction).ID, "blacklist_"+sub.Name, word)
	description := fmt.Sprintf("`%s` was added.", word)
	if sub.Name == "remove" {
		description = fmt.Sprintf("`%s` was removed.", word)
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Blacklist Updated", description, b.cfg.EmbedColors.Success, nil), true)
}

func (b *Bot) handleDashboardCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	url := b.cfg.Dashboard.PublicURL
	if !b.cfg.Dashboard.Enabled || url == "" {
		b.respondError(session, interaction, "The web dashboard is not available.")
		return
	}
	embed := b.commandEmbed("🌐 Web Dashboard", fmt.Sprintf("Manage your server settings at %s/login", strings.TrimRight(url, "/")), b.cfg.EmbedColors.Info, nil)
	embed.URL = strings.TrimRight(url, "/") + "/login"
	b.respondEmbed(session, interaction, embed, true)
}
