package bot

import (
	"errors"
	"strings"
	"time"

	"ssupport/internal/storage"
	"ssupport/internal/tickets"
	"ssupport/internal/utils"

	"github.com/bwmarrin/discordgo"
)

// Discord refuses to bulk delete messages older than two weeks.
const bulkDeleteMaxAge = 14 * 24 * time.Hour

// targetProblem returns the user-facing reason a moderation command may not
// act on target, or "" when it may.
func targetProblem(actorID, botID string, target *discordgo.User, verb string) string {
	switch {
	case target == nil:
		return "User not found."
	case target.ID == actorID:
		return "You cannot " + verb + " yourself."
	case target.ID == botID:
		return "You cannot " + verb + " me."
	case target.Bot:
		return "You cannot " + verb + " bots."
	default:
		return ""
	}
}

// parseToggle accepts on/off style switches.
func parseToggle(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "enable", "enabled", "true", "yes":
		return true, true
	case "off", "disable", "disabled", "false", "no":
		return false, true
	default:
		return false, false
	}
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// purgeable keeps the ids of messages young enough for bulk deletion.
func purgeable(messages []*discordgo.Message, now time.Time) []string {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || now.Sub(msg.Timestamp) >= bulkDeleteMaxAge {
			continue
		}
		ids = append(ids, msg.ID)
	}
	return ids
}

// topRolePosition is the highest role position member holds in guild.
func topRolePosition(guild *discordgo.Guild, member *discordgo.Member) int {
	if guild == nil || member == nil {
		return 0
	}
	held := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = true
	}
	top := 0
	for _, role := range guild.Roles {
		if held[role.ID] && role.Position > top {
			top = role.Position
		}
	}
	return top
}

// outranks reports whether actor may moderate target by role hierarchy.
// The guild owner outranks everyone.
func outranks(guild *discordgo.Guild, actor, target *discordgo.Member) bool {
	if guild == nil || actor == nil || actor.User == nil {
		return false
	}
	if actor.User.ID == guild.OwnerID {
		return true
	}
	if target != nil && target.User != nil && target.User.ID == guild.OwnerID {
		return false
	}
	return topRolePosition(guild, actor) > topRolePosition(guild, target)
}

// canCloseTicket allows the creator, the support role and members able to
// manage channels.
func canCloseTicket(member *discordgo.Member, ticket storage.Ticket, supportRoleID string) bool {
	if member == nil || member.User == nil {
		return false
	}
	if member.User.ID == ticket.CreatorID {
		return true
	}
	if member.Permissions&(discordgo.PermissionManageChannels|discordgo.PermissionAdministrator) != 0 {
		return true
	}
	if supportRoleID == "" {
		return false
	}
	for _, role := range member.Roles {
		if role == supportRoleID {
			return true
		}
	}
	return false
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, tickets.ErrTooManyOpen):
		return "You already have the maximum number of open tickets. Please close one before opening another."
	case errors.Is(err, tickets.ErrUnknownCategory):
		return "That ticket category no longer exists."
	case errors.Is(err, tickets.ErrNotTicket):
		return "This command can only be used in a ticket channel."
	case errors.Is(err, tickets.ErrAlreadyClosed):
		return "This ticket is already closed."
	case errors.Is(err, utils.ErrDurationTooLong):
		return "That duration is too long."
	case errors.Is(err, utils.ErrInvalidDuration):
		return "Invalid duration format. Use a format like 10m, 1h or 2d."
	default:
		return "Something went wrong. Please try again later."
	}
}

// durationMessage is userMessage for duration input checked against max.
func durationMessage(err error, max time.Duration) string {
	if errors.Is(err, utils.ErrDurationTooLong) {
		return "Timeout duration cannot exceed " + utils.FormatDuration(max) + "."
	}
	return userMessage(err)
}

// maxTimeout is the configured timeout ceiling, never above what Discord
// accepts.
func maxTimeout(days int) time.Duration {
	limit := time.Duration(days) * 24 * time.Hour
	if limit <= 0 || limit > utils.MaxTimeoutDuration {
		return utils.MaxTimeoutDuration
	}
	return limit
}
