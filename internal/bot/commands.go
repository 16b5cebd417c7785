package bot

import "github.com/bwmarrin/discordgo"

func permission(p int64) *int64 {
	return &p
}

var (
	manageMessages  = permission(discordgo.PermissionManageMessages)
	manageGuild     = permission(discordgo.PermissionManageServer)
	kickMembers     = permission(discordgo.PermissionKickMembers)
	banMembers      = permission(discordgo.PermissionBanMembers)
	moderateMembers = permission(discordgo.PermissionModerateMembers)
	noDMs           = false
)

func userOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    required,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason for the action",
		Required:    false,
		MaxLength:   512,
	}
}

func toggleOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "state",
		Description: "on or off",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "on", Value: "on"},
			{Name: "off", Value: "off"},
		},
	}
}

func applicationCommands(maxPurge int) []*discordgo.ApplicationCommand {
	minPurge, minDays := 1.0, 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "warn",
			Description:              "Warn a member",
			DefaultMemberPermissions: manageMessages,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to warn", true), reasonOption()},
		},
		{
			Name:                     "warnings",
			Description:              "List a member's warnings",
			DefaultMemberPermissions: manageMessages,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to inspect", true)},
		},
		{
			Name:                     "clearwarns",
			Description:              "Clear all warnings of a member",
			DefaultMemberPermissions: manageMessages,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to clear", true)},
		},
		{
			Name:                     "kick",
			Description:              "Kick a member",
			DefaultMemberPermissions: kickMembers,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to kick", true), reasonOption()},
		},
		{
			Name:                     "ban",
			Description:              "Ban a member",
			DefaultMemberPermissions: banMembers,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to ban", true), reasonOption()},
		},
		{
			Name:                     "unban",
			Description:              "Unban a user by id",
			DefaultMemberPermissions: banMembers,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user_id",
					Description: "Id of the banned user",
					Required:    true,
				},
				reasonOption(),
			},
		},
		{
			Name:                     "timeout",
			Description:              "Time out a member (10m, 1h, 2d)",
			DefaultMemberPermissions: moderateMembers,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to time out", true),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Duration such as 10m, 1h or 2d; a bare number means minutes",
					Required:    true,
				},
				reasonOption(),
			},
		},
		{
			Name:                     "untimeout",
			Description:              "Remove a member's timeout",
			DefaultMemberPermissions: moderateMembers,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{userOption("Member to release", true), reasonOption()},
		},
		{
			Name:                     "purge",
			Description:              "Delete recent messages in this channel",
			DefaultMemberPermissions: manageMessages,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Number of messages",
					Required:    true,
					MinValue:    &minPurge,
					MaxValue:    float64(maxPurge),
				},
			},
		},
		{
			Name:                     "config",
			Description:              "Show or change server settings",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "auto_ban_threshold", Description: "Warnings before an automatic temp-ban"},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "temp_ban_days", Description: "Length of automatic temp-bans in days"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "mod_log", Description: "Channel for moderation logs"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "ticket_logs", Description: "Channel for ticket logs"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "welcome_channel", Description: "Channel for welcome messages"},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "join_role", Description: "Role given to new members"},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "support_role", Description: "Role that can see tickets"},
				{Type: discordgo.ApplicationCommandOptionString, Name: "welcome_message", Description: "Template with {ping} {user} {server} {members}"},
			},
		},
		{
			Name:                     "warningsystem",
			Description:              "Turn the warning system on or off",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{toggleOption()},
		},
		{
			Name:                     "spamprotection",
			Description:              "Turn spam protection on or off",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{toggleOption()},
		},
		{
			Name:                     "automod",
			Description:              "Turn blacklist filtering on or off",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options:                  []*discordgo.ApplicationCommandOption{toggleOption()},
		},
		{
			Name:                     "blacklist",
			Description:              "Manage blacklisted words",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a word",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "Word to block", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a word",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "Word to allow again", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List blacklisted words",
				},
			},
		},
		{
			Name:                     "ticketpanel",
			Description:              "Post the ticket panel in this channel",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "Panel title"},
			},
		},
		{
			Name:         "ticket",
			Description:  "Ticket actions",
			DMPermission: &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "close",
					Description: "Close this ticket",
					Options:     []*discordgo.ApplicationCommandOption{reasonOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show this ticket's details",
				},
			},
		},
		{
			Name:                     "summary",
			Description:              "Moderation and ticket summary for this server",
			DefaultMemberPermissions: manageGuild,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Count warnings from the last N days (default 7)",
					MinValue:    &minDays,
					MaxValue:    maxSummaryDays,
				},
			},
		},
		{
			Name:        "dashboard",
			Description: "Get the web dashboard link",
		},
	}
}

func (b *Bot) registerCommands() error {
	commands := applicationCommands(b.cfg.Moderation.MaxPurgeMessages)

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
