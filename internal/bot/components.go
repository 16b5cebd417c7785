package bot

import (
	"context"
	"fmt"

	"ssupport/internal/tickets"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" || actorOf(interaction) == nil {
		return
	}
	data := interaction.MessageComponentData()
	action, ok := tickets.ParseCustomID(data.CustomID)
	if !ok {
		return
	}

	switch action.Kind {
	case tickets.ActionCreate:
		b.openTicket(ctx, session, interaction, action.Category)
	case tickets.ActionSelect:
		if len(data.Values) == 0 {
			b.respondError(session, interaction, "Please pick a category.")
			return
		}
		b.openTicket(ctx, session, interaction, data.Values[0])
	case tickets.ActionClose:
		b.closeTicket(ctx, session, interaction, "")
	}
}

func (b *Bot) openTicket(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, category string) {
	creator := actorOf(interaction)
	ticket, err := b.tickets.Create(ctx, interaction.GuildID, creator.ID, category)
	if err != nil {
		b.logger.Info("ticket create rejected", zap.String("guild_id", interaction.GuildID), zap.String("user_id", creator.ID), zap.Error(err))
		b.respondError(session, interaction, userMessage(err))
		return
	}
	b.respond(session, interaction, fmt.Sprintf("Ticket created: <#%s>", ticket.ChannelID), true)
}

func (b *Bot) closeTicket(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, reason string) {
	ticket, ok := b.tickets.Ticket(interaction.GuildID, interaction.ChannelID)
	if !ok {
		b.respondError(session, interaction, userMessage(tickets.ErrNotTicket))
		return
	}
	if !ticket.IsOpen() {
		b.respondError(session, interaction, userMessage(tickets.ErrAlreadyClosed))
		return
	}
	cfg := b.store.GuildConfig(interaction.GuildID)
	if !canCloseTicket(interaction.Member, ticket, cfg.SupportRoleID) {
		b.respondError(session, interaction, "Only the ticket creator or staff can close this ticket.")
		return
	}

	closer := actorOf(interaction)
	if _, err := b.tickets.Close(ctx, interaction.GuildID, interaction.ChannelID, closer.ID, reason); err != nil {
		b.logger.Warn("ticket close failed", zap.String("channel_id", interaction.ChannelID), zap.Error(err))
		b.respondError(session, interaction, userMessage(err))
		return
	}
	b.respond(session, interaction, fmt.Sprintf("Ticket closed by <@%s>.", closer.ID), false)
}

func (b *Bot) handleTicketPanel(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	title := options.str("title", "")
	if _, err := b.tickets.PublishPanel(ctx, interaction.GuildID, interaction.ChannelID, actorOf(interaction).ID, title); err != nil {
		b.logger.Warn("ticket panel failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondError(session, interaction, "Failed to post the ticket panel. Check my permissions in this channel.")
		return
	}
	b.respond(session, interaction, "Ticket panel posted.", true)
}

func (b *Bot) handleTicketCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respondError(session, interaction, "Choose close or info.")
		return
	}
	sub := options[0]
	switch sub.Name {
	case "close":
		b.closeTicket(ctx, session, interaction, optionsOf(sub.Options).str("reason", ""))
	case "info":
		ticket, ok := b.tickets.Ticket(interaction.GuildID, interaction.ChannelID)
		if !ok {
			b.respondError(session, interaction, userMessage(tickets.ErrNotTicket))
			return
		}
		fields := []*discordgo.MessageEmbedField{
			{Name: "Number", Value: fmt.Sprintf("#%04d", ticket.Number), Inline: true},
			{Name: "Category", Value: ticket.Category, Inline: true},
			{Name: "Status", Value: string(ticket.Status), Inline: true},
			{Name: "Created By", Value: fmt.Sprintf("<@%s>", ticket.CreatorID), Inline: true},
			{Name: "Created", Value: fmt.Sprintf("<t:%d:R>", ticket.CreatedAt.Unix()), Inline: true},
		}
		b.respondEmbed(session, interaction, b.commandEmbed("🎫 Ticket Info", "", b.cfg.EmbedColors.Info, fields), true)
	default:
		b.respondError(session, interaction, "Choose close or info.")
	}
}
