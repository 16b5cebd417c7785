package tickets

import (
	"strings"

	"ssupport/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const (
	createPrefix   = "ticket:create:"
	CustomIDSelect = "ticket:select"
	CustomIDClose  = "ticket:close"

	maxButtonsPerRow = 5
	maxSelectOptions = 25
)

type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionCreate
	ActionSelect
	ActionClose
)

// Action is a decoded component custom ID. Category is only set for
// ActionCreate; select menus carry the category in the interaction values.
type Action struct {
	Kind     ActionKind
	Category string
}

func CreateCustomID(category string) string {
	return createPrefix + category
}

func ParseCustomID(customID string) (Action, bool) {
	switch {
	case customID == CustomIDSelect:
		return Action{Kind: ActionSelect}, true
	case customID == CustomIDClose:
		return Action{Kind: ActionClose}, true
	case strings.HasPrefix(customID, createPrefix):
		category := strings.TrimPrefix(customID, createPrefix)
		if category == "" {
			return Action{}, false
		}
		return Action{Kind: ActionCreate, Category: category}, true
	default:
		return Action{}, false
	}
}

// PanelComponents renders one button per category when they fit in a
// single row, and a select menu otherwise.
func PanelComponents(categories []string, maxButtons int) []discordgo.MessageComponent {
	if maxButtons <= 0 || maxButtons > maxButtonsPerRow {
		maxButtons = maxButtonsPerRow
	}
	if len(categories) == 0 {
		return nil
	}

	if len(categories) <= maxButtons {
		buttons := make([]discordgo.MessageComponent, 0, len(categories))
		for _, category := range categories {
			buttons = append(buttons, discordgo.Button{
				Label:    "🎫 " + category,
				Style:    discordgo.PrimaryButton,
				CustomID: CreateCustomID(category),
			})
		}
		return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
	}

	options := make([]discordgo.SelectMenuOption, 0, len(categories))
	for _, category := range categories {
		if len(options) == maxSelectOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       category,
			Value:       category,
			Description: "Create a " + category + " ticket",
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    CustomIDSelect,
					Placeholder: "Select a ticket category...",
					Options:     options,
				},
			},
		},
	}
}

func CloseComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "🔒 Close Ticket",
					Style:    discordgo.DangerButton,
					CustomID: CustomIDClose,
				},
			},
		},
	}
}

func PanelEmbed(cfg storage.GuildConfig, title string, color int) *discordgo.MessageEmbed {
	if strings.TrimSpace(title) == "" {
		title = "🎫 Support Tickets"
	}
	var desc strings.Builder
	desc.WriteString(cfg.TicketMessage)
	desc.WriteString("\n\n")
	for _, category := range cfg.TicketCategories {
		desc.WriteString("• **")
		desc.WriteString(category)
		desc.WriteString("**\n")
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: desc.String(),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Support tickets"},
	}
}
