package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound is returned by Actions when the target message, member,
// ban or channel no longer exists.
var ErrNotFound = errors.New("platform object not found")

// Actions is the slice of the chat platform the pipeline and sweeps call
// back into. The bot package implements it over a discordgo session.
type Actions interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
	// SendTransient posts embed and removes it again after ttl.
	SendTransient(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, ttl time.Duration) error
	DirectMessage(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	Unban(ctx context.Context, guildID, userID, reason string) error
	GuildName(ctx context.Context, guildID string) string
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
