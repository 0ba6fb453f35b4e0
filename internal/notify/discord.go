package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Embed colors per severity.
var discordColors = map[string]int{
	SeverityInfo:    0x439fe0,
	SeveritySuccess: 0x36a64f,
	SeverityWarning: 0xdaa038,
	SeverityError:   0xd50200,
}

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts events to one Discord channel as embeds.
type DiscordNotifier struct {
	sess      discordSession
	channelID string
	opened    bool
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscord creates a DiscordNotifier and opens its gateway session.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: discord bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel is required")
	}

	n := &DiscordNotifier{sess: opts.Session, channelID: opts.ChannelID}
	if n.sess == nil {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: create discord session: %w", err)
		}
		n.sess = dg
	}
	if err := n.sess.Open(); err != nil {
		return nil, fmt.Errorf("notify: open discord gateway: %w", err)
	}
	n.opened = true
	return n, nil
}

// Notify posts the event as an embed.
func (n *DiscordNotifier) Notify(ctx context.Context, ev Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Body,
		Color:       discordColors[ev.Severity],
	}
	for _, f := range ev.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}

	if _, err := n.sess.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}

// Close shuts down the gateway session.
func (n *DiscordNotifier) Close() error {
	if !n.opened {
		return nil
	}
	n.opened = false
	return n.sess.Close()
}
