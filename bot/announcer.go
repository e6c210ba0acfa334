package bot

import (
	"context"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// EmbedSender posts embeds to a channel
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts raffle events to a Discord channel
type Announcer struct {
	sender    EmbedSender
	channelID string
}

// NewAnnouncer creates an announcer posting to channelID
func NewAnnouncer(sender EmbedSender, channelID string) *Announcer {
	return &Announcer{sender: sender, channelID: channelID}
}

// HandleEvent posts an announcement for draw, winner and reset events.
// Other events are ignored.
func (a *Announcer) HandleEvent(ctx context.Context, event events.Event) error {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.RaffleWinnerPickedEvent:
		embed = buildWinnerEmbed(e)
	case events.RaffleDrawRequestedEvent:
		embed = buildDrawRequestedEmbed(e)
	case events.RaffleResetEvent:
		embed = buildResetEmbed(e)
	default:
		return nil
	}

	if a.channelID == "" {
		return nil
	}

	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("failed to post %s announcement: %w", event.Type(), err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"channelID": a.channelID,
	}).Debug("Posted raffle announcement")
	return nil
}
