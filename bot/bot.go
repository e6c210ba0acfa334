package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/bot/common"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token     string
	ChannelID string
	GuildID   string
}

// RaffleReader is the read side of the raffle contract used by slash commands
type RaffleReader interface {
	GetRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error)
	GetRecentWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
}

type Bot struct {
	config    Config
	session   *discordgo.Session
	raffles   RaffleReader
	announcer *Announcer
}

// New connects to Discord and registers the raffle slash commands
func New(config Config, raffles RaffleReader) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:    config,
		session:   dg,
		raffles:   raffles,
		announcer: NewAnnouncer(dg, config.ChannelID),
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("channelID", config.ChannelID).Info("Discord bot connected")
	return bot, nil
}

// Announcer returns the announcer posting to the configured channel
func (b *Bot) Announcer() *Announcer {
	return b.announcer
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if data.Name != "raffle" || len(data.Options) == 0 {
		return
	}

	sub := data.Options[0]
	raffleID := int64(1)
	for _, opt := range sub.Options {
		if opt.Name == "id" {
			raffleID = opt.IntValue()
		}
	}

	switch sub.Name {
	case "status":
		b.handleStatus(s, i, raffleID)
	case "winners":
		b.handleWinners(s, i, raffleID)
	}
}

func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate, raffleID int64) {
	raffle, err := b.raffles.GetRaffle(context.Background(), raffleID)
	if err != nil {
		b.respondWithError(s, i, raffleID, err)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildRaffleStatusEmbed(raffle, time.Now()), false); err != nil {
		log.WithError(err).Error("Failed to respond with raffle status")
	}
}

func (b *Bot) handleWinners(s *discordgo.Session, i *discordgo.InteractionCreate, raffleID int64) {
	winners, err := b.raffles.GetRecentWinners(context.Background(), raffleID, 5)
	if err != nil {
		b.respondWithError(s, i, raffleID, err)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildWinnersEmbed(raffleID, winners), false); err != nil {
		log.WithError(err).Error("Failed to respond with raffle winners")
	}
}

func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, raffleID int64, err error) {
	message := "Unable to load the raffle. Please try again."
	if entities.KindOf(err) == entities.ErrorKindNotFound {
		message = fmt.Sprintf("Raffle #%d does not exist.", raffleID)
	} else {
		log.WithFields(log.Fields{
			"raffleID": raffleID,
			"error":    err,
		}).Error("Raffle command failed")
	}

	if respErr := common.RespondWithError(s, i, message); respErr != nil {
		log.WithError(respErr).Error("Failed to send error response")
	}
}
