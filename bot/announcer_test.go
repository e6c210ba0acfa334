package bot

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/bwmarrin/discordgo"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
	err      error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channels = append(f.channels, channelID)
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, nil
}

func TestAnnouncer_HandleEvent(t *testing.T) {
	sender := &fakeSender{}
	announcer := NewAnnouncer(sender, "chan-1")
	ctx := context.Background()

	winner := common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")
	require.NoError(t, announcer.HandleEvent(ctx, events.RaffleWinnerPickedEvent{
		RaffleID: 1, Round: 3, Winner: winner, Amount: 12000, PlayerCount: 4, RequestID: "99",
	}))
	require.NoError(t, announcer.HandleEvent(ctx, events.RaffleDrawRequestedEvent{RaffleID: 1, Round: 4}))
	require.NoError(t, announcer.HandleEvent(ctx, events.RaffleResetEvent{RaffleID: 1, DiscardedRound: 4, DiscardedPool: 30, DiscardedPlayers: 3}))
	require.NoError(t, announcer.HandleEvent(ctx, events.RaffleEnteredEvent{RaffleID: 1}))

	require.Len(t, sender.embeds, 3)
	assert.Equal(t, []string{"chan-1", "chan-1", "chan-1"}, sender.channels)

	assert.Contains(t, sender.embeds[0].Title, "Round #3")
	assert.Contains(t, sender.embeds[0].Description, "12,000")
	assert.Contains(t, sender.embeds[0].Description, "0x2c75")
	assert.Equal(t, ColorSuccess, sender.embeds[0].Color)

	assert.Equal(t, ColorWarning, sender.embeds[1].Color)
	assert.Contains(t, sender.embeds[2].Description, "3 entries")
}

func TestAnnouncer_Errors(t *testing.T) {
	failing := NewAnnouncer(&fakeSender{err: errors.New("rate limited")}, "chan-1")
	assert.Error(t, failing.HandleEvent(context.Background(), events.RaffleResetEvent{}))

	sender := &fakeSender{}
	unconfigured := NewAnnouncer(sender, "")
	assert.NoError(t, unconfigured.HandleEvent(context.Background(), events.RaffleResetEvent{}))
	assert.Empty(t, sender.embeds)
}

func TestBuildRaffleStatusEmbed(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	winner := common.HexToAddress("0x01")
	raffle := &entities.Raffle{
		ID: 2,
		Config: entities.RaffleConfig{
			EntranceFee:    10000,
			Interval:       time.Minute,
			SubscriptionID: big.NewInt(1),
		},
		State:        entities.RaffleStateOpen,
		Round:        5,
		PlayerCount:  3,
		PoolBalance:  30000,
		LastDrawAt:   now.Add(-2 * time.Minute),
		RecentWinner: &winner,
	}

	embed := buildRaffleStatusEmbed(raffle, now)
	assert.Equal(t, ColorPrimary, embed.Color)
	require.Len(t, embed.Fields, 7)
	assert.Equal(t, "OPEN", embed.Fields[0].Value)
	assert.Equal(t, "30,000", embed.Fields[4].Value)
	assert.Equal(t, "Eligible now", embed.Fields[5].Value)

	raffle.State = entities.RaffleStateCalculating
	raffle.LastDrawAt = now
	embed = buildRaffleStatusEmbed(raffle, now)
	assert.Equal(t, ColorWarning, embed.Color)
	assert.True(t, strings.HasPrefix(embed.Fields[5].Value, "Eligible <t:"))
}

func TestBuildWinnersEmbed(t *testing.T) {
	assert.Equal(t, "No rounds resolved yet.", buildWinnersEmbed(1, nil).Description)

	embed := buildWinnersEmbed(1, []*entities.RaffleWinner{
		{Round: 2, Winner: common.HexToAddress("0x02"), Amount: 20, PlayerCount: 2, CreatedAt: time.Unix(1, 0)},
		{Round: 1, Winner: common.HexToAddress("0x01"), Amount: 10, PlayerCount: 1, CreatedAt: time.Unix(0, 0)},
	})
	lines := strings.Split(strings.TrimSpace(embed.Description), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "**#2**"))
}
