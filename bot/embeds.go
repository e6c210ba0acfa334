package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/bot/common"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/events"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// buildRaffleStatusEmbed shows the live state of a raffle
func buildRaffleStatusEmbed(raffle *entities.Raffle, now time.Time) *discordgo.MessageEmbed {
	color := ColorPrimary
	if raffle.State == entities.RaffleStateCalculating {
		color = ColorWarning
	}

	nextDraw := raffle.LastDrawAt.Add(raffle.Config.Interval)
	drawLine := fmt.Sprintf("Eligible %s", common.FormatDiscordTimestamp(nextDraw, "R"))
	if !now.Before(nextDraw) {
		drawLine = "Eligible now"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "State", Value: strings.ToUpper(raffle.State.String()), Inline: true},
		{Name: "Round", Value: fmt.Sprintf("#%d", raffle.Round), Inline: true},
		{Name: "Entrance Fee", Value: common.FormatBalance(raffle.Config.EntranceFee), Inline: true},
		{Name: "Players", Value: common.FormatBalance(raffle.PlayerCount), Inline: true},
		{Name: "Pool", Value: common.FormatBalance(raffle.PoolBalance), Inline: true},
		{Name: "Next Draw", Value: drawLine, Inline: true},
	}
	if raffle.RecentWinner != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Recent Winner",
			Value: common.FormatAddress(*raffle.RecentWinner),
		})
	}

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("🎟️ Raffle #%d", raffle.ID),
		Color:  color,
		Fields: fields,
	}
}

// buildWinnerEmbed announces a resolved round
func buildWinnerEmbed(e events.RaffleWinnerPickedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏆 Raffle #%d Round #%d Winner", e.RaffleID, e.Round),
		Description: fmt.Sprintf("%s takes the pool of **%s** from %d entries!",
			common.FormatAddress(e.Winner), common.FormatBalance(e.Amount), e.PlayerCount),
		Color: ColorSuccess,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Request %s", e.RequestID),
		},
	}
}

// buildDrawRequestedEmbed announces that entry is closed for a round
func buildDrawRequestedEmbed(e events.RaffleDrawRequestedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎲 Raffle #%d Round #%d Drawing", e.RaffleID, e.Round),
		Description: "Entries are closed while the winner is picked.",
		Color:       ColorWarning,
	}
}

// buildResetEmbed announces an owner reset
func buildResetEmbed(e events.RaffleResetEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("⚠️ Raffle #%d Reset", e.RaffleID),
		Description: fmt.Sprintf("Round #%d was reset by the owner. %d entries and a pool of **%s** were discarded.",
			e.DiscardedRound, e.DiscardedPlayers, common.FormatBalance(e.DiscardedPool)),
		Color: ColorDanger,
	}
}

// buildWinnersEmbed lists recent winners
func buildWinnersEmbed(raffleID int64, winners []*entities.RaffleWinner) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏆 Raffle #%d Recent Winners", raffleID),
		Color: ColorPrimary,
	}
	if len(winners) == 0 {
		embed.Description = "No rounds resolved yet."
		return embed
	}

	var b strings.Builder
	for _, w := range winners {
		fmt.Fprintf(&b, "**#%d** %s won **%s** (%d players) %s\n",
			w.Round, common.FormatAddress(w.Winner), common.FormatBalance(w.Amount),
			w.PlayerCount, common.FormatDiscordTimestamp(w.CreatedAt, "R"))
	}
	embed.Description = b.String()
	return embed
}
