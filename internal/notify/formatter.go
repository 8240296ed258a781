package notify

import (
	"fmt"
	"strconv"
	"time"

	"wager-engine/internal/engine"
	"wager-engine/internal/notify/platforms"
)

const (
	colorPending   = 0xFEE75C
	colorConfirmed = 0x5865F2
	colorWon       = 0x57F287
	colorLost      = 0xED4245

	defaultFooter = "wager-engine operator feed"
)

// FormatMessage renders the lifecycle events an operator acts on. Cell-level
// events are not formatted.
func FormatMessage(ev Event) (platforms.Message, bool) {
	b := ev.Bet
	msg := platforms.Message{
		Timestamp: b.UpdatedAt.UTC().Format(time.RFC3339),
		Footer:    defaultFooter,
	}
	fields := []platforms.Field{
		{Name: "Bet", Value: b.ID, Inline: false},
		{Name: "Player", Value: fallback(b.PlayerHandle, "-"), Inline: true},
		{Name: "Contact", Value: fallback(b.ContactHandle, "-"), Inline: true},
		{Name: "Game", Value: string(b.GameType), Inline: true},
		{Name: "Wager", Value: b.WagerAmount.StringFixed(2), Inline: true},
	}

	switch ev.Type {
	case engine.EventBetCreated:
		msg.Title = fmt.Sprintf("Awaiting payment · %s", b.GameType)
		msg.Content = fmt.Sprintf("%s owes %s for bet %s", fallback(b.PlayerHandle, "player"), b.WagerAmount.StringFixed(2), b.ID)
		msg.Description = "Confirm once the wager has been received."
		msg.Color = colorPending
	case engine.EventBetConfirmed:
		msg.Title = fmt.Sprintf("Payment confirmed · %s", b.GameType)
		msg.Content = fmt.Sprintf("bet %s is live", b.ID)
		msg.Description = "The player can now play this bet."
		msg.Color = colorConfirmed
	case engine.EventBetSettled:
		if b.Outcome == nil {
			return platforms.Message{}, false
		}
		o := b.Outcome
		if o.Won {
			msg.Title = fmt.Sprintf("Bet won · %s", b.GameType)
			msg.Content = fmt.Sprintf("pay %s to %s", o.Payout.StringFixed(2), fallback(b.ContactHandle, b.PlayerHandle))
			msg.Color = colorWon
		} else {
			msg.Title = fmt.Sprintf("Bet lost · %s", b.GameType)
			msg.Content = fmt.Sprintf("bet %s settled with no payout", b.ID)
			msg.Color = colorLost
		}
		msg.Description = settleSummary(o.Won, o.Busted, o.CashedOut)
		fields = append(fields,
			platforms.Field{Name: "Payout", Value: o.Payout.StringFixed(2), Inline: true},
			platforms.Field{Name: "Multiplier", Value: strconv.FormatFloat(o.Multiplier, 'f', 4, 64), Inline: true},
		)
	default:
		return platforms.Message{}, false
	}
	msg.Fields = fields
	return msg, true
}

func settleSummary(won, busted, cashedOut bool) string {
	switch {
	case busted:
		return "Hit a hazard."
	case cashedOut:
		return "Cashed out."
	case won:
		return "Resolved in the player's favour."
	}
	return "Resolved in the house's favour."
}

func fallback(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
