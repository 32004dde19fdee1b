package repl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/peterkuimelis/ddzrogue/internal/shop"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	blackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	lockedStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Render formats a server reply for the terminal.
func Render(msg view.ServerMessage) string {
	var sb strings.Builder
	for _, ev := range msg.Events {
		sb.WriteString(renderEvent(ev))
		sb.WriteByte('\n')
	}
	if msg.Type == "timeout" {
		sb.WriteString(errorStyle.Render("Time is up!"))
		sb.WriteByte('\n')
	}
	if msg.Error != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", msg.Error.Code, msg.Error.Reason)))
		sb.WriteByte('\n')
	}
	if msg.Result != nil && msg.Result.Message != "" {
		sb.WriteString(goodStyle.Render("✓ " + msg.Result.Message))
		sb.WriteByte('\n')
	}
	if v, ok := msg.Shop.(shop.Visit); ok {
		sb.WriteString(RenderShop(v))
		sb.WriteByte('\n')
	}
	if msg.State != nil {
		sb.WriteString(RenderState(msg.State))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderEvent(ev view.EventView) string {
	line := fmt.Sprintf("L%-2d R%-2d %-12s %s", ev.Level, ev.Round, ev.Type, ev.Details)
	if ev.Cards != "" {
		line += "  " + ev.Cards
	}
	return dimStyle.Render(line)
}

// RenderState draws the status box and the hand.
func RenderState(sv *view.StateView) string {
	if sv.Status == "idle" {
		return boxStyle.Render("No run in progress. Type new to start one.")
	}

	var lines []string
	header := fmt.Sprintf("Level %d/%d  Round %d/%d  [%s]", sv.Level, sv.MaxLevel, sv.Round, sv.RoundLimit, sv.Status)
	if sv.Rating != "" {
		header += "  Rating " + sv.Rating
	}
	lines = append(lines, titleStyle.Render(header))
	lines = append(lines, fmt.Sprintf("Score %d/%d  x%.1f  combo x%.1f  Total %d  Coins %d",
		sv.LevelScore, sv.Requirement, sv.Multiplier, sv.Combo, sv.Score, sv.Coins))
	lines = append(lines, fmt.Sprintf("AP %g/%g  DP %d/%d (discard costs %d)  Deck %d",
		sv.ActionPoints, sv.MaxActionPoints, sv.DiscardPoints, sv.MaxDiscardPoints, sv.DiscardCost, sv.DeckCount))

	var extra []string
	if sv.Rules != "" {
		extra = append(extra, "Rules: "+sv.Rules)
	}
	if sv.Boss != "" {
		extra = append(extra, "Boss: "+sv.Boss)
	}
	if sv.TimeRemaining != nil {
		extra = append(extra, fmt.Sprintf("Time %ds", *sv.TimeRemaining))
	}
	if sv.Trait != "" {
		extra = append(extra, "Trait: "+sv.Trait)
	}
	if len(extra) > 0 {
		lines = append(lines, strings.Join(extra, "  "))
	}
	if len(sv.Sealed) > 0 {
		lines = append(lines, "Sealed: "+strings.Join(sv.Sealed, " "))
	}
	if len(sv.Unlocked) > 0 {
		lines = append(lines, "Unlocked: "+strings.Join(sv.Unlocked, " "))
	}
	if sv.UnmetReason != "" {
		lines = append(lines, errorStyle.Render("Unmet: "+sv.UnmetReason))
	}
	if len(sv.Inventory) > 0 {
		lines = append(lines, "Items: "+strings.Join(sv.Inventory, " "))
	}

	out := boxStyle.Render(strings.Join(lines, "\n"))
	if len(sv.TraitOffers) > 0 {
		out += "\n" + titleStyle.Render("Choose a trait (t N):")
		for _, t := range sv.TraitOffers {
			out += fmt.Sprintf("\n  %d) %s: %s", t.Index, t.Name, t.Description)
		}
	}
	return out + "\n" + RenderHand(sv.Hand)
}

// RenderHand lists the cards with their indices.
func RenderHand(hand []view.CardView) string {
	parts := make([]string, 0, len(hand))
	for _, c := range hand {
		label := c.Label
		switch {
		case c.Locked:
			label = lockedStyle.Render(label)
		case c.Suit == "hearts" || c.Suit == "diamonds" || c.Rank == "BJ":
			label = redStyle.Render(label)
		default:
			label = blackStyle.Render(label)
		}
		parts = append(parts, fmt.Sprintf("[%d]%s", c.Index, label))
	}
	return "Hand: " + strings.Join(parts, " ")
}

// RenderShop lists the offers of an open shop.
func RenderShop(v shop.Visit) string {
	lines := []string{titleStyle.Render("Shop")}
	offers := v.Offers
	if v.Legendary != nil {
		offers = append(append([]shop.Offer(nil), offers...), *v.Legendary)
	}
	for _, o := range offers {
		line := fmt.Sprintf("%-18s %4d  %s", o.ID, o.Price, o.Description)
		if o.Sold {
			line = dimStyle.Render(line + " (sold)")
		}
		lines = append(lines, line)
	}
	lines = append(lines, fmt.Sprintf("Refresh: %d", v.RefreshCost))
	if len(v.Granted) > 0 {
		lines = append(lines, goodStyle.Render("Free: "+strings.Join(v.Granted, " ")))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
