package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterkuimelis/ddzrogue/internal/view"
)

// ErrQuit is returned by Parse for the quit command.
var ErrQuit = errors.New("quit")

type command struct {
	names []string
	cmd   string
	args  string // "", "indices", "index", "item", "item indices"
	help  string
}

var commands = []command{
	{[]string{"p", "play"}, view.CmdPlay, "indices", "play cards as one pattern"},
	{[]string{"d", "discard"}, view.CmdDiscard, "indices", "discard cards and draw replacements"},
	{[]string{"e", "end"}, view.CmdEndRound, "", "end the round"},
	{[]string{"t", "trait"}, view.CmdChooseTrait, "index", "choose a trait offer"},
	{[]string{"g", "gamble"}, view.CmdGamble, "", "stake the rating bonus"},
	{[]string{"u", "use"}, view.CmdUseItem, "item indices", "use an inventory item"},
	{[]string{"s", "shop"}, view.CmdShop, "", "open the shop"},
	{[]string{"c", "close"}, view.CmdCloseShop, "", "close the shop"},
	{[]string{"b", "buy"}, view.CmdBuy, "item", "buy a shop offer"},
	{[]string{"r", "refresh"}, view.CmdRefresh, "", "re-roll the shop"},
	{[]string{"n", "next"}, view.CmdNextLevel, "", "advance to the next level"},
	{[]string{"retry"}, view.CmdRetry, "", "replay a lost level"},
	{[]string{"timer"}, view.CmdCheckTimer, "", "apply an expired turn timer"},
	{[]string{"talent"}, view.CmdBuyTalent, "item", "buy a talent with coins"},
	{[]string{"upgrade"}, view.CmdBuyUpgrade, "item", "buy a rank upgrade with coins"},
	{[]string{"new"}, view.CmdNewRun, "", "start a new run"},
	{[]string{"state", "?"}, view.CmdState, "", "show the state"},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		for _, n := range c.names {
			if n == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// Parse turns one input line into a client message. Indices are the
// 0-based hand positions shown next to each card.
func Parse(line string) (view.ClientMessage, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return view.ClientMessage{}, errors.New("empty command")
	}
	name, rest := fields[0], fields[1:]
	if name == "q" || name == "quit" || name == "exit" {
		return view.ClientMessage{}, ErrQuit
	}
	c, ok := lookup(name)
	if !ok {
		return view.ClientMessage{}, fmt.Errorf("unknown command %q, try help", name)
	}

	msg := view.ClientMessage{Type: c.cmd}
	switch c.args {
	case "":
		if len(rest) > 0 {
			return msg, fmt.Errorf("%s takes no arguments", name)
		}
	case "indices":
		if len(rest) == 0 {
			return msg, fmt.Errorf("%s needs card indices", name)
		}
		indices, err := parseIndices(rest)
		if err != nil {
			return msg, err
		}
		msg.Indices = indices
	case "index":
		if len(rest) != 1 {
			return msg, fmt.Errorf("%s needs one number", name)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 {
			return msg, fmt.Errorf("invalid number %q", rest[0])
		}
		msg.Index = n
	case "item":
		if len(rest) != 1 {
			return msg, fmt.Errorf("%s needs one id", name)
		}
		msg.Item = rest[0]
	case "item indices":
		if len(rest) == 0 {
			return msg, fmt.Errorf("%s needs an item id", name)
		}
		msg.Item = rest[0]
		indices, err := parseIndices(rest[1:])
		if err != nil {
			return msg, err
		}
		msg.Indices = indices
	}
	if c.cmd == view.CmdBuyUpgrade {
		msg.Item = strings.ToUpper(msg.Item)
	}
	return msg, nil
}

func parseIndices(parts []string) ([]int, error) {
	var indices []int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid card index %q", p)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

// Help lists the commands.
func Help() string {
	var sb strings.Builder
	for _, c := range commands {
		usage := strings.Join(c.names, "|")
		if c.args != "" {
			usage += " <" + strings.ReplaceAll(c.args, " ", "> <") + ">"
		}
		fmt.Fprintf(&sb, "  %-26s %s\n", usage, c.help)
	}
	fmt.Fprintf(&sb, "  %-26s %s\n", "q|quit", "save and leave")
	return sb.String()
}
