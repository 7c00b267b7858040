package vintagestory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nwtnni/mc-suite/internal/game"
)

func init() {
	game.Register(&Adapter{})
}

type Adapter struct{}

var (
	joinRe  = regexp.MustCompile(`Player (\w+) joins`)
	leaveRe = regexp.MustCompile(`Player (\w+) left`)
	chatRe  = regexp.MustCompile(`\[Server Chat\] (?:\d+ \| )?(\w+): (.+)`)
)

func (a *Adapter) Game() string { return "vintagestory" }

func (a *Adapter) ParseLogLine(line string) (game.Event, bool) {
	if m := joinRe.FindStringSubmatch(line); m != nil {
		return game.Join{Name: m[1]}, true
	}
	if m := leaveRe.FindStringSubmatch(line); m != nil {
		return game.Quit{Name: m[1]}, true
	}
	if m := chatRe.FindStringSubmatch(line); m != nil {
		return game.Chat{Name: m[1], Text: m[2]}, true
	}
	return nil, false
}

func (a *Adapter) SayCommand(author, body string) string {
	body = strings.Join(strings.Fields(body), " ")
	return fmt.Sprintf("/announce [%s]: %s", author, body)
}

func (a *Adapter) StopCommand() string { return "/stop" }
