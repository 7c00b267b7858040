package minecraft

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

type pattern struct {
	re    *regexp.Regexp
	event func(m []string) game.Event
}

// Checked in order; the first match wins.
var patterns = []pattern{
	{
		re:    regexp.MustCompile(`.*\[Server thread/INFO\]: (.*)\[[^\]]*\] logged in with entity id .* at .*`),
		event: func(m []string) game.Event { return game.Join{Name: m[1]} },
	},
	{
		re:    regexp.MustCompile(`.*\[Server thread/INFO\]: (.*) left the game`),
		event: func(m []string) game.Event { return game.Quit{Name: m[1]} },
	},
	{
		re:    regexp.MustCompile(`.*\[Server thread/INFO\]: (.*) has made the advancement \[(.*)\]`),
		event: func(m []string) game.Event { return game.Achievement{Name: m[1], Text: m[2]} },
	},
	{
		re:    regexp.MustCompile(`.*\[Server thread/INFO\]: <([^ \]]*)> (.*)`),
		event: func(m []string) game.Event { return game.Chat{Name: m[1], Text: m[2]} },
	},
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func (a *Adapter) Game() string { return "minecraft" }

func (a *Adapter) ParseLogLine(line string) (game.Event, bool) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return p.event(m), true
		}
	}
	return nil, false
}

// SayCommand folds line breaks so a multi-line message stays one command.
func (a *Adapter) SayCommand(author, body string) string {
	return fmt.Sprintf("/say [%s]: %s", author, lineBreaks.Replace(body))
}

func (a *Adapter) StopCommand() string { return "/stop" }
