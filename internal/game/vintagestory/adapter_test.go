package vintagestory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwtnni/mc-suite/internal/game"
)

func TestParseLogLine(t *testing.T) {
	req := require.New(t)
	adapter := &Adapter{}

	event, ok := adapter.ParseLogLine("12.3.2025 18:01:02 [Server Event] Player Dana joins.")
	req.True(ok)
	req.Equal(game.Join{Name: "Dana"}, event)

	event, ok = adapter.ParseLogLine("12.3.2025 18:05:40 [Server Event] Player Dana left.")
	req.True(ok)
	req.Equal(game.Quit{Name: "Dana"}, event)

	event, ok = adapter.ParseLogLine("12.3.2025 18:03:11 [Server Chat] 0 | Dana: anyone home?")
	req.True(ok)
	req.Equal(game.Chat{Name: "Dana", Text: "anyone home?"}, event)

	_, ok = adapter.ParseLogLine("12.3.2025 18:00:00 [Server Notification] Server ready")
	req.False(ok)
}

func TestCommands(t *testing.T) {
	req := require.New(t)
	adapter := &Adapter{}

	req.Equal("/announce [Eve]: hello world", adapter.SayCommand("Eve", "hello\n world"))
	req.Equal("/stop", adapter.StopCommand())
}
