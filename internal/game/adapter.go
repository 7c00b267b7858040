package game

// Adapter provides game-specific behavior for the wrapped server.
type Adapter interface {
	// Game returns the game identifier (e.g., "minecraft", "vintagestory")
	Game() string

	// ParseLogLine extracts a structured event from one line of server
	// output. Lines that match no pattern report false.
	ParseLogLine(line string) (Event, bool)

	// SayCommand returns the console command broadcasting a chat message
	// from author to every player.
	SayCommand(author, body string) string

	// StopCommand returns the graceful stop command for the server
	StopCommand() string
}
