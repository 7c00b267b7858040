package dispatch

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/nwtnni/mc-suite/internal/chat"
)

// WriterSink mirrors server lines to w, typically the operator's stdout.
type WriterSink struct {
	w *bufio.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

func (s *WriterSink) WriteLine(_ context.Context, line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

// ChannelSink relays server lines to a chat channel. Blank lines are
// dropped since chat platforms reject empty messages.
type ChannelSink struct {
	Chat      chat.Platform
	ChannelID string
}

func (s ChannelSink) WriteLine(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	_, err := s.Chat.Send(ctx, s.ChannelID, line)
	return err
}
