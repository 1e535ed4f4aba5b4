package llm

import "context"

// EventKind is the closed set of things a model stream can report.
type EventKind int

const (
	// EventBlockStart opens a new content block; Block says which kind.
	EventBlockStart EventKind = iota + 1
	// EventTextDelta carries answer text.
	EventTextDelta
	// EventThinkingDelta carries reasoning text, never part of the answer.
	EventThinkingDelta
	// EventStop is the clean end of the stream.
	EventStop
	// EventError ends the stream with Err set.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventBlockStart:
		return "block_start"
	case EventTextDelta:
		return "text"
	case EventThinkingDelta:
		return "thinking"
	case EventStop:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// BlockKind tags a content block.
type BlockKind string

const (
	BlockText     BlockKind = "text"
	BlockThinking BlockKind = "thinking"
)

// StreamEvent is one item on a provider stream. Every stream ends with
// exactly one EventStop or EventError and is then closed.
type StreamEvent struct {
	Kind  EventKind
	Block BlockKind // EventBlockStart only
	Text  string    // delta events only
	Err   error     // EventError only
}

// Collect drains a stream and returns the concatenated answer text. Thinking
// is discarded. The error of an EventError is returned as is.
func Collect(events <-chan StreamEvent) (string, error) {
	var text string
	var err error
	for ev := range events {
		switch ev.Kind {
		case EventTextDelta:
			text += ev.Text
		case EventError:
			err = ev.Err
		}
	}
	return text, err
}

// send delivers ev unless ctx is done first.
func send(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// blockTracker turns per-delta block indexes into explicit block starts.
type blockTracker struct {
	started bool
	index   int
}

// deltaEvents maps one provider delta to stream events, emitting a block
// start the first time a block index is seen. Unknown delta types (tool
// input, signatures) produce nothing.
func (b *blockTracker) deltaEvents(index int, deltaType, text, thinking string) []StreamEvent {
	var kind EventKind
	var block BlockKind
	var body string
	switch deltaType {
	case "text_delta":
		kind, block, body = EventTextDelta, BlockText, text
	case "thinking_delta":
		kind, block, body = EventThinkingDelta, BlockThinking, thinking
	default:
		return nil
	}

	var out []StreamEvent
	if !b.started || index != b.index {
		b.started = true
		b.index = index
		out = append(out, StreamEvent{Kind: EventBlockStart, Block: block})
	}
	return append(out, StreamEvent{Kind: kind, Text: body})
}
