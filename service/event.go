package service

import "relaychat/model"

type StreamEventType string

const (
	StreamChunk StreamEventType = "chunk"
	StreamDone  StreamEventType = "done"
	StreamError StreamEventType = "error"
)

// StreamEvent is one frame of the caller facing stream. A stream is zero or more
// chunk events followed by exactly one done or error event.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Text    string          `json:"text,omitempty"`
	Message *model.Message  `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (e StreamEvent) Terminal() bool {
	return e.Type == StreamDone || e.Type == StreamError
}

func newChunkEvent(text string) StreamEvent {
	return StreamEvent{Type: StreamChunk, Text: text}
}

func newDoneEvent(msg model.Message) StreamEvent {
	return StreamEvent{Type: StreamDone, Message: &msg}
}

func newErrorEvent(err error) StreamEvent {
	return StreamEvent{Type: StreamError, Error: err.Error()}
}
