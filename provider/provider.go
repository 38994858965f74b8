// Package provider translates completion requests into provider specific streaming
// calls and normalises what comes back into a single Event sequence.
package provider

import (
	"context"
	"errors"
	"iter"
	"strings"

	"relaychat/model"
)

// Kind is the closed set of supported provider families.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

var allKinds = []Kind{KindOpenAI, KindAnthropic}

var displayNames = map[Kind]string{
	KindOpenAI:    "OpenAI",
	KindAnthropic: "Anthropic",
}

// ParseKind matches name case-insensitively against the known kinds.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	_, ok := displayNames[k]
	return k, ok
}

func (k Kind) DisplayName() string {
	return displayNames[k]
}

var ErrMissingCredential = errors.New("provider api key is not configured")

type Message struct {
	Role    model.Role
	Content string
}

// Request is a provider neutral completion request. Messages are oldest first and
// end with the new user turn.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
}

type EventType int

const (
	EventChunk EventType = iota
	EventUsage
	EventDone
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventChunk:
		return "chunk"
	case EventUsage:
		return "usage"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Usage holds token counts. A nil field means the provider did not report it.
type Usage struct {
	InputTokens  *int64
	OutputTokens *int64
}

type Event struct {
	Type  EventType
	Text  string
	Usage Usage
	Err   error
}

func chunkEvent(text string) Event { return Event{Type: EventChunk, Text: text} }

func usageEvent(input, output int64) Event {
	return Event{Type: EventUsage, Usage: Usage{InputTokens: &input, OutputTokens: &output}}
}

func doneEvent() Event { return Event{Type: EventDone} }

func errorEvent(err error) Event { return Event{Type: EventError, Err: err} }

// Adapter is implemented once per provider family.
//
// StartCompletion returns a lazy sequence: nothing is sent until the caller ranges
// over it. Every sequence that is consumed to the end finishes with exactly one
// EventDone or EventError. Breaking out of the range closes the connection.
type Adapter interface {
	Kind() Kind
	ListModels(ctx context.Context) ([]string, error)
	StartCompletion(ctx context.Context, req Request) iter.Seq[Event]
}

type Registry struct {
	adapters map[Kind]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
	}
	return r
}

// Lookup resolves a provider name from a request path.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	kind, ok := ParseKind(name)
	if !ok {
		return nil, false
	}
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds returns the registered kinds in a stable order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.adapters))
	for _, k := range allKinds {
		if _, ok := r.adapters[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
