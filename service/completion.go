package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"relaychat/model"
	"relaychat/platform"
	"relaychat/provider"
)

var logger = platform.Logger

const titleLength = 50

var (
	errNoTerminal = errors.New("stream ended without a terminal event")
	errCancelled  = errors.New("request cancelled")
)

// Store is the persistence the completion flow depends on.
type Store interface {
	CreateChatRoom(ctx context.Context, room model.ChatRoom) (model.ChatRoom, error)
	GetChatRoom(ctx context.Context, id string) (model.ChatRoom, error)
	TouchChatRoom(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, msg model.Message) (model.Message, error)
	ListMessages(ctx context.Context, chatRoomID string) ([]model.Message, error)
}

type CompletionRequest struct {
	RequestID    string
	Provider     string
	Model        string
	ChatRoomID   string
	SystemPrompt string
	Message      string
}

type CompletionService struct {
	store    Store
	registry *provider.Registry
}

func NewCompletionService(store Store, registry *provider.Registry) *CompletionService {
	return &CompletionService{store: store, registry: registry}
}

// Completion is a request that has passed validation and has its user turn stored.
// Stream must be called exactly once.
type Completion struct {
	store     Store
	adapter   provider.Adapter
	requestID string
	room      model.ChatRoom
	userTurn  model.Message
	request   provider.Request
}

func (c *Completion) ChatRoom() model.ChatRoom { return c.room }

func (c *Completion) UserTurn() model.Message { return c.userTurn }

func deriveTitle(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= titleLength {
		return message
	}
	return string([]rune(message)[:titleLength])
}

func persistenceError(op string, err error) error {
	perr := &PersistenceError{Op: op, Err: err}
	platform.ReportError(perr)
	return perr
}

// Start validates the request, resolves or creates the chat room and stores the
// user turn. Nothing is sent to a provider until Stream is called.
func (s *CompletionService) Start(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	adapter, ok := s.registry.Lookup(req.Provider)
	if !ok {
		return nil, &ProviderNotSupportedError{Provider: req.Provider}
	}

	room, history, err := s.resolve(ctx, req, adapter.Kind())
	if err != nil {
		return nil, err
	}

	userTurn, err := s.store.CreateMessage(ctx, model.Message{
		ChatRoomID: room.ID,
		Role:       model.RoleUser,
		Content:    req.Message,
	})
	if err != nil {
		return nil, persistenceError("store user message", err)
	}
	logger.Infof("[%s] stored user message %s in chat room %s", req.RequestID, userTurn.ID, room.ID)

	return &Completion{
		store:     s.store,
		adapter:   adapter,
		requestID: req.RequestID,
		room:      room,
		userTurn:  userTurn,
		request: provider.Request{
			Model:        req.Model,
			SystemPrompt: room.SystemPrompt,
			Messages:     BuildConversation(history, req.Message),
		},
	}, nil
}

func (s *CompletionService) resolve(ctx context.Context, req CompletionRequest, kind provider.Kind) (model.ChatRoom, []model.Message, error) {
	if req.ChatRoomID == "" {
		room, err := s.store.CreateChatRoom(ctx, model.ChatRoom{
			Title:        deriveTitle(req.Message),
			Provider:     string(kind),
			ModelID:      req.Model,
			SystemPrompt: req.SystemPrompt,
		})
		if err != nil {
			return model.ChatRoom{}, nil, persistenceError("create chat room", err)
		}
		logger.Infof("[%s] created chat room %s", req.RequestID, room.ID)
		return room, nil, nil
	}

	room, err := s.store.GetChatRoom(ctx, req.ChatRoomID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ChatRoom{}, nil, &NotFoundError{Resource: "chat room", ID: req.ChatRoomID}
	}
	if err != nil {
		return model.ChatRoom{}, nil, persistenceError("load chat room", err)
	}
	history, err := s.store.ListMessages(ctx, room.ID)
	if err != nil {
		return model.ChatRoom{}, nil, persistenceError("load chat history", err)
	}
	return room, history, nil
}

// Stream drives the provider stream, relaying chunks through emit as they arrive,
// then stores the assistant turn and emits the terminal event. It returns the
// failure that ended the stream, or nil after a done event.
//
// If the caller goes away (ctx cancelled or emit failing) the text received so far
// is stored as an interrupted assistant turn.
func (c *Completion) Stream(ctx context.Context, emit func(StreamEvent) error) error {
	startAt := time.Now()
	kind := string(c.adapter.Kind())

	var (
		content    strings.Builder
		usage      provider.Usage
		streamErr  error
		completed  bool
		callerGone bool
	)

relay:
	for event := range c.adapter.StartCompletion(ctx, c.request) {
		switch event.Type {
		case provider.EventChunk:
			content.WriteString(event.Text)
			platform.CountChunk(kind)
			if err := emit(newChunkEvent(event.Text)); err != nil {
				logger.Warnf("[%s] write chunk failed, %s", c.requestID, err)
				callerGone = true
				break relay
			}
		case provider.EventUsage:
			usage = event.Usage
		case provider.EventError:
			streamErr = event.Err
			break relay
		case provider.EventDone:
			completed = true
			break relay
		}
	}

	if !completed && (callerGone || ctx.Err() != nil) {
		c.saveInterrupted(ctx, content.String(), usage)
		platform.ObserveCompletion(kind, "cancelled", startAt)
		c.finish(emit, newErrorEvent(errCancelled))
		return errCancelled
	}

	if !completed {
		if streamErr == nil {
			streamErr = errNoTerminal
		}
		terr := &TransportError{Provider: kind, Err: streamErr}
		logger.Warnf("[%s] stream failed after %d bytes, %s", c.requestID, content.Len(), terr)
		platform.ObserveCompletion(kind, "error", startAt)
		c.finish(emit, newErrorEvent(terr))
		return terr
	}

	assistant, err := c.saveAssistant(ctx, content.String(), usage, false)
	if err != nil {
		logger.Warnf("[%s] %s", c.requestID, err)
		platform.ObserveCompletion(kind, "error", startAt)
		c.finish(emit, newErrorEvent(err))
		return err
	}
	platform.CountTokens(kind, usage.InputTokens, usage.OutputTokens)
	platform.ObserveCompletion(kind, "done", startAt)
	logger.Infof("[%s] stored assistant message %s, %d bytes", c.requestID, assistant.ID, len(assistant.Content))
	c.finish(emit, newDoneEvent(assistant))
	return nil
}

func (c *Completion) finish(emit func(StreamEvent) error, event StreamEvent) {
	if err := emit(event); err != nil {
		logger.Warnf("[%s] write %s event failed, %s", c.requestID, event.Type, err)
	}
}

// saveAssistant runs detached from ctx so a disconnect after the last chunk does
// not lose the turn.
func (c *Completion) saveAssistant(ctx context.Context, content string, usage provider.Usage, interrupted bool) (model.Message, error) {
	ctx = context.WithoutCancel(ctx)
	msg, err := c.store.CreateMessage(ctx, model.Message{
		ChatRoomID:   c.room.ID,
		Role:         model.RoleAssistant,
		Content:      content,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Interrupted:  interrupted,
	})
	if err != nil {
		return model.Message{}, persistenceError("store assistant message", err)
	}
	// the turn is stored, a stale updated_at only affects list order
	if err := c.store.TouchChatRoom(ctx, c.room.ID); err != nil {
		logger.Warnf("[%s] %s", c.requestID, persistenceError("touch chat room", err))
	}
	return msg, nil
}

func (c *Completion) saveInterrupted(ctx context.Context, content string, usage provider.Usage) {
	if content == "" {
		logger.Infof("[%s] caller left before any output", c.requestID)
		return
	}
	msg, err := c.saveAssistant(ctx, content, usage, true)
	if err != nil {
		logger.Warnf("[%s] %s", c.requestID, err)
		return
	}
	logger.Infof("[%s] caller left, stored interrupted message %s", c.requestID, msg.ID)
}
