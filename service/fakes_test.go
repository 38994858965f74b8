package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"relaychat/model"
	"relaychat/provider"
)

// callLog records calls across the store and adapter doubles so tests can check ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeStore struct {
	log      *callLog
	mu       sync.Mutex
	seq      int
	clock    time.Time
	rooms    map[string]model.ChatRoom
	messages []model.Message

	failCreateMessage error
	failTouch         error
}

func newFakeStore(log *callLog) *fakeStore {
	return &fakeStore{
		log:   log,
		clock: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		rooms: map[string]model.ChatRoom{},
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) CreateChatRoom(ctx context.Context, room model.ChatRoom) (model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.CreateChatRoom")
	room.ID = s.nextID("room")
	room.CreatedAt = s.tick()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	return room, nil
}

func (s *fakeStore) GetChatRoom(ctx context.Context, id string) (model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.GetChatRoom")
	room, ok := s.rooms[id]
	if !ok {
		return model.ChatRoom{}, model.ErrNotFound
	}
	return room, nil
}

func (s *fakeStore) ListChatRooms(ctx context.Context) ([]model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]model.ChatRoom, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func (s *fakeStore) TouchChatRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.TouchChatRoom")
	if s.failTouch != nil {
		return s.failTouch
	}
	room, ok := s.rooms[id]
	if !ok {
		return model.ErrNotFound
	}
	room.UpdatedAt = s.tick()
	s.rooms[id] = room
	return nil
}

func (s *fakeStore) CreateMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.CreateMessage:" + string(msg.Role))
	if s.failCreateMessage != nil {
		return model.Message{}, s.failCreateMessage
	}
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}
	msg.ID = s.nextID("msg")
	msg.CreatedAt = s.tick()
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, chatRoomID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.ListMessages")
	var out []model.Message
	for _, m := range s.messages {
		if m.ChatRoomID == chatRoomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateChatRoomTitle(ctx context.Context, id, title string) (model.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.UpdateChatRoomTitle")
	room, ok := s.rooms[id]
	if !ok {
		return model.ChatRoom{}, model.ErrNotFound
	}
	room.Title = title
	room.UpdatedAt = s.tick()
	s.rooms[id] = room
	return room, nil
}

func (s *fakeStore) DeleteChatRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.add("store.DeleteChatRoom")
	if _, ok := s.rooms[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.rooms, id)
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ChatRoomID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *fakeStore) messagesByRole(role model.Role) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// fakeAdapter replays a scripted sequence of provider events.
type fakeAdapter struct {
	kind     provider.Kind
	log      *callLog
	events   []provider.Event
	requests []provider.Request
	// afterEach runs after each yielded event, e.g. to cancel the context
	afterEach func(i int)
}

func (a *fakeAdapter) Kind() provider.Kind { return a.kind }

func (a *fakeAdapter) ListModels(ctx context.Context) ([]string, error) {
	a.log.add("adapter.ListModels")
	return []string{"model-a"}, nil
}

func (a *fakeAdapter) StartCompletion(ctx context.Context, req provider.Request) iter.Seq[provider.Event] {
	return func(yield func(provider.Event) bool) {
		a.log.add("adapter.StartCompletion")
		a.requests = append(a.requests, req)
		for i, e := range a.events {
			if err := ctx.Err(); err != nil {
				yield(provider.Event{Type: provider.EventError, Err: err})
				return
			}
			if !yield(e) {
				return
			}
			if a.afterEach != nil {
				a.afterEach(i)
			}
		}
	}
}

func chunk(text string) provider.Event {
	return provider.Event{Type: provider.EventChunk, Text: text}
}

func usage(in, out int64) provider.Event {
	return provider.Event{Type: provider.EventUsage, Usage: provider.Usage{InputTokens: &in, OutputTokens: &out}}
}

func done() provider.Event { return provider.Event{Type: provider.EventDone} }

func failure(msg string) provider.Event {
	return provider.Event{Type: provider.EventError, Err: errors.New(msg)}
}

// recorder collects emitted events and fails the test if anything follows a terminal event.
type recorder struct {
	events        []StreamEvent
	afterTerminal int
	failAt        int
}

func newRecorder() *recorder { return &recorder{failAt: -1} }

func (r *recorder) emit(e StreamEvent) error {
	if len(r.events) > 0 && r.events[len(r.events)-1].Terminal() {
		r.afterTerminal++
	}
	if r.failAt >= 0 && len(r.events) >= r.failAt {
		return errors.New("broken pipe")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) terminals() []StreamEvent {
	var out []StreamEvent
	for _, e := range r.events {
		if e.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) text() string {
	var s string
	for _, e := range r.events {
		if e.Type == StreamChunk {
			s += e.Text
		}
	}
	return s
}
