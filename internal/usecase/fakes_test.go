package usecase

import (
	"context"
	"fmt"
	"sync"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/pkg/errors"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	loginURL    string
	oauth       func(code, state string) (*entity.Identity, error)
	createPost  func(userID string, t entity.PostType, content string) (*entity.Post, error)
	findMatches func(q repository.MatchQuery) (*repository.MatchResult, error)
	listRooms   func(userID string) ([]entity.ChatRoom, error)
	getRoom     func(roomID string) (*entity.RoomDetail, error)
	createRoom  func(in repository.CreateRoomInput) (*entity.ChatRoom, error)
	sendMessage func(in repository.SendMessageInput) (string, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:    make(map[string]int),
		loginURL: "http://localhost:8080/auth/facebook",
	}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) LoginURL() string { return f.loginURL }

func (f *fakeBackend) CompleteOAuth(ctx context.Context, code, state string) (*entity.Identity, error) {
	f.record("CompleteOAuth")
	if f.oauth == nil {
		return &entity.Identity{ID: "u1", Username: "lan"}, nil
	}
	return f.oauth(code, state)
}

func (f *fakeBackend) CreatePost(ctx context.Context, userID string, t entity.PostType, content string) (*entity.Post, error) {
	f.record("CreatePost")
	if f.createPost == nil {
		return &entity.Post{ID: "post-new", UserID: userID, Type: t, Content: content}, nil
	}
	return f.createPost(userID, t, content)
}

func (f *fakeBackend) FindMatches(ctx context.Context, q repository.MatchQuery) (*repository.MatchResult, error) {
	f.record("FindMatches")
	if f.findMatches == nil {
		return &repository.MatchResult{Matches: []entity.MatchCandidate{}}, nil
	}
	return f.findMatches(q)
}

func (f *fakeBackend) ListRooms(ctx context.Context, userID string) ([]entity.ChatRoom, error) {
	f.record("ListRooms")
	if f.listRooms == nil {
		return []entity.ChatRoom{}, nil
	}
	return f.listRooms(userID)
}

func (f *fakeBackend) GetRoom(ctx context.Context, roomID string) (*entity.RoomDetail, error) {
	f.record("GetRoom")
	if f.getRoom == nil {
		return roomDetail(roomID), nil
	}
	return f.getRoom(roomID)
}

func (f *fakeBackend) CreateRoom(ctx context.Context, in repository.CreateRoomInput) (*entity.ChatRoom, error) {
	f.record("CreateRoom")
	if f.createRoom == nil {
		return &entity.ChatRoom{ID: "room-" + in.PostID, BuyerID: in.BuyerID, SellerID: in.SellerID, PostID: in.PostID}, nil
	}
	return f.createRoom(in)
}

func (f *fakeBackend) SendMessage(ctx context.Context, in repository.SendMessageInput) (string, error) {
	f.record("SendMessage")
	if f.sendMessage == nil {
		return fmt.Sprintf("srv-%d", f.count("SendMessage")), nil
	}
	return f.sendMessage(in)
}

func roomDetail(roomID string, msgs ...entity.Message) *entity.RoomDetail {
	return &entity.RoomDetail{
		ChatRoom: entity.ChatRoom{ID: roomID, Title: "Room " + roomID},
		Messages: msgs,
	}
}

var errBackendDown = errors.Backend(500, "Database error", []byte(`{"error":"Database error"}`))

type memoryStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	setErr    error
	deleteErr error
	deletes   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes++
	delete(s.data, key)
	return nil
}

type recordingOpener struct {
	opened []string
	err    error
}

func (o *recordingOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

type fixedIdentity struct {
	mu       sync.Mutex
	identity *entity.Identity
}

func (f *fixedIdentity) Current() *entity.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identity == nil {
		return nil
	}
	i := *f.identity
	return &i
}

type countingNavigator struct {
	mu        sync.Mutex
	redirects int
}

func (n *countingNavigator) RedirectToEntry() {
	n.mu.Lock()
	n.redirects++
	n.mu.Unlock()
}

func (n *countingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirects
}
