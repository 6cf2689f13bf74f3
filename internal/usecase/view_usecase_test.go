package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
)

type viewFixture struct {
	store    *memoryStore
	backend  *fakeBackend
	notifier *NotificationUseCase
	session  *SessionUseCase
	messages *MessageUseCase
	rooms    *RoomUseCase
	matching *MatchingUseCase
	view     *ViewUseCase
}

func newViewFixture(t *testing.T) *viewFixture {
	t.Helper()
	store := newMemoryStore()
	backend := newFakeBackend()
	notifier := NewNotificationUseCase(10)
	session := NewSessionUseCase(store, backend, &recordingOpener{}, "user")
	messages := NewMessageUseCase(backend, notifier, nil, MarkFailedOnFailure)
	rooms := NewRoomUseCase(backend, messages, notifier)
	matching := NewMatchingUseCase(backend, session, rooms, notifier, nil, 10)
	view := NewViewUseCase(context.Background(), session, rooms, messages, matching, notifier)
	view.SetRunner(func(f func()) { f() })
	t.Cleanup(view.Close)

	return &viewFixture{
		store:    store,
		backend:  backend,
		notifier: notifier,
		session:  session,
		messages: messages,
		rooms:    rooms,
		matching: matching,
		view:     view,
	}
}

func TestView_LoadingThenEntry(t *testing.T) {
	f := newViewFixture(t)
	assert.Equal(t, ScreenLoading, f.view.Screen())

	require.NoError(t, f.session.Restore(context.Background()))
	assert.Equal(t, ScreenEntry, f.view.Screen())
	assert.Equal(t, 0, f.backend.count("ListRooms"))
}

func TestView_RestoredSessionOpensChat(t *testing.T) {
	f := newViewFixture(t)
	f.store.data["user"] = []byte(`{"id":"u1","username":"lan"}`)
	f.backend.listRooms = func(string) ([]entity.ChatRoom, error) {
		return []entity.ChatRoom{{ID: "a"}, {ID: "b"}}, nil
	}

	require.NoError(t, f.session.Restore(context.Background()))

	assert.Equal(t, ScreenChat, f.view.Screen())
	assert.Equal(t, 1, f.backend.count("ListRooms"))
	assert.Equal(t, []string{"a", "b"}, roomIDs(f.view.State().Rooms))
}

func TestView_LoginFromEntryLoadsRooms(t *testing.T) {
	f := newViewFixture(t)
	require.NoError(t, f.session.Restore(context.Background()))

	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u1"}))

	assert.Equal(t, ScreenChat, f.view.Screen())
	assert.Equal(t, 1, f.backend.count("ListRooms"))
}

func TestView_LogoutReturnsToEntryAndClears(t *testing.T) {
	f := newViewFixture(t)
	require.NoError(t, f.session.Restore(context.Background()))
	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u1"}))
	require.NoError(t, f.rooms.Activate(context.Background(), "r1"))
	f.backend.findMatches = func(repository.MatchQuery) (*repository.MatchResult, error) {
		return matches(sellCandidate("p1", "u2")), nil
	}
	require.NoError(t, f.matching.Search(context.Background(), "iphone"))

	require.NoError(t, f.session.Logout(context.Background()))

	state := f.view.State()
	assert.Equal(t, ScreenEntry, state.Screen)
	assert.Equal(t, OverlayNone, state.Overlay)
	assert.Nil(t, state.Identity)
	assert.Empty(t, state.Rooms)
	assert.Nil(t, state.ActiveRoom)
	assert.Empty(t, state.Messages)
}

func TestView_MineIsDerivedFromCurrentIdentity(t *testing.T) {
	f := newViewFixture(t)
	require.NoError(t, f.session.Restore(context.Background()))
	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u1"}))
	f.backend.getRoom = func(roomID string) (*entity.RoomDetail, error) {
		return roomDetail(roomID,
			entity.Message{ID: "m1", SenderID: "u1", Content: "hi"},
			entity.Message{ID: "m2", SenderID: "u2", Content: "hello"},
		), nil
	}
	require.NoError(t, f.rooms.Activate(context.Background(), "r1"))

	rows := f.view.State().Messages
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Mine)
	assert.False(t, rows[1].Mine)

	// same history seen by the other participant
	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u2"}))
	rows = f.view.State().Messages
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Mine)
	assert.True(t, rows[1].Mine)
}

func TestView_OverlayFollowsMatching(t *testing.T) {
	f := newViewFixture(t)
	require.NoError(t, f.session.Restore(context.Background()))
	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u1"}))
	f.backend.findMatches = func(repository.MatchQuery) (*repository.MatchResult, error) {
		return matches(sellCandidate("p1", "u2")), nil
	}

	require.NoError(t, f.matching.Search(context.Background(), "iphone"))
	state := f.view.State()
	assert.Equal(t, OverlayMatchResults, state.Overlay)
	assert.Len(t, state.Candidates, 1)

	require.NoError(t, f.matching.CloseResults())
	assert.Equal(t, OverlayNone, f.view.State().Overlay)
}

func TestView_AnonymousSelectionRedirects(t *testing.T) {
	f := newViewFixture(t)
	require.NoError(t, f.session.Restore(context.Background()))
	require.NoError(t, f.session.CompleteLogin(context.Background(), entity.Identity{ID: "u1"}))

	f.session.mu.Lock()
	f.session.current = nil
	f.session.mu.Unlock()

	require.Error(t, f.matching.SelectCandidate(context.Background(), sellCandidate("p1", "u2")))
	assert.Equal(t, ScreenEntry, f.view.Screen())
	assert.Equal(t, 0, f.backend.count("CreateRoom"))
}

func TestView_NotifiesSubscribers(t *testing.T) {
	f := newViewFixture(t)
	calls := 0
	unsubscribe := f.view.Subscribe(func() { calls++ })
	defer unsubscribe()

	f.notifier.Info("hello")
	assert.Equal(t, 1, calls)
	assert.Len(t, f.view.State().Notices, 1)
}
