package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbuysell/internal/domain/entity"
)

type roomFixture struct {
	backend  *fakeBackend
	notifier *NotificationUseCase
	messages *MessageUseCase
	rooms    *RoomUseCase
}

func newRoomFixture() *roomFixture {
	backend := newFakeBackend()
	notifier := NewNotificationUseCase(10)
	messages := NewMessageUseCase(backend, notifier, nil, MarkFailedOnFailure)
	return &roomFixture{
		backend:  backend,
		notifier: notifier,
		messages: messages,
		rooms:    NewRoomUseCase(backend, messages, notifier),
	}
}

func roomIDs(rooms []entity.ChatRoom) []string {
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}

var me = entity.Identity{ID: "u1", Username: "lan", Type: entity.IdentityBuyer}

func TestLoadRooms_ReplacesAndDedupes(t *testing.T) {
	f := newRoomFixture()
	f.backend.listRooms = func(userID string) ([]entity.ChatRoom, error) {
		assert.Equal(t, "u1", userID)
		return []entity.ChatRoom{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}}, nil
	}

	require.NoError(t, f.rooms.LoadRooms(context.Background(), me))
	assert.Equal(t, []string{"a", "b", "c"}, roomIDs(f.rooms.Rooms()))

	f.backend.listRooms = func(string) ([]entity.ChatRoom, error) {
		return []entity.ChatRoom{{ID: "d"}}, nil
	}
	require.NoError(t, f.rooms.LoadRooms(context.Background(), me))
	assert.Equal(t, []string{"d"}, roomIDs(f.rooms.Rooms()))
}

func TestLoadRooms_FailureKeepsPreviousList(t *testing.T) {
	f := newRoomFixture()
	f.backend.listRooms = func(string) ([]entity.ChatRoom, error) {
		return []entity.ChatRoom{{ID: "a"}, {ID: "b"}}, nil
	}
	require.NoError(t, f.rooms.LoadRooms(context.Background(), me))

	f.backend.listRooms = func(string) ([]entity.ChatRoom, error) {
		return nil, errBackendDown
	}
	err := f.rooms.LoadRooms(context.Background(), me)
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, roomIDs(f.rooms.Rooms()))

	notices := f.notifier.List()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
}

func TestLoadRooms_KeepsActiveRoomListed(t *testing.T) {
	f := newRoomFixture()
	require.NoError(t, f.rooms.Activate(context.Background(), "x"))

	f.backend.listRooms = func(string) ([]entity.ChatRoom, error) {
		return []entity.ChatRoom{{ID: "a"}}, nil
	}
	require.NoError(t, f.rooms.LoadRooms(context.Background(), me))

	assert.Equal(t, []string{"a", "x"}, roomIDs(f.rooms.Rooms()))
	require.NotNil(t, f.rooms.Active())
	assert.Equal(t, "x", f.rooms.Active().ID)
}

func TestActivate_ResetsMessagesAndUpserts(t *testing.T) {
	f := newRoomFixture()
	f.backend.getRoom = func(roomID string) (*entity.RoomDetail, error) {
		return roomDetail(roomID,
			entity.Message{ID: "m1", RoomID: roomID, SenderID: "u1", Content: "hi"},
			entity.Message{ID: "m2", RoomID: roomID, SenderID: "u2", Content: "hello"},
		), nil
	}

	require.NoError(t, f.rooms.Activate(context.Background(), "r1"))

	active := f.rooms.Active()
	require.NotNil(t, active)
	assert.Equal(t, "r1", active.ID)
	assert.Equal(t, []string{"r1"}, roomIDs(f.rooms.Rooms()))
	assert.Equal(t, "r1", f.messages.RoomID())
	msgs := f.messages.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Empty(t, f.rooms.Activating())
}

func TestActivate_LastRequestWins(t *testing.T) {
	f := newRoomFixture()
	gates := map[string]chan struct{}{
		"A": make(chan struct{}),
		"B": make(chan struct{}),
	}
	f.backend.getRoom = func(roomID string) (*entity.RoomDetail, error) {
		<-gates[roomID]
		return roomDetail(roomID, entity.Message{ID: "m-" + roomID, RoomID: roomID}), nil
	}

	errA := make(chan error, 1)
	go func() { errA <- f.rooms.Activate(context.Background(), "A") }()
	require.Eventually(t, func() bool { return f.rooms.Activating() == "A" }, time.Second, time.Millisecond)

	errB := make(chan error, 1)
	go func() { errB <- f.rooms.Activate(context.Background(), "B") }()
	require.Eventually(t, func() bool { return f.rooms.Activating() == "B" }, time.Second, time.Millisecond)

	close(gates["B"])
	require.NoError(t, <-errB)
	close(gates["A"])
	require.NoError(t, <-errA)

	require.NotNil(t, f.rooms.Active())
	assert.Equal(t, "B", f.rooms.Active().ID)
	assert.Equal(t, "B", f.messages.RoomID())
	require.Len(t, f.messages.Messages(), 1)
	assert.Equal(t, "m-B", f.messages.Messages()[0].ID)
}

func TestActivate_FailureKeepsPreviousActive(t *testing.T) {
	f := newRoomFixture()
	require.NoError(t, f.rooms.Activate(context.Background(), "r1"))

	f.backend.getRoom = func(string) (*entity.RoomDetail, error) {
		return nil, errBackendDown
	}
	require.Error(t, f.rooms.Activate(context.Background(), "r2"))

	assert.Equal(t, "r1", f.rooms.Active().ID)
	assert.Equal(t, "r1", f.messages.RoomID())
	assert.Empty(t, f.rooms.Activating())
	assert.Equal(t, []string{"r1"}, roomIDs(f.rooms.Rooms()))
	assert.Len(t, f.notifier.List(), 1)
}

func TestActivate_SupersededFailureIsSilent(t *testing.T) {
	f := newRoomFixture()
	gate := make(chan struct{})
	f.backend.getRoom = func(roomID string) (*entity.RoomDetail, error) {
		if roomID == "A" {
			<-gate
			return nil, errBackendDown
		}
		return roomDetail(roomID), nil
	}

	errA := make(chan error, 1)
	go func() { errA <- f.rooms.Activate(context.Background(), "A") }()
	require.Eventually(t, func() bool { return f.rooms.Activating() == "A" }, time.Second, time.Millisecond)

	require.NoError(t, f.rooms.Activate(context.Background(), "B"))
	close(gate)
	require.NoError(t, <-errA)

	assert.Equal(t, "B", f.rooms.Active().ID)
	assert.Empty(t, f.notifier.List())
}

func TestUpsert_Idempotent(t *testing.T) {
	f := newRoomFixture()

	assert.True(t, f.rooms.Upsert(entity.ChatRoom{ID: "a"}))
	assert.False(t, f.rooms.Upsert(entity.ChatRoom{ID: "a"}))
	assert.True(t, f.rooms.Upsert(entity.ChatRoom{ID: "b"}))
	assert.False(t, f.rooms.Upsert(entity.ChatRoom{}))

	assert.Equal(t, []string{"b", "a"}, roomIDs(f.rooms.Rooms()))
}

func TestActivate_ExistingRoomIsNotDuplicated(t *testing.T) {
	f := newRoomFixture()
	f.rooms.Upsert(entity.ChatRoom{ID: "a", LastMessage: "see you"})

	require.NoError(t, f.rooms.Activate(context.Background(), "a"))

	rooms := f.rooms.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "see you", rooms[0].LastMessage)
	assert.Equal(t, "Room a", rooms[0].Title)
}

func TestRoomReset(t *testing.T) {
	f := newRoomFixture()
	require.NoError(t, f.rooms.Activate(context.Background(), "a"))

	f.rooms.Reset()

	assert.Empty(t, f.rooms.Rooms())
	assert.Nil(t, f.rooms.Active())
	assert.Empty(t, f.messages.RoomID())
	assert.Empty(t, f.messages.Messages())
}

func TestLoadRooms_RequiresIdentity(t *testing.T) {
	f := newRoomFixture()

	require.Error(t, f.rooms.LoadRooms(context.Background(), entity.Identity{}))
	assert.Equal(t, 0, f.backend.total())
}
