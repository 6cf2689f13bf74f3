package usecase

import (
	"context"
	"strings"
	"sync"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
)

// RoomUseCase is the registry of the user's chat rooms and of which one is
// active. A room appears at most once and the active room is always listed.
type RoomUseCase struct {
	backend  repository.ChatRepository
	messages *MessageUseCase
	notifier *NotificationUseCase

	mu        sync.Mutex
	rooms     []entity.ChatRoom
	activeID  string
	detail    *entity.RoomDetail
	requested string
	loadSeq   uint64
	listeners listeners
}

func NewRoomUseCase(
	backend repository.ChatRepository,
	messages *MessageUseCase,
	notifier *NotificationUseCase,
) *RoomUseCase {
	return &RoomUseCase{
		backend:  backend,
		messages: messages,
		notifier: notifier,
	}
}

// LoadRooms replaces the list with the rooms of identity. On failure the
// previous list is kept.
func (uc *RoomUseCase) LoadRooms(ctx context.Context, identity entity.Identity) error {
	if identity.ID == "" {
		return errors.Unauthorized("Sign in to load chat rooms", nil)
	}

	uc.mu.Lock()
	uc.loadSeq++
	seq := uc.loadSeq
	uc.mu.Unlock()

	rooms, err := uc.backend.ListRooms(ctx, identity.ID)

	uc.mu.Lock()
	if seq != uc.loadSeq {
		uc.mu.Unlock()
		return nil
	}
	if err != nil {
		uc.mu.Unlock()
		logger.Error("LoadRooms Error: user %s: %v", identity.ID, err)
		uc.notifier.Error("Failed to load chat rooms")
		return err
	}

	fresh := dedupeRooms(rooms)
	if uc.activeID != "" && indexRoom(fresh, uc.activeID) < 0 {
		if i := indexRoom(uc.rooms, uc.activeID); i >= 0 {
			fresh = append(fresh, uc.rooms[i])
		}
	}
	uc.rooms = fresh
	uc.mu.Unlock()

	uc.listeners.emit()
	return nil
}

// Activate makes roomID the active room once its details arrive. If another
// room was requested meanwhile, the response is dropped.
func (uc *RoomUseCase) Activate(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return errors.Validation("Room ID is required", nil)
	}

	uc.mu.Lock()
	uc.requested = roomID
	uc.mu.Unlock()
	uc.listeners.emit()

	detail, err := uc.backend.GetRoom(ctx, roomID)

	uc.mu.Lock()
	if uc.requested != roomID {
		uc.mu.Unlock()
		return nil
	}
	uc.requested = ""
	if err != nil {
		uc.mu.Unlock()
		logger.Error("ActivateRoom Error: room %s: %v", roomID, err)
		uc.notifier.Error("Failed to load chat room")
		uc.listeners.emit()
		return err
	}

	room := detail.ChatRoom
	room.ID = roomID
	if i := indexRoom(uc.rooms, roomID); i >= 0 {
		uc.rooms[i] = mergeRoom(uc.rooms[i], room)
	} else {
		uc.rooms = append([]entity.ChatRoom{room}, uc.rooms...)
	}
	uc.activeID = roomID
	uc.detail = detail
	uc.messages.swap(roomID, detail.Messages)
	uc.mu.Unlock()

	uc.messages.listeners.emit()
	uc.listeners.emit()
	return nil
}

// Upsert adds room unless a room with the same id is already listed.
func (uc *RoomUseCase) Upsert(room entity.ChatRoom) bool {
	if room.ID == "" {
		return false
	}

	uc.mu.Lock()
	if indexRoom(uc.rooms, room.ID) >= 0 {
		uc.mu.Unlock()
		return false
	}
	uc.rooms = append([]entity.ChatRoom{room}, uc.rooms...)
	uc.mu.Unlock()

	uc.listeners.emit()
	return true
}

// Reset forgets every room, e.g. after logout.
func (uc *RoomUseCase) Reset() {
	uc.mu.Lock()
	uc.rooms = nil
	uc.activeID = ""
	uc.detail = nil
	uc.requested = ""
	uc.loadSeq++
	uc.mu.Unlock()

	uc.messages.Reset("", nil)
	uc.listeners.emit()
}

func (uc *RoomUseCase) Rooms() []entity.ChatRoom {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]entity.ChatRoom(nil), uc.rooms...)
}

// Active returns the active room, or nil.
func (uc *RoomUseCase) Active() *entity.ChatRoom {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	i := indexRoom(uc.rooms, uc.activeID)
	if i < 0 {
		return nil
	}
	room := uc.rooms[i]
	return &room
}

// ActiveDetail returns the participants and post of the active room as last
// fetched, or nil.
func (uc *RoomUseCase) ActiveDetail() *entity.RoomDetail {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.detail == nil {
		return nil
	}
	d := *uc.detail
	d.Messages = nil
	return &d
}

// Activating returns the room id whose details are still being fetched.
func (uc *RoomUseCase) Activating() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.requested
}

func (uc *RoomUseCase) Subscribe(fn func()) func() {
	return uc.listeners.add(fn)
}

func dedupeRooms(rooms []entity.ChatRoom) []entity.ChatRoom {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]entity.ChatRoom, 0, len(rooms))
	for _, room := range rooms {
		if room.ID == "" {
			continue
		}
		if _, ok := seen[room.ID]; ok {
			continue
		}
		seen[room.ID] = struct{}{}
		out = append(out, room)
	}
	return out
}

func indexRoom(rooms []entity.ChatRoom, id string) int {
	if id == "" {
		return -1
	}
	for i := range rooms {
		if rooms[i].ID == id {
			return i
		}
	}
	return -1
}

// mergeRoom fills the gaps of listed with what the room details carry.
func mergeRoom(listed, fetched entity.ChatRoom) entity.ChatRoom {
	if listed.Title == "" {
		listed.Title = fetched.Title
	}
	if listed.Type == "" {
		listed.Type = fetched.Type
	}
	if listed.BuyerID == "" {
		listed.BuyerID = fetched.BuyerID
	}
	if listed.SellerID == "" {
		listed.SellerID = fetched.SellerID
	}
	if listed.PostID == "" {
		listed.PostID = fetched.PostID
	}
	if listed.Post == nil {
		listed.Post = fetched.Post
	}
	return listed
}
