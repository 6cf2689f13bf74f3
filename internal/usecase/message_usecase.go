package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/internal/infrastructure/ratelimit"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
)

// SendFailurePolicy decides what happens to an optimistic message whose send
// was rejected.
type SendFailurePolicy string

const (
	// RetainOnFailure leaves the message in the list as if it had been sent.
	RetainOnFailure SendFailurePolicy = "retain"
	// MarkFailedOnFailure flags the message as failed so it can be retried.
	MarkFailedOnFailure SendFailurePolicy = "mark-failed"
)

func ParseSendFailurePolicy(s string) SendFailurePolicy {
	if SendFailurePolicy(s) == RetainOnFailure {
		return RetainOnFailure
	}
	return MarkFailedOnFailure
}

// MessageUseCase holds the message history of the active room.
type MessageUseCase struct {
	backend  repository.ChatRepository
	notifier *NotificationUseCase
	limiter  *ratelimit.RateLimiter
	policy   SendFailurePolicy
	now      func() time.Time

	mu       sync.Mutex
	roomID   string
	messages []entity.Message
	// bumped on every replacement so late history responses are dropped
	seq       uint64
	listeners listeners
}

func NewMessageUseCase(
	backend repository.ChatRepository,
	notifier *NotificationUseCase,
	limiter *ratelimit.RateLimiter,
	policy SendFailurePolicy,
) *MessageUseCase {
	if policy == "" {
		policy = MarkFailedOnFailure
	}
	return &MessageUseCase{
		backend:  backend,
		notifier: notifier,
		limiter:  limiter,
		policy:   policy,
		now:      time.Now,
	}
}

// LoadHistory replaces the list with the history of roomID. A response is
// applied only if no other history was loaded or reset in the meantime.
func (uc *MessageUseCase) LoadHistory(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return errors.Validation("Room ID is required", nil)
	}

	uc.mu.Lock()
	uc.seq++
	seq := uc.seq
	uc.mu.Unlock()

	detail, err := uc.backend.GetRoom(ctx, roomID)

	uc.mu.Lock()
	if seq != uc.seq {
		uc.mu.Unlock()
		return nil
	}
	if err != nil {
		uc.mu.Unlock()
		logger.Error("LoadHistory Error: room %s: %v", roomID, err)
		uc.notifier.Error("Failed to load messages")
		return err
	}
	uc.replaceLocked(roomID, detail.Messages)
	uc.mu.Unlock()

	uc.listeners.emit()
	return nil
}

// Reset swaps the whole history, e.g. when another room becomes active.
func (uc *MessageUseCase) Reset(roomID string, messages []entity.Message) {
	uc.swap(roomID, messages)
	uc.listeners.emit()
}

// swap replaces the history without notifying, for callers that hold their
// own lock and notify afterwards.
func (uc *MessageUseCase) swap(roomID string, messages []entity.Message) {
	uc.mu.Lock()
	uc.seq++
	uc.replaceLocked(roomID, messages)
	uc.mu.Unlock()
}

func (uc *MessageUseCase) replaceLocked(roomID string, messages []entity.Message) {
	uc.roomID = roomID
	uc.messages = append([]entity.Message(nil), messages...)
}

// SendOptimistic appends the message immediately under a local id and then
// sends it. On success the local entry takes the server id; on failure the
// configured policy applies.
func (uc *MessageUseCase) SendOptimistic(ctx context.Context, content, senderID string) (entity.Message, error) {
	if strings.TrimSpace(content) == "" {
		return entity.Message{}, errors.Validation("Message content is required", nil)
	}
	if senderID == "" {
		return entity.Message{}, errors.Unauthorized("Sign in to send messages", nil)
	}

	uc.mu.Lock()
	if uc.roomID == "" {
		uc.mu.Unlock()
		return entity.Message{}, errors.Validation("No active room", nil)
	}
	local := entity.Message{
		ID:        entity.LocalIDPrefix + uuid.NewString(),
		RoomID:    uc.roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: uc.now(),
		Status:    entity.MessagePending,
	}
	uc.messages = append(uc.messages, local)
	uc.mu.Unlock()

	if allowed, wait := uc.limiter.Allow(senderID, ratelimit.ActionSendMessage); !allowed {
		// never left the client, so it stays retryable whatever the policy
		logger.Warn("SendMessage Rate Limited: user %s must wait %v", senderID, wait)
		uc.setStatus(local.ID, entity.MessageFailed)
		local.Status = entity.MessageFailed
		uc.notifier.Error("You are sending messages too quickly. Please slow down.")
		return local, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	uc.listeners.emit()
	return uc.dispatch(ctx, local)
}

// Retry resends a message previously marked failed.
func (uc *MessageUseCase) Retry(ctx context.Context, messageID string) (entity.Message, error) {
	uc.mu.Lock()
	idx := uc.indexLocked(messageID)
	if idx < 0 {
		uc.mu.Unlock()
		return entity.Message{}, errors.NotFound("Message", nil)
	}
	if uc.messages[idx].Status != entity.MessageFailed {
		uc.mu.Unlock()
		return entity.Message{}, errors.Conflict("Only failed messages can be retried")
	}
	uc.messages[idx].Status = entity.MessagePending
	msg := uc.messages[idx]
	uc.mu.Unlock()

	if allowed, _ := uc.limiter.Allow(msg.SenderID, ratelimit.ActionSendMessage); !allowed {
		uc.setStatus(msg.ID, entity.MessageFailed)
		msg.Status = entity.MessageFailed
		uc.notifier.Error("You are sending messages too quickly. Please slow down.")
		return msg, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	uc.listeners.emit()
	return uc.dispatch(ctx, msg)
}

func (uc *MessageUseCase) dispatch(ctx context.Context, msg entity.Message) (entity.Message, error) {
	serverID, err := uc.backend.SendMessage(ctx, repository.SendMessageInput{
		RoomID:   msg.RoomID,
		SenderID: msg.SenderID,
		Content:  msg.Content,
	})

	uc.mu.Lock()
	idx := uc.indexLocked(msg.ID)
	if err != nil {
		status := entity.MessageFailed
		if uc.policy == RetainOnFailure {
			status = entity.MessageSent
		}
		if idx >= 0 {
			uc.messages[idx].Status = status
		}
		msg.Status = status
		uc.mu.Unlock()

		logger.Error("SendMessage Error: room %s: %v", msg.RoomID, err)
		uc.notifier.Error("Failed to send message")
		uc.listeners.emit()
		return msg, err
	}

	msg.ID = serverID
	msg.Status = entity.MessageSent
	if idx >= 0 {
		// history reloaded while sending may already hold the server copy
		if uc.indexLocked(serverID) >= 0 {
			uc.messages = append(uc.messages[:idx:idx], uc.messages[idx+1:]...)
		} else {
			uc.messages[idx] = msg
		}
	}
	uc.mu.Unlock()

	uc.listeners.emit()
	return msg, nil
}

func (uc *MessageUseCase) setStatus(id string, status entity.MessageStatus) {
	uc.mu.Lock()
	if idx := uc.indexLocked(id); idx >= 0 {
		uc.messages[idx].Status = status
	}
	uc.mu.Unlock()
	uc.listeners.emit()
}

func (uc *MessageUseCase) indexLocked(id string) int {
	for i := range uc.messages {
		if uc.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (uc *MessageUseCase) Messages() []entity.Message {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]entity.Message(nil), uc.messages...)
}

func (uc *MessageUseCase) RoomID() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.roomID
}

func (uc *MessageUseCase) Policy() SendFailurePolicy {
	return uc.policy
}

func (uc *MessageUseCase) Subscribe(fn func()) func() {
	return uc.listeners.add(fn)
}
