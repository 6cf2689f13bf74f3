package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

type Notice struct {
	ID        string
	Level     NoticeLevel
	Message   string
	CreatedAt time.Time
}

// NotificationUseCase keeps the visible, non-blocking notices. Oldest notices
// are dropped once the limit is reached.
type NotificationUseCase struct {
	mu        sync.Mutex
	notices   []Notice
	limit     int
	listeners listeners
}

func NewNotificationUseCase(limit int) *NotificationUseCase {
	if limit <= 0 {
		limit = 5
	}
	return &NotificationUseCase{limit: limit}
}

func (uc *NotificationUseCase) Push(level NoticeLevel, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	uc.mu.Lock()
	uc.notices = append(uc.notices, n)
	if len(uc.notices) > uc.limit {
		uc.notices = append([]Notice(nil), uc.notices[len(uc.notices)-uc.limit:]...)
	}
	uc.mu.Unlock()

	uc.listeners.emit()
	return n
}

func (uc *NotificationUseCase) Info(message string) Notice {
	return uc.Push(NoticeInfo, message)
}

func (uc *NotificationUseCase) Error(message string) Notice {
	return uc.Push(NoticeError, message)
}

func (uc *NotificationUseCase) Dismiss(id string) bool {
	uc.mu.Lock()
	found := false
	for i, n := range uc.notices {
		if n.ID == id {
			uc.notices = append(uc.notices[:i:i], uc.notices[i+1:]...)
			found = true
			break
		}
	}
	uc.mu.Unlock()

	if found {
		uc.listeners.emit()
	}
	return found
}

// DismissOldest removes the oldest notice, if any.
func (uc *NotificationUseCase) DismissOldest() bool {
	uc.mu.Lock()
	if len(uc.notices) == 0 {
		uc.mu.Unlock()
		return false
	}
	uc.notices = append([]Notice(nil), uc.notices[1:]...)
	uc.mu.Unlock()

	uc.listeners.emit()
	return true
}

func (uc *NotificationUseCase) List() []Notice {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]Notice(nil), uc.notices...)
}

func (uc *NotificationUseCase) Subscribe(fn func()) func() {
	return uc.listeners.add(fn)
}
