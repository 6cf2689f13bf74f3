package usecase

import (
	"sync"

	"chatbuysell/internal/domain/entity"
)

// Navigator is implemented by whatever owns the current screen.
type Navigator interface {
	RedirectToEntry()
}

// IdentityProvider exposes the signed-in user, nil when anonymous.
type IdentityProvider interface {
	Current() *entity.Identity
}

// listeners is a set of change callbacks. Callbacks are always invoked
// without any usecase lock held.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (l *listeners) add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) emit() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	// registration order
	for i := 0; i < l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
