package usecase

import (
	"context"
	"sync"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/pkg/logger"
)

type Screen string

const (
	ScreenLoading Screen = "loading"
	ScreenEntry   Screen = "entry"
	ScreenChat    Screen = "chat"
)

type Overlay string

const (
	OverlayNone         Overlay = "none"
	OverlayMatchResults Overlay = "match-results"
)

// MessageRow is a message as displayed. Mine is derived from the current
// identity each time the state is built.
type MessageRow struct {
	entity.Message
	Mine bool
}

type ViewState struct {
	Screen       Screen
	Overlay      Overlay
	Identity     *entity.Identity
	Rooms        []entity.ChatRoom
	ActiveRoom   *entity.ChatRoom
	ActiveDetail *entity.RoomDetail
	ActivatingID string
	Messages     []MessageRow
	MatchState   MatchState
	Query        string
	Candidates   []entity.MatchCandidate
	TotalMatches int
	Busy         map[string]bool
	Notices      []Notice
}

// ViewUseCase composes the other usecases into what the screen shows and
// moves between the entry and chat screens as the session changes.
type ViewUseCase struct {
	session  *SessionUseCase
	rooms    *RoomUseCase
	messages *MessageUseCase
	matching *MatchingUseCase
	notifier *NotificationUseCase

	mu        sync.Mutex
	screen    Screen
	run       func(func())
	ctx       context.Context
	unsubs    []func()
	listeners listeners
}

func NewViewUseCase(
	ctx context.Context,
	session *SessionUseCase,
	rooms *RoomUseCase,
	messages *MessageUseCase,
	matching *MatchingUseCase,
	notifier *NotificationUseCase,
) *ViewUseCase {
	v := &ViewUseCase{
		session:  session,
		rooms:    rooms,
		messages: messages,
		matching: matching,
		notifier: notifier,
		screen:   ScreenLoading,
		run:      func(f func()) { go f() },
		ctx:      ctx,
	}
	matching.SetNavigator(v)

	v.unsubs = append(v.unsubs,
		session.Subscribe(v.onSessionChange),
		rooms.Subscribe(v.listeners.emit),
		messages.Subscribe(v.listeners.emit),
		matching.Subscribe(v.listeners.emit),
		notifier.Subscribe(v.listeners.emit),
	)
	v.onSessionChange()
	return v
}

// SetRunner replaces how background work (the room load after sign-in) is
// started. The default runs it in a new goroutine.
func (v *ViewUseCase) SetRunner(run func(func())) {
	v.mu.Lock()
	v.run = run
	v.mu.Unlock()
}

func (v *ViewUseCase) onSessionChange() {
	identity := v.session.Current()
	loading := v.session.Loading()

	v.mu.Lock()
	prev := v.screen
	var leftProtected, entered bool
	switch {
	case loading:
		v.screen = ScreenLoading
	case identity == nil:
		v.screen = ScreenEntry
		// a redirect may already have moved us off the chat screen
		leftProtected = prev != ScreenLoading
	default:
		if prev != ScreenChat {
			v.screen = ScreenChat
			entered = true
		}
	}
	run := v.run
	ctx := v.ctx
	v.mu.Unlock()

	if leftProtected {
		v.matching.Reset()
		v.rooms.Reset()
	}
	if entered {
		id := *identity
		run(func() {
			if err := v.rooms.LoadRooms(ctx, id); err != nil {
				logger.Warn("LoadRooms after sign-in failed: %v", err)
			}
		})
	}
	v.listeners.emit()
}

// RedirectToEntry shows the entry screen, used when an action needs a
// signed-in user.
func (v *ViewUseCase) RedirectToEntry() {
	v.mu.Lock()
	changed := v.screen != ScreenEntry
	v.screen = ScreenEntry
	v.mu.Unlock()

	if changed {
		v.listeners.emit()
	}
}

func (v *ViewUseCase) Screen() Screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.screen
}

// State builds a snapshot of everything on screen.
func (v *ViewUseCase) State() ViewState {
	identity := v.session.Current()

	state := ViewState{
		Screen:       v.Screen(),
		Overlay:      OverlayNone,
		Identity:     identity,
		Rooms:        v.rooms.Rooms(),
		ActiveRoom:   v.rooms.Active(),
		ActiveDetail: v.rooms.ActiveDetail(),
		ActivatingID: v.rooms.Activating(),
		MatchState:   v.matching.State(),
		Query:        v.matching.Query(),
		Candidates:   v.matching.Candidates(),
		TotalMatches: v.matching.Total(),
		Busy:         make(map[string]bool),
		Notices:      v.notifier.List(),
	}
	if state.MatchState != MatchIdle {
		state.Overlay = OverlayMatchResults
	}
	for _, id := range v.matching.BusyIDs() {
		state.Busy[id] = true
	}

	msgs := v.messages.Messages()
	state.Messages = make([]MessageRow, 0, len(msgs))
	for _, m := range msgs {
		state.Messages = append(state.Messages, MessageRow{
			Message: m,
			Mine:    identity != nil && m.SenderID == identity.ID,
		})
	}
	return state
}

func (v *ViewUseCase) Subscribe(fn func()) func() {
	return v.listeners.add(fn)
}

// Close detaches from the other usecases.
func (v *ViewUseCase) Close() {
	v.mu.Lock()
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}
