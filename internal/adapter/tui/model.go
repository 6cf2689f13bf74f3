package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/usecase"
	"chatbuysell/pkg/errors"
)

// Dependencies are the usecases the terminal client drives.
type Dependencies struct {
	Session  *usecase.SessionUseCase
	Rooms    *usecase.RoomUseCase
	Messages *usecase.MessageUseCase
	Matching *usecase.MatchingUseCase
	Notifier *usecase.NotificationUseCase
	View     *usecase.ViewUseCase
}

// Focus is the region of the chat screen that receives keys.
type Focus int

const (
	FocusRooms Focus = iota
	FocusInput
	FocusComposer
	FocusSearch
)

type stateChangedMsg struct{}

type actionDoneMsg struct {
	action string
	err    error
}

type loginStartedMsg struct {
	url string
	err error
}

// Model is the bubbletea model of the client. It keeps no domain state of
// its own; everything shown comes from the view usecase snapshot.
type Model struct {
	ctx   context.Context
	deps  Dependencies
	keys  KeyMap
	theme Theme

	state usecase.ViewState
	focus Focus

	roomCursor   int
	resultCursor int

	input    []rune
	composer []rune
	postType entity.PostType

	loginURL string
	status   string

	width  int
	height int
}

func NewModel(ctx context.Context, deps Dependencies) Model {
	model := Model{
		ctx:      ctx,
		deps:     deps,
		keys:     DefaultKeyMap,
		theme:    DefaultTheme,
		postType: entity.PostWantToBuy,
		width:    100,
		height:   30,
	}
	model.refresh()
	return model
}

// Watch forwards view changes to the running program. Changes that arrive
// while one is still queued collapse into it, so a listener fired from
// inside Update never waits on the event loop.
func Watch(program *tea.Program, view *usecase.ViewUseCase) func() {
	pending := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pending:
				program.Send(stateChangedMsg{})
			}
		}
	}()

	unsubscribe := view.Subscribe(func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}
}

func (model Model) Init() tea.Cmd {
	return nil
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case stateChangedMsg:
		model.refresh()
		return model, nil

	case actionDoneMsg:
		model.status = ""
		if message.err != nil {
			model.status = message.action + ": " + errors.Message(message.err)
		}
		model.refresh()
		return model, nil

	case loginStartedMsg:
		model.loginURL = message.url
		model.status = ""
		if message.err != nil {
			model.status = "Could not open a browser, visit the URL below to sign in"
		}
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case tea.KeyMsg:
		if key.Matches(message, model.keys.ForceQuit) {
			return model, tea.Quit
		}
		switch model.state.Screen {
		case usecase.ScreenEntry:
			return model.handleEntryKeys(message)
		case usecase.ScreenChat:
			return model.handleChatKeys(message)
		}
	}
	return model, nil
}

func (model *Model) refresh() {
	if model.deps.View == nil {
		return
	}
	model.state = model.deps.View.State()

	if model.state.Screen != usecase.ScreenChat {
		model.focus = FocusRooms
		model.input = nil
		model.composer = nil
	}
	model.roomCursor = clamp(model.roomCursor, len(model.state.Rooms))
	if model.state.Overlay == usecase.OverlayNone {
		model.resultCursor = 0
	}
	model.resultCursor = clamp(model.resultCursor, len(model.state.Candidates))
}

func clamp(position, length int) int {
	if position >= length {
		position = length - 1
	}
	if position < 0 {
		position = 0
	}
	return position
}

func (model Model) handleEntryKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Login):
		return model, model.beginLogin()
	case key.Matches(message, model.keys.Dismiss):
		return model, model.dismissNotice()
	}
	return model, nil
}

func (model Model) handleChatKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.state.Overlay == usecase.OverlayMatchResults {
		return model.handleResultsKeys(message)
	}
	switch model.focus {
	case FocusInput:
		return model.handleInputKeys(message)
	case FocusComposer, FocusSearch:
		return model.handleComposerKeys(message)
	}
	return model.handleRoomKeys(message)
}

func (model Model) handleRoomKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.roomCursor = clamp(model.roomCursor-1, len(model.state.Rooms))

	case key.Matches(message, model.keys.Down):
		model.roomCursor = clamp(model.roomCursor+1, len(model.state.Rooms))

	case key.Matches(message, model.keys.Select):
		if len(model.state.Rooms) == 0 {
			return model, nil
		}
		roomID := model.state.Rooms[model.roomCursor].ID
		return model, model.run("Open room", func(ctx context.Context) error {
			return model.deps.Rooms.Activate(ctx, roomID)
		})

	case key.Matches(message, model.keys.Focus):
		if model.state.ActiveRoom != nil {
			model.focus = FocusInput
		}

	case key.Matches(message, model.keys.NewPost):
		model.focus = FocusComposer
		model.composer = nil
		model.postType = defaultPostType(model.state.Identity)

	case key.Matches(message, model.keys.Search):
		model.focus = FocusSearch
		model.composer = nil

	case key.Matches(message, model.keys.Retry):
		if id := lastFailedID(model.state.Messages); id != "" {
			return model, model.run("Retry", func(ctx context.Context) error {
				_, err := model.deps.Messages.Retry(ctx, id)
				return err
			})
		}

	case key.Matches(message, model.keys.Reload):
		if model.state.Identity != nil {
			identity := *model.state.Identity
			return model, model.run("Reload rooms", func(ctx context.Context) error {
				return model.deps.Rooms.LoadRooms(ctx, identity)
			})
		}

	case key.Matches(message, model.keys.Dismiss):
		return model, model.dismissNotice()

	case key.Matches(message, model.keys.Logout):
		return model, model.run("Log out", model.deps.Session.Logout)
	}
	return model, nil
}

func (model Model) handleInputKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Back):
		model.focus = FocusRooms

	case message.Type == tea.KeyEnter:
		content := string(model.input)
		if strings.TrimSpace(content) == "" {
			return model, nil
		}
		model.input = nil
		senderID := ""
		if model.state.Identity != nil {
			senderID = model.state.Identity.ID
		}
		return model, model.run("Send", func(ctx context.Context) error {
			_, err := model.deps.Messages.SendOptimistic(ctx, content, senderID)
			return err
		})

	case message.Type == tea.KeyBackspace:
		if len(model.input) > 0 {
			model.input = model.input[:len(model.input)-1]
		}

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		model.input = append(model.input, message.Runes...)
	}
	return model, nil
}

func (model Model) handleComposerKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Back):
		model.focus = FocusRooms
		model.composer = nil

	case model.focus == FocusComposer && key.Matches(message, model.keys.TogglePost):
		if model.postType == entity.PostWantToBuy {
			model.postType = entity.PostWantToSell
		} else {
			model.postType = entity.PostWantToBuy
		}

	case message.Type == tea.KeyEnter:
		text := strings.TrimSpace(string(model.composer))
		if text == "" {
			return model, nil
		}
		focus := model.focus
		postType := model.postType
		model.focus = FocusRooms
		model.composer = nil
		if focus == FocusSearch {
			return model, model.run("Search", func(ctx context.Context) error {
				return model.deps.Matching.Search(ctx, text)
			})
		}
		return model, model.run("Create post", func(ctx context.Context) error {
			_, err := model.deps.Matching.CreatePost(ctx, postType, text)
			return err
		})

	case message.Type == tea.KeyBackspace:
		if len(model.composer) > 0 {
			model.composer = model.composer[:len(model.composer)-1]
		}

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		model.composer = append(model.composer, message.Runes...)
	}
	return model, nil
}

func (model Model) handleResultsKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := model.state.Candidates
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.resultCursor = clamp(model.resultCursor-1, len(candidates))

	case key.Matches(message, model.keys.Down):
		model.resultCursor = clamp(model.resultCursor+1, len(candidates))

	case key.Matches(message, model.keys.Select):
		if len(candidates) == 0 {
			return model, nil
		}
		candidate := candidates[model.resultCursor]
		if model.state.Busy[candidate.Post.ID] {
			return model, nil
		}
		return model, model.run("Start chat", func(ctx context.Context) error {
			return model.deps.Matching.SelectCandidate(ctx, candidate)
		})

	case key.Matches(message, model.keys.Back):
		return model, model.run("Close results", func(ctx context.Context) error {
			return model.deps.Matching.CloseResults()
		})

	case key.Matches(message, model.keys.Dismiss):
		return model, model.dismissNotice()
	}
	return model, nil
}

func (model Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := model.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (model Model) dismissNotice() tea.Cmd {
	notifier := model.deps.Notifier
	return func() tea.Msg {
		notifier.DismissOldest()
		return stateChangedMsg{}
	}
}

func (model Model) beginLogin() tea.Cmd {
	session := model.deps.Session
	return func() tea.Msg {
		url, err := session.BeginLogin()
		return loginStartedMsg{url: url, err: err}
	}
}

// defaultPostType follows the identity's role; sellers usually post offers.
func defaultPostType(identity *entity.Identity) entity.PostType {
	if identity != nil && identity.Type == entity.IdentitySeller {
		return entity.PostWantToSell
	}
	return entity.PostWantToBuy
}

func lastFailedID(rows []usecase.MessageRow) string {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Status == entity.MessageFailed {
			return rows[i].ID
		}
	}
	return ""
}
