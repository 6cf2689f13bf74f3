package usecase

import (
	"context"
	"strings"
	"sync"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/internal/domain/service"
	"chatbuysell/internal/infrastructure/ratelimit"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
	"chatbuysell/pkg/utils"
)

type MatchState string

const (
	MatchIdle                MatchState = "idle"
	MatchSearching           MatchState = "searching"
	MatchResultsShown        MatchState = "results-shown"
	MatchRoomCreating        MatchState = "room-creating"
	MatchRoomCreatingSuccess MatchState = "room-creating-success"
	MatchRoomCreatingFailure MatchState = "room-creating-failure"
)

const RoomCreationFailedMessage = "Failed to create chat room. Please try again."

// MatchingUseCase drives post creation, the search for counterparties and
// the creation of a chat room with a chosen candidate.
type MatchingUseCase struct {
	backend  repository.ChatRepository
	session  IdentityProvider
	rooms    *RoomUseCase
	notifier *NotificationUseCase
	limiter  *ratelimit.RateLimiter
	pageSize int

	mu         sync.Mutex
	navigator  Navigator
	state      MatchState
	query      string
	candidates []entity.MatchCandidate
	total      int
	lastPost   *entity.Post
	searchSeq  uint64
	epoch      uint64
	inflight   map[string]struct{}
	listeners  listeners
}

func NewMatchingUseCase(
	backend repository.ChatRepository,
	session IdentityProvider,
	rooms *RoomUseCase,
	notifier *NotificationUseCase,
	limiter *ratelimit.RateLimiter,
	pageSize int,
) *MatchingUseCase {
	return &MatchingUseCase{
		backend:  backend,
		session:  session,
		rooms:    rooms,
		notifier: notifier,
		limiter:  limiter,
		pageSize: utils.NormalizePagination(1, pageSize).PageSize,
		state:    MatchIdle,
		inflight: make(map[string]struct{}),
	}
}

func (uc *MatchingUseCase) SetNavigator(n Navigator) {
	uc.mu.Lock()
	uc.navigator = n
	uc.mu.Unlock()
}

func (uc *MatchingUseCase) redirectToEntry() {
	uc.mu.Lock()
	n := uc.navigator
	uc.mu.Unlock()
	if n != nil {
		n.RedirectToEntry()
	}
}

// CreatePost publishes a buy or sell post and searches for matches with its
// content.
func (uc *MatchingUseCase) CreatePost(ctx context.Context, postType entity.PostType, content string) (*entity.Post, error) {
	identity := uc.session.Current()
	if identity == nil {
		uc.redirectToEntry()
		return nil, errors.Unauthorized("Sign in to create a post", nil)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("Post content is required", nil)
	}
	if !postType.Valid() {
		return nil, errors.Validation("Post type must be mua or ban", nil)
	}
	if allowed, wait := uc.limiter.Allow(identity.ID, ratelimit.ActionCreatePost); !allowed {
		logger.Warn("CreatePost Rate Limited: user %s must wait %v", identity.ID, wait)
		uc.notifier.Error("You are posting too quickly. Please wait a moment.")
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before posting again")
	}

	post, err := uc.backend.CreatePost(ctx, identity.ID, postType, content)
	if err != nil {
		logger.Error("CreatePost Error: user %s: %v", identity.ID, err)
		uc.notifier.Error("Failed to create post")
		return nil, err
	}

	uc.mu.Lock()
	uc.lastPost = post
	uc.mu.Unlock()

	uc.notifier.Info("Post created successfully!")

	query := post.Content
	if strings.TrimSpace(query) == "" {
		query = content
	}
	return post, uc.Search(ctx, query)
}

// Search asks the matching service for candidates. Only the latest search
// is applied; on failure the previous results stay as they were.
func (uc *MatchingUseCase) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.Validation("Search query is required", nil)
	}
	requester := "anonymous"
	if identity := uc.session.Current(); identity != nil {
		requester = identity.ID
	}
	if allowed, wait := uc.limiter.Allow(requester, ratelimit.ActionSearch); !allowed {
		logger.Warn("Search Rate Limited: user %s must wait %v", requester, wait)
		uc.notifier.Error("You are searching too quickly. Please wait a moment.")
		return errors.TooManyRequests("Rate limit exceeded. Please wait before searching again")
	}

	uc.mu.Lock()
	if len(uc.inflight) > 0 {
		uc.mu.Unlock()
		return errors.Conflict("A chat room is being created")
	}
	prevState := uc.state
	uc.searchSeq++
	seq := uc.searchSeq
	uc.state = MatchSearching
	uc.mu.Unlock()
	uc.listeners.emit()

	res, err := uc.backend.FindMatches(ctx, repository.MatchQuery{
		Content:  query,
		Page:     1,
		PageSize: uc.pageSize,
	})

	uc.mu.Lock()
	if seq != uc.searchSeq {
		uc.mu.Unlock()
		return nil
	}
	if err != nil {
		uc.state = restoreState(prevState, len(uc.candidates))
		uc.mu.Unlock()

		logger.Error("Search Error: %q: %v", query, err)
		uc.notifier.Error("Failed to find matches")
		uc.listeners.emit()
		return err
	}
	uc.query = query
	uc.candidates = append([]entity.MatchCandidate(nil), res.Matches...)
	uc.total = res.Total
	uc.state = MatchResultsShown
	uc.mu.Unlock()

	uc.listeners.emit()
	return nil
}

func restoreState(prev MatchState, candidates int) MatchState {
	switch prev {
	case MatchIdle, MatchResultsShown:
		return prev
	}
	if candidates > 0 {
		return MatchResultsShown
	}
	return MatchIdle
}

// SelectCandidate creates a chat room with the candidate and activates it.
// Only one creation may be in flight at a time.
func (uc *MatchingUseCase) SelectCandidate(ctx context.Context, candidate entity.MatchCandidate) error {
	identity := uc.session.Current()
	if identity == nil {
		uc.redirectToEntry()
		return errors.Unauthorized("Sign in to start a chat", nil)
	}
	if candidate.Post.ID == "" || candidate.User.ID == "" {
		return errors.Validation("Candidate has no post or user", nil)
	}

	uc.mu.Lock()
	if len(uc.inflight) > 0 {
		uc.mu.Unlock()
		return errors.Conflict("A chat room is already being created")
	}
	// only rooms that were actually created are charged
	if allowed, wait := uc.limiter.Check(identity.ID, ratelimit.ActionCreateChat); !allowed {
		uc.mu.Unlock()
		logger.Warn("CreateRoom Rate Limited: user %s must wait %v", identity.ID, wait)
		uc.notifier.Error("Too many chat rooms created. Please try again later.")
		return errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat")
	}
	uc.inflight[candidate.Post.ID] = struct{}{}
	uc.state = MatchRoomCreating
	// a search still running must not reopen the results behind the new room
	uc.searchSeq++
	epoch := uc.epoch
	uc.mu.Unlock()
	uc.listeners.emit()

	room, err := uc.backend.CreateRoom(ctx, service.RoomParticipants(*identity, candidate))

	uc.mu.Lock()
	delete(uc.inflight, candidate.Post.ID)
	if epoch != uc.epoch {
		// reset while creating; the session that asked is gone
		uc.mu.Unlock()
		return nil
	}
	if err != nil {
		uc.state = MatchRoomCreatingFailure
		uc.mu.Unlock()
		uc.listeners.emit()

		logger.Error("CreateRoom Error: post %s: %v", candidate.Post.ID, err)
		uc.notifier.Error(RoomCreationFailedMessage)

		uc.mu.Lock()
		if uc.state == MatchRoomCreatingFailure {
			uc.state = MatchResultsShown
		}
		uc.mu.Unlock()
		uc.listeners.emit()
		return err
	}
	uc.state = MatchRoomCreatingSuccess
	uc.mu.Unlock()
	uc.limiter.Consume(identity.ID, ratelimit.ActionCreateChat)
	uc.listeners.emit()

	if room.Post == nil {
		post := candidate.Post
		room.Post = &post
	}
	uc.rooms.Upsert(*room)
	if err := uc.rooms.Activate(ctx, room.ID); err != nil {
		logger.Warn("CreateRoom: room %s created but not activated: %v", room.ID, err)
	}

	uc.mu.Lock()
	if uc.state == MatchRoomCreatingSuccess {
		uc.state = MatchIdle
		uc.candidates = nil
		uc.total = 0
	}
	uc.mu.Unlock()
	uc.listeners.emit()
	return nil
}

// CloseResults dismisses the candidate list.
func (uc *MatchingUseCase) CloseResults() error {
	uc.mu.Lock()
	if len(uc.inflight) > 0 {
		uc.mu.Unlock()
		return errors.Conflict("A chat room is being created")
	}
	uc.searchSeq++
	uc.state = MatchIdle
	uc.candidates = nil
	uc.total = 0
	uc.mu.Unlock()

	uc.listeners.emit()
	return nil
}

// Reset drops all workflow state, e.g. after logout. A creation still in
// flight finishes without touching the room registry.
func (uc *MatchingUseCase) Reset() {
	uc.mu.Lock()
	uc.epoch++
	uc.searchSeq++
	uc.state = MatchIdle
	uc.query = ""
	uc.candidates = nil
	uc.total = 0
	uc.lastPost = nil
	uc.inflight = make(map[string]struct{})
	uc.mu.Unlock()

	uc.listeners.emit()
}

// Busy reports whether a room is being created for the candidate's post.
func (uc *MatchingUseCase) Busy(postID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.inflight[postID]
	return ok
}

func (uc *MatchingUseCase) BusyIDs() []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	ids := make([]string, 0, len(uc.inflight))
	for id := range uc.inflight {
		ids = append(ids, id)
	}
	return ids
}

func (uc *MatchingUseCase) State() MatchState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state
}

func (uc *MatchingUseCase) Candidates() []entity.MatchCandidate {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]entity.MatchCandidate(nil), uc.candidates...)
}

func (uc *MatchingUseCase) Query() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.query
}

func (uc *MatchingUseCase) Total() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.total
}

func (uc *MatchingUseCase) LastPost() *entity.Post {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.lastPost == nil {
		return nil
	}
	p := *uc.lastPost
	return &p
}

func (uc *MatchingUseCase) Subscribe(fn func()) func() {
	return uc.listeners.add(fn)
}
