package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/internal/infrastructure/browser"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
)

const DefaultSessionKey = "user"

// SessionUseCase owns the authenticated identity and its persisted copy.
// The stored entry and the in-memory identity only ever change together.
type SessionUseCase struct {
	store    repository.SessionRepository
	backend  repository.ChatRepository
	opener   browser.Opener
	key      string
	validate *validator.Validate

	mu        sync.Mutex
	current   *entity.Identity
	loading   bool
	listeners listeners
}

func NewSessionUseCase(
	store repository.SessionRepository,
	backend repository.ChatRepository,
	opener browser.Opener,
	key string,
) *SessionUseCase {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionUseCase{
		store:    store,
		backend:  backend,
		opener:   opener,
		key:      key,
		validate: validator.New(),
		loading:  true,
	}
}

// Restore loads the persisted identity. A missing entry leaves the session
// anonymous; an unreadable one is deleted first.
func (uc *SessionUseCase) Restore(ctx context.Context) error {
	uc.mu.Lock()
	identity, err := uc.readStored(ctx)
	uc.current = identity
	uc.loading = false
	uc.mu.Unlock()

	uc.listeners.emit()
	return err
}

func (uc *SessionUseCase) readStored(ctx context.Context) (*entity.Identity, error) {
	raw, found, err := uc.store.Get(ctx, uc.key)
	if err != nil {
		logger.Error("Restore Error: failed to read session entry: %v", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}

	identity, err := uc.decodeIdentity(raw)
	if err != nil {
		uc.discardCorrupted(ctx, err)
		return nil, nil
	}
	return identity, nil
}

// decodeIdentity parses a stored session entry. Anything that is not an
// identity with an id is reported as CORRUPTED_STATE.
func (uc *SessionUseCase) decodeIdentity(raw []byte) (*entity.Identity, error) {
	var identity entity.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, errors.CorruptedState("Stored session is not valid JSON", err)
	}
	if err := uc.validate.Struct(identity); err != nil {
		return nil, errors.CorruptedState("Stored session has no valid identity", err)
	}
	return &identity, nil
}

func (uc *SessionUseCase) discardCorrupted(ctx context.Context, cause error) {
	logger.Warn("Restore: discarding session entry %q: %v", uc.key, cause)
	if err := uc.store.Delete(ctx, uc.key); err != nil {
		logger.Error("Restore Error: failed to delete corrupted session entry: %v", err)
	}
}

// BeginLogin sends the user to the identity provider and returns the URL used,
// so it can be shown when no browser could be opened. It does not change state.
func (uc *SessionUseCase) BeginLogin() (string, error) {
	url := uc.backend.LoginURL()
	if err := uc.opener.Open(url); err != nil {
		logger.Warn("BeginLogin Error: %v", err)
		return url, errors.Internal("Could not open a browser", err)
	}
	return url, nil
}

// HandleCallback finishes the OAuth redirect: the code is exchanged by the
// backend and the returned user becomes the current identity.
func (uc *SessionUseCase) HandleCallback(ctx context.Context, code, state string) (*entity.Identity, error) {
	code = strings.TrimSpace(code)
	state = strings.TrimSpace(state)
	if code == "" || state == "" {
		return nil, errors.Validation("Missing code or state", nil)
	}

	identity, err := uc.backend.CompleteOAuth(ctx, code, state)
	if err != nil {
		logger.Error("HandleCallback Error: %v", err)
		return nil, err
	}
	if err := uc.CompleteLogin(ctx, *identity); err != nil {
		return nil, err
	}
	return identity, nil
}

func (uc *SessionUseCase) CompleteLogin(ctx context.Context, identity entity.Identity) error {
	if err := uc.validate.Struct(identity); err != nil {
		return errors.Validation("Invalid user data", err)
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return errors.Internal("Failed to encode user", err)
	}

	uc.mu.Lock()
	if err := uc.store.Set(ctx, uc.key, raw); err != nil {
		uc.mu.Unlock()
		logger.Error("CompleteLogin Error: failed to persist session: %v", err)
		return err
	}
	uc.current = &identity
	uc.loading = false
	uc.mu.Unlock()

	logger.Info("Signed in as %s", identity.ID)
	uc.listeners.emit()
	return nil
}

// Logout removes the persisted identity. When that fails the session is left
// untouched and the error is returned.
func (uc *SessionUseCase) Logout(ctx context.Context) error {
	uc.mu.Lock()
	if err := uc.store.Delete(ctx, uc.key); err != nil {
		uc.mu.Unlock()
		logger.Error("Logout Error: failed to delete session: %v", err)
		return err
	}
	uc.current = nil
	uc.mu.Unlock()

	uc.listeners.emit()
	return nil
}

// Current returns a copy of the signed-in identity, or nil.
func (uc *SessionUseCase) Current() *entity.Identity {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.current == nil {
		return nil
	}
	identity := *uc.current
	return &identity
}

func (uc *SessionUseCase) Loading() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.loading
}

func (uc *SessionUseCase) Subscribe(fn func()) func() {
	return uc.listeners.add(fn)
}
