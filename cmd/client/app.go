package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"chatbuysell/internal/adapter/repository"
	"chatbuysell/internal/adapter/tui"
	"chatbuysell/internal/infrastructure/browser"
	"chatbuysell/internal/infrastructure/ratelimit"
	"chatbuysell/internal/usecase"
	"chatbuysell/pkg/config"
)

// app holds the wired usecases of one client process.
type app struct {
	db       *gorm.DB
	limiter  *ratelimit.RateLimiter
	notifier *usecase.NotificationUseCase
	session  *usecase.SessionUseCase
	messages *usecase.MessageUseCase
	rooms    *usecase.RoomUseCase
	matching *usecase.MatchingUseCase
	view     *usecase.ViewUseCase
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := repository.OpenSessionDB(cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	sessionRepo := repository.NewSQLiteSessionRepository(db)
	chatRepo := repository.NewHTTPChatRepository(cfg.BackendURL, cfg.LoginURL, cfg.RequestTimeout)
	limiter := ratelimit.NewRateLimiter()

	notifier := usecase.NewNotificationUseCase(5)
	session := usecase.NewSessionUseCase(sessionRepo, chatRepo, browser.NewSystemOpener(), cfg.SessionKey)
	messages := usecase.NewMessageUseCase(chatRepo, notifier, limiter, usecase.ParseSendFailurePolicy(cfg.SendFailurePolicy))
	rooms := usecase.NewRoomUseCase(chatRepo, messages, notifier)
	matching := usecase.NewMatchingUseCase(chatRepo, session, rooms, notifier, limiter, cfg.MatchPageSize)
	view := usecase.NewViewUseCase(ctx, session, rooms, messages, matching, notifier)

	// throttling buckets belong to the signed-in user
	session.Subscribe(func() {
		if session.Current() == nil {
			limiter.Reset()
		}
	})

	return &app{
		db:       db,
		limiter:  limiter,
		notifier: notifier,
		session:  session,
		messages: messages,
		rooms:    rooms,
		matching: matching,
		view:     view,
	}, nil
}

func (a *app) dependencies() tui.Dependencies {
	return tui.Dependencies{
		Session:  a.session,
		Rooms:    a.rooms,
		Messages: a.messages,
		Matching: a.matching,
		Notifier: a.notifier,
		View:     a.view,
	}
}

func (a *app) close() {
	a.view.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
