package handler

import (
	"chatbuysell/internal/usecase"
)

var (
	authHandler   *AuthHandler
	healthHandler *HealthHandler
)

func Setup(session *usecase.SessionUseCase, loginURL string) {
	authHandler = NewAuthHandler(session, loginURL)
	healthHandler = NewHealthHandler(session)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
