package repository

import (
	"context"

	"chatbuysell/internal/domain/entity"
)

type MatchQuery struct {
	Content  string
	Page     int
	PageSize int
}

type MatchResult struct {
	Matches  []entity.MatchCandidate
	Total    int
	Page     int
	PageSize int
}

type CreateRoomInput struct {
	BuyerID  string
	SellerID string
	PostID   string
}

type SendMessageInput struct {
	RoomID   string
	SenderID string
	Content  string
}

// ChatRepository is the remote backend: auth, posts, matching and chat rooms.
type ChatRepository interface {
	LoginURL() string
	CompleteOAuth(ctx context.Context, code, state string) (*entity.Identity, error)

	CreatePost(ctx context.Context, userID string, postType entity.PostType, content string) (*entity.Post, error)
	FindMatches(ctx context.Context, query MatchQuery) (*MatchResult, error)

	ListRooms(ctx context.Context, userID string) ([]entity.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (*entity.RoomDetail, error)
	CreateRoom(ctx context.Context, input CreateRoomInput) (*entity.ChatRoom, error)
	SendMessage(ctx context.Context, input SendMessageInput) (messageID string, err error)
}
