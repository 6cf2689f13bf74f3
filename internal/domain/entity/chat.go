package entity

import "time"

type ChatRoom struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Type        IdentityType `json:"type,omitempty"` // role of the viewer in this room
	BuyerID     string       `json:"buyerId,omitempty"`
	SellerID    string       `json:"sellerId,omitempty"`
	PostID      string       `json:"postId,omitempty"`
	Post        *Post        `json:"post,omitempty"`
	LastMessage string       `json:"lastMessage,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitempty"`
}

func (r ChatRoom) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	if r.Post != nil && r.Post.Content != "" {
		return r.Post.Content
	}
	return "Room " + r.ID
}

// RoomDetail is what the backend returns for a single room: the room itself,
// its full history and optionally the participants and the post behind it.
type RoomDetail struct {
	ChatRoom ChatRoom      `json:"chatRoom"`
	Messages []Message     `json:"messages"`
	Buyer    *Counterparty `json:"buyer,omitempty"`
	Seller   *Counterparty `json:"seller,omitempty"`
	Post     *Post         `json:"post,omitempty"`
}
