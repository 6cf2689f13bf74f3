package entity

import "time"

type PostType string

const (
	PostWantToBuy  PostType = "mua"
	PostWantToSell PostType = "ban"
)

func (t PostType) Valid() bool {
	return t == PostWantToBuy || t == PostWantToSell
}

func (t PostType) Label() string {
	switch t {
	case PostWantToBuy:
		return "Want to buy"
	case PostWantToSell:
		return "Want to sell"
	default:
		return string(t)
	}
}

type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      PostType  `json:"type"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	Price     int64     `json:"price,omitempty"`
	Condition string    `json:"condition,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// MatchCandidate is one ranked result of a matching search. Score is in [0,1].
type MatchCandidate struct {
	Post  Post         `json:"post"`
	User  Counterparty `json:"user"`
	Score float64      `json:"score"`
}
