package entity

type IdentityType string

const (
	IdentityBuyer  IdentityType = "buyer"
	IdentitySeller IdentityType = "seller"
)

// Identity is the authenticated user as returned by the OAuth callback and
// persisted locally between runs.
type Identity struct {
	ID       string       `json:"id" validate:"required"`
	UID      string       `json:"uid,omitempty"`
	Username string       `json:"username"`
	Avatar   string       `json:"avatar,omitempty"`
	Type     IdentityType `json:"type,omitempty"`
	Email    string       `json:"email,omitempty" validate:"omitempty,email"`
}

// Counterparty is the trimmed user embedded in match results and room details.
type Counterparty struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Username != "" {
		return i.Username
	}
	return i.ID
}
