package main

import "time"

// User represents a travel board member. RefreshToken holds the single
// currently valid refresh token value; overwriting it invalidates any
// previously issued refresh token for this user.
type User struct {
	ID              int64
	Email           string
	Password        string
	Nickname        string
	ProfileImageURL string
	Bio             string
	RefreshToken    string
	CreatedAt       time.Time
}

// Product levels
const (
	ProductBasic   = "BASIC"
	ProductPremium = "PREMIUM"
)

// Product represents a purchased plan for a user.
type Product struct {
	ID      int64
	UserID  int64
	Level   string
	StartAt time.Time
	EndAt   time.Time
}

// IsPremiumAt reports whether the product grants premium access at the given instant.
func (p *Product) IsPremiumAt(now time.Time) bool {
	return p.Level == ProductPremium && p.EndAt.After(now)
}

// Post represents a board post.
type Post struct {
	ID          int64
	UserID      int64
	Location    string
	Title       string
	Content     string
	Views       int
	NeedPremium bool
	CreatedAt   time.Time
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Identity is the request-scoped principal attached after access-token
// verification. It never outlives the request.
type Identity struct {
	UserID      int64
	Email       string
	Authorities []string
}
