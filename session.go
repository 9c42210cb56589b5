package main

import (
	"time"
)

// Sessions orchestrates login and access-token reissue. Logging in overwrites
// the user's stored refresh token, so at most one session is active per user;
// a later login silently revokes the tokens of an earlier one.
type Sessions struct {
	codec *TokenCodec
	db    DB
	// now is swappable so tests can issue tokens at distinct instants
	// without waiting out the one-second iat resolution.
	now func() time.Time
}

func NewSessions(codec *TokenCodec, db DB) *Sessions {
	return &Sessions{codec: codec, db: db, now: time.Now}
}

// Login authenticates the credentials and issues a fresh token pair. A missing
// account and a wrong password both fail with errLoginFail so the response
// never reveals whether the email exists.
func (s *Sessions) Login(email, password string) (*TokenPair, error) {
	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !comparePassword(user.Password, password) {
		return nil, errLoginFail
	}

	now := s.now()
	access, err := s.codec.Sign(AccessToken, user.ID, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Sign(RefreshToken, user.ID, now)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpdateRefreshToken(user.ID, refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Reissue exchanges a valid refresh token for a new access token. The token
// must both verify cryptographically and match the user's stored value; a
// verified token that is no longer the active session fails with
// errUserNotFound. The refresh token itself is not rotated here.
func (s *Sessions) Reissue(refreshToken string) (string, error) {
	userID, err := s.codec.Verify(RefreshToken, refreshToken)
	if err != nil {
		return "", err
	}
	user, err := s.db.GetUserByIDAndRefreshToken(userID, refreshToken)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errUserNotFound
	}
	return s.codec.Sign(AccessToken, user.ID, s.now())
}

// PrincipalFor resolves a verified user id into the request identity.
func (s *Sessions) PrincipalFor(userID int64) (*Identity, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUserNotFound
	}
	return &Identity{UserID: user.ID, Email: user.Email, Authorities: []string{"ROLE_USER"}}, nil
}
