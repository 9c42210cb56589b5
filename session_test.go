package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*Sessions, *MemDB) {
	t.Helper()
	db := NewMemoryDB()
	return NewSessions(newTestCodec(), db), db
}

func mustCreateUser(t *testing.T, db DB, email, password string) *User {
	t.Helper()
	hashed, err := hashPassword(password)
	require.NoError(t, err)
	u, err := db.CreateUser(email, hashed, "traveler", "", "")
	require.NoError(t, err)
	return u
}

func TestLoginIssuesPairAndPersistsRefresh(t *testing.T) {
	sessions, db := newTestSessions(t)
	user := mustCreateUser(t, db, "a@x.com", "p@ssw0rd")

	pair, err := sessions.Login("a@x.com", "p@ssw0rd")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	stored, err := db.GetUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)
}

func TestLoginFailureParity(t *testing.T) {
	sessions, db := newTestSessions(t)
	mustCreateUser(t, db, "a@x.com", "p@ssw0rd")

	// Unknown email and wrong password must be indistinguishable.
	_, errNoUser := sessions.Login("nobody@x.com", "p@ssw0rd")
	_, errBadPass := sessions.Login("a@x.com", "wrong-password")

	require.ErrorIs(t, errNoUser, errLoginFail)
	require.ErrorIs(t, errBadPass, errLoginFail)
	require.Equal(t, errNoUser.Error(), errBadPass.Error())
}

func TestReissueReturnsNewAccessToken(t *testing.T) {
	sessions, db := newTestSessions(t)
	user := mustCreateUser(t, db, "a@x.com", "p@ssw0rd")

	pair, err := sessions.Login("a@x.com", "p@ssw0rd")
	require.NoError(t, err)

	access, err := sessions.Reissue(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	userID, err := sessions.codec.Verify(AccessToken, access)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// Reissue does not rotate the refresh token.
	stored, err := db.GetUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	sessions, db := newTestSessions(t)
	mustCreateUser(t, db, "a@x.com", "p@ssw0rd")

	first, err := sessions.Login("a@x.com", "p@ssw0rd")
	require.NoError(t, err)

	// Refresh tokens embed iat at second precision; advance the clock so
	// the second login produces a distinct value.
	sessions.now = func() time.Time { return time.Now().Add(2 * time.Second) }

	second, err := sessions.Login("a@x.com", "p@ssw0rd")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first refresh token is still cryptographically valid but no
	// longer the active session.
	_, err = sessions.codec.Verify(RefreshToken, first.RefreshToken)
	require.NoError(t, err)
	_, err = sessions.Reissue(first.RefreshToken)
	require.ErrorIs(t, err, errUserNotFound)

	_, err = sessions.Reissue(second.RefreshToken)
	require.NoError(t, err)
}

func TestReissueRejectsWrongTokenType(t *testing.T) {
	sessions, db := newTestSessions(t)
	mustCreateUser(t, db, "a@x.com", "p@ssw0rd")

	pair, err := sessions.Login("a@x.com", "p@ssw0rd")
	require.NoError(t, err)

	_, err = sessions.Reissue(pair.AccessToken)
	require.ErrorIs(t, err, errUnauthorizedToken)
}

func TestReissueRejectsGarbage(t *testing.T) {
	sessions, _ := newTestSessions(t)

	_, err := sessions.Reissue("")
	require.ErrorIs(t, err, errInvalidToken)
	_, err = sessions.Reissue("garbage.token.value")
	require.ErrorIs(t, err, errInvalidToken)
}
