package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library-ledger/records"
)

func newService(t *testing.T) (*Service, records.Store) {
	t.Helper()
	store, err := records.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewService(store, WithHashCost(bcrypt.MinCost)), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store := newService(t)

	require.NoError(t, svc.Register("ada", "s3cret", "Admin"))
	require.NoError(t, svc.Register("bob", "hunter2", "user"))

	users, err := store.Load(UsersSchema)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.NotEqual(t, "s3cret", users[0][1], "passwords must not be stored in plaintext")
	assert.Equal(t, "admin", users[0][2])

	sess, err := svc.Login("ada", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ada", sess.Username)
	assert.Equal(t, RoleAdmin, sess.Role)
	assert.True(t, sess.Can(CapManageCatalog))

	sess, err = svc.Login("bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, sess.Role)
	assert.True(t, sess.Can(CapCirculate))
	assert.False(t, sess.Can(CapManageCatalog))
}

func TestRegisterErrors(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Register("ada", "pw", "admin"))

	tests := []struct {
		name     string
		username string
		password string
		role     string
		want     error
	}{
		{"taken", "ada", "other", "user", ErrUsernameTaken},
		{"bad role", "cy", "pw", "librarian", ErrInvalidRole},
		{"no username", "", "pw", "user", ErrInvalidInput},
		{"no password", "cy", "", "user", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(tt.username, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrAuth)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Register("ada", "pw", "admin"))

	_, err := svc.Login("ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLegacyPlaintext(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, store.Save(UsersSchema, []records.Record{{"old", "plain", "user"}}))

	sess, err := svc.Login("old", "plain")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, sess.Role)

	_, err = svc.Login("old", "Plain")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionsAreDistinct(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Register("ada", "pw", "admin"))

	a, err := svc.Login("ada", "pw")
	require.NoError(t, err)
	b, err := svc.Login("ada", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCapabilities(t *testing.T) {
	var none *Session
	assert.False(t, none.Can(CapBrowse))
	assert.ErrorIs(t, none.Require(CapBrowse), ErrForbidden)

	user := newSession("u", RoleUser, time.Now())
	assert.True(t, user.Can(CapBrowse|CapCirculate))
	assert.False(t, user.Can(CapBrowse|CapManageCatalog))
	assert.ErrorIs(t, user.Require(CapManageCatalog), ErrForbidden)

	admin := newSession("a", RoleAdmin, time.Now())
	assert.NoError(t, admin.Require(CapManageCatalog))

	_, err := ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestLoginLegacyEmptyPassword(t *testing.T) {
	svc, store := newService(t)
	require.NoError(t, store.Save(UsersSchema, []records.Record{{"old", "", "admin"}}))

	sess, err := svc.Login("old", "")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, sess.Role)

	_, err = svc.Login("old", "guess")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
