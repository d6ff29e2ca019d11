package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavshah/staff-planner-api/pkg/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth() *Authenticator {
	a := New("jwt-secret", "master-secret")
	a.BcryptCost = bcrypt.MinCost
	return a
}

func TestHMACKey(t *testing.T) {
	a := newTestAuth()

	key := a.GenerateHMACKey("park-nord")
	clientID, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	require.Equal(t, "park-nord", clientID)

	_, err = a.VerifyHMACKey("park-nord.deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = a.VerifyHMACKey("no-dot")
	require.ErrorIs(t, err, ErrInvalidKeyFormat)

	other := New("jwt-secret", "another-secret")
	_, err = other.VerifyHMACKey(key)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestToken(t *testing.T) {
	a := newTestAuth()

	token, err := a.CreateToken("admin")
	require.NoError(t, err)
	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)

	_, err = New("other-secret", "").VerifyToken(token)
	require.Error(t, err)

	a.TokenTTL = -time.Minute
	expired, err := a.CreateToken("admin")
	require.NoError(t, err)
	_, err = a.VerifyToken(expired)
	require.Error(t, err)
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.Open(database.Options{DataPath: filepath.Join(t.TempDir(), "auth.db"), Silent: true})
	require.NoError(t, err)
	a := newTestAuth()

	require.ErrorIs(t, a.EnsureAdminExists(db, "admin", "", zap.NewNop()), ErrNoAdminPassword)
	require.NoError(t, a.EnsureAdminExists(db, "", "attractions", zap.NewNop()))
	// second call is a no-op
	require.NoError(t, a.EnsureAdminExists(db, "someone", "else", zap.NewNop()))

	var users []database.MasterUser
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	require.Equal(t, "admin", users[0].Username)
	require.True(t, CheckPasswordHash("attractions", users[0].PasswordHash))
}
