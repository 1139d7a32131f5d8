package authtoken

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/session"
	dErrors "credchain/pkg/domain-errors"
)

var (
	service = NewService("test-signing-key", "credchain", time.Hour)
	account = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func issuerSession() session.Session {
	return session.NewSession(account, session.Roles{Issuer: true}, nil)
}

func Test_MintAndValidate(t *testing.T) {
	token, err := service.Mint(issuerSession())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, account.Hex(), claims.Account)
	assert.True(t, claims.Issuer)
	assert.False(t, claims.Admin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Mint_DisconnectedSession(t *testing.T) {
	_, err := service.Mint(session.Session{})
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "no wallet session"))
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := service.Validate("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	expired := NewService("test-signing-key", "credchain", -time.Hour)

	token, err := expired.Mint(issuerSession())
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_Validate_WrongKey(t *testing.T) {
	other := NewService("other-signing-key", "credchain", time.Hour)

	token, err := other.Mint(issuerSession())
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}
