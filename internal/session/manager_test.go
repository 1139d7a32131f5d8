package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/ledger"
	"credchain/internal/ledger/ledgertest"
	dErrors "credchain/pkg/domain-errors"
)

type fakeProvider struct {
	available  bool
	authorized *common.Address
	requested  common.Address
	requestErr error
}

func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) AuthorizedAccount(context.Context) (common.Address, bool) {
	if p.authorized == nil {
		return common.Address{}, false
	}
	return *p.authorized, true
}

func (p *fakeProvider) RequestAccount(context.Context) (common.Address, error) {
	if p.requestErr != nil {
		return common.Address{}, p.requestErr
	}
	return p.requested, nil
}

func (p *fakeProvider) Signer(account common.Address) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: account}, nil
}

var (
	issuerAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	adminAddr  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	nobodyAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestManager_Connect(t *testing.T) {
	t.Run("wallet unavailable surfaces as such", func(t *testing.T) {
		provider := &fakeProvider{requestErr: dErrors.New(dErrors.CodeWalletUnavailable, "no wallet accounts available")}
		m := NewManager(provider, ledgertest.New())

		_, err := m.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWalletUnavailable))
		assert.False(t, m.Current().Connected)
	})

	t.Run("declined authorization surfaces as user rejection", func(t *testing.T) {
		provider := &fakeProvider{requestErr: dErrors.New(dErrors.CodeUserRejected, "declined")}
		m := NewManager(provider, ledgertest.New())

		_, err := m.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUserRejected))
	})

	t.Run("successful connect derives roles from the ledger", func(t *testing.T) {
		gw := ledgertest.New()
		gw.GrantRole(ledger.RoleIssuer, issuerAddr)
		m := NewManager(&fakeProvider{available: true, requested: issuerAddr}, gw)

		sess, err := m.Connect(context.Background())
		require.NoError(t, err)
		assert.True(t, sess.Connected)
		assert.Equal(t, issuerAddr, sess.Account)
		assert.True(t, sess.Roles.Issuer)
		assert.False(t, sess.Roles.Admin)
		require.NotNil(t, sess.Signer())
		assert.Equal(t, sess, m.Current())
	})
}

func TestManager_TryRestore(t *testing.T) {
	t.Run("no authorized account leaves session empty without error", func(t *testing.T) {
		m := NewManager(&fakeProvider{}, ledgertest.New())

		sess, ok := m.TryRestore(context.Background())
		assert.False(t, ok)
		assert.False(t, sess.Connected)
		assert.False(t, m.Current().Connected)
	})

	t.Run("authorized account restores silently", func(t *testing.T) {
		gw := ledgertest.New()
		gw.GrantRole(ledger.RoleAdmin, adminAddr)
		gw.GrantRole(ledger.RoleIssuer, adminAddr)
		addr := adminAddr
		m := NewManager(&fakeProvider{available: true, authorized: &addr}, gw)

		sess, ok := m.TryRestore(context.Background())
		require.True(t, ok)
		assert.True(t, sess.Roles.Admin)
		assert.True(t, sess.Roles.Issuer)
	})
}

func TestManager_EvaluateRoles(t *testing.T) {
	t.Run("failure degrades to no privilege", func(t *testing.T) {
		gw := ledgertest.New()
		gw.GrantRole(ledger.RoleAdmin, adminAddr)
		gw.HasRoleErr = errors.New("contract revert")
		m := NewManager(&fakeProvider{}, gw)

		roles := m.EvaluateRoles(context.Background(), adminAddr)
		assert.Equal(t, Roles{}, roles)
	})

	t.Run("no grants means student session", func(t *testing.T) {
		m := NewManager(&fakeProvider{}, ledgertest.New())
		roles := m.EvaluateRoles(context.Background(), nobodyAddr)
		assert.False(t, roles.Admin)
		assert.False(t, roles.Issuer)
	})

	t.Run("evaluation is idempotent", func(t *testing.T) {
		gw := ledgertest.New()
		gw.GrantRole(ledger.RoleIssuer, issuerAddr)
		m := NewManager(&fakeProvider{}, gw)

		first := m.EvaluateRoles(context.Background(), issuerAddr)
		second := m.EvaluateRoles(context.Background(), issuerAddr)
		assert.Equal(t, first, second)
	})
}

func TestManager_HandleAccountChange(t *testing.T) {
	gw := ledgertest.New()
	gw.GrantRole(ledger.RoleIssuer, issuerAddr)
	m := NewManager(&fakeProvider{available: true, requested: issuerAddr}, gw)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Current().Roles.Issuer)

	// Switching to an unprivileged account resets roles.
	sess := m.HandleAccountChange(context.Background(), nobodyAddr)
	assert.True(t, sess.Connected)
	assert.Equal(t, nobodyAddr, sess.Account)
	assert.Equal(t, Roles{}, sess.Roles)

	// Empty address means disconnect.
	sess = m.HandleAccountChange(context.Background(), common.Address{})
	assert.False(t, sess.Connected)
	assert.False(t, m.Current().Connected)
}

func TestSession_Is(t *testing.T) {
	sess := Session{Account: issuerAddr, Connected: true}
	assert.True(t, sess.Is("0x1111111111111111111111111111111111111111"))
	assert.True(t, sess.Is("0X1111111111111111111111111111111111111111"))
	assert.False(t, sess.Is(nobodyAddr.Hex()))
	assert.False(t, Session{}.Is(issuerAddr.Hex()))
}
