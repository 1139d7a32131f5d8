// Package session owns the wallet connection and the role flags derived from
// the ledger. Roles are never stored or set directly: they are re-evaluated
// from the contract whenever the account changes, and evaluation failures
// degrade to no privilege rather than blocking the session.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/ledger"
	"credchain/internal/wallet"
)

// Roles holds the ledger-granted capability flags. Admin and issuer are
// orthogonal grants; a session may hold neither, either, or both. Neither
// flag implies the other.
type Roles struct {
	Admin  bool
	Issuer bool
}

// Session is an immutable snapshot of the current connection. Services
// receive a Session explicitly; there is no ambient session state.
type Session struct {
	Account   common.Address
	Connected bool
	Roles     Roles

	signer *bind.TransactOpts
}

// NewSession builds a connected session snapshot directly, bypassing the
// wallet provider. Callers that hold their own key material use this.
func NewSession(account common.Address, roles Roles, signer *bind.TransactOpts) Session {
	return Session{Account: account, Connected: true, Roles: roles, signer: signer}
}

// Signer returns transaction signing options, nil for read-only sessions.
func (s Session) Signer() *bind.TransactOpts { return s.signer }

// Is reports whether the session belongs to addr (case-insensitive hex compare).
func (s Session) Is(addr string) bool {
	return s.Connected && strings.EqualFold(s.Account.Hex(), addr)
}

// Manager drives the session lifecycle: explicit connect, silent restore, and
// account-change resets. Writes are last-write-wins; evaluating roles twice
// for the same account is side-effect-free.
type Manager struct {
	provider wallet.Provider
	gateway  ledger.Gateway
	logger   *slog.Logger

	mu      sync.RWMutex
	current Session
}

// Option configures the Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(provider wallet.Provider, gateway ledger.Gateway, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		gateway:  gateway,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect requests account authorization from the wallet provider and
// establishes a new session. Fails with CodeWalletUnavailable when no provider
// is present and CodeUserRejected when the holder declines.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	account, err := m.provider.RequestAccount(ctx)
	if err != nil {
		return Session{}, err
	}
	return m.establish(ctx, account), nil
}

// TryRestore silently re-establishes a session when the provider already has
// an authorized account. It never prompts and never fails: without a provider
// or authorization the session is simply left empty.
func (m *Manager) TryRestore(ctx context.Context) (Session, bool) {
	account, ok := m.provider.AuthorizedAccount(ctx)
	if !ok {
		return Session{}, false
	}
	return m.establish(ctx, account), true
}

// HandleAccountChange resets the session for a new account reported by the
// provider. An empty address disconnects.
func (m *Manager) HandleAccountChange(ctx context.Context, account common.Address) Session {
	if account == (common.Address{}) {
		m.Disconnect()
		return Session{}
	}
	return m.establish(ctx, account)
}

// Disconnect resets the session to empty.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Session{}
}

// Current returns the latest session snapshot.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// EvaluateRoles queries the ledger for the admin and issuer grants of addr.
// Best-effort and fail-closed: any query failure yields no privilege.
func (m *Manager) EvaluateRoles(ctx context.Context, addr common.Address) Roles {
	admin, err := m.gateway.HasRole(ctx, ledger.RoleAdmin, addr)
	if err != nil {
		m.logger.WarnContext(ctx, "role check failed, degrading to no privilege",
			"account", addr.Hex(), "error", err)
		return Roles{}
	}
	issuer, err := m.gateway.HasRole(ctx, ledger.RoleIssuer, addr)
	if err != nil {
		m.logger.WarnContext(ctx, "role check failed, degrading to no privilege",
			"account", addr.Hex(), "error", err)
		return Roles{}
	}
	return Roles{Admin: admin, Issuer: issuer}
}

func (m *Manager) establish(ctx context.Context, account common.Address) Session {
	roles := m.EvaluateRoles(ctx, account)

	signer, err := m.provider.Signer(account)
	if err != nil {
		// Read-only session; writes will be rejected at the gateway.
		m.logger.WarnContext(ctx, "no signer for account", "account", account.Hex(), "error", err)
		signer = nil
	}

	sess := Session{
		Account:   account,
		Connected: true,
		Roles:     roles,
		signer:    signer,
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session established",
		"account", account.Hex(), "admin", roles.Admin, "issuer", roles.Issuer)
	return sess
}
