// Package httptransport is the thin HTTP layer over the ledger client. It
// delegates to domain services without embedding business logic so transport
// concerns remain isolated.
package httptransport

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/audit"
	"credchain/internal/authtoken"
	"credchain/internal/credential"
	"credchain/internal/issuance"
	"credchain/internal/platform/metrics"
	"credchain/internal/registry"
	"credchain/internal/revocation"
	"credchain/internal/session"
	"credchain/internal/verification"
	dErrors "credchain/pkg/domain-errors"
)

// SessionManager is the session surface the handlers need.
type SessionManager interface {
	Connect(ctx context.Context) (session.Session, error)
	Disconnect()
	Current() session.Session
}

// Verifier runs the verification protocol.
type Verifier interface {
	Verify(ctx context.Context, req verification.Request) (verification.Result, error)
}

// CredentialReader is the read side of the ledger.
type CredentialReader interface {
	ListOwned(ctx context.Context, owner string) (credential.Listing, error)
	ListIssuedStatus(ctx context.Context, issuer string, studentFilter string) ([]credential.IssuedRow, error)
}

// Issuer mints credentials.
type Issuer interface {
	Issue(ctx context.Context, sess session.Session, req issuance.Request) (issuance.IssuedRecord, error)
}

// Revoker burns credentials.
type Revoker interface {
	Revoke(ctx context.Context, sess session.Session, tokenID *big.Int) (revocation.Result, error)
}

// Registry manages the university registry.
type Registry interface {
	List(ctx context.Context) ([]registry.University, error)
	Add(ctx context.Context, sess session.Session, address, name string) (common.Hash, error)
}

// HealthChecker reports readiness of an optional dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds the wired services. All route methods hang off it.
type Handler struct {
	logger        *slog.Logger
	sessions      SessionManager
	tokens        *authtoken.Service
	credentials   CredentialReader
	verifier      Verifier
	issuer        Issuer
	revoker       Revoker
	registry      Registry
	metrics       *metrics.Metrics
	audit         *audit.Publisher
	health        []HealthChecker
	verifyBaseURL string
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithAuditPublisher records session lifecycle events to the audit trail.
func WithAuditPublisher(p *audit.Publisher) Option {
	return func(h *Handler) { h.audit = p }
}

// WithHealthChecker registers a dependency for /healthz. Nil checkers are
// ignored so optional dependencies wire through unconditionally.
func WithHealthChecker(c HealthChecker) Option {
	return func(h *Handler) {
		if c != nil {
			h.health = append(h.health, c)
		}
	}
}

// WithVerifyBaseURL enables share-link building on issuance responses.
func WithVerifyBaseURL(base string) Option {
	return func(h *Handler) { h.verifyBaseURL = base }
}

func New(
	sessions SessionManager,
	tokens *authtoken.Service,
	credentials CredentialReader,
	verifier Verifier,
	issuer Issuer,
	revoker Revoker,
	reg Registry,
	opts ...Option,
) *Handler {
	h := &Handler{
		logger:      slog.Default(),
		sessions:    sessions,
		tokens:      tokens,
		credentials: credentials,
		verifier:    verifier,
		issuer:      issuer,
		revoker:     revoker,
		registry:    reg,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// actingSession returns the wallet session for a mutating request. The bearer
// token must belong to the currently connected account; a token minted for a
// previous account is stale and rejected.
func (h *Handler) actingSession(account string) (session.Session, error) {
	sess := h.sessions.Current()
	if !sess.Connected {
		return session.Session{}, dErrors.New(dErrors.CodeUnauthorized, "no wallet session")
	}
	if !sess.Is(account) {
		return session.Session{}, dErrors.New(dErrors.CodeUnauthorized, "token does not match the connected account")
	}
	return sess, nil
}

// readAll reads at most limit bytes and rejects anything larger. Silent
// truncation is never acceptable here: a truncated document would be pinned
// and minted as-is, leaving the ledger pointing at a corrupt file forever.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, dErrors.Newf(dErrors.CodeValidation, "document exceeds the %d byte limit", limit)
	}
	return data, nil
}

func parseTokenID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() < 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "malformed token id %q", raw)
	}
	return id, nil
}
