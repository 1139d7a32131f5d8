// Package verification decides whether a token is valid for a claimed owner
// and a claimed issuing authority. The protocol is stateless: every call
// reads fresh ledger state, and nothing is persisted.
package verification

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/credential"
	"credchain/internal/ledger"
	dErrors "credchain/pkg/domain-errors"
)

// Outcome is the terminal state of one verification run.
type Outcome string

const (
	OutcomeValid              Outcome = "VALID"
	OutcomeOwnerMismatch      Outcome = "OWNER_MISMATCH"
	OutcomeIssuerMismatch     Outcome = "ISSUER_MISMATCH"
	OutcomeNotFound           Outcome = "NOT_FOUND"
	OutcomeIssuerLookupFailed Outcome = "ISSUER_LOOKUP_FAILED"
)

// Request names the token and the optional claims to check it against.
// Empty ExpectedOwner/ExpectedIssuer skip the corresponding check, which
// turns verification into a pure existence + metadata lookup.
type Request struct {
	TokenID        string
	ExpectedOwner  string
	ExpectedIssuer string
}

// Result is produced fresh per call and never persisted. Owner/Issuer are
// reported when they were resolved before the terminal check fired, so a
// mismatch can still show who actually holds or issued the token.
type Result struct {
	Outcome        Outcome
	Owner          string
	Issuer         string
	UniversityName string
	Title          string
	DocumentURL    string
}

// Engine runs the verification protocol against the ledger.
type Engine struct {
	gateway ledger.Gateway
	names   credential.NameResolver
	urls    credential.URLResolver
	logger  *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(gateway ledger.Gateway, names credential.NameResolver, urls credential.URLResolver, opts ...Option) *Engine {
	e := &Engine{
		gateway: gateway,
		names:   names,
		urls:    urls,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify runs the short-circuit protocol: existence, owner claim, issuer
// resolution, issuer claim, then metadata enrichment. The first failing step
// is terminal. Verify returns an error only for malformed input; every
// ledger-state disagreement is a Result, not an error.
func (e *Engine) Verify(ctx context.Context, req Request) (Result, error) {
	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(req.TokenID), 10)
	if !ok || tokenID.Sign() < 0 {
		return Result{}, dErrors.Newf(dErrors.CodeValidation, "invalid token id %q", req.TokenID)
	}
	if req.ExpectedOwner != "" && !common.IsHexAddress(req.ExpectedOwner) {
		return Result{}, dErrors.Newf(dErrors.CodeValidation, "invalid owner address %q", req.ExpectedOwner)
	}
	if req.ExpectedIssuer != "" && !common.IsHexAddress(req.ExpectedIssuer) {
		return Result{}, dErrors.Newf(dErrors.CodeValidation, "invalid issuer address %q", req.ExpectedIssuer)
	}

	// Step 1: existence. A failed ownership lookup means revoked or never
	// issued; the two are indistinguishable on the ledger.
	owner, err := e.gateway.OwnerOf(ctx, tokenID)
	if err != nil {
		return Result{Outcome: OutcomeNotFound}, nil
	}

	// Step 2: owner claim.
	if req.ExpectedOwner != "" && !strings.EqualFold(owner.Hex(), req.ExpectedOwner) {
		return Result{Outcome: OutcomeOwnerMismatch, Owner: owner.Hex()}, nil
	}

	// Step 3: issuer resolution.
	issuer, err := e.gateway.CredentialIssuer(ctx, tokenID)
	if err != nil {
		return Result{Outcome: OutcomeIssuerLookupFailed, Owner: owner.Hex()}, nil
	}

	// Step 4: issuer claim.
	if req.ExpectedIssuer != "" && !strings.EqualFold(issuer.Hex(), req.ExpectedIssuer) {
		return Result{
			Outcome:        OutcomeIssuerMismatch,
			Owner:          owner.Hex(),
			Issuer:         issuer.Hex(),
			UniversityName: e.displayName(ctx, issuer),
		}, nil
	}

	// Step 5: valid. Metadata enrichment is best-effort and never downgrades
	// the outcome.
	result := Result{
		Outcome:        OutcomeValid,
		Owner:          owner.Hex(),
		Issuer:         issuer.Hex(),
		UniversityName: e.displayName(ctx, issuer),
	}
	if title, err := e.gateway.CertificateTitle(ctx, tokenID); err == nil {
		result.Title = title
	}
	if uri, err := e.gateway.TokenURI(ctx, tokenID); err == nil && uri != "" {
		result.DocumentURL = e.urls.GatewayURL(uri)
	}
	return result, nil
}

func (e *Engine) displayName(ctx context.Context, addr common.Address) string {
	name, err := e.names.DisplayName(ctx, addr)
	if err != nil {
		e.logger.DebugContext(ctx, "display name unavailable", "address", addr.Hex(), "error", err)
		return ""
	}
	return name
}
