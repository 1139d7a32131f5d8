// Package revocation burns credential tokens. Revocation is idempotent:
// absence from the ledger already means revoked, so revoking a token that is
// gone reports success without sending a transaction.
package revocation

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/audit"
	"credchain/internal/ledger"
	"credchain/internal/platform/metrics"
	"credchain/internal/session"
	dErrors "credchain/pkg/domain-errors"
)

// Result reports one revocation. AlreadyRevoked marks the idempotent no-op
// path; TxHash is zero in that case.
type Result struct {
	TokenID        *big.Int
	AlreadyRevoked bool
	TxHash         common.Hash
}

type Service struct {
	gateway ledger.Gateway
	logger  *slog.Logger
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(gateway ledger.Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revoke burns tokenID. The existence check runs first so that a token
// already gone short-circuits to success instead of a reverted transaction.
func (s *Service) Revoke(ctx context.Context, sess session.Session, tokenID *big.Int) (Result, error) {
	if !sess.Connected {
		return Result{}, dErrors.New(dErrors.CodeUnauthorized, "no wallet session")
	}
	if !sess.Roles.Issuer {
		return Result{}, dErrors.New(dErrors.CodeForbidden, "issuer role required")
	}
	if tokenID == nil || tokenID.Sign() < 0 {
		return Result{}, dErrors.New(dErrors.CodeValidation, "token id is required")
	}

	if _, err := s.gateway.OwnerOf(ctx, tokenID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.InfoContext(ctx, "token already revoked", "token", tokenID.String())
			return Result{TokenID: tokenID, AlreadyRevoked: true}, nil
		}
		return Result{}, err
	}

	txHash, err := s.gateway.RevokeCredential(ctx, sess.Signer(), tokenID)
	if err != nil {
		return Result{}, err
	}

	if s.metrics != nil {
		s.metrics.CredentialsRevoked.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Actor:   sess.Account.Hex(),
		Action:  audit.ActionRevoke,
		TokenID: tokenID.String(),
		TxHash:  txHash.Hex(),
	})
	s.logger.InfoContext(ctx, "credential revoked",
		"token", tokenID.String(), "tx", txHash.Hex())
	return Result{TokenID: tokenID, TxHash: txHash}, nil
}
