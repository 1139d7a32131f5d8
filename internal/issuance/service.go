// Package issuance mints credential tokens. The pipeline is strictly
// upload-then-mint: a document that fails to pin never reaches the ledger,
// so there can be no token pointing at a document that was never stored.
package issuance

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/audit"
	"credchain/internal/docstore"
	"credchain/internal/ledger"
	"credchain/internal/platform/metrics"
	"credchain/internal/session"
	dErrors "credchain/pkg/domain-errors"
)

// Request carries everything needed to mint one credential.
type Request struct {
	Student  string
	Title    string
	Document []byte
	Filename string
}

// IssuedRecord describes a completed issuance. TokenResolved is false when
// the mint confirmed but the receipt carried no recognizable issuance event;
// the token exists on the ledger and shows up in listings regardless.
type IssuedRecord struct {
	TokenID       *big.Int
	Student       common.Address
	Title         string
	DocumentURI   string
	TxHash        common.Hash
	TokenResolved bool
}

// Service validates, pins, and mints. It holds no per-request state.
type Service struct {
	gateway ledger.Gateway
	pinner  docstore.Pinner
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

func NewService(gateway ledger.Gateway, pinner docstore.Pinner, opts ...Option) *Service {
	s := &Service{gateway: gateway, pinner: pinner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue runs the issuance pipeline for the given session. Preconditions are
// checked before any network traffic: no document is uploaded for a request
// that was never going to mint.
func (s *Service) Issue(ctx context.Context, sess session.Session, req Request) (IssuedRecord, error) {
	if !sess.Connected {
		return IssuedRecord{}, dErrors.New(dErrors.CodeUnauthorized, "no wallet session")
	}
	if !sess.Roles.Issuer {
		return IssuedRecord{}, dErrors.New(dErrors.CodeForbidden, "issuer role required")
	}
	if err := validate(req); err != nil {
		return IssuedRecord{}, err
	}
	student := common.HexToAddress(req.Student)

	uri, err := s.pinner.Pin(ctx, req.Document, pinName(req))
	if err != nil {
		return IssuedRecord{}, err
	}
	if s.metrics != nil {
		s.metrics.DocumentsPinned.Inc()
	}

	result, err := s.gateway.IssueCredential(ctx, sess.Signer(), student, uri, req.Title)
	if err != nil {
		return IssuedRecord{}, err
	}

	record := IssuedRecord{
		Student:     student,
		Title:       req.Title,
		DocumentURI: uri,
		TxHash:      result.TxHash,
	}
	if len(result.Issued) > 0 {
		record.TokenID = result.Issued[0].TokenID
		record.TokenResolved = true
	} else {
		// The receipt carried no issuance event. The mint still confirmed,
		// so report success without a token id rather than failing.
		s.logger.WarnContext(ctx, "issuance event missing from receipt",
			"tx", result.TxHash.Hex(), "student", student.Hex())
	}

	if s.metrics != nil {
		s.metrics.CredentialsIssued.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Actor:   sess.Account.Hex(),
		Action:  audit.ActionIssue,
		Subject: student.Hex(),
		TokenID: tokenLabel(record),
		TxHash:  result.TxHash.Hex(),
		Detail:  req.Title,
	})
	s.logger.InfoContext(ctx, "credential issued",
		"student", student.Hex(),
		"token", tokenLabel(record),
		"tx", result.TxHash.Hex())
	return record, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.Student) == "" {
		return dErrors.New(dErrors.CodeValidation, "student address is required")
	}
	if !common.IsHexAddress(req.Student) {
		return dErrors.New(dErrors.CodeValidation, "student address is not a valid hex address")
	}
	if strings.TrimSpace(req.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate title is required")
	}
	if len(req.Document) == 0 {
		return dErrors.New(dErrors.CodeValidation, "certificate document is required")
	}
	return nil
}

func pinName(req Request) string {
	if req.Filename != "" {
		return req.Filename
	}
	return req.Title
}

func tokenLabel(r IssuedRecord) string {
	if !r.TokenResolved {
		return ""
	}
	return r.TokenID.String()
}
