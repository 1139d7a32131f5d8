package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credchain/internal/platform/metrics"
)

// instrumented wraps a Gateway with tracing spans and call metrics. Every
// contract method becomes one span and one duration observation labeled by
// method and outcome.
type instrumented struct {
	next    Gateway
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Instrument decorates gw with tracing and metrics. A nil metrics handle
// disables observation recording but keeps spans.
func Instrument(gw Gateway, m *metrics.Metrics) Gateway {
	return &instrumented{
		next:    gw,
		metrics: m,
		tracer:  otel.Tracer("credchain/ledger"),
	}
}

func (i *instrumented) observe(ctx context.Context, method string, fn func(ctx context.Context) error) {
	ctx, span := i.tracer.Start(ctx, "ledger."+method,
		trace.WithAttributes(attribute.String("ledger.method", method)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	i.metrics.ObserveLedgerCall(method, outcome, time.Since(start).Seconds())
}

func (i *instrumented) OwnerOf(ctx context.Context, tokenID *big.Int) (addr common.Address, err error) {
	i.observe(ctx, "ownerOf", func(ctx context.Context) error {
		addr, err = i.next.OwnerOf(ctx, tokenID)
		return err
	})
	return
}

func (i *instrumented) BalanceOf(ctx context.Context, owner common.Address) (bal *big.Int, err error) {
	i.observe(ctx, "balanceOf", func(ctx context.Context) error {
		bal, err = i.next.BalanceOf(ctx, owner)
		return err
	})
	return
}

func (i *instrumented) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (id *big.Int, err error) {
	i.observe(ctx, "tokenOfOwnerByIndex", func(ctx context.Context) error {
		id, err = i.next.TokenOfOwnerByIndex(ctx, owner, index)
		return err
	})
	return
}

func (i *instrumented) TokenURI(ctx context.Context, tokenID *big.Int) (uri string, err error) {
	i.observe(ctx, "tokenURI", func(ctx context.Context) error {
		uri, err = i.next.TokenURI(ctx, tokenID)
		return err
	})
	return
}

func (i *instrumented) CredentialIssuer(ctx context.Context, tokenID *big.Int) (addr common.Address, err error) {
	i.observe(ctx, "credentialIssuer", func(ctx context.Context) error {
		addr, err = i.next.CredentialIssuer(ctx, tokenID)
		return err
	})
	return
}

func (i *instrumented) CertificateTitle(ctx context.Context, tokenID *big.Int) (title string, err error) {
	i.observe(ctx, "certificateTitle", func(ctx context.Context) error {
		title, err = i.next.CertificateTitle(ctx, tokenID)
		return err
	})
	return
}

func (i *instrumented) UniversityName(ctx context.Context, addr common.Address) (name string, err error) {
	i.observe(ctx, "universityNames", func(ctx context.Context) error {
		name, err = i.next.UniversityName(ctx, addr)
		return err
	})
	return
}

func (i *instrumented) HasRole(ctx context.Context, role [32]byte, addr common.Address) (ok bool, err error) {
	i.observe(ctx, "hasRole", func(ctx context.Context) error {
		ok, err = i.next.HasRole(ctx, role, addr)
		return err
	})
	return
}

func (i *instrumented) UniversityCount(ctx context.Context) (count *big.Int, err error) {
	i.observe(ctx, "getUniversityCount", func(ctx context.Context) error {
		count, err = i.next.UniversityCount(ctx)
		return err
	})
	return
}

func (i *instrumented) UniversityAtIndex(ctx context.Context, index *big.Int) (addr common.Address, name string, err error) {
	i.observe(ctx, "getUniversityAtIndex", func(ctx context.Context) error {
		addr, name, err = i.next.UniversityAtIndex(ctx, index)
		return err
	})
	return
}

func (i *instrumented) IssueCredential(ctx context.Context, signer *bind.TransactOpts, student common.Address, uri, title string) (res *MintResult, err error) {
	i.observe(ctx, "issueCredential", func(ctx context.Context) error {
		res, err = i.next.IssueCredential(ctx, signer, student, uri, title)
		return err
	})
	return
}

func (i *instrumented) RevokeCredential(ctx context.Context, signer *bind.TransactOpts, tokenID *big.Int) (tx common.Hash, err error) {
	i.observe(ctx, "revokeCredential", func(ctx context.Context) error {
		tx, err = i.next.RevokeCredential(ctx, signer, tokenID)
		return err
	})
	return
}

func (i *instrumented) AddUniversity(ctx context.Context, signer *bind.TransactOpts, addr common.Address, name string) (tx common.Hash, err error) {
	i.observe(ctx, "addUniversity", func(ctx context.Context) error {
		tx, err = i.next.AddUniversity(ctx, signer, addr, name)
		return err
	})
	return
}

func (i *instrumented) FilterIssued(ctx context.Context, filter IssuedFilter) (events []IssuedEvent, err error) {
	i.observe(ctx, "queryEvents", func(ctx context.Context) error {
		events, err = i.next.FilterIssued(ctx, filter)
		return err
	})
	return
}
