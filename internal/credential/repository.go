// Package credential reads and reconciles credential state from the ledger.
// All listings tolerate per-token failure: ledger state can change between an
// enumeration read and the detail reads, so a count is an upper bound, not a
// guarantee, and tokens that vanish in between are dropped rather than
// failing the whole listing.
package credential

import (
	"context"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"credchain/internal/ledger"
	dErrors "credchain/pkg/domain-errors"
)

// detailFanout bounds concurrent per-token detail reads.
const detailFanout = 8

// NameResolver resolves an issuer address to its registered display name.
type NameResolver interface {
	DisplayName(ctx context.Context, addr common.Address) (string, error)
}

// URLResolver turns a content-addressed document URI into a fetchable URL.
type URLResolver interface {
	GatewayURL(uri string) string
}

// Repository is the read side of the credential ledger client.
type Repository struct {
	gateway ledger.Gateway
	names   NameResolver
	urls    URLResolver
	logger  *slog.Logger
}

// Option configures the Repository.
type Option func(*Repository)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

func NewRepository(gateway ledger.Gateway, names NameResolver, urls URLResolver, opts ...Option) *Repository {
	r := &Repository{
		gateway: gateway,
		names:   names,
		urls:    urls,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListOwned enumerates the credentials currently held by owner. The balance
// read gives the index range; token ids are resolved per index, then details
// are fetched concurrently per token. A token whose details fail to resolve
// is reported in Listing.Dropped.
func (r *Repository) ListOwned(ctx context.Context, owner string) (Listing, error) {
	if !common.IsHexAddress(owner) {
		return Listing{}, dErrors.Newf(dErrors.CodeValidation, "invalid address %q", owner)
	}
	addr := common.HexToAddress(owner)

	balance, err := r.gateway.BalanceOf(ctx, addr)
	if err != nil {
		return Listing{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential count unavailable")
	}

	total := balance.Int64()
	tokenIDs := make([]*big.Int, 0, total)
	for i := int64(0); i < total; i++ {
		id, err := r.gateway.TokenOfOwnerByIndex(ctx, addr, big.NewInt(i))
		if err != nil {
			// The index shrank underneath us; whatever remains is gone too.
			break
		}
		tokenIDs = append(tokenIDs, id)
	}

	type slot struct {
		cred Credential
		ok   bool
	}
	slots := make([]slot, len(tokenIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFanout)
	for i, id := range tokenIDs {
		g.Go(func() error {
			cred, err := r.resolve(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.DebugContext(gctx, "token dropped from listing",
					"token_id", id.String(), "error", err)
				return nil
			}
			cred.Owner = addr.Hex()
			slots[i] = slot{cred: cred, ok: true}
			return nil
		})
	}
	// Per-token failures are swallowed above; Wait reports cancellation only.
	if err := g.Wait(); err != nil {
		return Listing{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "listing interrupted")
	}

	listing := Listing{}
	for i, s := range slots {
		if s.ok {
			listing.Items = append(listing.Items, s.cred)
		} else {
			listing.Dropped = append(listing.Dropped, tokenIDs[i].String())
		}
	}
	return listing, nil
}

// ListIssuedBy lists credentials minted by issuer via the historical event
// log, optionally narrowed to one student recipient (case-insensitive).
// Tokens revoked since issuance are dropped. Results preserve chronological
// event order.
func (r *Repository) ListIssuedBy(ctx context.Context, issuer string, studentFilter string) (Listing, error) {
	if !common.IsHexAddress(issuer) {
		return Listing{}, dErrors.Newf(dErrors.CodeValidation, "invalid address %q", issuer)
	}
	if studentFilter != "" && !common.IsHexAddress(studentFilter) {
		return Listing{}, dErrors.Newf(dErrors.CodeValidation, "invalid address %q", studentFilter)
	}
	issuerAddr := common.HexToAddress(issuer)

	events, err := r.gateway.FilterIssued(ctx, ledger.IssuedFilter{Issuer: &issuerAddr})
	if err != nil {
		return Listing{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "event query failed")
	}

	uniName := r.displayName(ctx, issuerAddr)

	listing := Listing{}
	for _, ev := range events {
		if studentFilter != "" && !strings.EqualFold(ev.To.Hex(), studentFilter) {
			continue
		}
		uri, err := r.gateway.TokenURI(ctx, ev.TokenID)
		if err != nil {
			listing.Dropped = append(listing.Dropped, ev.TokenID.String())
			continue
		}
		listing.Items = append(listing.Items, Credential{
			TokenID:        ev.TokenID.String(),
			Owner:          ev.To.Hex(),
			Issuer:         issuerAddr.Hex(),
			Title:          ev.Title,
			DocumentURI:    uri,
			DocumentURL:    r.urls.GatewayURL(uri),
			UniversityName: uniName,
		})
	}
	return listing, nil
}

// ListIssuedStatus is the revocation view: every token issuer ever minted,
// revoked ones included, each marked with its current status and sorted
// ascending by token id.
func (r *Repository) ListIssuedStatus(ctx context.Context, issuer string, studentFilter string) ([]IssuedRow, error) {
	if !common.IsHexAddress(issuer) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid address %q", issuer)
	}
	issuerAddr := common.HexToAddress(issuer)

	events, err := r.gateway.FilterIssued(ctx, ledger.IssuedFilter{Issuer: &issuerAddr})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "event query failed")
	}

	rows := make([]IssuedRow, 0, len(events))
	for _, ev := range events {
		if studentFilter != "" && !strings.EqualFold(ev.To.Hex(), studentFilter) {
			continue
		}
		status := StatusValid
		if _, err := r.gateway.OwnerOf(ctx, ev.TokenID); err != nil {
			status = StatusRevoked
		}
		rows = append(rows, IssuedRow{
			TokenID: ev.TokenID.String(),
			Student: ev.To.Hex(),
			Title:   ev.Title,
			Status:  status,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, _ := new(big.Int).SetString(rows[i].TokenID, 10)
		b, _ := new(big.Int).SetString(rows[j].TokenID, 10)
		return a.Cmp(b) < 0
	})
	return rows, nil
}

// resolve fetches the detail fields of one token. The three token reads are
// issued concurrently, matching the per-token fan-out of the listing.
func (r *Repository) resolve(ctx context.Context, tokenID *big.Int) (Credential, error) {
	var (
		uri, title string
		issuer     common.Address
	)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	wg.Add(3)
	go func() {
		defer wg.Done()
		uri, errs[0] = r.gateway.TokenURI(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		issuer, errs[1] = r.gateway.CredentialIssuer(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		title, errs[2] = r.gateway.CertificateTitle(ctx, tokenID)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Credential{}, err
		}
	}

	return Credential{
		TokenID:        tokenID.String(),
		Issuer:         issuer.Hex(),
		Title:          title,
		DocumentURI:    uri,
		DocumentURL:    r.urls.GatewayURL(uri),
		UniversityName: r.displayName(ctx, issuer),
	}, nil
}

// displayName is best-effort: an unnamed or unreachable directory entry
// renders as an empty name, never as a failure.
func (r *Repository) displayName(ctx context.Context, addr common.Address) string {
	name, err := r.names.DisplayName(ctx, addr)
	if err != nil {
		r.logger.DebugContext(ctx, "display name unavailable", "address", addr.Hex(), "error", err)
		return ""
	}
	return name
}
