// Package ledgertest provides a configurable in-memory Gateway for tests.
// It mirrors the contract's observable behavior: burned tokens fail ownership
// lookups, the issuance event log is append-only, and the owner index can be
// left stale to reproduce the enumerate/detail race.
package ledgertest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/ledger"
	dErrors "credchain/pkg/domain-errors"
)

// Token is current on-ledger state for one credential.
type Token struct {
	Owner  common.Address
	Issuer common.Address
	Title  string
	URI    string
}

// University is one directory entry.
type University struct {
	Address common.Address
	Name    string
}

// Fake implements ledger.Gateway against in-memory state.
// Zero value is ready to use. Error fields, when set, are returned by the
// corresponding method. Mutating calls count invocations so tests can assert
// fail-fast behavior.
type Fake struct {
	mu           sync.Mutex
	tokens       map[string]*Token
	owned        map[common.Address][]*big.Int
	names        map[common.Address]string
	roles        map[[32]byte]map[common.Address]bool
	universities []University
	events       []ledger.IssuedEvent
	nextID       int64

	BalanceOfErr error
	HasRoleErr   error
	NameErr      error
	IssuerErr    error
	FilterErr    error
	MintErr      error
	RevokeErr    error
	AddErr       error

	// OmitIssuedEvent makes a successful mint produce no CredentialIssued
	// event in its receipt.
	OmitIssuedEvent bool

	MintCalls   int
	RevokeCalls int
	AddCalls    int

	nameLookups int
}

func New() *Fake {
	return &Fake{}
}

var _ ledger.Gateway = (*Fake)(nil)

func (f *Fake) init() {
	if f.tokens == nil {
		f.tokens = make(map[string]*Token)
		f.owned = make(map[common.Address][]*big.Int)
		f.names = make(map[common.Address]string)
		f.roles = make(map[[32]byte]map[common.Address]bool)
		f.nextID = 1
	}
}

// SeedToken installs a token with the given id, indexes it under its owner,
// and appends the matching issuance event.
func (f *Fake) SeedToken(id int64, tok Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	tokenID := big.NewInt(id)
	f.tokens[tokenID.String()] = &tok
	f.owned[tok.Owner] = append(f.owned[tok.Owner], tokenID)
	f.events = append(f.events, ledger.IssuedEvent{
		Issuer:  tok.Issuer,
		To:      tok.Owner,
		TokenID: tokenID,
		Title:   tok.Title,
	})
	if id >= f.nextID {
		f.nextID = id + 1
	}
}

// DropDetails removes a token's state but leaves the owner index and event log
// untouched, reproducing a revocation that lands between a count read and the
// detail reads.
func (f *Fake) DropDetails(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	delete(f.tokens, big.NewInt(id).String())
}

// Burn fully revokes a token: state and owner index are removed, the event log
// keeps its issuance entry.
func (f *Fake) Burn(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	key := big.NewInt(id).String()
	tok, ok := f.tokens[key]
	if !ok {
		return
	}
	delete(f.tokens, key)
	kept := f.owned[tok.Owner][:0]
	for _, tid := range f.owned[tok.Owner] {
		if tid.String() != key {
			kept = append(kept, tid)
		}
	}
	f.owned[tok.Owner] = kept
}

// GrantRole grants a ledger role to an address.
func (f *Fake) GrantRole(role [32]byte, addr common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.roles[role] == nil {
		f.roles[role] = make(map[common.Address]bool)
	}
	f.roles[role][addr] = true
}

// SeedUniversity installs a directory entry and its display name.
func (f *Fake) SeedUniversity(addr common.Address, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.universities = append(f.universities, University{Address: addr, Name: name})
	f.names[addr] = name
}

// NameLookups reports how many display-name reads hit the ledger.
func (f *Fake) NameLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameLookups
}

func (f *Fake) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	tok, ok := f.tokens[tokenID.String()]
	if !ok {
		return common.Address{}, dErrors.New(dErrors.CodeNotFound, "token does not exist")
	}
	return tok.Owner, nil
}

func (f *Fake) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.BalanceOfErr != nil {
		return nil, f.BalanceOfErr
	}
	return big.NewInt(int64(len(f.owned[owner]))), nil
}

func (f *Fake) TokenOfOwnerByIndex(_ context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	list := f.owned[owner]
	i := index.Int64()
	if i < 0 || i >= int64(len(list)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no token at index")
	}
	return new(big.Int).Set(list[i]), nil
}

func (f *Fake) TokenURI(_ context.Context, tokenID *big.Int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	tok, ok := f.tokens[tokenID.String()]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "token URI unavailable")
	}
	return tok.URI, nil
}

func (f *Fake) CredentialIssuer(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.IssuerErr != nil {
		return common.Address{}, f.IssuerErr
	}
	tok, ok := f.tokens[tokenID.String()]
	if !ok {
		return common.Address{}, dErrors.New(dErrors.CodeNotFound, "issuer lookup failed")
	}
	return tok.Issuer, nil
}

func (f *Fake) CertificateTitle(_ context.Context, tokenID *big.Int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	tok, ok := f.tokens[tokenID.String()]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "title lookup failed")
	}
	return tok.Title, nil
}

func (f *Fake) UniversityName(_ context.Context, addr common.Address) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.NameErr != nil {
		return "", f.NameErr
	}
	f.nameLookups++
	return f.names[addr], nil
}

func (f *Fake) HasRole(_ context.Context, role [32]byte, addr common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.HasRoleErr != nil {
		return false, f.HasRoleErr
	}
	return f.roles[role][addr], nil
}

func (f *Fake) UniversityCount(_ context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	return big.NewInt(int64(len(f.universities))), nil
}

func (f *Fake) UniversityAtIndex(_ context.Context, index *big.Int) (common.Address, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	i := index.Int64()
	if i < 0 || i >= int64(len(f.universities)) {
		return common.Address{}, "", dErrors.New(dErrors.CodeNotFound, "no university at index")
	}
	u := f.universities[i]
	return u.Address, u.Name, nil
}

func (f *Fake) IssueCredential(_ context.Context, signer *bind.TransactOpts, student common.Address, uri, title string) (*ledger.MintResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.MintCalls++
	if f.MintErr != nil {
		return nil, f.MintErr
	}

	tokenID := big.NewInt(f.nextID)
	f.nextID++
	issuer := f.lastGranted(ledger.RoleIssuer)
	if signer != nil {
		issuer = signer.From
	}
	f.tokens[tokenID.String()] = &Token{Owner: student, Issuer: issuer, Title: title, URI: uri}
	f.owned[student] = append(f.owned[student], tokenID)

	ev := ledger.IssuedEvent{Issuer: issuer, To: student, TokenID: tokenID, Title: title}
	f.events = append(f.events, ev)

	result := &ledger.MintResult{TxHash: common.BigToHash(tokenID)}
	if !f.OmitIssuedEvent {
		result.Issued = []ledger.IssuedEvent{ev}
	}
	return result, nil
}

func (f *Fake) RevokeCredential(_ context.Context, _ *bind.TransactOpts, tokenID *big.Int) (common.Hash, error) {
	f.mu.Lock()
	f.init()
	f.RevokeCalls++
	if f.RevokeErr != nil {
		f.mu.Unlock()
		return common.Hash{}, f.RevokeErr
	}
	key := tokenID.String()
	if _, ok := f.tokens[key]; !ok {
		f.mu.Unlock()
		return common.Hash{}, dErrors.New(dErrors.CodeTransactionFailed, "revoke reverted: nonexistent token")
	}
	id := tokenID.Int64()
	f.mu.Unlock()
	f.Burn(id)
	return common.BigToHash(tokenID), nil
}

func (f *Fake) AddUniversity(_ context.Context, _ *bind.TransactOpts, addr common.Address, name string) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.AddCalls++
	if f.AddErr != nil {
		return common.Hash{}, f.AddErr
	}
	f.universities = append(f.universities, University{Address: addr, Name: name})
	f.names[addr] = name
	return common.BytesToHash(addr.Bytes()), nil
}

func (f *Fake) FilterIssued(_ context.Context, filter ledger.IssuedFilter) ([]ledger.IssuedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.FilterErr != nil {
		return nil, f.FilterErr
	}
	var out []ledger.IssuedEvent
	for _, ev := range f.events {
		if filter.Issuer != nil && ev.Issuer != *filter.Issuer {
			continue
		}
		if filter.To != nil && ev.To != *filter.To {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// lastGranted returns an arbitrary holder of role, used to stamp minted tokens
// with a plausible issuer when tests do not care which.
func (f *Fake) lastGranted(role [32]byte) common.Address {
	for addr := range f.roles[role] {
		return addr
	}
	return common.Address{}
}
