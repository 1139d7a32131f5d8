// Package ledger wraps the AcademicCredential contract behind a typed gateway.
// The contract is the source of truth for ownership, issuance, revocation, and
// role grants; this package only translates between Go types and the contract
// surface. A token that fails an ownership lookup does not exist — revocation
// burns the token, there is no revoked flag.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RoleAdmin is the contract's default admin role (the zero hash).
var RoleAdmin = [32]byte{}

// RoleIssuer is keccak256("ISSUER_ROLE"), the role granted to universities.
var RoleIssuer = [32]byte(crypto.Keccak256Hash([]byte("ISSUER_ROLE")))

// IssuedEvent is one CredentialIssued log entry.
type IssuedEvent struct {
	Issuer      common.Address
	To          common.Address
	TokenID     *big.Int
	Title       string
	BlockNumber uint64
	TxHash      common.Hash
}

// IssuedFilter narrows an event query. Nil fields match anything.
type IssuedFilter struct {
	Issuer *common.Address
	To     *common.Address
}

// MintResult carries a confirmed issuance transaction and the CredentialIssued
// events found in its receipt. Issued may be empty: the contract is not
// obligated to emit in a shape we recognize, and a confirmed mint without a
// parseable event is still a successful mint.
type MintResult struct {
	TxHash common.Hash
	Issued []IssuedEvent
}

// Gateway is the read/write surface of the credential contract. Read methods
// that target a single token return a CodeNotFound-coded error when the token
// does not exist (i.e. was revoked or never issued).
type Gateway interface {
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	CredentialIssuer(ctx context.Context, tokenID *big.Int) (common.Address, error)
	CertificateTitle(ctx context.Context, tokenID *big.Int) (string, error)
	UniversityName(ctx context.Context, addr common.Address) (string, error)
	HasRole(ctx context.Context, role [32]byte, addr common.Address) (bool, error)
	UniversityCount(ctx context.Context) (*big.Int, error)
	UniversityAtIndex(ctx context.Context, index *big.Int) (common.Address, string, error)

	IssueCredential(ctx context.Context, signer *bind.TransactOpts, student common.Address, uri, title string) (*MintResult, error)
	RevokeCredential(ctx context.Context, signer *bind.TransactOpts, tokenID *big.Int) (common.Hash, error)
	AddUniversity(ctx context.Context, signer *bind.TransactOpts, addr common.Address, name string) (common.Hash, error)

	FilterIssued(ctx context.Context, filter IssuedFilter) ([]IssuedEvent, error)
}
