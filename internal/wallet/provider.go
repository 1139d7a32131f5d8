// Package wallet models the signing-key provider a session connects through.
// The interaction contract mirrors a browser wallet: an explicit connect that
// the holder can refuse, and a silent probe for an already-authorized account.
package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Provider exposes wallet accounts and signing capability.
type Provider interface {
	// Available reports whether a provider with at least one account exists.
	Available() bool

	// AuthorizedAccount returns an account the provider has already
	// authorized, without prompting. ok is false when none is authorized.
	AuthorizedAccount(ctx context.Context) (account common.Address, ok bool)

	// RequestAccount asks the provider to authorize an account. Fails with
	// CodeWalletUnavailable when no provider/account exists and
	// CodeUserRejected when authorization is declined.
	RequestAccount(ctx context.Context) (common.Address, error)

	// Signer returns transaction signing options for an authorized account.
	Signer(account common.Address) (*bind.TransactOpts, error)
}
