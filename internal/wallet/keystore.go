package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"

	dErrors "credchain/pkg/domain-errors"
)

// KeystoreProvider backs the wallet contract with an on-disk geth keystore.
// Authorization means the first keystore account unlocks with the configured
// passphrase; a wrong or withheld passphrase plays the role of the holder
// declining the connect prompt.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	passphrase string
	chainID    *big.Int

	mu         sync.Mutex
	authorized bool
	account    common.Address
}

var _ Provider = (*KeystoreProvider)(nil)

// NewKeystoreProvider opens (or creates) the keystore directory.
func NewKeystoreProvider(dir, passphrase string, chainID int64) *KeystoreProvider {
	return &KeystoreProvider{
		ks:         keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		passphrase: passphrase,
		chainID:    big.NewInt(chainID),
	}
}

func (p *KeystoreProvider) Available() bool {
	return len(p.ks.Accounts()) > 0
}

func (p *KeystoreProvider) AuthorizedAccount(_ context.Context) (common.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authorized {
		return p.account, true
	}
	// Silent restore: only succeeds when a passphrase was configured up front,
	// i.e. the provider was pre-authorized. Never prompts, never errors.
	if p.passphrase == "" || !p.Available() {
		return common.Address{}, false
	}
	acct := p.ks.Accounts()[0]
	if err := p.ks.Unlock(acct, p.passphrase); err != nil {
		return common.Address{}, false
	}
	p.authorized = true
	p.account = acct.Address
	return acct.Address, true
}

func (p *KeystoreProvider) RequestAccount(_ context.Context) (common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Available() {
		return common.Address{}, dErrors.New(dErrors.CodeWalletUnavailable, "no wallet accounts available")
	}
	acct := p.ks.Accounts()[0]
	if err := p.ks.Unlock(acct, p.passphrase); err != nil {
		return common.Address{}, dErrors.Wrap(err, dErrors.CodeUserRejected, "wallet authorization declined")
	}
	p.authorized = true
	p.account = acct.Address
	return acct.Address, nil
}

func (p *KeystoreProvider) Signer(account common.Address) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.authorized || p.account != account {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account not authorized")
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: account}, p.chainID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build transactor")
	}
	return opts, nil
}
