package ledger

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	dErrors "credchain/pkg/domain-errors"
)

// EthereumGateway talks to the AcademicCredential contract over JSON-RPC.
//
// Single-token reads translate any call failure into CodeNotFound: the
// contract reverts on burned or never-issued tokens, and callers treat
// absence as revocation regardless of the revert reason.
type EthereumGateway struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	abi      abi.ABI
}

var _ Gateway = (*EthereumGateway)(nil)

// Dial connects to the ledger RPC endpoint and binds the contract.
func Dial(rpcURL, contractAddr string) (*EthereumGateway, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	return NewEthereumGateway(client, common.HexToAddress(contractAddr))
}

// NewEthereumGateway binds the contract on an existing client connection.
func NewEthereumGateway(client *ethclient.Client, address common.Address) (*EthereumGateway, error) {
	parsed, err := parsedABI()
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	return &EthereumGateway{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		address:  address,
		abi:      parsed,
	}, nil
}

// Close releases the underlying RPC connection.
func (g *EthereumGateway) Close() {
	g.client.Close()
}

func (g *EthereumGateway) call(ctx context.Context, method string, params ...any) ([]any, error) {
	var out []any
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *EthereumGateway) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	out, err := g.call(ctx, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, dErrors.Wrap(err, dErrors.CodeNotFound, "token does not exist")
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (g *EthereumGateway) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := g.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "balance lookup failed")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (g *EthereumGateway) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	out, err := g.call(ctx, "tokenOfOwnerByIndex", owner, index)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no token at index")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (g *EthereumGateway) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := g.call(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeNotFound, "token URI unavailable")
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (g *EthereumGateway) CredentialIssuer(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	out, err := g.call(ctx, "credentialIssuer", tokenID)
	if err != nil {
		return common.Address{}, dErrors.Wrap(err, dErrors.CodeNotFound, "issuer lookup failed")
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (g *EthereumGateway) CertificateTitle(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := g.call(ctx, "certificateTitle", tokenID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeNotFound, "title lookup failed")
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (g *EthereumGateway) UniversityName(ctx context.Context, addr common.Address) (string, error) {
	out, err := g.call(ctx, "universityNames", addr)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "university name lookup failed")
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (g *EthereumGateway) HasRole(ctx context.Context, role [32]byte, addr common.Address) (bool, error) {
	out, err := g.call(ctx, "hasRole", role, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "role lookup failed")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (g *EthereumGateway) UniversityCount(ctx context.Context) (*big.Int, error) {
	out, err := g.call(ctx, "getUniversityCount")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "university count lookup failed")
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (g *EthereumGateway) UniversityAtIndex(ctx context.Context, index *big.Int) (common.Address, string, error) {
	out, err := g.call(ctx, "getUniversityAtIndex", index)
	if err != nil {
		return common.Address{}, "", dErrors.Wrap(err, dErrors.CodeNotFound, "no university at index")
	}
	addr := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	name := *abi.ConvertType(out[1], new(string)).(*string)
	return addr, name, nil
}

// IssueCredential submits the mint transaction and waits for on-ledger
// confirmation. The receipt is scanned for CredentialIssued events; an absent
// or unparseable event does not fail the mint.
func (g *EthereumGateway) IssueCredential(ctx context.Context, signer *bind.TransactOpts, student common.Address, uri, title string) (*MintResult, error) {
	receipt, err := g.transact(ctx, signer, "issueCredential", student, uri, title)
	if err != nil {
		return nil, err
	}
	result := &MintResult{TxHash: receipt.TxHash}
	for _, lg := range receipt.Logs {
		ev, ok := g.parseIssued(*lg)
		if !ok {
			continue
		}
		result.Issued = append(result.Issued, ev)
	}
	return result, nil
}

func (g *EthereumGateway) RevokeCredential(ctx context.Context, signer *bind.TransactOpts, tokenID *big.Int) (common.Hash, error) {
	receipt, err := g.transact(ctx, signer, "revokeCredential", tokenID)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

func (g *EthereumGateway) AddUniversity(ctx context.Context, signer *bind.TransactOpts, addr common.Address, name string) (common.Hash, error) {
	receipt, err := g.transact(ctx, signer, "addUniversity", addr, name)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// transact submits a state-changing call and blocks until the transaction is
// mined. There is no retry on timeout: a stalled transaction surfaces as a
// context error and the caller decides what to tell the user.
func (g *EthereumGateway) transact(ctx context.Context, signer *bind.TransactOpts, method string, params ...any) (*types.Receipt, error) {
	if signer == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no signing session")
	}
	opts := *signer
	opts.Context = ctx

	tx, err := g.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransactionFailed, fmt.Sprintf("%s rejected", method))
	}
	receipt, err := bind.WaitMined(ctx, g.client, tx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransactionFailed, fmt.Sprintf("%s confirmation failed", method))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, dErrors.Newf(dErrors.CodeTransactionFailed, "%s reverted (tx %s)", method, receipt.TxHash.Hex())
	}
	return receipt, nil
}

// FilterIssued queries historical CredentialIssued events. Results preserve
// the ledger's chronological order.
func (g *EthereumGateway) FilterIssued(ctx context.Context, filter IssuedFilter) ([]IssuedEvent, error) {
	eventID := g.abi.Events[issuedEventName].ID

	topics := [][]common.Hash{{eventID}}
	if filter.Issuer != nil {
		topics = append(topics, []common.Hash{addressTopic(*filter.Issuer)})
	} else if filter.To != nil {
		topics = append(topics, nil)
	}
	if filter.To != nil {
		topics = append(topics, []common.Hash{addressTopic(*filter.To)})
	}

	logs, err := g.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{g.address},
		Topics:    topics,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "event query failed")
	}

	events := make([]IssuedEvent, 0, len(logs))
	for _, lg := range logs {
		ev, ok := g.parseIssued(lg)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *EthereumGateway) parseIssued(lg types.Log) (IssuedEvent, bool) {
	eventID := g.abi.Events[issuedEventName].ID
	if len(lg.Topics) < 3 || lg.Topics[0] != eventID {
		return IssuedEvent{}, false
	}
	unpacked, err := g.abi.Unpack(issuedEventName, lg.Data)
	if err != nil || len(unpacked) < 2 {
		return IssuedEvent{}, false
	}
	tokenID, ok := unpacked[0].(*big.Int)
	if !ok {
		return IssuedEvent{}, false
	}
	title, _ := unpacked[1].(string)
	return IssuedEvent{
		Issuer:      common.BytesToAddress(lg.Topics[1].Bytes()),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()),
		TokenID:     tokenID,
		Title:       title,
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
	}, true
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
