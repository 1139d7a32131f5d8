package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/ledger/ledgertest"
	dErrors "credchain/pkg/domain-errors"
)

type stubNames map[string]string

func (s stubNames) DisplayName(_ context.Context, addr common.Address) (string, error) {
	return s[addr.Hex()], nil
}

type gatewayURLs struct{}

func (gatewayURLs) GatewayURL(uri string) string { return "https://ipfs.io/resolved/" + uri }

var (
	ownerAddr   = common.HexToAddress("0xBEEF00000000000000000000000000000000BEEF")
	uniAddr     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	wrongAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	anotherAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func newEngine(t *testing.T) (*ledgertest.Fake, *Engine) {
	t.Helper()
	gw := ledgertest.New()
	gw.SeedToken(42, ledgertest.Token{Owner: ownerAddr, Issuer: uniAddr, Title: "BSc CS", URI: "ipfs://QmDoc"})
	engine := NewEngine(gw, stubNames{uniAddr.Hex(): "MIT"}, gatewayURLs{})
	return gw, engine
}

func TestEngine_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token is NOT_FOUND", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{TokenID: "999"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome)
	})

	t.Run("revoked token is NOT_FOUND", func(t *testing.T) {
		gw, engine := newEngine(t)
		gw.Burn(42)
		res, err := engine.Verify(ctx, Request{TokenID: "42"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome)
	})

	t.Run("owner mismatch is terminal and reports the actual owner", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{
			TokenID:       "42",
			ExpectedOwner: wrongAddr.Hex(),
			// An issuer mismatch is also present but must never be reached.
			ExpectedIssuer: anotherAddr.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeOwnerMismatch, res.Outcome)
		assert.Equal(t, ownerAddr.Hex(), res.Owner)
		assert.Empty(t, res.Issuer)
	})

	t.Run("owner match is case-insensitive", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{
			TokenID:       "42",
			ExpectedOwner: "0xbeef00000000000000000000000000000000beef",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeValid, res.Outcome)
	})

	t.Run("issuer mismatch reports issuer and display name", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{
			TokenID:        "42",
			ExpectedOwner:  ownerAddr.Hex(),
			ExpectedIssuer: wrongAddr.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeIssuerMismatch, res.Outcome)
		assert.Equal(t, uniAddr.Hex(), res.Issuer)
		assert.Equal(t, "MIT", res.UniversityName)
	})

	t.Run("issuer lookup failure reports ISSUER_LOOKUP_FAILED with the owner", func(t *testing.T) {
		gw, engine := newEngine(t)
		gw.IssuerErr = errors.New("contract call reverted")
		res, err := engine.Verify(ctx, Request{
			TokenID:        "42",
			ExpectedOwner:  ownerAddr.Hex(),
			ExpectedIssuer: uniAddr.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeIssuerLookupFailed, res.Outcome)
		assert.Equal(t, ownerAddr.Hex(), res.Owner)
		assert.Empty(t, res.Issuer)
	})

	t.Run("all claims matching is VALID with metadata", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{
			TokenID:        "42",
			ExpectedOwner:  ownerAddr.Hex(),
			ExpectedIssuer: uniAddr.Hex(),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeValid, res.Outcome)
		assert.Equal(t, "BSc CS", res.Title)
		assert.Equal(t, "MIT", res.UniversityName)
		assert.Equal(t, "https://ipfs.io/resolved/ipfs://QmDoc", res.DocumentURL)
	})

	t.Run("no claims means pure existence lookup", func(t *testing.T) {
		_, engine := newEngine(t)
		res, err := engine.Verify(ctx, Request{TokenID: "42"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeValid, res.Outcome)
		assert.Equal(t, ownerAddr.Hex(), res.Owner)
	})

	t.Run("malformed token id fails validation", func(t *testing.T) {
		_, engine := newEngine(t)
		_, err := engine.Verify(ctx, Request{TokenID: "abc"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed expected owner fails validation", func(t *testing.T) {
		_, engine := newEngine(t)
		_, err := engine.Verify(ctx, Request{TokenID: "42", ExpectedOwner: "nope"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
