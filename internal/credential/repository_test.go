package credential

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

type failingNames struct{}

func (failingNames) DisplayName(context.Context, common.Address) (string, error) {
	return "", errors.New("directory unavailable")
}

type passthroughURLs struct{}

func (passthroughURLs) GatewayURL(uri string) string { return "https://ipfs.io/resolved/" + uri }

var (
	studentAddr = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	otherAddr   = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	uniAddr     = common.HexToAddress("0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")
)

func seedRepo(t *testing.T) (*ledgertest.Fake, *Repository) {
	t.Helper()
	gw := ledgertest.New()
	gw.SeedUniversity(uniAddr, "MIT")
	repo := NewRepository(gw, stubNames{uniAddr.Hex(): "MIT"}, passthroughURLs{})
	return gw, repo
}

func TestRepository_ListOwned(t *testing.T) {
	t.Run("resolves details and display name per token", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(5, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc CS", URI: "ipfs://QmA"})
		gw.SeedToken(9, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "MSc CS", URI: "ipfs://QmB"})

		listing, err := repo.ListOwned(context.Background(), studentAddr.Hex())
		require.NoError(t, err)
		require.Len(t, listing.Items, 2)
		assert.Empty(t, listing.Dropped)

		byID := map[string]Credential{}
		for _, c := range listing.Items {
			byID[c.TokenID] = c
		}
		require.Contains(t, byID, "5")
		assert.Equal(t, "BSc CS", byID["5"].Title)
		assert.Equal(t, "ipfs://QmA", byID["5"].DocumentURI)
		assert.Equal(t, "https://ipfs.io/resolved/ipfs://QmA", byID["5"].DocumentURL)
		assert.Equal(t, "MIT", byID["5"].UniversityName)
		assert.Equal(t, studentAddr.Hex(), byID["5"].Owner)
	})

	t.Run("token revoked between count and detail reads is dropped", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(5, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc CS", URI: "ipfs://QmA"})
		gw.SeedToken(9, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "MSc CS", URI: "ipfs://QmB"})
		// Details vanish but the owner index still reports the token.
		gw.DropDetails(9)

		listing, err := repo.ListOwned(context.Background(), studentAddr.Hex())
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "5", listing.Items[0].TokenID)
		assert.Equal(t, []string{"9"}, listing.Dropped)
	})

	t.Run("empty balance yields empty listing", func(t *testing.T) {
		_, repo := seedRepo(t)
		listing, err := repo.ListOwned(context.Background(), otherAddr.Hex())
		require.NoError(t, err)
		assert.Empty(t, listing.Items)
		assert.Empty(t, listing.Dropped)
	})

	t.Run("invalid address fails validation before any ledger read", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.BalanceOfErr = errors.New("should not be reached")

		_, err := repo.ListOwned(context.Background(), "not-an-address")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("balance read failure is a hard error", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.BalanceOfErr = errors.New("rpc down")

		_, err := repo.ListOwned(context.Background(), studentAddr.Hex())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("cancelled context interrupts the listing", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(5, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc CS", URI: "ipfs://QmA"})
		gw.DropDetails(5)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.ListOwned(ctx, studentAddr.Hex())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("display name failure degrades to empty name", func(t *testing.T) {
		gw := ledgertest.New()
		gw.SeedToken(7, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "PhD", URI: "ipfs://QmC"})
		repo := NewRepository(gw, failingNames{}, passthroughURLs{})

		listing, err := repo.ListOwned(context.Background(), studentAddr.Hex())
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Empty(t, listing.Items[0].UniversityName)
	})
}

func TestRepository_ListIssuedBy(t *testing.T) {
	t.Run("filters by student case-insensitively", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(1, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc", URI: "ipfs://Qm1"})
		gw.SeedToken(2, ledgertest.Token{Owner: otherAddr, Issuer: uniAddr, Title: "MSc", URI: "ipfs://Qm2"})

		listing, err := repo.ListIssuedBy(context.Background(), uniAddr.Hex(),
			"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "1", listing.Items[0].TokenID)
		assert.Equal(t, studentAddr.Hex(), listing.Items[0].Owner)
		assert.Equal(t, "MIT", listing.Items[0].UniversityName)
	})

	t.Run("revoked tokens are dropped from issued listing", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(1, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc", URI: "ipfs://Qm1"})
		gw.SeedToken(2, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "MSc", URI: "ipfs://Qm2"})
		gw.Burn(2)

		listing, err := repo.ListIssuedBy(context.Background(), uniAddr.Hex(), "")
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "1", listing.Items[0].TokenID)
		assert.Equal(t, []string{"2"}, listing.Dropped)
	})

	t.Run("events from other issuers are not returned", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(1, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "BSc", URI: "ipfs://Qm1"})
		gw.SeedToken(2, ledgertest.Token{Owner: studentAddr, Issuer: otherAddr, Title: "Fake", URI: "ipfs://Qm2"})

		listing, err := repo.ListIssuedBy(context.Background(), uniAddr.Hex(), "")
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "1", listing.Items[0].TokenID)
	})
}

func TestRepository_ListIssuedStatus(t *testing.T) {
	t.Run("keeps revoked rows with status, sorted ascending by id", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(12, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "B", URI: "ipfs://Qm2"})
		gw.SeedToken(3, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "A", URI: "ipfs://Qm1"})
		gw.Burn(12)

		rows, err := repo.ListIssuedStatus(context.Background(), uniAddr.Hex(), "")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "3", rows[0].TokenID)
		assert.Equal(t, StatusValid, rows[0].Status)
		assert.Equal(t, "12", rows[1].TokenID)
		assert.Equal(t, StatusRevoked, rows[1].Status)
	})

	t.Run("student filter matches case-insensitively", func(t *testing.T) {
		gw, repo := seedRepo(t)
		gw.SeedToken(1, ledgertest.Token{Owner: studentAddr, Issuer: uniAddr, Title: "A", URI: "ipfs://Qm1"})
		gw.SeedToken(2, ledgertest.Token{Owner: otherAddr, Issuer: uniAddr, Title: "B", URI: "ipfs://Qm2"})

		rows, err := repo.ListIssuedStatus(context.Background(), uniAddr.Hex(),
			"0XAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, studentAddr.Hex(), rows[0].Student)
	})
}
