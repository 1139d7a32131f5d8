package verifylink

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithOwner(t *testing.T) {
	link, err := Build("https://credchain.example", big.NewInt(42), "0xBEEF")
	require.NoError(t, err)
	assert.Equal(t, "https://credchain.example/verify/42?owner=0xBEEF", link)
}

func TestBuildWithoutOwner(t *testing.T) {
	link, err := Build("https://credchain.example/", big.NewInt(7), "")
	require.NoError(t, err)
	assert.Equal(t, "https://credchain.example/verify/7", link)
}

func TestBuildRequiresTokenID(t *testing.T) {
	_, err := Build("https://credchain.example", nil, "0xBEEF")
	require.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	link, err := Build("https://credchain.example/app", big.NewInt(123), "0xBEEF")
	require.NoError(t, err)

	parsed, err := Parse(link)
	require.NoError(t, err)
	assert.Equal(t, int64(123), parsed.TokenID.Int64())
	assert.Equal(t, "0xBEEF", parsed.Owner)
}

func TestParseRejectsNonVerifyPath(t *testing.T) {
	_, err := Parse("https://credchain.example/credentials/42")
	require.Error(t, err)
}

func TestParseRejectsMalformedTokenID(t *testing.T) {
	_, err := Parse("https://credchain.example/verify/not-a-number")
	require.Error(t, err)
}
