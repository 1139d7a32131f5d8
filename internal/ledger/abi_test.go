package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractABI(t *testing.T) {
	parsed, err := parsedABI()
	require.NoError(t, err)

	for _, method := range []string{
		"ownerOf", "balanceOf", "tokenOfOwnerByIndex", "tokenURI",
		"credentialIssuer", "certificateTitle", "universityNames", "hasRole",
		"getUniversityCount", "getUniversityAtIndex",
		"issueCredential", "revokeCredential", "addUniversity",
	} {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "method %s missing from ABI", method)
	}

	ev, ok := parsed.Events[issuedEventName]
	require.True(t, ok)
	// issuer and to are indexed; tokenId and title travel in the data segment.
	assert.Len(t, ev.Inputs, 4)
	assert.True(t, ev.Inputs[0].Indexed)
	assert.True(t, ev.Inputs[1].Indexed)
	assert.False(t, ev.Inputs[2].Indexed)
	assert.False(t, ev.Inputs[3].Indexed)
}

func TestRoleIdentifiers(t *testing.T) {
	// The admin role is the contract's default (zero) role id.
	assert.Equal(t, [32]byte{}, RoleAdmin)

	// keccak256("ISSUER_ROLE") pinned so a refactor cannot silently diverge
	// from the deployed contract.
	assert.Equal(t,
		"114e74f6ea3bd819998f78687bfcb11b140da08e9b7d222fa9c1f1ba1f2aa122",
		hexString(RoleIssuer[:]))
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0xf])
	}
	return string(out)
}
