// Package verifylink builds and parses shareable verification links of the
// form <base>/verify/<tokenId>?owner=<address>.
package verifylink

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

// Link is the decoded form of a verification URL. Owner is optional; an
// empty owner asks only for existence, not ownership.
type Link struct {
	TokenID *big.Int
	Owner   string
}

// Build renders a shareable verification URL.
func Build(base string, tokenID *big.Int, owner string) (string, error) {
	if tokenID == nil {
		return "", fmt.Errorf("token id is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/verify/" + tokenID.String()
	if owner != "" {
		q := u.Query()
		q.Set("owner", owner)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Parse decodes a verification URL produced by Build.
func Parse(raw string) (Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("parse link: %w", err)
	}
	idx := strings.LastIndex(u.Path, "/verify/")
	if idx < 0 {
		return Link{}, fmt.Errorf("not a verification link: %s", raw)
	}
	idPart := strings.Trim(u.Path[idx+len("/verify/"):], "/")
	tokenID, ok := new(big.Int).SetString(idPart, 10)
	if !ok || tokenID.Sign() < 0 {
		return Link{}, fmt.Errorf("malformed token id in link: %q", idPart)
	}
	return Link{TokenID: tokenID, Owner: u.Query().Get("owner")}, nil
}
