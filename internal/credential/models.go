package credential

// Credential is a read-through copy of one on-ledger token. The ledger owns
// the record; this struct is never authoritative. Token ids are
// decimal-encoded strings to avoid integer precision loss.
type Credential struct {
	TokenID        string
	Owner          string
	Issuer         string
	Title          string
	DocumentURI    string
	DocumentURL    string
	UniversityName string
}

// Listing is a partial-results container. Items holds the credentials that
// resolved fully; Dropped holds token ids whose detail reads failed, which
// almost always means the token was revoked between the enumeration read and
// the detail read. Dropping is benign and never an error.
type Listing struct {
	Items   []Credential
	Dropped []string
}

// TokenStatus is the liveness of an issued token as of the listing read.
type TokenStatus string

const (
	StatusValid   TokenStatus = "valid"
	StatusRevoked TokenStatus = "revoked"
)

// IssuedRow is one row of the issuer's revocation view: every token the
// issuer ever minted, including revoked ones, with its current status.
type IssuedRow struct {
	TokenID string
	Student string
	Title   string
	Status  TokenStatus
}
