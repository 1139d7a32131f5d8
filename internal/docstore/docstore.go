// Package docstore uploads credential documents to content-addressed storage
// and resolves the resulting URIs to fetchable gateway URLs.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/circuit"
)

//go:generate mockgen -source=docstore.go -destination=mocks/mocks.go -package=mocks Pinner

// Pinner uploads a document and returns its canonical content-addressed URI.
type Pinner interface {
	Pin(ctx context.Context, data []byte, name string) (string, error)
}

// Client talks to a Pinata-compatible pinning endpoint. Pin returns an
// ipfs://<CID> URI; the upload is the only network call, resolving a URI to a
// gateway URL is a pure string transform.
type Client struct {
	endpoint    string
	jwt         string
	gatewayHost string
	httpClient  *http.Client
	logger      *slog.Logger
	breaker     *circuit.Breaker
}

// Option configures the Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// WithBreaker short-circuits uploads while the pinning endpoint is failing
// repeatedly, instead of holding every issuance open for the full timeout.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

func New(endpoint, jwt, gatewayHost string, opts ...Option) *Client {
	cl := &Client{
		endpoint:    endpoint,
		jwt:         jwt,
		gatewayHost: gatewayHost,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Pin uploads data under name and returns ipfs://<CID>. Any failure is an
// upload failure; no partial URI is ever returned.
func (c *Client) Pin(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if c.breaker != nil && c.breaker.IsOpen() {
		return "", dErrors.New(dErrors.CodeUnavailable, "document store temporarily unavailable")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build upload form")
	}
	if _, err := part.Write(data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build upload form")
	}
	meta, _ := json.Marshal(map[string]any{"name": name})
	if err := form.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build upload form")
	}
	if err := form.Close(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.noteFailure(ctx)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "document upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.noteFailure(ctx)
		// Surface the provider's message; it is the only diagnostic available.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", dErrors.Newf(dErrors.CodeUploadFailed, "document upload failed (%d): %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var pr pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		c.noteFailure(ctx)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "decode upload response")
	}
	if pr.IpfsHash == "" {
		c.noteFailure(ctx)
		return "", dErrors.New(dErrors.CodeUploadFailed, "upload response missing content hash")
	}

	c.noteSuccess(ctx)
	c.logger.DebugContext(ctx, "document pinned", "name", name, "cid", pr.IpfsHash)
	return fmt.Sprintf("ipfs://%s", pr.IpfsHash), nil
}

func (c *Client) noteFailure(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "document store circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) noteSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "document store circuit closed", "breaker", c.breaker.Name())
	}
}

// GatewayURL resolves a content-addressed URI to a fetchable HTTPS URL.
// Non-ipfs URIs pass through unchanged.
func (c *Client) GatewayURL(uri string) string {
	return GatewayURL(c.gatewayHost, uri)
}

// GatewayURL maps ipfs://<cid> to https://<host>/ipfs/<cid>.
func GatewayURL(host, uri string) string {
	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return fmt.Sprintf("https://%s/ipfs/%s", host, cid)
	}
	return uri
}
