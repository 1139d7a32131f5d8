package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/verification"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
)

type verifyRequest struct {
	TokenID string `json:"token_id"`
	Owner   string `json:"owner,omitempty"`
	Issuer  string `json:"issuer,omitempty"`
}

type verifyResponse struct {
	Outcome        string `json:"outcome"`
	Owner          string `json:"owner,omitempty"`
	Issuer         string `json:"issuer,omitempty"`
	UniversityName string `json:"university_name,omitempty"`
	Title          string `json:"title,omitempty"`
	DocumentURL    string `json:"document_url,omitempty"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, req verification.Request) {
	result, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordVerification(string(result.Outcome))
	}
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Outcome:        string(result.Outcome),
		Owner:          result.Owner,
		Issuer:         result.Issuer,
		UniversityName: result.UniversityName,
		Title:          result.Title,
		DocumentURL:    result.DocumentURL,
	})
}

// handleVerifyToken serves shared verification links: the token id rides in
// the path, the claims in the query string.
func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.verify(w, r, verification.Request{
		TokenID:        chi.URLParam(r, "tokenId"),
		ExpectedOwner:  q.Get("owner"),
		ExpectedIssuer: q.Get("issuer"),
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.verify(w, r, verification.Request{
		TokenID:        req.TokenID,
		ExpectedOwner:  req.Owner,
		ExpectedIssuer: req.Issuer,
	})
}
