package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/credential"
	"credchain/internal/issuance"
	"credchain/internal/platform/middleware"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/verifylink"
)

// Multipart documents are diplomas and transcripts, not videos.
const maxDocumentBytes = 32 << 20

type credentialDTO struct {
	TokenID        string `json:"token_id"`
	Owner          string `json:"owner"`
	Issuer         string `json:"issuer"`
	Title          string `json:"title"`
	DocumentURI    string `json:"document_uri"`
	DocumentURL    string `json:"document_url"`
	UniversityName string `json:"university_name,omitempty"`
}

type listingResponse struct {
	Items   []credentialDTO `json:"items"`
	Dropped []string        `json:"dropped,omitempty"`
}

type issuedRowDTO struct {
	TokenID string `json:"token_id"`
	Student string `json:"student"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}

type issueResponse struct {
	TokenID       string `json:"token_id,omitempty"`
	TokenResolved bool   `json:"token_resolved"`
	Student       string `json:"student"`
	Title         string `json:"title"`
	DocumentURI   string `json:"document_uri"`
	TxHash        string `json:"tx_hash"`
	ShareLink     string `json:"share_link,omitempty"`
}

type revokeResponse struct {
	TokenID        string `json:"token_id"`
	AlreadyRevoked bool   `json:"already_revoked"`
	TxHash         string `json:"tx_hash,omitempty"`
}

func toListingResponse(listing credential.Listing) listingResponse {
	resp := listingResponse{Items: make([]credentialDTO, 0, len(listing.Items)), Dropped: listing.Dropped}
	for _, c := range listing.Items {
		resp.Items = append(resp.Items, credentialDTO{
			TokenID:        c.TokenID,
			Owner:          c.Owner,
			Issuer:         c.Issuer,
			Title:          c.Title,
			DocumentURI:    c.DocumentURI,
			DocumentURL:    c.DocumentURL,
			UniversityName: c.UniversityName,
		})
	}
	return resp
}

func (h *Handler) handleListOwned(w http.ResponseWriter, r *http.Request) {
	listing, err := h.credentials.ListOwned(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListingResponse(listing))
}

// handleListIssued is the issuer's revocation view: every token they minted,
// revoked ones included.
func (h *Handler) handleListIssued(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !middleware.GetRoles(ctx).Issuer {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "issuer role required"))
		return
	}
	rows, err := h.credentials.ListIssuedStatus(ctx, middleware.GetAccount(ctx), r.URL.Query().Get("student"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]issuedRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, issuedRowDTO{
			TokenID: row.TokenID,
			Student: row.Student,
			Title:   row.Title,
			Status:  string(row.Status),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]issuedRowDTO{"items": out})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.actingSession(middleware.GetAccount(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "certificate document is required"))
		return
	}
	defer file.Close()
	document, err := readAll(file, maxDocumentBytes)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			err = dErrors.New(dErrors.CodeBadRequest, "failed to read document")
		}
		httputil.WriteError(w, err)
		return
	}

	record, err := h.issuer.Issue(ctx, sess, issuance.Request{
		Student:  r.FormValue("student"),
		Title:    r.FormValue("title"),
		Document: document,
		Filename: header.Filename,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := issueResponse{
		TokenResolved: record.TokenResolved,
		Student:       record.Student.Hex(),
		Title:         record.Title,
		DocumentURI:   record.DocumentURI,
		TxHash:        record.TxHash.Hex(),
	}
	if record.TokenResolved {
		resp.TokenID = record.TokenID.String()
		if h.verifyBaseURL != "" {
			if link, err := verifylink.Build(h.verifyBaseURL, record.TokenID, record.Student.Hex()); err == nil {
				resp.ShareLink = link
			}
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.actingSession(middleware.GetAccount(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokenID, err := parseTokenID(chi.URLParam(r, "tokenId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.revoker.Revoke(ctx, sess, tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := revokeResponse{TokenID: result.TokenID.String(), AlreadyRevoked: result.AlreadyRevoked}
	if !result.AlreadyRevoked {
		resp.TxHash = result.TxHash.Hex()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
