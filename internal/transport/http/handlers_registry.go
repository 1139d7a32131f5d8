package httptransport

import (
	"encoding/json"
	"net/http"

	"credchain/internal/platform/middleware"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
)

type universityDTO struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type addUniversityRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

func (h *Handler) handleListUniversities(w http.ResponseWriter, r *http.Request) {
	universities, err := h.registry.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]universityDTO, 0, len(universities))
	for _, u := range universities {
		out = append(out, universityDTO{Address: u.Address.Hex(), Name: u.Name})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]universityDTO{"items": out})
}

func (h *Handler) handleAddUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.actingSession(middleware.GetAccount(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req addUniversityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	txHash, err := h.registry.Add(ctx, sess, req.Address, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"tx_hash": txHash.Hex()})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.health {
		if err := check.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
