package httptransport

import (
	"net/http"

	"credchain/internal/audit"
	"credchain/internal/session"
	"credchain/pkg/platform/httputil"
)

type rolesDTO struct {
	Admin  bool `json:"admin"`
	Issuer bool `json:"issuer"`
}

type sessionDTO struct {
	Connected bool     `json:"connected"`
	Account   string   `json:"account,omitempty"`
	Roles     rolesDTO `json:"roles"`
}

type connectResponse struct {
	sessionDTO
	Token string `json:"token"`
}

func toSessionDTO(sess session.Session) sessionDTO {
	dto := sessionDTO{
		Connected: sess.Connected,
		Roles:     rolesDTO{Admin: sess.Roles.Admin, Issuer: sess.Roles.Issuer},
	}
	if sess.Connected {
		dto.Account = sess.Account.Hex()
	}
	return dto
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toSessionDTO(h.sessions.Current()))
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.Connect(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.Mint(sess)
	if err != nil {
		h.logger.ErrorContext(ctx, "token mint failed after connect", "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.audit.Emit(ctx, audit.Event{
		Actor:  sess.Account.Hex(),
		Action: audit.ActionConnect,
	})

	httputil.WriteJSON(w, http.StatusOK, connectResponse{
		sessionDTO: toSessionDTO(sess),
		Token:      token,
	})
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	prev := h.sessions.Current()
	h.sessions.Disconnect()
	if prev.Connected {
		h.audit.Emit(r.Context(), audit.Event{
			Actor:  prev.Account.Hex(),
			Action: audit.ActionDisconnect,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionDTO(session.Session{}))
}
