package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/domain/users"
)

type LoginService interface {
	LoginOrRegister(ctx context.Context, firebaseUID, email string) (users.Identity, error)
}

// TokenIssuer is satisfied by *auth.JWTManager.
type TokenIssuer interface {
	Generate(userID int64, username string) (string, error)
}

type LoginHandler struct {
	Service LoginService
	Tokens  TokenIssuer
	Env     string
}

// NewLoginHandler builds the /login handler. tokens may be nil, in which
// case responses carry no session token.
func NewLoginHandler(service LoginService, tokens TokenIssuer, env string) *LoginHandler {
	return &LoginHandler{Service: service, Tokens: tokens, Env: env}
}

type loginRequest struct {
	FirebaseUID string `json:"firebaseUid"`
	Email       string `json:"email"`
}

type loginResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	identity, err := h.Service.LoginOrRegister(r.Context(), req.FirebaseUID, req.Email)
	if err != nil {
		if writeValidationError(w, r, err, h.Env) {
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TitleInternal, err, h.Env)
		return
	}

	resp := loginResponse{ID: identity.ID, Username: identity.Username}
	if h.Tokens != nil {
		token, err := h.Tokens.Generate(identity.ID, identity.Username)
		if err != nil {
			problem.Write(w, r, http.StatusInternalServerError, problem.TitleInternal, err, h.Env)
			return
		}
		resp.Token = token
	}

	writeJSON(w, http.StatusOK, resp)
}
