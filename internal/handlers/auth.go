package handlers

import (
	"net/http"

	"github.com/diewo77/go-marketplace/auth"
	"github.com/diewo77/go-marketplace/httpx"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/internal/services"
	"go.uber.org/zap"
)

// AuthHandler serves signup, user profiles and the token endpoints.
type AuthHandler struct {
	base
	users  *services.UserService
	tokens *auth.Issuer
}

func NewAuthHandler(users *services.UserService, tokens *auth.Issuer, ids *policy.IdentityResolver, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: base{ids: ids, log: log}, users: users, tokens: tokens}
}

type tokenResponse struct {
	Access   string  `json:"access"`
	Refresh  string  `json:"refresh"`
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
	IsSeller bool    `json:"is_seller"`
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, u *models.User) {
	pair, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, status, tokenResponse{
		Access:   pair.Access,
		Refresh:  pair.Refresh,
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		IsSeller: u.IsSeller,
	})
}

// Signup creates an account and logs it in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.users.Signup(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.issue(w, http.StatusCreated, u)
}

// Login exchanges an e-mail and password for a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.issue(w, http.StatusOK, u)
}

type tokenRequest struct {
	Refresh string `json:"refresh"`
	Token   string `json:"token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in tokenRequest
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	access, err := h.tokens.Refresh(in.Refresh)
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "token_not_valid", "Token is invalid or expired")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"access": access})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var in tokenRequest
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.tokens.Verify(in.Token); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "token_not_valid", "Token is invalid or expired")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{})
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), who, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in services.UserInput
	if err := httpx.Decode(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	who, ok := h.who(w, r, "")
	if !ok {
		return
	}
	u, err := h.users.Update(r.Context(), who, id, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
