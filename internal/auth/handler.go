package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/response"
	"github.com/snapfeed/service/internal/user"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type registerRequest struct {
	Email    string `json:"email"    example:"ann@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

type tokenData struct {
	AccessToken string `json:"access_token" example:"eyJhbGci..."`
	TokenType   string `json:"token_type"   example:"bearer"`
}

// Register godoc
//
//	@Summary		Register new user
//	@Description	Create a new account from an email and password.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest	true	"Registration details"
//	@Success		201		{object}	user.User
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.Register(r.Context(), req.Email, req.Password)
	var vErr *ValidationError
	switch {
	case err == nil:
		response.Created(w, u)
	case errors.As(err, &vErr):
		response.BadRequest(w, vErr.Code)
	case errors.Is(err, user.ErrAlreadyExists):
		response.BadRequest(w, "REGISTER_USER_ALREADY_EXISTS")
	default:
		h.log.Error("register user", "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
	}
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a bearer token valid for one hour.
//	@Tags			auth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string	true	"Email"
//	@Param			password	formData	string	true	"Password"
//	@Success		200			{object}	tokenData
//	@Failure		400			{object}	response.ErrorBody
//	@Failure		500			{object}	response.ErrorBody
//	@Router			/auth/jwt/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		response.BadRequest(w, "invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.BadRequest(w, "LOGIN_BAD_CREDENTIALS")
		return
	}
	if err != nil {
		h.log.Error("login", "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}

	response.OK(w, tokenData{AccessToken: token, TokenType: "bearer"})
}
