package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/middleware"
	"github.com/snapfeed/service/internal/response"
)

// Update is a profile change request. Absent fields are left unchanged.
// The flags are only honoured on the superuser endpoint.
type Update struct {
	Email       *string `json:"email,omitempty"        example:"ann@example.org"`
	Password    *string `json:"password,omitempty"     example:"another-horse"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
}

// Updater validates an Update and applies it. *auth.Service implements it.
type Updater interface {
	UpdateUser(ctx context.Context, id string, upd Update) (*User, error)
}

// codedError is a validation failure carrying a client-facing error code.
type codedError interface {
	error
	ErrorCode() string
}

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc     *Service
	updater Updater
	log     *logger.Logger
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service, updater Updater, log *logger.Logger) *Handler {
	return &Handler{svc: svc, updater: updater, log: log}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	User
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		h.log.Error("get current user", "user_id", userID, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

// Delete godoc
//
//	@Summary		Delete user
//	@Description	Deletes a user and all of their posts. Superusers only.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User ID"
//	@Success		200	{object}	response.Message
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		403	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsSuperuser(r.Context()) {
		response.Forbidden(w, "forbidden")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		h.log.Error("delete user", "target_id", id, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}

	response.OK(w, response.Message{Message: "user deleted"})
}

// UpdateMe godoc
//
//	@Summary		Update current user
//	@Description	Changes the caller's email and/or password. Account flags are ignored.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		Update	true	"Fields to change"
//	@Success		200		{object}	User
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/users/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	upd.IsActive, upd.IsSuperuser, upd.IsVerified = nil, nil, nil

	h.update(w, r, userID, upd)
}

// Get godoc
//
//	@Summary		Get user
//	@Description	Returns any user by ID. Superusers only.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	User
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		403	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/users/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsSuperuser(r.Context()) {
		response.Forbidden(w, "forbidden")
		return
	}

	id := chi.URLParam(r, "id")
	u, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		h.log.Error("get user", "target_id", id, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

// UpdateByID godoc
//
//	@Summary		Update user
//	@Description	Changes any field of a user, including account flags. Superusers only.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string	true	"User ID"
//	@Param			request	body		Update	true	"Fields to change"
//	@Success		200		{object}	User
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		403		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/users/{id} [patch]
func (h *Handler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsSuperuser(r.Context()) {
		response.Forbidden(w, "forbidden")
		return
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	h.update(w, r, chi.URLParam(r, "id"), upd)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string, upd Update) {
	u, err := h.updater.UpdateUser(r.Context(), id, upd)

	var coded codedError
	switch {
	case err == nil:
		response.OK(w, u)
	case errors.As(err, &coded):
		response.BadRequest(w, coded.ErrorCode())
	case errors.Is(err, ErrAlreadyExists):
		response.BadRequest(w, "UPDATE_USER_EMAIL_ALREADY_EXISTS")
	case h.svc.IsNotFound(err):
		response.NotFound(w, "user not found")
	default:
		h.log.Error("update user", "target_id", id, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
	}
}
