package post

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/media"
	"github.com/snapfeed/service/internal/middleware"
	"github.com/snapfeed/service/internal/response"
)

// multipartMemory is how much of a multipart body is kept in memory before
// the standard library spills file parts to disk.
const multipartMemory = 8 << 20

// Handler holds HTTP handlers for post endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
	log      *logger.Logger
}

// NewHandler creates a new post Handler accepting request bodies up to maxBytes.
func NewHandler(svc *Service, maxBytes int64, log *logger.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, log: log}
}

type uploadData struct {
	Message  string     `json:"message"   example:"Upload successful"`
	PostID   string     `json:"post_id"   example:"c0a8012e-7f3a-4c55-9d7e-1b2f3a4c5d6e"`
	FileType media.Kind `json:"file_type" example:"image" swaggertype:"string"`
	URL      string     `json:"url"       example:"http://localhost:9000/media/posts/cat_1a2b3c4d.jpg"`
}

type feedData struct {
	Posts []Post `json:"posts"`
}

// Upload godoc
//
//	@Summary		Upload media
//	@Description	Upload an image or video and create a post in the caller's feed.
//	@Tags			posts
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image or video"
//	@Param			caption	formData	string	false	"Caption"
//	@Success		200		{object}	uploadData
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(r.Context(), UploadInput{
		Reader:      file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Caption:     r.FormValue("caption"),
		OwnerID:     userID,
	})
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	response.OK(w, uploadData{
		Message:  "Upload successful",
		PostID:   res.PostID,
		FileType: res.FileType,
		URL:      res.URL,
	})
}

func (h *Handler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := chiMiddleware.GetReqID(r.Context())

	var (
		stagingErr *StagingError
		backendErr *UploadBackendError
		persistErr *PersistenceError
	)
	switch {
	case errors.As(err, &stagingErr):
		h.log.Error("upload staging failed", "request_id", reqID, "err", err)
		response.Error(w, http.StatusInternalServerError, "failed to stage upload")
	case errors.As(err, &backendErr):
		h.log.Error("media store rejected upload", "request_id", reqID, "store_message", backendErr.Message)
		response.Error(w, http.StatusInternalServerError, "media upload failed")
	case errors.As(err, &persistErr):
		h.log.Error("post persistence failed", "request_id", reqID, "err", err)
		response.Error(w, http.StatusInternalServerError, "failed to save post")
	default:
		h.log.Error("upload failed", "request_id", reqID, "err", err)
		response.InternalError(w)
	}
}

// Feed godoc
//
//	@Summary		List feed
//	@Description	Returns the caller's posts, newest first.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	feedData
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/feed [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	posts, err := h.svc.ListFeed(r.Context(), userID)
	if err != nil {
		h.log.Error("list feed", "user_id", userID, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}
	if posts == nil {
		posts = []Post{}
	}

	response.OK(w, feedData{Posts: posts})
}

// Delete godoc
//
//	@Summary		Delete post
//	@Description	Deletes one of the caller's posts.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post_id	path		string	true	"Post ID"
//	@Success		200		{object}	response.Message
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/posts/{post_id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	postID := chi.URLParam(r, "post_id")
	if err := h.svc.Delete(r.Context(), postID, userID); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "Post not found")
			return
		}
		h.log.Error("delete post", "post_id", postID, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
		response.InternalError(w)
		return
	}

	response.OK(w, response.Message{Message: "Post deleted successfully"})
}
