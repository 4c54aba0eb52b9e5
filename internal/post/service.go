package post

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/media"
	"github.com/snapfeed/service/internal/staging"
	"github.com/snapfeed/service/internal/storage"
)

// UploadInput is a single inbound media upload.
type UploadInput struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Caption     string
	OwnerID     string
}

// UploadResult describes the post created by a successful upload.
type UploadResult struct {
	PostID   string
	URL      string
	FileType media.Kind
}

// Service runs the upload flow and the owner-scoped feed and delete operations.
type Service struct {
	posts   Store
	store   storage.Storage
	tempDir string
	folder  string
	log     *logger.Logger
}

// NewService creates a post Service. Uploads are staged in tempDir and stored
// under folder/<owner id> in the media store.
func NewService(posts Store, store storage.Storage, tempDir, folder string, log *logger.Logger) *Service {
	return &Service{posts: posts, store: store, tempDir: tempDir, folder: folder, log: log}
}

// Upload stages the stream, sends it to the media store and records a post
// only once the store has confirmed the upload. The staged file is removed
// before Upload returns, whatever the outcome.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	staged, err := staging.Stage(s.tempDir, in.Reader, in.FileName)
	if err != nil {
		return nil, &StagingError{Err: err}
	}
	defer func() {
		if err := staged.Release(); err != nil {
			s.log.Error("release staged upload", "path", staged.Path, "err", err)
		}
	}()

	kind := media.Classify(in.ContentType, in.FileName)

	f, err := staged.Open()
	if err != nil {
		return nil, &StagingError{Err: err}
	}
	defer f.Close()

	res := s.store.Upload(ctx, storage.UploadInput{
		Reader:      f,
		Size:        staged.Size,
		FileName:    in.FileName,
		ContentType: media.ContentType(kind, in.FileName),
		Options: storage.Options{
			UseUniqueFileName: true,
			Folder:            path.Join(s.folder, in.OwnerID),
			Tags:              []string{"user:" + in.OwnerID, string(kind)},
		},
	})
	if !res.OK() {
		return nil, &UploadBackendError{Message: res.Message}
	}

	p := &Post{
		ID:       uuid.NewString(),
		UserID:   in.OwnerID,
		Caption:  in.Caption,
		URL:      res.URL,
		FileType: kind,
		FileName: res.FileName,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		// The stored object stays behind; there is no compensating delete.
		s.log.Warn("post not saved, media object orphaned", "file_name", res.FileName, "user_id", in.OwnerID)
		return nil, &PersistenceError{Err: err}
	}

	s.log.Info("post created", "post_id", p.ID, "user_id", p.UserID, "file_type", p.FileType)
	return &UploadResult{PostID: p.ID, URL: p.URL, FileType: p.FileType}, nil
}

// ListFeed returns the user's own posts, newest first.
func (s *Service) ListFeed(ctx context.Context, userID string) ([]Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

// Delete removes a post owned by userID, then removes its media object on a
// best-effort basis. Unknown, malformed and foreign IDs all yield ErrNotFound.
func (s *Service) Delete(ctx context.Context, postID, userID string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return ErrNotFound
	}

	p, err := s.posts.DeleteOwned(ctx, postID, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, p.FileName); err != nil {
		s.log.Warn("remove media object", "post_id", p.ID, "file_name", p.FileName, "err", err)
	}
	return nil
}

// IsNotFound returns true when the error indicates a post was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
