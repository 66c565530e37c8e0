package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roomly/apiserver/internal/storage"
	"github.com/roomly/apiserver/internal/store"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

// PictureStorage is the object storage collaborator; *storage.Storage satisfies it.
type PictureStorage interface {
	Upload(ctx context.Context, opts storage.UploadOptions) (storage.Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// DefaultMaxPhotoBytes caps uploads when PictureConfig.MaxBytes is unset.
const DefaultMaxPhotoBytes = 10 << 20

// PictureConfig is the storage configuration injected into PictureService.
type PictureConfig struct {
	// Folder namespaces pictures; each user gets <Folder>/<user id>.
	Folder string

	// MaxBytes is the largest accepted photo.
	MaxBytes int64
}

// PhotoFile is an uploaded picture. Body is not read until the requester
// has been checked; Size is the length declared by the upload.
type PhotoFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PictureService manages profile pictures. Only the owner may change them.
type PictureService struct {
	repo    UserRepository
	storage PictureStorage
	cfg     PictureConfig
	events  *Events
	logger  logrus.FieldLogger
}

func NewPictureService(repo UserRepository, pictures PictureStorage, cfg PictureConfig, events *Events, logger logrus.FieldLogger) *PictureService {
	return &PictureService{
		repo:    repo,
		storage: pictures,
		cfg:     cfg,
		events:  events,
		logger:  logger,
	}
}

// Upload stores photo as targetID's picture. An existing picture is
// overwritten under its current picture id.
func (s *PictureService) Upload(ctx context.Context, targetID string, requester types.User, photo *PhotoFile) (types.UserPictureProfile, error) {
	user, err := s.loadOwned(ctx, targetID, requester)
	if err != nil {
		return types.UserPictureProfile{}, err
	}
	if photo == nil || photo.Body == nil {
		return types.UserPictureProfile{}, ErrMissingPhoto
	}
	if photo.Size > s.maxBytes() {
		return types.UserPictureProfile{}, ErrPhotoTooLarge
	}

	opts := storage.UploadOptions{
		Folder:      s.folderFor(user.ID),
		Body:        io.LimitReader(photo.Body, s.maxBytes()),
		Size:        photo.Size,
		ContentType: photo.ContentType,
	}
	if user.Account.Photo != nil {
		opts.PublicID = user.Account.Photo.PictureID
	}

	asset, err := s.storage.Upload(ctx, opts)
	if err != nil {
		return types.UserPictureProfile{}, fmt.Errorf("upload picture: %w", err)
	}

	user.Account.Photo = &types.Photo{URL: asset.SecureURL, PictureID: asset.PublicID}
	saved, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.UserPictureProfile{}, fmt.Errorf("save user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    saved.ID,
		"picture_id": asset.PublicID,
		"replaced":   opts.PublicID != "",
	}).Info("picture uploaded")
	s.events.Emit(ctx, types.EventUserPictureUpdated, saved.ID, asset.PublicID)
	return saved.PictureProfile(), nil
}

// Delete removes targetID's picture from object storage and from the account.
func (s *PictureService) Delete(ctx context.Context, targetID string, requester types.User) (types.UserPictureProfile, error) {
	user, err := s.loadOwned(ctx, targetID, requester)
	if err != nil {
		return types.UserPictureProfile{}, err
	}
	if user.Account.Photo == nil {
		return types.UserPictureProfile{}, ErrNoPhotoFound
	}

	pictureID := user.Account.Photo.PictureID
	if err := s.storage.Destroy(ctx, pictureID); err != nil {
		return types.UserPictureProfile{}, fmt.Errorf("destroy picture: %w", err)
	}

	user.Account.Photo = nil
	saved, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.UserPictureProfile{}, fmt.Errorf("save user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    saved.ID,
		"picture_id": pictureID,
	}).Info("picture deleted")
	s.events.Emit(ctx, types.EventUserPictureDeleted, saved.ID, pictureID)
	return saved.PictureProfile(), nil
}

// loadOwned applies the checks shared by every picture mutation, in order:
// id present, user exists, requester is the user. Photo checks come after.
func (s *PictureService) loadOwned(ctx context.Context, targetID string, requester types.User) (types.User, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return types.User{}, ErrMissingID
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}

	if requester.ID == "" || requester.ID != user.ID {
		return types.User{}, ErrUnauthorized
	}
	return user, nil
}

func (s *PictureService) maxBytes() int64 {
	if s.cfg.MaxBytes > 0 {
		return s.cfg.MaxBytes
	}
	return DefaultMaxPhotoBytes
}

func (s *PictureService) folderFor(userID string) string {
	folder := strings.Trim(strings.TrimSpace(s.cfg.Folder), "/")
	if folder == "" {
		return userID
	}
	return folder + "/" + userID
}
