package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/roomly/apiserver/internal/services"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	fieldPassword    = "password"
	fieldUsername    = "username"
	fieldEmail       = "email"
	fieldDescription = "description"
	fieldPhoto       = "photo"
	paramUserID      = "id"
)

// Accounts is implemented by *services.AccountService.
type Accounts interface {
	Authenticator
	Signup(ctx context.Context, req services.SignupRequest) (types.UserProfile, error)
	Login(ctx context.Context, req services.LoginRequest) (types.UserProfile, error)
}

// Pictures is implemented by *services.PictureService.
type Pictures interface {
	Upload(ctx context.Context, targetID string, requester types.User, photo *services.PhotoFile) (types.UserPictureProfile, error)
	Delete(ctx context.Context, targetID string, requester types.User) (types.UserPictureProfile, error)
}

// UserHandler provides HTTP handlers for accounts and profile pictures.
type UserHandler struct {
	accounts Accounts
	pictures Pictures
	logger   logrus.FieldLogger
}

func NewUserHandler(accounts Accounts, pictures Pictures, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		pictures: pictures,
		logger:   logger,
	}
}

// UserRouter registers account routes on the given router.
func UserRouter(r chi.Router, accounts Accounts, pictures Pictures, logger logrus.FieldLogger) {
	handler := NewUserHandler(accounts, pictures, logger)
	authMiddleware := RequireAuth(accounts, logger)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Put("/upload_picture/{id}", handler.UploadPicture)
	r.With(authMiddleware).Put("/delete_picture/{id}", handler.DeletePicture)
}

// Signup creates an account.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r, fieldPassword, fieldUsername, fieldEmail, fieldDescription)
	if err != nil {
		writeError(w, http.StatusBadRequest, services.ErrMissingParameter.Error())
		return
	}

	profile, err := h.accounts.Signup(r.Context(), services.SignupRequest{
		Password:    values[fieldPassword],
		Username:    values[fieldUsername],
		Email:       values[fieldEmail],
		Description: values[fieldDescription],
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Login exchanges an email and password for the account token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r, fieldPassword, fieldEmail)
	if err != nil {
		writeError(w, http.StatusBadRequest, services.ErrMissingParameter.Error())
		return
	}

	profile, err := h.accounts.Login(r.Context(), services.LoginRequest{
		Password: values[fieldPassword],
		Email:    values[fieldEmail],
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UploadPicture sets or replaces the profile picture of the user in the path.
func (h *UserHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	requester, _ := userFromContext(r.Context())

	photo, release := photoFromRequest(r, fieldPhoto)
	defer release()

	profile, err := h.pictures.Upload(r.Context(), chi.URLParam(r, paramUserID), requester, photo)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to upload picture")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// DeletePicture removes the profile picture of the user in the path.
func (h *UserHandler) DeletePicture(w http.ResponseWriter, r *http.Request) {
	requester, _ := userFromContext(r.Context())

	profile, err := h.pictures.Delete(r.Context(), chi.URLParam(r, paramUserID), requester)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to delete picture")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
