package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/roomly/apiserver/internal/services"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	maxMultipartMemory = 32 << 20
	maxJSONBodyBytes   = 1 << 20

	// Photo parts beyond this spill to a temporary file instead of memory.
	maxPhotoFormMemory = 1 << 20

	defaultPhotoContentType = "application/octet-stream"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

func withUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok && user.ID != ""
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps a service error to its status and message. Errors
// the services do not classify are logged and answered with fallback.
func writeServiceError(w http.ResponseWriter, logger logrus.FieldLogger, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrMissingParameter),
		errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrMissingID),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMissingPhoto),
		errors.Is(err, services.ErrNoPhotoFound),
		errors.Is(err, services.ErrPhotoTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.WithError(err).Error(fallback)
		writeError(w, http.StatusBadRequest, fallback)
	}
}

// formValues reads the request fields from a JSON, multipart or urlencoded body.
func formValues(r *http.Request, fields ...string) (map[string]string, error) {
	values := make(map[string]string, len(fields))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw := map[string]any{}
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, errors.New("invalid request")
		}
		for _, field := range fields {
			switch value := raw[field].(type) {
			case string:
				values[field] = value
			case json.Number, bool:
				values[field] = fmt.Sprint(value)
			}
		}
		return values, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, errors.New("invalid multipart form")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, errors.New("invalid form")
		}
	}

	for _, field := range fields {
		values[field] = r.FormValue(field)
	}
	return values, nil
}

// photoFromRequest returns the uploaded photo, or nil when the request has
// none. The file is not read here; release closes it.
func photoFromRequest(r *http.Request, field string) (photo *services.PhotoFile, release func()) {
	release = func() {}
	if err := r.ParseMultipartForm(maxPhotoFormMemory); err != nil {
		return nil, release
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, release
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = defaultPhotoContentType
	}

	return &services.PhotoFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }
}
