package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roomly/apiserver/internal/services"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type stubAccounts struct{}

func (stubAccounts) Signup(context.Context, services.SignupRequest) (types.UserProfile, error) {
	return types.UserProfile{}, services.ErrMissingParameter
}

func (stubAccounts) Login(context.Context, services.LoginRequest) (types.UserProfile, error) {
	return types.UserProfile{}, services.ErrAccountNotFound
}

func (stubAccounts) Authenticate(context.Context, string) (types.User, error) {
	return types.User{}, services.ErrUnauthenticated
}

type stubPictures struct{}

func (stubPictures) Upload(context.Context, string, types.User, *services.PhotoFile) (types.UserPictureProfile, error) {
	return types.UserPictureProfile{}, nil
}

func (stubPictures) Delete(context.Context, string, types.User) (types.UserPictureProfile, error) {
	return types.UserPictureProfile{}, nil
}

func testRouter() http.Handler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return newRouter(logger, stubAccounts{}, stubPictures{})
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{method: http.MethodPost, path: "/user/signup", status: http.StatusBadRequest},
		{method: http.MethodPost, path: "/user/login", status: http.StatusBadRequest},
		{method: http.MethodPut, path: "/user/upload_picture/abc", status: http.StatusUnauthorized},
		{method: http.MethodPut, path: "/user/delete_picture/abc", status: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/user/signup", status: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/problems", status: http.StatusNotFound},
	}

	router := testRouter()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
