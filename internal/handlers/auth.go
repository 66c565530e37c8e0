package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/roomly/apiserver/internal/services"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves bearer tokens; *services.AccountService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func RequireAuth(authenticator Authenticator, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					logger.WithError(err).Error("failed to authenticate")
				}
				writeError(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
