package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"campus-express/internal/domain/models"
	"campus-express/internal/users"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderStudentID carries the authenticated student number, stamped by the
// campus SSO proxy in front of this service. The storefront trusts it and
// only resolves it to a local account.
const HeaderStudentID = "X-Student-ID"

const headerRequestID = "X-Request-ID"

type ctxKey int

const (
	userKey ctxKey = iota
	requestIDKey
)

// requestID tags every request with an id that rides through logs and the
// response headers.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// withUser resolves the proxy-supplied student id to an account. Requests
// without a resolvable identity never reach the handlers behind it.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		studentID := strings.TrimSpace(r.Header.Get(HeaderStudentID))
		if studentID == "" {
			jsonError(w, http.StatusUnauthorized, errors.New("missing student identity"))
			return
		}

		user, err := h.users.ByStudentID(r.Context(), studentID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				jsonError(w, http.StatusUnauthorized, errors.New("unknown student identity"))
				return
			}
			h.logFor(r).Error().Err(err).Str("action", "identity_lookup_failed").Msg("could not resolve student")
			jsonError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func userFrom(ctx context.Context) models.User {
	user, _ := ctx.Value(userKey).(models.User)
	return user
}

func (h *Handler) logFor(r *http.Request) *zerolog.Logger {
	id, _ := r.Context().Value(requestIDKey).(string)
	l := h.log.With().Str("request_id", id).Logger()
	return &l
}
