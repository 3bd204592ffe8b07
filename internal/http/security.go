package http

import (
	"net/http"
	"strings"

	applog "viaggi/internal/log"
	"viaggi/internal/middleware/trace"
	"viaggi/internal/session"
)

const (
	headerAuthorization = "Authorization"
	headerUserID        = "X-User-ID"
	maxUserIDLength     = 128
)

// sessionMiddleware builds the request session from the identity headers set
// by the upstream auth proxy. Requests without either header continue
// anonymously; a half-set or malformed identity is rejected.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := strings.TrimSpace(r.Header.Get(headerAuthorization))
		userID := strings.TrimSpace(r.Header.Get(headerUserID))
		if auth == "" && userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(auth)
		if !ok || userID == "" || len(userID) > maxUserIDLength || sanitizeInput(userID) != userID {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).
				WarnContext(r.Context(), "Rejected malformed session headers", applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusUnauthorized, "invalid session headers", trace.GetRequestID(r.Context())).
				Header("WWW-Authenticate", "Bearer").
				Write(w)
			return
		}

		ctx := session.WithSession(r.Context(), session.Session{UserID: userID, Token: token})
		logger := applog.FromContext(ctx).With(applog.FieldUserID, userID)
		next.ServeHTTP(w, r.WithContext(applog.WithLogger(ctx, logger)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
