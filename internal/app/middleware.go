package app

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/klokku/weekcal/internal/config"
	"github.com/klokku/weekcal/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	userIdHeader = "X-User-Id"
	// nowStreamPath is the only route that reads the user from ?userId=,
	// since browsers cannot set headers on a websocket handshake.
	nowStreamPath = "/api/week/now/ws"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(userMiddleware(deps.UserService))
}

// userMiddleware resolves the X-User-Id header into the request context.
// Requests without the header pass through anonymously.
func userMiddleware(userService user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			if uid == "" && req.URL.Path == nowStreamPath {
				uid = req.URL.Query().Get("userId")
			}
			ctx := req.Context()

			if uid != "" {
				u, err := userService.GetUserByUid(ctx, uid)
				if err != nil {
					if errors.Is(err, user.ErrUserNotFound) {
						log.Debugf("user not found: %s", uid)
						http.Error(w, "user not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get user: %v", err)
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				log.Tracef("request for user %s", u.Uid)
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// wrapHandler adds CORS and panic recovery around the router.
func wrapHandler(h http.Handler, cfg config.Cors) http.Handler {
	h = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins(cfg)),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", userIdHeader}),
	)(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.StandardLogger()),
		handlers.PrintRecoveryStack(true),
	)(h)
}

func allowedOrigins(cfg config.Cors) []string {
	var origins []string
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// originChecker applies the CORS origin list to websocket upgrades.
func originChecker(cfg config.Cors) func(r *http.Request) bool {
	origins := allowedOrigins(cfg)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin) {
			return true
		}
		// same origin
		return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://") == r.Host
	}
}
