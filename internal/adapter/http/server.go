// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"mathtutor/internal/app"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// maxUploadBytes caps voice and image uploads.
const maxUploadBytes = 10 << 20

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth   *app.AuthService
	tutor  *app.TutorService
	oidc   *OIDCConfig
	webDir string

	disableAuth bool
}

// New creates a Server wired to the given application services. A nil
// OIDCConfig disables SSO.
func New(auth *app.AuthService, tutor *app.TutorService, oidc *OIDCConfig, webDir string) *Server {
	if oidc == nil {
		oidc = &OIDCConfig{}
	}
	return &Server{auth: auth, tutor: tutor, oidc: oidc, webDir: webDir}
}

// WithoutAuth disables the session gate. For tests only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		api.Get("/config", s.handleConfig)

		api.Post("/signup", s.handleSignup)
		api.Post("/login", s.handleLogin)
		api.Post("/logout", s.handleLogout)
		api.Get("/auth/sso/login", s.handleSSOLogin)
		api.Get("/auth/sso/callback", s.handleSSOCallback)

		api.Group(func(gated chi.Router) {
			gated.Use(s.requireSession)
			gated.Get("/chat", s.handleChat)
			gated.Post("/chat/clear", s.handleChatClear)
			gated.Post("/ask/text", s.handleAskText)
			gated.Post("/ask/voice", s.handleAskVoice)
			gated.Post("/ask/image", s.handleAskImage)
		})
	})

	r.Handle("/*", spaFromDisk(s.webDir))

	return withNoCache(r)
}
