// Package web serves the upload form endpoints behind the login gate.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"placement/internal/auth"
	"placement/internal/config"
	"placement/internal/logging"
	"placement/internal/objectstore"
	"placement/internal/pipeline"
)

const (
	sessionCookie  = "session"
	maxUploadBytes = 64 << 20
)

type Server struct {
	auth    *auth.Authenticator
	uploads *pipeline.UploadService
	sink    objectstore.Sink
	cfg     config.Config
	log     *slog.Logger
}

func NewServer(a *auth.Authenticator, uploads *pipeline.UploadService, sink objectstore.Sink, cfg config.Config, log *slog.Logger) *Server {
	return &Server{auth: a, uploads: uploads, sink: sink, cfg: cfg, log: logging.OrDiscard(log)}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.sessionMiddleware)

	router.HandleFunc("/healthz", s.health).Methods("GET")
	router.HandleFunc("/login", s.login).Methods("POST")
	router.HandleFunc("/logout", s.logout).Methods("POST")
	router.HandleFunc("/months", s.requireAuth(s.months)).Methods("GET")
	router.HandleFunc("/folders", s.requireAuth(s.folders)).Methods("GET")
	router.HandleFunc("/upload", s.requireAuth(s.upload)).Methods("POST")
	return router
}

// sessionMiddleware attaches the session carried by the cookie, or an
// unauthenticated one, to the request context.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := auth.Session{}
		if c, err := r.Cookie(sessionCookie); err == nil {
			session = s.auth.SessionFromToken(c.Value)
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).Authenticated() {
			respondWithError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type errorResponse struct {
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
