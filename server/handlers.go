package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/puyokura/philoterm/model"
)

type server struct {
	store *Store
	cfg   Config
}

type ctxKey int

const userIDKey ctxKey = 0

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Get("/philosophers", s.handleListPhilosophers)
		r.Get("/philosophers/{id}", s.handleGetPhilosopher)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions/create_session", s.handleCreateSession)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Post("/sessions/{id}/add_message", s.handleAddMessage)
			r.Patch("/sessions/{id}/change-philosopher", s.handleChangePhilosopher)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}

		userID, err := validateToken(s.cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
			})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Invalid request body."},
		})
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Username and password are required."},
		})
		return
	}

	user, err := s.store.Authenticate(creds.Username, creds.Password)
	if err == errBadCredentials {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}
	if err != nil {
		log.Printf("login %s: %v", creds.Username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	s.respondWithToken(w, http.StatusOK, user)
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Invalid request body."},
		})
		return
	}

	switch {
	case reg.Username == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"This field may not be blank."},
		})
		return
	case reg.Email == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"email": {"This field may not be blank."},
		})
		return
	case reg.Password == "":
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"password": {"This field may not be blank."},
		})
		return
	case reg.Password != reg.Password2:
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"password": {"Password fields didn't match."},
		})
		return
	}

	user, err := s.store.RegisterUser(reg.Username, reg.Email, reg.Password)
	if err == errUserExists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"A user with that username already exists."},
		})
		return
	}
	if err != nil {
		log.Printf("register %s: %v", reg.Username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	s.respondWithToken(w, http.StatusCreated, user)
}

func (s *server) respondWithToken(w http.ResponseWriter, status int, user *model.User) {
	token, err := generateToken(s.cfg.JWTSecret, user.ID)
	if err != nil {
		log.Printf("generate token for %s: %v", user.Username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}
	writeJSON(w, status, model.AuthResponse{Access: token, User: *user})
}

func (s *server) handleListPhilosophers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, philosopherList())
}

func (s *server) handleGetPhilosopher(w http.ResponseWriter, r *http.Request) {
	def, ok := philosophers[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Philosopher not found"})
		return
	}
	writeJSON(w, http.StatusOK, def.Philosopher)
}

func (s *server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	sessions, err := s.store.SessionsByUser(userID)
	if err != nil {
		log.Printf("list sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)

	var body struct {
		Philosopher string `json:"philosopher"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Philosopher == "" {
		body.Philosopher = "marcus_aurelius"
	}
	def, ok := philosophers[body.Philosopher]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Philosopher " + body.Philosopher + " not found",
		})
		return
	}

	session, err := s.store.CreateSession(userID, def.ID, def.SystemMessage)
	if err != nil {
		log.Printf("create session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	session, err := s.store.SessionByID(chi.URLParam(r, "id"), userID)
	if err == errSessionNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if err != nil {
		log.Printf("get session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	sessionID := chi.URLParam(r, "id")

	session, err := s.store.SessionByID(sessionID, userID)
	if err == errSessionNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if err != nil {
		log.Printf("add message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No message provided"})
		return
	}

	if _, err := s.store.AddMessage(sessionID, model.RoleUser, body.Message); err != nil {
		log.Printf("store user message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	reply := s.cannedReply(session)
	if _, err := s.store.AddMessage(sessionID, model.RoleAssistant, reply); err != nil {
		log.Printf("store assistant message: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response":   reply,
		"session_id": sessionID,
	})
}

// cannedReply cycles through the philosopher's quotes.
func (s *server) cannedReply(session *model.ChatSession) string {
	def, ok := philosophers[session.Philosopher]
	if !ok || len(def.Replies) == 0 {
		return "Let us reflect on that together."
	}
	n, err := s.store.AssistantCount(session.ID)
	if err != nil {
		n = 0
	}
	return def.Replies[n%len(def.Replies)]
}

func (s *server) handleChangePhilosopher(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(int)
	sessionID := chi.URLParam(r, "id")

	var body struct {
		Philosopher string `json:"philosopher"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Philosopher == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No philosopher specified"})
		return
	}
	def, ok := philosophers[body.Philosopher]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Philosopher " + body.Philosopher + " not found",
		})
		return
	}

	err := s.store.ChangePhilosopher(sessionID, userID, def.ID, def.SystemMessage)
	if err == errSessionNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if err != nil {
		log.Printf("change philosopher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}

	session, err := s.store.SessionByID(sessionID, userID)
	if err != nil {
		log.Printf("reload session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, session)
}
