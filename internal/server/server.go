// Package server exposes the meal board as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-board/internal/app"
	"meal-board/internal/auth"
	"meal-board/internal/metrics"
	"meal-board/internal/planner"
	"meal-board/internal/recipe"
)

const maxBodyBytes = 1 << 20

// Authenticator opens and closes sessions.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, token string) (string, error)
}

// Server routes HTTP requests to user workspaces.
type Server struct {
	app      *app.App
	auth     Authenticator
	dataPath string
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a Server. dataPath is reported in the health snapshot.
func New(a *app.App, authn Authenticator, dataPath string, logger *zap.Logger) *Server {
	s := &Server{
		app:      a,
		auth:     authn,
		dataPath: dataPath,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handle mounts an extra handler, such as the Telegram webhook.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("HTTP request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("took", time.Since(start)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/session", s.handleSignIn)
	s.mux.HandleFunc("DELETE /api/session", s.handleSignOut)
	s.mux.HandleFunc("GET /api/me", s.withWorkspace(s.handleMe))

	s.mux.HandleFunc("GET /api/board", s.withWorkspace(s.handleBoard))
	s.mux.HandleFunc("PUT /api/board/active-recipe", s.withWorkspace(s.handleSelectRecipe))
	s.mux.HandleFunc("POST /api/board/days/{day}/meal", s.withWorkspace(s.handlePlaceBlock))
	s.mux.HandleFunc("DELETE /api/board/days/{day}/meal", s.withWorkspace(s.handleClearDay))
	s.mux.HandleFunc("DELETE /api/board/meals/{id}", s.withWorkspace(s.handleRemoveMeal))
	s.mux.HandleFunc("DELETE /api/board/pending", s.withWorkspace(s.handleCancelPending))

	s.mux.HandleFunc("GET /api/recipes", s.withWorkspace(s.handleRecipes))
	s.mux.HandleFunc("POST /api/recipes", s.withWorkspace(s.handleAddRecipe))
	s.mux.HandleFunc("POST /api/recipes/import", s.withWorkspace(s.handleImportRecipe))
	s.mux.HandleFunc("POST /api/recipes/{id}/promote", s.withWorkspace(s.handlePromoteRecipe))

	s.mux.HandleFunc("GET /api/groceries", s.withWorkspace(s.handleGroceries))
	s.mux.HandleFunc("PUT /api/groceries/checked", s.withWorkspace(s.handleSetChecked))
	s.mux.HandleFunc("GET /api/groceries/export", s.withWorkspace(s.handleExport))

	s.mux.HandleFunc("POST /api/state/save", s.withWorkspace(s.handleSave))
	s.mux.HandleFunc("POST /api/state/load", s.withWorkspace(s.handleLoad))
}

type workspaceHandler func(w http.ResponseWriter, r *http.Request, ws *app.Workspace, u *auth.User)

func (s *Server) withWorkspace(h workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, u, err := s.app.ForToken(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		h(w, r, ws, u)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"health": metrics.GetSysHealth(s.dataPath),
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token     string    `json:"token"`
	User      auth.User `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ws, u, err := s.app.ForToken(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("User signed in", zap.String("user_id", ws.UserID()))
	writeJSON(w, http.StatusOK, signInResponse{Token: sess.Token, User: *u, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.SignOut(r.Context(), bearerToken(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.Flush(r.Context(), userID); err != nil {
		s.logger.Warn("Failed to flush workspace on sign-out", zap.String("user_id", userID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, _ *app.Workspace, u *auth.User) {
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request, ws *app.Workspace, _ *auth.User) {
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleSelectRecipe(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	var req struct {
		RecipeID string `json:"recipeId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := ws.SelectRecipe(req.RecipeID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handlePlaceBlock(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	day, err := planner.ParseDay(r.PathValue("day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Type planner.BlockType `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := ws.PlaceBlock(req.Type, day); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	day, err := planner.ParseDay(r.PathValue("day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := ws.ClearDay(day); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleRemoveMeal(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	if err := ws.RemoveMeal(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleCancelPending(w http.ResponseWriter, _ *http.Request, ws *app.Workspace, _ *auth.User) {
	ws.CancelPending()
	writeJSON(w, http.StatusOK, ws.View())
}

func (s *Server) handleRecipes(w http.ResponseWriter, _ *http.Request, ws *app.Workspace, _ *auth.User) {
	writeJSON(w, http.StatusOK, ws.Recipes())
}

type addRecipeRequest struct {
	Name        string              `json:"name"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
}

func (s *Server) handleAddRecipe(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	var req addRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := ws.AddRecipe(r.Context(), req.Name, req.Ingredients)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleImportRecipe(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.URL == "" {
		s.writeError(w, fmt.Errorf("%w: url is required", app.ErrInvalidInput))
		return
	}
	rec, err := ws.ImportRecipe(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePromoteRecipe(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	if err := ws.PromoteRecipe(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Recipes())
}

func (s *Server) handleGroceries(w http.ResponseWriter, _ *http.Request, ws *app.Workspace, _ *auth.User) {
	writeJSON(w, http.StatusOK, ws.Groceries())
}

func (s *Server) handleSetChecked(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	var req struct {
		Line    string `json:"line"`
		Checked bool   `json:"checked"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := ws.SetChecked(req.Line, req.Checked); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Groceries())
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request, ws *app.Workspace, _ *auth.User) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ws.Export()))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	if err := ws.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request, ws *app.Workspace, _ *auth.User) {
	if err := ws.Reload(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrAuthRequired), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized, "auth_required"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, planner.ErrNoActiveRecipe):
		return http.StatusConflict, "no_active_recipe"
	case errors.Is(err, planner.ErrDayOutOfRange),
		errors.Is(err, planner.ErrUnknownBlock),
		errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, recipe.ErrUnknownRecipe), errors.Is(err, app.ErrUnknownLine):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrClipperDisabled):
		return http.StatusNotImplemented, "not_configured"
	case errors.Is(err, app.ErrRemoteFailure):
		return http.StatusBadGateway, "remote_failure"
	case errors.Is(err, app.ErrImportFailed):
		return http.StatusBadGateway, "import_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", app.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
