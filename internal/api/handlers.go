package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"shopsense/internal/auth"
	"shopsense/internal/models"
	"shopsense/internal/recommend"
	"shopsense/internal/session"
	"shopsense/internal/telemetry"
)

type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool
}

type Recommender interface {
	Recommend(ctx context.Context, hasPermission bool) recommend.Recommendations
	Personalized() bool
}

type Handler struct {
	sessions *session.Service
	pipeline Recommender
	auth     *auth.Middleware
	limiter  RateLimiter
	limit    int
	window   time.Duration
	validate *validator.Validate
}

func NewHandler(sessions *session.Service, pipeline Recommender, authMW *auth.Middleware, limiter RateLimiter, limit int, window time.Duration) *Handler {
	return &Handler{
		sessions: sessions,
		pipeline: pipeline,
		auth:     authMW,
		limiter:  limiter,
		limit:    limit,
		window:   window,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("GET /api/session", h.auth.ValidateToken(h.Session))
	mux.HandleFunc("POST /api/permissions", h.auth.ValidateToken(h.Permissions))
	mux.HandleFunc("GET /api/dashboard", h.auth.ValidateToken(h.Dashboard))
	mux.HandleFunc("POST /api/logout", h.auth.ValidateToken(h.Logout))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"personalization": h.pipeline.Personalized(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email and password are required")
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := h.auth.IssueToken(sess.ID, sess.User.Email)
	if err != nil {
		slog.Error("Failed to issue token", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:  token,
		User:   sess.User,
		Screen: sess.Screen,
	})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r, h.sessions.Get)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	var req models.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	sess, ok := h.loadSession(w, r, func(ctx context.Context, id string) (*models.Session, error) {
		return h.sessions.SetPermission(ctx, id, req.Grant)
	})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, models.PermissionResponse{
		Screen:        sess.Screen,
		HasPermission: sess.HasPermission,
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.loadSession(w, r, h.sessions.Dashboard)
	if !ok {
		return
	}

	if h.limiter.IsRateLimited(ctx, "dashboard:"+sess.ID, h.limit, h.window) {
		telemetry.RateLimitedTotal.Inc()
		slog.Warn("Rate limit exceeded", "session_id", sess.ID)
		writeError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	start := time.Now()
	recs := h.pipeline.Recommend(ctx, sess.HasPermission)

	if ctx.Err() != nil {
		slog.Debug("Client went away, discarding recommendations", "session_id", sess.ID, "error", ctx.Err())
		return
	}

	slog.Info("Request processed",
		"session_id", sess.ID,
		"personalized", recs.Bundle != nil,
		"products", len(recs.Products),
		"duration", time.Since(start),
	)
	writeJSON(w, http.StatusOK, buildDashboard(sess, recs, h.pipeline.Personalized()))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing credentials")
		return
	}
	if err := h.sessions.Logout(r.Context(), claims.SessionID); err != nil {
		slog.Error("Failed to destroy session", "session_id", claims.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadSession resolves the token's session through load and writes the
// error response itself when that fails.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, load func(context.Context, string) (*models.Session, error)) (*models.Session, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing credentials")
		return nil, false
	}

	sess, err := load(r.Context(), claims.SessionID)
	switch {
	case err == nil:
		return sess, true
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "Session expired, please sign in again")
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("Session lookup failed", "session_id", claims.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		http.Error(w, `{"error": "Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
