package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	abilityapp "fitquest-server/internal/app/ability"
	authapp "fitquest-server/internal/app/auth"
	charapp "fitquest-server/internal/app/character"
	liveapp "fitquest-server/internal/app/live"
	progressionapp "fitquest-server/internal/app/progression"
	questapp "fitquest-server/internal/app/quest"
	workoutapp "fitquest-server/internal/app/workout"
	domainprog "fitquest-server/internal/domain/progression"
	domainworkout "fitquest-server/internal/domain/workout"
)

type Handler struct {
	logger      zerolog.Logger
	auth        *authapp.Service
	characters  *charapp.Service
	abilities   *abilityapp.Service
	quests      *questapp.Service
	workouts    *workoutapp.Service
	progression *progressionapp.Service
	live        *liveapp.Service
	corsOrigin  string
	maxBodySize int64

	// Ready reports whether backing stores are reachable. Optional.
	Ready func(ctx context.Context) error
}

type contextKey string

const userIDContextKey contextKey = "user_id"

func NewHandler(logger zerolog.Logger, auth *authapp.Service, characters *charapp.Service, abilities *abilityapp.Service, quests *questapp.Service, workouts *workoutapp.Service, progression *progressionapp.Service, live *liveapp.Service, corsOrigin string, maxBodySize int64) *Handler {
	return &Handler{
		logger:      logger,
		auth:        auth,
		characters:  characters,
		abilities:   abilities,
		quests:      quests,
		workouts:    workouts,
		progression: progression,
		live:        live,
		corsOrigin:  corsOrigin,
		maxBodySize: maxBodySize,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(20 * time.Second))
	r.Use(h.cors)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/auth/register", h.register)
		v1.Post("/auth/login", h.login)

		v1.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Get("/character", h.getCharacter)
			protected.Post("/character", h.createCharacter)
			protected.Get("/abilities", h.listAbilities)
			protected.Get("/abilities/unlocked", h.listUnlockedAbilities)
			protected.Post("/abilities/{abilityID}/equip", h.toggleEquipAbility)
			protected.Get("/quests/today", h.todayQuests)
			protected.Post("/workouts", h.completeWorkout)
			protected.Get("/workouts", h.workoutHistory)
			protected.Get("/workouts/counts", h.workoutCounts)
			protected.Get("/records", h.personalRecords)
		})

		// The websocket route authenticates inside the handler: browsers
		// cannot set headers on upgrade requests.
		v1.Get("/progress/ws", h.progressWS)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, authapp.ErrEmailInUse) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
			return
		}
		if errors.Is(err, authapp.ErrInvalidEmail) || errors.Is(err, authapp.ErrWeakPassword) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	c, err := h.characters.GetByUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, charapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "character not found"})
			return
		}
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("get character failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"character":         c,
		"level":             c.Level(),
		"xp_for_next_level": c.XPForNextLevel(),
		"xp_progress":       c.XPProgressPercent(),
	})
}

func (h *Handler) createCharacter(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var req struct {
		ClassType      string `json:"class_type"`
		SecondaryClass string `json:"secondary_class"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	c, err := h.characters.Create(r.Context(), uid, domainprog.Class(req.ClassType), domainprog.Class(req.SecondaryClass))
	if err != nil {
		if errors.Is(err, charapp.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "character already exists"})
			return
		}
		if errors.Is(err, charapp.ErrInvalidClass) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid class"})
			return
		}
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("create character failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) listAbilities(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	c, err := h.characters.GetByUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, charapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "character not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	classes := []domainprog.Class{c.ClassType}
	if c.SecondaryClass != "" {
		classes = append(classes, c.SecondaryClass)
	}
	abilities, err := h.abilities.CatalogForClasses(r.Context(), classes)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("list abilities failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": abilities})
}

func (h *Handler) listUnlockedAbilities(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	items, err := h.abilities.UnlockedByUser(r.Context(), uid)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("list unlocked abilities failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) toggleEquipAbility(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	abilityID, err := uuid.Parse(chi.URLParam(r, "abilityID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid ability id"})
		return
	}
	ua, err := h.abilities.ToggleEquip(r.Context(), uid, abilityID)
	if err != nil {
		switch {
		case errors.Is(err, abilityapp.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "ability not found"})
		case errors.Is(err, abilityapp.ErrNotUnlocked):
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "ability not unlocked"})
		case errors.Is(err, abilityapp.ErrPassiveAbility):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "passive abilities stay equipped"})
		default:
			h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("toggle equip failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, ua)
}

func (h *Handler) todayQuests(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	quests, err := h.quests.TodayFor(r.Context(), uid, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("today quests failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": quests})
}

func (h *Handler) completeWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var ev domainworkout.CompletionEvent
	if !h.decodeBody(w, r, &ev) {
		return
	}
	result, err := h.progression.CompleteWorkout(r.Context(), uid, ev)
	if err != nil {
		if errors.Is(err, charapp.ErrNotFound) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "create a character first"})
			return
		}
		if result.Log.ID != uuid.Nil {
			// Progression failed after the workout was recorded; the session
			// is kept and the client may retry the rest later.
			h.logger.Error().Err(err).Str("user_id", uid.String()).Str("log_id", result.Log.ID.String()).Msg("progression failed after log")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "workout saved, progression incomplete", "log_id": result.Log.ID})
			return
		}
		h.logger.Warn().Err(err).Str("user_id", uid.String()).Msg("complete workout rejected")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) workoutHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.workouts.History(r.Context(), uid, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("workout history failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": logs})
}

func (h *Handler) workoutCounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	counts, err := h.workouts.CountsByCategory(r.Context(), uid)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("workout counts failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) personalRecords(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	records, err := h.workouts.Records(r.Context(), uid)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid.String()).Msg("personal records failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

func (h *Handler) progressWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing token"})
		return
	}
	uid, err := h.auth.ParseToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.live.RegisterClient(conn, uid)
	go h.writePump(client)
	h.readPump(client)
}

// readPump drains the connection so pongs and close frames are processed.
// Clients have nothing to say on this socket; it exists to be pushed to.
func (h *Handler) readPump(client *liveapp.Client) {
	defer h.live.UnregisterClient(client)
	if client.Conn == nil {
		return
	}
	client.Conn.SetReadLimit(512)
	_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(client *liveapp.Client) {
	if client.Conn == nil {
		return
	}
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		uid, err := h.auth.ParseToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userIDContextKey)
	uid, ok := v.(uuid.UUID)
	return uid, ok
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origin := h.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
