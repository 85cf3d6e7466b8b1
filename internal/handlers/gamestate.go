package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
)

const maxHistoryLimit = 500

type GameStateHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewGameStateHandler(engine *engine.Engine, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		engine: engine,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST   /v1/gamestate              - Create a game and open a conversation
// GET    /v1/gamestate/{id}         - Raw game state
// DELETE /v1/gamestate/{id}         - Delete game state and its turn log
// GET    /v1/gamestate/{id}/choices - Current node and visible choices
// POST   /v1/gamestate/{id}/choose  - Select a choice
// POST   /v1/gamestate/{id}/talk    - Start a conversation with another character
// GET    /v1/gamestate/{id}/history - Turn log, oldest first
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/gamestate"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.logger.Warn("Method not allowed for game state collection", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	gameStateID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid game state ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
		return
	}
	log := logger.WithGameID(h.logger, gameStateID.String())

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, log, gameStateID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, log, gameStateID)
	case action == "choices" && r.Method == http.MethodGet:
		h.handleChoices(w, r, log, gameStateID)
	case action == "choose" && r.Method == http.MethodPost:
		h.handleChoose(w, r, log, gameStateID)
	case action == "talk" && r.Method == http.MethodPost:
		h.handleTalk(w, r, log, gameStateID)
	case action == "history" && r.Method == http.MethodGet:
		h.handleHistory(w, r, log, gameStateID)
	case action == "" || action == "choices" || action == "choose" || action == "talk" || action == "history":
		log.Warn("Method not allowed for game state endpoint", "method", r.Method, "action", action)
		writeError(w, log, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		log.Warn("Unknown game state action", "action", action)
		writeError(w, log, http.StatusNotFound, "Unknown game state action")
	}
}

// CreateGameStateRequest defines the request body for creating a new game state
type CreateGameStateRequest struct {
	PlayerID    string `json:"player_id"`    // Required
	CharacterID string `json:"character_id"` // Required: character to open a conversation with
}

// ChooseRequest selects a choice on the current node.
type ChooseRequest struct {
	ChoiceID string `json:"choice_id"`
}

// TalkRequest starts a conversation with another character.
type TalkRequest struct {
	CharacterID string `json:"character_id"`
}

// normalizeID converts a string to lowercase snake_case for consistent IDs.
// It handles spaces, hyphens and mixed case.
func normalizeID(s string) string {
	if s == "" {
		return ""
	}

	var out strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && out.Len() > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}

		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
			prevUnderscore = false

		default:
			// Ignore other characters
		}
	}
	return strings.TrimSuffix(out.String(), "_")
}

// Normalize trims the player id and normalizes the character id.
func (req *CreateGameStateRequest) Normalize() {
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	req.CharacterID = normalizeID(req.CharacterID)
}

func decodeBody(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn("Invalid JSON in request body", "error", err)
		writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game state")

	var req CreateGameStateRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	req.Normalize()

	if req.PlayerID == "" {
		h.logger.Warn("Missing required field: player_id")
		writeError(w, h.logger, http.StatusBadRequest, "player_id field is required")
		return
	}
	if req.CharacterID == "" {
		h.logger.Warn("Missing required field: character_id")
		writeError(w, h.logger, http.StatusBadRequest, "character_id field is required")
		return
	}

	turn, err := h.engine.NewGame(r.Context(), req.PlayerID, req.CharacterID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, turn)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	gs, err := h.engine.State(r.Context(), id)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, gs)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	if err := h.engine.Delete(r.Context(), id); err != nil {
		writeEngineError(w, log, err)
		return
	}
	log.Info("Game state deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleChoices(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	turn, err := h.engine.Current(r.Context(), id)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, turn)
}

func (h *GameStateHandler) handleChoose(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	var req ChooseRequest
	if !decodeBody(w, r, log, &req) {
		return
	}
	if req.ChoiceID == "" {
		log.Warn("Missing required field: choice_id")
		writeError(w, log, http.StatusBadRequest, "choice_id field is required")
		return
	}

	turn, err := h.engine.Choose(r.Context(), id, req.ChoiceID)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, turn)
}

func (h *GameStateHandler) handleTalk(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	var req TalkRequest
	if !decodeBody(w, r, log, &req) {
		return
	}
	req.CharacterID = normalizeID(req.CharacterID)
	if req.CharacterID == "" {
		log.Warn("Missing required field: character_id")
		writeError(w, log, http.StatusBadRequest, "character_id field is required")
		return
	}

	turn, err := h.engine.Talk(r.Context(), id, req.CharacterID)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, turn)
}

func (h *GameStateHandler) handleHistory(w http.ResponseWriter, r *http.Request, log *slog.Logger, id uuid.UUID) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Warn("Invalid history limit", "limit", raw)
			writeError(w, log, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	turns, err := h.engine.History(r.Context(), id, limit)
	if err != nil {
		writeEngineError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, turns)
}
