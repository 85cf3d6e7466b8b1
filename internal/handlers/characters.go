package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
)

type CharacterHandler struct {
	log    *slog.Logger
	engine *engine.Engine
}

func NewCharacterHandler(log *slog.Logger, engine *engine.Engine) *CharacterHandler {
	return &CharacterHandler{
		log:    log,
		engine: engine,
	}
}

// ServeHTTP routes:
// GET /v1/characters      - List characters with a dialogue graph
// GET /v1/characters/{id} - Full dialogue graph for one character
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.log.Warn("Method not allowed for characters endpoint", "method", r.Method)
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")
	if id == "" {
		writeJSON(w, h.log, http.StatusOK, h.engine.Characters())
		return
	}

	if strings.Contains(id, "..") || strings.Contains(id, "/") {
		h.log.Warn("Invalid character id", "id", id)
		writeError(w, h.log, http.StatusBadRequest, "Invalid character id")
		return
	}

	graph, err := h.engine.Graph(normalizeID(id))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, graph)
}
