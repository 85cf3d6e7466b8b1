package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
	"github.com/jwebster45206/dialogue-engine/pkg/content"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeEngineError maps engine and storage errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrGameNotFound):
		logger.Warn("Game state not found", "error", err)
		writeError(w, logger, http.StatusNotFound, "Game state not found")
	case errors.Is(err, content.ErrGraphNotFound):
		logger.Warn("Character not found", "error", err)
		writeError(w, logger, http.StatusNotFound, "Character not found")
	case errors.Is(err, engine.ErrChoiceUnavailable):
		logger.Warn("Choice unavailable", "error", err)
		writeError(w, logger, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrConflict):
		logger.Warn("Concurrent turn rejected", "error", err)
		writeError(w, logger, http.StatusConflict, "Game state was modified by another request, reload and retry")
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
