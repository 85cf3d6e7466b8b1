package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// apiClient talks to the dialogue engine HTTP API.
type apiClient struct {
	http    *http.Client
	baseURL string
}

func (c *apiClient) testConnection() bool {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a JSON request and decodes a JSON response when the status is want.
func (c *apiClient) do(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *apiClient) listCharacters() ([]engine.CharacterSummary, error) {
	var chars []engine.CharacterSummary
	if err := c.do(http.MethodGet, "/v1/characters", nil, http.StatusOK, &chars); err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return chars, nil
}

// CreateGameStateRequest matches the API request structure
type CreateGameStateRequest struct {
	PlayerID    string `json:"player_id"`
	CharacterID string `json:"character_id"`
}

func (c *apiClient) createGame(playerID, characterID string) (*engine.Turn, error) {
	var turn engine.Turn
	req := CreateGameStateRequest{PlayerID: playerID, CharacterID: characterID}
	if err := c.do(http.MethodPost, "/v1/gamestate", req, http.StatusCreated, &turn); err != nil {
		return nil, fmt.Errorf("failed to create game state: %w", err)
	}
	return &turn, nil
}

func (c *apiClient) choose(gameID uuid.UUID, choiceID string) (*engine.Turn, error) {
	var turn engine.Turn
	body := map[string]string{"choice_id": choiceID}
	if err := c.do(http.MethodPost, "/v1/gamestate/"+gameID.String()+"/choose", body, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *apiClient) talk(gameID uuid.UUID, characterID string) (*engine.Turn, error) {
	var turn engine.Turn
	body := map[string]string{"character_id": characterID}
	if err := c.do(http.MethodPost, "/v1/gamestate/"+gameID.String()+"/talk", body, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}
