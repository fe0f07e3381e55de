package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"goarena/internal/bootstrap"
	"goarena/internal/usecase/bot"
)

type SelectMoveRequest struct {
	BoardSize int      `json:"board_size"`
	Komi      float64  `json:"komi"`
	Ko        bool     `json:"ko"`
	Moves     []string `json:"moves"`
}

type SelectMoveResponse struct {
	BotMove string `json:"bot_move"`
}

// EngineRepository asks an external HTTP engine for moves and falls back to
// the local heuristic when none is configured or it fails.
type EngineRepository struct {
	log       *zap.SugaredLogger
	engineURL string
	client    *http.Client
	fallback  bot.Heuristic
}

func NewEngineRepository(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineRepository {
	return &EngineRepository{
		log:       log,
		engineURL: cfg.BotEngineUrl,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (e *EngineRepository) GenerateMove(ctx context.Context, req bot.Request) (string, error) {
	if e.engineURL == "" {
		return e.fallback.GenerateMove(ctx, req)
	}
	move, err := e.askEngine(ctx, req)
	if err != nil {
		e.log.Warnw("engine request failed, using heuristic", "url", e.engineURL, "error", err)
		return e.fallback.GenerateMove(ctx, req)
	}
	return move, nil
}

func (e *EngineRepository) askEngine(ctx context.Context, req bot.Request) (string, error) {
	reqBody, err := json.Marshal(SelectMoveRequest{
		BoardSize: req.BoardSize,
		Komi:      req.Komi,
		Ko:        req.Ko,
		Moves:     req.Moves,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.engineURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result SelectMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.BotMove == "" {
		return "", fmt.Errorf("engine returned no move")
	}
	return result.BotMove, nil
}
