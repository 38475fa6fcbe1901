// Package api is the pull-side client for the trial server's REST
// endpoints: game metadata, game status, and the finalized message history.
package api

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/reedyang/last-trial/internal/protocol/wire"
)

// Client talks to the trial server REST API.
type Client struct {
	http *resty.Client
}

// New creates a client for the given base URL (e.g. "http://host:8001").
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second),
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error { return c.http.Close() }

// GetGame fetches game metadata.
func (c *Client) GetGame(ctx context.Context, gameID int) (*wire.Game, error) {
	var out wire.Game
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/game/%d", gameID))
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", gameID, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get game %d: %s", gameID, res.Status())
	}
	return &out, nil
}

// GetGameStatus fetches the current round number and participant roster.
func (c *Client) GetGameStatus(ctx context.Context, gameID int) (*wire.GameStatus, error) {
	var out wire.GameStatus
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/game/%d/status", gameID))
	if err != nil {
		return nil, fmt.Errorf("get game %d status: %w", gameID, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get game %d status: %s", gameID, res.Status())
	}
	return &out, nil
}

// GetGameMessages fetches the finalized event history in server order.
func (c *Client) GetGameMessages(ctx context.Context, gameID int) ([]wire.Event, error) {
	var out []wire.Event
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/game/%d/messages", gameID))
	if err != nil {
		return nil, fmt.Errorf("get game %d messages: %w", gameID, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get game %d messages: %s", gameID, res.Status())
	}
	return out, nil
}

// StartGame asks the server to start a prepared game.
func (c *Client) StartGame(ctx context.Context, gameID int) error {
	return c.post(ctx, fmt.Sprintf("/api/game/%d/start", gameID), "start game")
}

// StopGame asks the server to stop a running game.
func (c *Client) StopGame(ctx context.Context, gameID int) error {
	return c.post(ctx, fmt.Sprintf("/api/game/%d/stop", gameID), "stop game")
}

func (c *Client) post(ctx context.Context, path, what string) error {
	var apiErr wire.APIError
	res, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if res.IsError() {
		if apiErr.Detail != "" {
			return fmt.Errorf("%s: %s", what, apiErr.Detail)
		}
		return fmt.Errorf("%s: %s", what, res.Status())
	}
	return nil
}
