// Package remote implements the session core's RemoteStore and AuthProvider
// against the Sneuz HTTP API. Each client process (app CLI, widget view,
// shortcut commands) constructs its own instances.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"sneuz/internal/model"
)

const requestTimeout = 15 * time.Second

// Client talks to the /api/sessions endpoints. It satisfies
// session.RemoteStore.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL string, auth *Auth, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if token := auth.Token(); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
		return nil
	})

	return &Client{http: httpClient, log: log}
}

type sessionEnvelope struct {
	Session model.SleepSession `json:"session"`
}

type sessionsEnvelope struct {
	Sessions []model.SleepSession `json:"sessions"`
}

func (c *Client) Insert(ctx context.Context, session *model.SleepSession) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(session).
		Post("/api/sessions")
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return apiError("insert session", resp)
	}
	return nil
}

func (c *Client) SelectOpenSession(ctx context.Context, _ string) (*model.SleepSession, error) {
	var out sessionEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/sessions/open")
	if err != nil {
		return nil, fmt.Errorf("select open session: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError("select open session", resp)
	}
	return &out.Session, nil
}

func (c *Client) SelectRecent(ctx context.Context, _ string, limit int) ([]model.SleepSession, error) {
	var out sessionsEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out).
		Get("/api/sessions")
	if err != nil {
		return nil, fmt.Errorf("select recent sessions: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError("select recent sessions", resp)
	}
	return out.Sessions, nil
}

func (c *Client) Update(ctx context.Context, id string, fields model.SessionUpdate) (*model.SleepSession, error) {
	var out sessionEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fields).
		SetResult(&out).
		Patch("/api/sessions/" + id)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError("update session", resp)
	}
	return &out.Session, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/sessions/" + id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return apiError("delete session", resp)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiError(op string, resp *resty.Response) error {
	var body errorEnvelope
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Code != "" {
		return fmt.Errorf("%s: %s (%s)", op, body.Error.Message, body.Error.Code)
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode())
}
