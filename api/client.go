package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/sessions"
)

const contentTypeJSON = "application/json"

// Request describes one REST call. Public requests (login, register, refresh)
// are sent without a token and never trigger a refresh.
type Request struct {
	Method string
	Path   string
	Body   any
	Public bool
}

// Client issues REST calls against the backend, attaching the session's bearer
// token and performing a single refresh-and-retry when a call is rejected with 401.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *sessions.Manager

	// OnRefresh is called after every successful token refresh
	OnRefresh func(*sessions.Session)
}

// NewClient creates a client for baseURL (e.g. "http://localhost:8080/api").
// httpClient may be nil, in which case a client with timeout is used.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, sm *sessions.Manager) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		sessions: sm,
	}
}

// Do sends req and decodes a successful JSON response into out (which may be nil).
//
// A 401 on an authenticated request triggers exactly one refresh attempt for that
// request; the request is then retried once with the new token. If the refresh
// fails the session is cleared and the original 401 is returned, unless another
// request rotated the session meanwhile, in which case the retry uses that.
// Concurrent requests are not coalesced, each 401 refreshes independently.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, err := encodeBody(req.Body)
	if err != nil {
		return err
	}

	retried := false
	for {
		tok := c.sessions.Token()
		if !req.Public && tok == nil {
			return fmt.Errorf("[api %s %s] %w", req.Method, req.Path, taskerrors.ErrNoSession)
		}

		status, respBody, err := c.send(ctx, req, body, tok)
		if err != nil {
			return err
		}
		if status >= 200 && status < 300 {
			return decodeBody(respBody, out)
		}

		apiErr := newAPIError(status, respBody)
		if status != http.StatusUnauthorized || req.Public || retried {
			return fmt.Errorf("[api %s %s] %w", req.Method, req.Path, apiErr)
		}
		retried = true

		// another request already refreshed while this one was in flight
		if cur := c.sessions.Token(); cur != nil && cur.AccessToken != tok.AccessToken {
			continue
		}

		usedRefresh := c.sessions.RefreshToken()
		if _, refreshErr := c.Refresh(ctx); refreshErr != nil {
			if cur := c.sessions.RefreshToken(); cur != "" && cur != usedRefresh {
				log.Debug().Str("path", req.Path).Msg("refresh lost a race, retrying with the current session")
				continue
			}
			log.Warn().Err(refreshErr).Str("path", req.Path).Msg("token refresh failed, clearing session")
			if clearErr := c.sessions.Clear(); clearErr != nil {
				log.Err(clearErr).Msg("failed to clear session")
			}
			return fmt.Errorf("[api %s %s] %w", req.Method, req.Path, taskerrors.Join(apiErr, refreshErr))
		}
	}
}

// Refresh exchanges the session's refresh token for a new token pair. It does not
// clear the session on failure; Do does that for the 401 path.
func (c *Client) Refresh(ctx context.Context) (*sessions.Session, error) {
	refreshToken := c.sessions.RefreshToken()
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token available", taskerrors.ErrRefreshFailed)
	}

	var resp model.AuthResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   RouteAuthRefresh,
		Body:   model.RefreshRequest{RefreshToken: refreshToken},
		Public: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", taskerrors.ErrRefreshFailed, err)
	}

	s, err := c.sessions.UpdateTokens(resp.Token, resp.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", taskerrors.ErrRefreshFailed, err)
	}
	log.Debug().Str("user", s.User.ID).Msg("access token refreshed")
	if c.OnRefresh != nil {
		c.OnRefresh(s)
	}
	return s, nil
}

func (c *Client) send(ctx context.Context, req Request, body []byte, tok *oauth2.Token) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("[api send] build request: %w", err)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	if !req.Public && tok != nil {
		tok.SetAuthHeader(httpReq)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("[api %s %s] %w: %w", req.Method, req.Path, taskerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("[api %s %s] %w: read body: %w", req.Method, req.Path, taskerrors.ErrTransport, err)
	}
	return resp.StatusCode, respBody, nil
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("[api] encode body: %w", err)
	}
	return b, nil
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("[api] decode body: %w", err)
	}
	return nil
}
