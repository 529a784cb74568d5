// Package gateway implements the single choke-point for platform API calls:
// bearer attachment, the 401-refresh-retry state machine, and translation of
// every failure into the typed apperrors taxonomy. Concurrent 401 handlers are
// coalesced onto one shared in-flight refresh, so N simultaneous expiries
// produce exactly one refresh call on the wire.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/ports"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "refresh-token"
	maxBodyBytes       = 4 << 20
)

// Options groups dependencies for the gateway client.
type Options struct {
	BaseURL string
	// RefreshPath is the token-renewal endpoint, relative to BaseURL.
	RefreshPath string
	HTTPClient  *http.Client
	Store       ports.TokenStore
	Notifier    ports.IdentityNotifier
	Logger      *slog.Logger
}

// Client is the SessionGateway implementation of ports.Gateway.
type Client struct {
	baseURL     string
	refreshPath string
	httpClient  *http.Client
	store       ports.TokenStore
	notifier    ports.IdentityNotifier
	logger      *slog.Logger

	// refresh coalesces concurrent renewals, keyed by the access token that
	// was observed to be stale.
	refresh singleflight.Group
}

// New constructs a gateway client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts.Store == nil {
		return nil, errors.New("token store is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = defaultRefreshPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		refreshPath: strings.Trim(refreshPath, "/"),
		httpClient:  httpClient,
		store:       opts.Store,
		notifier:    opts.Notifier,
		logger:      logger.With("component", "session_gateway"),
	}, nil
}

// Do issues one platform API call with bearer credentials. On a 401 for any
// endpoint other than the refresh endpoint itself it renews the token pair
// (coalesced across concurrent callers) and retries the original request
// exactly once. A failed renewal or a still-unauthorized retry wipes all
// session state, broadcasts a logout, and surfaces session_expired.
func (c *Client) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	access := ""
	if !req.NoAuth {
		var err error
		access, err = c.store.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("load access token: %w", err)
		}
	}

	raw, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}

	if raw.status == http.StatusUnauthorized && !req.NoAuth && req.Path != c.refreshPath {
		renewed, refreshErr := c.renewTokens(ctx, access)
		if refreshErr != nil {
			return nil, c.expireSession(ctx, refreshErr)
		}

		raw, err = c.send(ctx, req, renewed)
		if err != nil {
			return nil, err
		}
		if raw.status == http.StatusUnauthorized {
			return nil, c.expireSession(ctx, errors.New("retry still unauthorized"))
		}
	}

	return c.interpret(raw)
}

// rawResponse carries what interpret needs from one wire exchange.
type rawResponse struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) send(ctx context.Context, req ports.Request, access string) (*rawResponse, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.mapTransportError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.mapTransportError(err)
	}

	return &rawResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Canceled(err)
	}
	return apperrors.NetworkUnreachable(err)
}

// renewTokens performs one shared refresh per stale access token. Every caller
// that observed the same stale token awaits the same renewal and receives the
// same fresh access token.
func (c *Client) renewTokens(ctx context.Context, staleAccess string) (string, error) {
	v, err, _ := c.refresh.Do(staleAccess, func() (any, error) {
		// A concurrent caller may have already rotated the pair.
		current, loadErr := c.store.AccessToken(ctx)
		if loadErr == nil && current != "" && current != staleAccess {
			return current, nil
		}
		return c.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	access, ok := v.(string)
	if !ok || access == "" {
		return "", errors.New("refresh produced no access token")
	}
	return access, nil
}

// doRefresh calls the refresh endpoint directly. It never re-enters the
// 401-retry path, so a 401 from the refresh endpoint itself cannot recurse.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", errors.New("no refresh token available")
	}

	raw, err := c.send(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   c.refreshPath,
		Body:   map[string]string{"refresh": refreshToken},
		NoAuth: true,
	}, "")
	if err != nil {
		return "", err
	}
	if raw.status < 200 || raw.status >= 300 {
		return "", fmt.Errorf("refresh endpoint returned status %d", raw.status)
	}
	if !isJSONContentType(raw.contentType) {
		return "", errors.New("refresh endpoint returned non-JSON response")
	}

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(raw.body, &pair); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		return "", errors.New("refresh response missing tokens")
	}

	// The persistence mode established at login is preserved by Renew.
	if err := c.store.Renew(ctx, pair.Access, pair.Refresh); err != nil {
		return "", fmt.Errorf("persist renewed tokens: %w", err)
	}
	return pair.Access, nil
}

// expireSession wipes all session state, broadcasts a logout so consumers
// return to the login surface, and returns the session_expired error.
func (c *Client) expireSession(ctx context.Context, cause error) error {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "clear session state", "error", err)
	}
	if c.notifier != nil {
		c.notifier.Broadcast(ports.IdentityEvent{Kind: ports.EventLoggedOut})
	}
	c.logger.InfoContext(ctx, "session expired", "cause", cause)

	appErr := apperrors.SessionExpired("")
	appErr.Cause = cause
	return appErr
}

func (c *Client) interpret(raw *rawResponse) (*ports.Response, error) {
	if raw.status >= 200 && raw.status < 300 {
		if len(raw.body) == 0 || raw.status == http.StatusNoContent {
			return &ports.Response{Status: raw.status}, nil
		}
		if !isJSONContentType(raw.contentType) {
			return nil, apperrors.Parse(
				fmt.Sprintf("expected JSON response, got %q", raw.contentType), nil)
		}
		if !json.Valid(raw.body) {
			return nil, apperrors.Parse("response body is not valid JSON", nil)
		}
		return &ports.Response{Status: raw.status, Body: raw.body}, nil
	}

	return nil, c.mapErrorResponse(raw)
}

// serverErrorEnvelope is the backend's error shape: a flat message plus an
// optional field-keyed errors object whose values may be strings or arrays.
type serverErrorEnvelope struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func (c *Client) mapErrorResponse(raw *rawResponse) error {
	message := http.StatusText(raw.status)
	var fields map[string][]string

	if isJSONContentType(raw.contentType) && len(raw.body) > 0 {
		var env serverErrorEnvelope
		if err := json.Unmarshal(raw.body, &env); err == nil {
			if env.Message != "" {
				message = env.Message
			} else if env.Error != "" {
				message = env.Error
			}
			fields = decodeFieldErrors(env.Errors)
		}
	}

	switch {
	case raw.status == http.StatusNotFound:
		return apperrors.NotFound(message)
	case raw.status >= 500:
		return apperrors.ServerError(message, raw.status)
	case raw.status == http.StatusBadRequest,
		raw.status == http.StatusUnauthorized,
		raw.status == http.StatusForbidden,
		raw.status == http.StatusUnprocessableEntity:
		appErr := apperrors.ValidationFields(message, fields)
		appErr.HTTPStatus = raw.status
		return appErr
	default:
		return apperrors.ServerError(message, raw.status)
	}
}

// decodeFieldErrors tolerates both {"field": "msg"} and {"field": ["msg", ...]}.
func decodeFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(raw))
	for name, val := range raw {
		var single string
		if err := json.Unmarshal(val, &single); err == nil {
			fields[name] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(val, &many); err == nil {
			fields[name] = many
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
