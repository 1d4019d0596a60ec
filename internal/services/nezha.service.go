package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nezhabot/internal/models"
)

// Dashboard API paths
const (
	loginPath        = "/api/v1/login"
	refreshTokenPath = "/api/v1/refresh-token"
	serverPath       = "/api/v1/server"
	serverGroupPath  = "/api/v1/server-group"
	servicePath      = "/api/v1/service"
)

// NezhaAPI performs raw calls against the dashboard. The bearer token is
// passed explicitly on every call; it keeps no auth state of its own.
type NezhaAPI struct {
	baseURL    string
	httpClient *http.Client
}

// NewNezhaAPI creates an API client for the dashboard at baseURL.
// A zero timeout leaves outbound calls bounded only by the caller's context.
func NewNezhaAPI(baseURL string, timeout time.Duration) *NezhaAPI {
	return &NezhaAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges username and password for a fresh token
func (a *NezhaAPI) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := a.fetch(ctx, http.MethodPost, loginPath, "", nil, models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	return resp, err
}

// RefreshToken asks the dashboard to extend the given token
func (a *NezhaAPI) RefreshToken(ctx context.Context, token string) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := a.fetch(ctx, http.MethodGet, refreshTokenPath, token, nil, nil, &resp)
	return resp, err
}

// Servers lists servers; id 0 lists all of them
func (a *NezhaAPI) Servers(ctx context.Context, token string, id uint64) ([]models.Server, error) {
	var query url.Values
	if id != 0 {
		query = url.Values{"id": []string{strconv.FormatUint(id, 10)}}
	}
	var servers []models.Server
	if err := a.fetch(ctx, http.MethodGet, serverPath, token, query, nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// ServerGroups lists server groups
func (a *NezhaAPI) ServerGroups(ctx context.Context, token string) ([]models.ServerGroupItem, error) {
	var groups []models.ServerGroupItem
	if err := a.fetch(ctx, http.MethodGet, serverGroupPath, token, nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Services returns service monitor and cycle transfer data
func (a *NezhaAPI) Services(ctx context.Context, token string) (models.ServiceResponse, error) {
	var resp *models.ServiceResponse
	if err := a.fetch(ctx, http.MethodGet, servicePath, token, nil, nil, &resp); err != nil {
		return models.ServiceResponse{}, err
	}
	if resp == nil {
		return models.ServiceResponse{}, nil
	}
	return *resp, nil
}

// fetch sends one request and unwraps the {success, data, error} envelope
// into out.
func (a *NezhaAPI) fetch(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &TransportError{Status: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	var envelope models.CommonResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if !envelope.Success {
		return &BackendError{Message: envelope.Error}
	}
	if len(envelope.Data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// TokenSource supplies the bearer token for telemetry reads
type TokenSource interface {
	CurrentToken() string
}

// TelemetryClient performs authenticated reads using the token manager's
// current token. It never retries; the caller decides whether a failure
// warrants a refresh.
type TelemetryClient struct {
	api    *NezhaAPI
	tokens TokenSource
}

// NewTelemetryClient creates a telemetry client
func NewTelemetryClient(api *NezhaAPI, tokens TokenSource) *TelemetryClient {
	return &TelemetryClient{api: api, tokens: tokens}
}

// ListServers returns all servers, or only the one with the given id when
// id is non-zero. An empty result is whatever the dashboard returns.
func (c *TelemetryClient) ListServers(ctx context.Context, id uint64) ([]models.Server, error) {
	return c.api.Servers(ctx, c.tokens.CurrentToken(), id)
}

// ListServerGroups returns all groups, or an empty slice when there are none
func (c *TelemetryClient) ListServerGroups(ctx context.Context) ([]models.ServerGroupItem, error) {
	groups, err := c.api.ServerGroups(ctx, c.tokens.CurrentToken())
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.ServerGroupItem{}
	}
	return groups, nil
}

// GetServiceData returns service and cycle transfer data. An absent payload
// yields a value with empty maps.
func (c *TelemetryClient) GetServiceData(ctx context.Context) (models.ServiceResponse, error) {
	resp, err := c.api.Services(ctx, c.tokens.CurrentToken())
	if err != nil {
		return models.ServiceResponse{}, err
	}
	if resp.Services == nil {
		resp.Services = map[string]models.ServiceItem{}
	}
	if resp.CycleTransferStats == nil {
		resp.CycleTransferStats = map[string]models.CycleTransferStats{}
	}
	return resp, nil
}
