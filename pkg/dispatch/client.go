// Package dispatch is the HTTP client for the ambulance dispatch server.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lifeline/pkg/apperr"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// defaultTimeout applies when the caller passes a zero timeout.
	defaultTimeout = 15 * time.Second

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response we are willing to read.
	maxBodyBytes = 1 << 20

	requestIDHeader = "X-Request-ID"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.ILogger
}

func New(baseURL string, timeout time.Duration, log logger.ILogger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConns,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool           `json:"success"`
	Driver  *models.Driver `json:"driver"`
	Token   string         `json:"token"`
	Error   string         `json:"error"`
}

// LoginResult is a successful /driver_login answer.
type LoginResult struct {
	Driver models.Driver
	Token  string
}

// Login posts driver credentials. A rejected login comes back as *apperr.ServerError.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "driver_login"

	var resp loginResponse
	if err := c.do(ctx, op, http.MethodPost, "/driver_login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &apperr.ServerError{Op: op, Message: resp.Error}
	}
	if resp.Driver == nil {
		return nil, &apperr.TransportError{Op: op, Err: errors.New("response has no driver")}
	}
	return &LoginResult{Driver: *resp.Driver, Token: resp.Token}, nil
}

// Book posts one emergency request. On success:false the decoded result is
// returned together with an *apperr.ServerError.
func (c *Client) Book(ctx context.Context, req models.EmergencyRequest) (*models.DispatchResult, error) {
	const op = "book_ambulance"

	var res models.DispatchResult
	if err := c.do(ctx, op, http.MethodPost, "/book_ambulance", req, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return &res, &apperr.ServerError{Op: op, Message: res.Error}
	}
	return &res, nil
}

// Assignment queries the active assignment of a driver. A response that
// carries an error field is reported as a failure, not as "no assignment".
func (c *Client) Assignment(ctx context.Context, driverID int64) (*models.AssignmentPoll, error) {
	const op = "driver_assignment"

	var poll models.AssignmentPoll
	if err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/driver_assignment/%d", driverID), nil, &poll); err != nil {
		return nil, err
	}
	if poll.Error != "" {
		return nil, &apperr.ServerError{Op: op, Message: poll.Error}
	}
	if poll.HasAssignment && poll.Emergency == nil {
		return nil, &apperr.TransportError{Op: op, Err: errors.New("hasAssignment without emergency")}
	}
	return &poll, nil
}

// CompletionRequest closes an assignment. Coordinates are optional and are
// left out of the body entirely when nil.
type CompletionRequest struct {
	DriverID   int64    `json:"driver_id"`
	DispatchID int64    `json:"dispatch_id"`
	CurrentLat *float64 `json:"current_lat,omitempty"`
	CurrentLon *float64 `json:"current_lon,omitempty"`
}

type completionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) error {
	const op = "complete_emergency"

	var resp completionResponse
	if err := c.do(ctx, op, http.MethodPost, "/complete_emergency", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &apperr.ServerError{Op: op, Message: resp.Error}
	}
	return nil
}

type driverStatusResponse struct {
	Success bool `json:"success"`
	models.DriverStatus
	Error string `json:"error"`
}

func (c *Client) DriverStatus(ctx context.Context, driverID int64) (*models.DriverStatus, error) {
	const op = "driver_status"

	var resp driverStatusResponse
	if err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/driver_status/%d", driverID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &apperr.ServerError{Op: op, Message: resp.Error}
	}
	return &resp.DriverStatus, nil
}

func (c *Client) ActiveEmergencies(ctx context.Context) ([]models.ActiveEmergency, error) {
	const op = "active_emergencies"

	var list []models.ActiveEmergency
	if err := c.do(ctx, op, http.MethodGet, "/active_emergencies", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// do performs one JSON round trip. The dispatch server answers failures with
// a JSON body and a 4xx/5xx status, so the body is decoded regardless of the
// status code; only an undecodable body counts as a transport failure.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("dispatch: %s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("dispatch: %s: create request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warning("dispatch request failed",
			logger.String("op", op),
			logger.String("request_id", reqID),
			logger.Error(err),
		)
		return &apperr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.log.Debug("dispatch response",
		logger.String("op", op),
		logger.String("request_id", reqID),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)),
	)

	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
