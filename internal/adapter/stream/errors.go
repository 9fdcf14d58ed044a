package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arturoeanton/reliefchat/internal/port"
)

// APIError is the error body returned by the Stream REST API.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"StatusCode"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stream API error (%d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (e *APIError) alreadyExists() bool {
	return strings.Contains(strings.ToLower(e.Message), "already exists")
}

func (e *APIError) alreadyMember() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "already a member") || strings.Contains(msg, "already member")
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// classify maps Stream failures onto the port error taxonomy. Auth failures
// (401/403) mean our server credentials are wrong, so they stay upstream
// errors rather than ErrForbidden, which is reserved for callers.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.alreadyExists():
			return fmt.Errorf("stream %s: %w: %s", op, port.ErrAlreadyExists, apiErr.Message)
		case apiErr.alreadyMember():
			return fmt.Errorf("stream %s: %w: %s", op, port.ErrAlreadyMember, apiErr.Message)
		}
	}
	return port.Upstream("stream "+op, err)
}
