package timersdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerHost    = errors.New("sdk: server host missing")
	ErrInvalidPort     = errors.New("sdk: invalid server port")
	ErrNoTimerID       = errors.New("sdk: timer id missing")
	ErrUnknownAction   = errors.New("sdk: unknown timer action")
	ErrInvalidChannel  = errors.New("sdk: invalid channel code")
	ErrNotTimerList    = errors.New("sdk: payload is not a timer list")
	ErrStreamIdle      = errors.New("sdk: stream idle timeout")
	ErrStreamHandshake = errors.New("sdk: stream handshake timeout")
)

// APIError is a non-2xx answer from the timer server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
}

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 * 1024

// newAPIError builds an APIError from a status and a possibly empty body.
// The server answers errors as {"message": "..."}; anything else is kept raw.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if len(body) == 0 {
		return apiErr
	}
	if err := jsonUnmarshal(body, apiErr); err != nil || (apiErr.Message == "" && apiErr.Code == "") {
		apiErr.Message = string(body)
	}
	return apiErr
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	status := statusCode(resp)
	if requestErr != nil && status == 0 {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if status < 200 || status > 299 {
		return fmt.Errorf("%s: %w", operation, newAPIError(status, resp.Bytes()))
	}

	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	return nil
}

func statusCode(resp *req.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// IsNotFound reports whether err carries a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
