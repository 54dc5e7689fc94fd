package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/relovehq/storefront/internal/gateway"
)

// errorPayload covers the error body shapes of both the auth and the table
// endpoints.
type errorPayload struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Code             string `json:"code"`
	ErrorCode        string `json:"error_code"`
	ErrorField       string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Hint             string `json:"hint"`
}

// pgrstNoRows is the table API code for a single-row request matching
// nothing; it is the expected branch of check-then-insert flows.
const pgrstNoRows = "PGRST116"

func parseErrorResponse(status int, body []byte) error {
	var p errorPayload
	if len(body) > 0 {
		// A non-JSON body falls through to the generic error below.
		_ = json.Unmarshal(body, &p)
	}

	code := p.Code
	if code == "" {
		code = p.ErrorCode
	}
	message := p.Message
	if message == "" {
		message = p.Msg
	}
	if message == "" {
		message = p.ErrorDescription
	}
	if message == "" {
		message = p.ErrorField
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case code == pgrstNoRows:
		return gateway.ErrNoRows
	case status == http.StatusNotAcceptable && code == "":
		// Single-object requests report zero rows as 406.
		return gateway.ErrNoRows
	case status == http.StatusConflict || code == "23505":
		return gateway.ErrConflict
	case status == http.StatusUnauthorized:
		return gateway.ErrAuthRequired
	case code == "invalid_credentials" || p.ErrorField == "invalid_grant":
		return gateway.ErrInvalidCredentials
	case status == http.StatusBadRequest && p.ErrorDescription == "Invalid login credentials":
		return gateway.ErrInvalidCredentials
	}

	return &gateway.Error{Status: status, Code: code, Message: message}
}

func decodeJSON(body []byte, dest interface{}) error {
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
