package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

const maxErrorBody = 512

// ParseResponse classifies an answer of the order endpoint. It returns the
// result object of accepted orders, a *escrow.RejectionError when the venue
// declined the order and an escrow.ErrProtocol error for anything it cannot
// interpret.
func ParseResponse(status int, body []byte) (Result, error) {
	var resp message.RPCResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(escrow.ErrProtocol, "server request failed: %d %s", status, truncate(body))
	}

	if present(resp.Error) {
		return nil, parseError(resp.Error)
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, errors.Wrapf(escrow.ErrProtocol, "server request failed: %d %s", status, truncate(body))
	}

	if empty(resp.Result) {
		return nil, errors.Wrap(escrow.ErrProtocol, "server returned empty result")
	}

	if err := venueStatus(resp.Result); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func parseError(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &escrow.RejectionError{Reason: s}
	}

	var e message.RPCError
	if raw[0] != '{' || json.Unmarshal(raw, &e) != nil {
		return errors.Wrapf(escrow.ErrProtocol, "unexpected error shape: %s", truncate(raw))
	}
	reason, code := e.Reason(), e.CodeString()
	if reason == "" && code == "" {
		return errors.Wrapf(escrow.ErrProtocol, "unexpected error shape: %s", truncate(raw))
	}
	return &escrow.RejectionError{Reason: reason, Code: code}
}

// venueStatus detects results that embed an HTTP error status of the venue.
func venueStatus(result json.RawMessage) error {
	if result[0] != '{' {
		return nil
	}
	var r struct {
		Status       json.RawMessage `json:"status"`
		ErrorMessage interface{}     `json:"errorMessage"`
		Error        interface{}     `json:"error"`
	}
	if err := json.Unmarshal(result, &r); err != nil {
		return errors.Wrapf(escrow.ErrProtocol, "malformed result: %v", err)
	}

	var status int64
	if len(r.Status) == 0 || json.Unmarshal(r.Status, &status) != nil || status < http.StatusBadRequest {
		return nil
	}

	reason := fmt.Sprintf("venue returned HTTP %d", status)
	if s, ok := r.ErrorMessage.(string); ok && s != "" {
		reason = s
	} else if s, ok := r.Error.(string); ok && s != "" {
		reason = s
	}
	return &escrow.RejectionError{Reason: reason, Status: int(status)}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// empty reports whether a result is missing or holds a falsy JSON value.
func empty(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	return false
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
