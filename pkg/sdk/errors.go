package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoCredential is returned by a TokenStore that holds no credential.
	ErrNoCredential = errors.New("no credential stored")

	// ErrDecode marks a credential whose claims could not be decoded.
	ErrDecode = errors.New("cannot decode credential claims")

	// ErrUnauthorized is returned when a request needs a credential and none is
	// present, or when the backend answers 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden matches an APIError with status 403.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound matches an APIError with status 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a payload fails client-side validation.
	ErrInvalidInput = errors.New("invalid input")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is lets errors.Is match status-keyed sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// LoginError reports a failed login: bad credentials or transport failure.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string {
	return "login failed: " + Message(e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// IdentityResolutionError reports a login that returned a credential from
// which no valid identity could be derived.
type IdentityResolutionError struct {
	Err error
}

func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve identity from credential: %v", e.Err)
}

func (e *IdentityResolutionError) Unwrap() error { return e.Err }

// VerificationError reports that the backend rejected or could not confirm
// the stored identity.
type VerificationError struct {
	UserID int64
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify identity %d: %v", e.UserID, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// MutationError reports a failed create, update or delete.
type MutationError struct {
	Resource string
	Op       string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Op, e.Resource, Message(e.Err))
}

func (e *MutationError) Unwrap() error { return e.Err }

// Message returns the human-readable part of err: the backend message for
// an APIError anywhere in the chain, else err's own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// statusMessages are used when the backend sends no structured error.
var statusMessages = map[int]string{
	http.StatusBadRequest:            "the request was rejected as invalid",
	http.StatusUnauthorized:          "session expired, please log in again",
	http.StatusForbidden:             "you do not have permission to perform this action",
	http.StatusNotFound:              "the requested record was not found",
	http.StatusConflict:              "the record conflicts with an existing one",
	http.StatusRequestEntityTooLarge: "the uploaded file is too large",
	http.StatusUnprocessableEntity:   "some fields are invalid",
	http.StatusInternalServerError:   "the server failed to process the request",
	http.StatusBadGateway:            "the server is unreachable",
	http.StatusServiceUnavailable:    "the server is temporarily unavailable",
	http.StatusGatewayTimeout:        "the server took too long to respond",
}

// errorMessage derives the message for a failed response. FastAPI sends
// {"detail": "..."} for handled errors and {"detail": [{"msg": ...}]} for
// validation errors.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if msg := detailMessage(payload.Detail); msg != "" {
			return msg
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if json.Unmarshal(raw, &items) != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Msg == "" {
			continue
		}
		if field := locField(item.Loc); field != "" {
			msgs = append(msgs, field+": "+item.Msg)
		} else {
			msgs = append(msgs, item.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// locField returns the last element of a validation location ("body", "email").
func locField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" && s != "query" {
		return s
	}
	return ""
}
