package apierror

import (
	"fmt"
	"net/http"
)

// Kind classifies where a failure originated.
type Kind string

const (
	KindTransport    Kind = "TRANSPORT"
	KindApplication  Kind = "APPLICATION"
	KindMissingToken Kind = "MISSING_TOKEN"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindStatus       Kind = "STATUS"
	KindDecode       Kind = "DECODE"
)

type APIError struct {
	Kind       Kind   `json:"kind"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Sentinels for errors.Is. They match any APIError of the same kind.
var (
	ErrTransport    = &APIError{Kind: KindTransport}
	ErrApplication  = &APIError{Kind: KindApplication}
	ErrNoToken      = &APIError{Kind: KindMissingToken}
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrStatus       = &APIError{Kind: KindStatus}
	ErrDecode       = &APIError{Kind: KindDecode}
)

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok || e == nil {
		return false
	}

	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Kind: KindStatus, Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Application is a body-level failure (code 0) carried by a transport-level success.
// Its Error() is the bare server message so it can be shown to users verbatim.
func Application(message string, status int) *APIError {
	return &APIError{Kind: KindApplication, Message: message, HTTPStatus: status}
}

func MissingToken() *APIError {
	return &APIError{Kind: KindMissingToken, Message: "No token received", HTTPStatus: http.StatusOK}
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return &APIError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message, HTTPStatus: http.StatusUnauthorized}
}

func Transport(err error) *APIError {
	return &APIError{Kind: KindTransport, Code: "TRANSPORT", Message: "request failed", HTTPStatus: http.StatusBadGateway, Err: err}
}

func Decode(err error) *APIError {
	return &APIError{Kind: KindDecode, Code: "DECODE", Message: "malformed response body", HTTPStatus: http.StatusBadGateway, Err: err}
}
