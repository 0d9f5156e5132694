package apiclient

import (
	"bytes"
	"encoding/json"

	"edu-task-portal/internal/model"
	"edu-task-portal/pkg/apierror"
)

// Result is the decoded backend envelope: either a success carrying a
// payload, or an application-level failure carrying the server message.
type Result struct {
	ok      bool
	Message string
	Payload json.RawMessage
	Status  int
}

func Success(payload json.RawMessage, message string, status int) Result {
	return Result{ok: true, Payload: payload, Message: message, Status: status}
}

func Failure(message string, status int) Result {
	return Result{ok: false, Message: message, Status: status}
}

func (r Result) OK() bool {
	return r.ok
}

// Err converts a failure into an application error, falling back to the
// given message when the server supplied none.
func (r Result) Err(fallback string) error {
	if r.ok {
		return nil
	}

	message := r.Message
	if message == "" {
		message = fallback
	}
	return apierror.Application(message, r.Status)
}

// Decode unmarshals the payload into v. A missing or null payload leaves v untouched.
func (r Result) Decode(v any) error {
	if len(r.Payload) == 0 || bytes.Equal(bytes.TrimSpace(r.Payload), []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(r.Payload, v); err != nil {
		return apierror.Decode(err)
	}
	return nil
}

func decodeEnvelope(body []byte, status int) (Result, error) {
	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{}, apierror.Decode(err)
	}

	if env.Code == model.CodeFailure {
		return Failure(env.Msg, status), nil
	}

	return Success(env.Data, env.Msg, status), nil
}

// envelopeMessage extracts msg from an error body when it is an envelope.
func envelopeMessage(body []byte) string {
	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Msg
}
