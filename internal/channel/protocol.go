// Package channel is the request/response boundary between the client and
// the worker that holds the engine. Requests are routed by topic; every
// request gets exactly one response carrying a success or failure status.
package channel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ngrev/internal/errors"
)

// Status is the outcome of a request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Request is one message sent to the worker.
type Request struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers the request with the same ID.
type Response struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Status  Status          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the failure body of a response.
type Error struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewRequest builds a request with a fresh id.
func NewRequest(topic string, payload interface{}) (*Request, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return &Request{ID: uuid.New().String(), Topic: topic, Payload: raw}, nil
}

// Success builds a success response to req.
func Success(req *Request, payload interface{}) *Response {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Failure(req, errors.New(errors.InternalError, "encoding response", err))
	}
	return &Response{ID: req.ID, Topic: req.Topic, Status: StatusSuccess, Payload: raw}
}

// Failure builds a failure response to req. The code comes from err; the
// message keeps the full error text, causes included.
func Failure(req *Request, err error) *Response {
	code := errors.CodeOf(err)
	msg := strings.TrimPrefix(err.Error(), "["+string(code)+"] ")
	return &Response{
		ID:     req.ID,
		Topic:  req.Topic,
		Status: StatusFailure,
		Error:  &Error{Code: code, Message: msg},
	}
}

// Err returns the response's failure as an error, or nil on success.
func (r *Response) Err() error {
	if r.Status == StatusSuccess {
		return nil
	}
	if r.Error == nil {
		return errors.New(errors.InternalError, "failure response without error", nil)
	}
	return errors.New(r.Error.Code, r.Error.Message, nil)
}

// Decode unmarshals the payload of a success response into v, which may be
// nil to discard it. Failure responses return their error.
func (r *Response) Decode(v interface{}) error {
	if err := r.Err(); err != nil {
		return err
	}
	if v == nil || len(r.Payload) == 0 || string(r.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(r.Payload, v)
}

// Decode unmarshals the request payload into v. An empty payload leaves v
// untouched.
func (r *Request) Decode(v interface{}) error {
	if len(r.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return errors.New(errors.InvalidRequest, "malformed payload for "+r.Topic, err)
	}
	return nil
}

func marshalPayload(payload interface{}) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(p)
	}
}
