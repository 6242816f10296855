package transport

import (
	"encoding/json"
	"time"

	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/usecase/session"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// SessionResponse is the UI-facing view of the session state.
type SessionResponse struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	Error           string       `json:"error,omitempty"`
	SessionWarning  bool         `json:"session_warning"`
	LastActivity    *time.Time   `json:"last_activity,omitempty"`
}

// NewSessionResponse converts a session snapshot.
func NewSessionResponse(snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
		IsLoading:       snap.IsLoading,
		Error:           snap.ErrMessage,
		SessionWarning:  snap.SessionWarning,
	}
	if !snap.LastActivity.IsZero() {
		t := snap.LastActivity
		resp.LastActivity = &t
	}
	return resp
}
