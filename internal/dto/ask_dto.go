package dto

import (
	"time"

	"github.com/google/uuid"
)

type AskRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	SessionId string `json:"session_id,omitempty"`
}

type AskResponse struct {
	SessionId  uuid.UUID `json:"session_id"`
	Response   string    `json:"response"`
	Handler    string    `json:"handler"`
	Decision   string    `json:"decision,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

type SessionSummary struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type TurnView struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Handler   string    `json:"handler,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
