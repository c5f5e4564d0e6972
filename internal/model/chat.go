package model

import "time"

// DefaultUserID is used when a request does not identify the user
const DefaultUserID = "default"

// ChatRequest represents the chat API request
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id" binding:"omitempty,max=128"`
}

// ChatResponse represents the chat API response
type ChatResponse struct {
	TurnID     string               `json:"turn_id,omitempty"`
	Response   string               `json:"response"`
	Intent     *string              `json:"intent"`
	Confidence float64              `json:"confidence"`
	Entities   *EntitySet           `json:"entities"`
	Context    *ConversationContext `json:"context"`
	CanSearch  bool                 `json:"can_search"`
	Success    bool                 `json:"success"`
	Degraded   bool                 `json:"degraded,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// ExtractRequest represents the extraction-only API request
type ExtractRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

// ExtractResponse represents the extraction-only API response
type ExtractResponse struct {
	Entities EntitySet `json:"entities"`
	Empty    bool      `json:"empty"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status           string `json:"status"`
	Model            string `json:"model"`
	ModelStatus      string `json:"model_status"`
	EmbeddingsStatus string `json:"embeddings_status"`
	ActiveContexts   int    `json:"active_contexts"`
	DatabaseStatus   string `json:"database_status,omitempty"`
	Version          string `json:"version,omitempty"`
}

// TurnRecord is one processed chat turn, kept for analytics
type TurnRecord struct {
	TurnID         string    `json:"turn_id" db:"turn_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Message        string    `json:"message" db:"message"`
	Intent         *string   `json:"intent" db:"intent"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Entities       EntitySet `json:"entities" db:"entities"`
	CanSearch      bool      `json:"can_search" db:"can_search"`
	Degraded       bool      `json:"degraded" db:"degraded"`
	ResponseTimeMs int       `json:"response_time_ms" db:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
