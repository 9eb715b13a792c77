package models

import "time"

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message        string `json:"message"`
	Mode           Mode   `json:"mode"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

// ChatResponse is the answer of POST /api/chat
type ChatResponse struct {
	ConversationID int64            `json:"conversation_id"`
	Answer         string           `json:"answer"`
	Messages       []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a server-side stored message echoed back by the chat endpoint
type HistoryMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Mode           string    `json:"mode,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HealthResponse is the answer of GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	LLMStatus string `json:"llm_status,omitempty"`
}

// OK reports whether both the API and its model backend are up
func (h HealthResponse) OK() bool {
	return h.Status == "ok" && (h.LLMStatus == "" || h.LLMStatus == "ok")
}
