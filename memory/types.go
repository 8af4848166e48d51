package memory

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single conversation entry within a session.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Tokens    int       `json:"tokens"`
}

// NewMessage creates a message with a fresh id and an estimated token count.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Tokens:    EstimateTokens(content),
	}
}

// Stats describes one session's memory footprint.
type Stats struct {
	MessageCount     int       `json:"message_count"`
	TotalTokens      int       `json:"total_tokens"`
	MemorySizeBytes  int       `json:"memory_size_bytes"`
	FirstMessageTime time.Time `json:"first_message_time,omitzero"`
	LastMessageTime  time.Time `json:"last_message_time,omitzero"`
}

// SessionSummary is one row of the overall memory summary.
type SessionSummary struct {
	SessionID       string `json:"session_id"`
	MessageCount    int    `json:"message_count"`
	MemorySizeBytes int    `json:"memory_size_bytes"`
}

// Summary aggregates memory usage across all sessions.
type Summary struct {
	TotalSessions             int              `json:"total_sessions"`
	TotalMessages             int              `json:"total_messages"`
	TotalMemoryBytes          int              `json:"total_memory_bytes"`
	AverageMessagesPerSession float64          `json:"average_messages_per_session"`
	Sessions                  []SessionSummary `json:"sessions"`
}

// EstimateTokens estimates token count for a string using a simple heuristic.
// Assumes ~4 characters per token (common for English text).
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return len(s) / 4
}
